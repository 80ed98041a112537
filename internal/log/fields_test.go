package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty", nil, nil},
		{"pairs", []any{"a", "x", "b", 1, "c", true}, []string{"a", "b", "c"}},
		{"bare error", []any{boom}, []string{"error"}},
		{"zap field passthrough", []any{zap.String("k", "v"), "n", 2.5}, []string{"k", "n"}},
		{"trailing value", []any{"k", "v", "orphan"}, []string{"k", "arg#2"}},
		{"non-string key", []any{7, "v"}, []string{"badkey#0"}},
		{"duration and time", []any{"d", time.Second, "t", time.Unix(0, 0)}, []string{"d", "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			if len(fields) != len(tt.wantKeys) {
				t.Fatalf("got %d fields, want %d", len(fields), len(tt.wantKeys))
			}
			for i, f := range fields {
				if f.Key != tt.wantKeys[i] {
					t.Errorf("field %d key = %q, want %q", i, f.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestFieldTypes(t *testing.T) {
	if f := field("s", "x"); f.Type != zapcore.StringType {
		t.Errorf("string field type = %v", f.Type)
	}
	if f := field("f", 1.5); f.Type != zapcore.Float64Type {
		t.Errorf("float field type = %v", f.Type)
	}
	if f := field("b", true); f.Type != zapcore.BoolType {
		t.Errorf("bool field type = %v", f.Type)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	opts := NewOptions()
	opts.Level = "loud"
	if _, err := New(opts); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	if errs := opts.Validate(); len(errs) != 0 {
		t.Fatalf("defaults should validate, got %v", errs)
	}
	opts.Format = "xml"
	if errs := opts.Validate(); len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}
