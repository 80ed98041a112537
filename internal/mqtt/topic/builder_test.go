package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewBuilder("signalk/v1")

	tests := []struct {
		got, want string
	}{
		{b.Delta("self"), "signalk/v1/delta/self"},
		{b.Navigation("self"), "signalk/v1/nav/self"},
		{b.Put("self"), "signalk/v1/put/self"},
		{b.PutAck("boat-7"), "signalk/v1/put/ack/boat-7"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}
