package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// toFields turns loose key/value arguments into zap fields. A bare error
// becomes zap.Error, a zap.Field passes through, a trailing unpaired value
// is kept under "arg#N" and non-string keys are preserved as "badkey#N".
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(args)/2+1)

	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		name, ok := key.(string)
		if !ok {
			fields = append(fields, zap.Any(fmt.Sprintf("badkey#%d", i), map[string]any{"key": key, "value": val}))
			i += 2
			continue
		}
		fields = append(fields, field(name, val))
		i += 2
	}
	return fields
}

func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case string:
		return zap.String(key, v)
	case bool:
		return zap.Bool(key, v)
	case int:
		return zap.Int(key, v)
	case int64:
		return zap.Int64(key, v)
	case uint64:
		return zap.Uint64(key, v)
	case float64:
		return zap.Float64(key, v)
	case float32:
		return zap.Float32(key, v)
	case time.Duration:
		return zap.Duration(key, v)
	case time.Time:
		return zap.Time(key, v)
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	case []string:
		return zap.Strings(key, v)
	default:
		return zap.Any(key, v)
	}
}
