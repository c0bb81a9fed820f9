package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

// ErrUnsupportedValue is returned when an argument cannot be represented as
// a VM value.
var ErrUnsupportedValue = errors.New("unsupported value")

func checkCallArgs(m *bytecode.Method, argc int) error {
	paramsCount := m.ParameterCount()
	if argc == paramsCount {
		return nil
	}
	msg := fmt.Sprintf("args error: method %q", m.FullName())
	switch paramsCount {
	case 0:
		msg = fmt.Sprintf("%s takes 0 arguments (%d given)", msg, argc)
	case 1:
		msg = fmt.Sprintf("%s takes 1 argument (%d given)", msg, argc)
	default:
		msg = fmt.Sprintf("%s takes %d arguments (%d given)", msg, paramsCount, argc)
	}
	return errors.New(msg)
}

// normalizeArgs converts Go values into VM values. Integers become int32.
func normalizeArgs(args []any) ([]any, error) {
	values := make([]any, len(args))
	for i, arg := range args {
		v, err := normalize(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string, int32, *Exception:
		return v, nil
	case int:
		return narrow(int64(v))
	case int8:
		return int32(v), nil
	case int16:
		return int32(v), nil
	case int64:
		return narrow(v)
	case uint8:
		return int32(v), nil
	case uint16:
		return int32(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func narrow(v int64) (any, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d overflows int32", ErrUnsupportedValue, v)
	}
	return int32(v), nil
}
