package evented

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// OneOf accepts only values of type T that are members of allowed. Nothing is
// coerced: a value of another type is rejected like a non-member.
func OneOf[T comparable](allowed ...T) Validator {
	set := slices.Clone(allowed)
	return func(v any) (any, error) {
		t, ok := v.(T)
		if !ok || !slices.Contains(set, t) {
			return nil, fmt.Errorf("%v is not one of %v", display(v), set)
		}
		return t, nil
	}
}

// String accepts strings only.
func String() Validator {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a string", display(v))
		}
		return s, nil
	}
}

// Trimmed accepts strings and stores them with surrounding whitespace removed.
func Trimmed() Validator {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a string", display(v))
		}
		return strings.TrimSpace(s), nil
	}
}

// Bool accepts booleans only.
func Bool() Validator {
	return func(v any) (any, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%v is not a boolean", display(v))
		}
		return b, nil
	}
}

// Number accepts any value that parses as a finite number and stores it as float64.
// Numeric strings are parsed; the empty string is not a number.
func Number() Validator {
	return func(v any) (any, error) {
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not a finite number", display(v))
		}
		return f, nil
	}
}

// NonNegative is Number restricted to values >= 0.
func NonNegative() Validator {
	num := Number()
	return func(v any) (any, error) {
		n, err := num(v)
		if err != nil {
			return nil, err
		}
		if n.(float64) < 0 {
			return nil, fmt.Errorf("%v is negative", display(v))
		}
		return n, nil
	}
}

// Nullable lets nil through and hands everything else to inner.
func Nullable(inner Validator) Validator {
	return func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return inner(v)
	}
}

// All runs validators in order, feeding each the previous result.
func All(vs ...Validator) Validator {
	return func(v any) (any, error) {
		var err error
		for _, fn := range vs {
			if v, err = fn(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

var errNotNumber = errors.New("not a number")

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q: %w", string(n), errNotNumber)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", n, errNotNumber)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%v: %w", display(v), errNotNumber)
	}
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
