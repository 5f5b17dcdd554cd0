package captcha

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAnswer normalises a client answer to an int. Form posts deliver
// strings, JSON bodies deliver float64 or json.Number. Anything that is not
// a whole number in int range is rejected with ErrBadAnswer.
func ParseAnswer(v any) (int, error) {
	switch v := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrBadAnswer, err)
		}
		return n, nil
	case json.Number:
		return ParseAnswer(v.String())
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0, fmt.Errorf("%w: %d out of range", ErrBadAnswer, v)
		}
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint:
		if uint64(v) > math.MaxInt {
			return 0, fmt.Errorf("%w: %d out of range", ErrBadAnswer, v)
		}
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("%w: %d out of range", ErrBadAnswer, v)
		}
		return int(v), nil
	case float64:
		return floatAnswer(v)
	case float32:
		return floatAnswer(float64(v))
	case nil:
		return 0, fmt.Errorf("%w: no answer", ErrBadAnswer)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrBadAnswer, v)
	}
}

func floatAnswer(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not a whole number", ErrBadAnswer, f)
	}
	return int(f), nil
}
