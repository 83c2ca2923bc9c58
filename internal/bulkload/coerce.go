package bulkload

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vvka-141/neonsql/internal/scalar"
)

// Param is one bound parameter of an INSERT statement.
// Value is a string, int16, int32, int64, float32, float64 or bool.
type Param struct {
	Kind  scalar.Kind
	Value any
}

type coercer func(s string) (any, error)

var errNotLoadable = errors.New("kind is not loadable from text")

var coercers = [...]coercer{
	scalar.Unsupported: notLoadable,
	scalar.Text:        func(s string) (any, error) { return s, nil },
	scalar.Boolean:     func(s string) (any, error) { return parseBool(s) },
	scalar.SmallInt: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	},
	scalar.Integer: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	},
	scalar.BigInt: func(s string) (any, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	scalar.Float4: func(s string) (any, error) {
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	},
	scalar.Float8: func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	},
	scalar.Timestamp: notLoadable,
}

// Compile-time check that coercers covers every Kind.
var _ = [1]struct{}{}[len(coercers)-int(scalar.NumKinds)]

func notLoadable(string) (any, error) { return nil, errNotLoadable }

// Coerce converts one text field into a parameter of kind k.
func Coerce(k scalar.Kind, s string) (Param, error) {
	if k < 0 || k >= scalar.NumKinds {
		return Param{}, errNotLoadable
	}
	v, err := coercers[k](s)
	if err != nil {
		return Param{}, unwrapNumError(err)
	}
	return Param{Kind: k, Value: v}, nil
}

// unwrapNumError drops strconv's restatement of the input, which the
// caller already reports.
func unwrapNumError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

var errInvalidBool = errors.New("invalid input syntax for type boolean")

// parseBool accepts PostgreSQL's boolean input forms: case-insensitive unique
// prefixes of true, false, yes and no, plus on, off, 1 and 0.
func parseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return false, errInvalidBool
	}

	switch v[0] {
	case 't':
		if strings.HasPrefix("true", v) {
			return true, nil
		}
	case 'f':
		if strings.HasPrefix("false", v) {
			return false, nil
		}
	case 'y':
		if strings.HasPrefix("yes", v) {
			return true, nil
		}
	case 'n':
		if strings.HasPrefix("no", v) {
			return false, nil
		}
	case 'o':
		// "o" alone is ambiguous between on and off.
		if len(v) >= 2 {
			if strings.HasPrefix("on", v) {
				return true, nil
			}
			if strings.HasPrefix("off", v) {
				return false, nil
			}
		}
	case '1':
		if v == "1" {
			return true, nil
		}
	case '0':
		if v == "0" {
			return false, nil
		}
	}
	return false, errInvalidBool
}
