// Package form describes the dossier's ten sections and six repeatable
// collections as a field registry, and derives from it the wire decoding,
// the submit-time validation gate and the JSON schemas for payload shape.
package form

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the scalar type of a field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Wire tokens for boolean confirmations. No other spelling is accepted.
const (
	TokenTrue  = "Sim"
	TokenFalse = "Não"
)

// DateLayout is the wire and storage layout of date fields.
const DateLayout = "2006-01-02"

// Field is one scalar entry of a section or collection item.
// Key doubles as the JSON key and the column name.
type Field struct {
	Key   string
	Label string
	Kind  Kind
	// Required fields must be non-empty on submit.
	Required bool
	// RequiredWhen names a boolean field of the same section; when that
	// field is true this one must be non-empty on submit.
	RequiredWhen string
}

// Values holds normalized field values keyed by Field.Key: string for text,
// time.Time for dates, bool for booleans, nil for empty dates and unanswered
// booleans. Absent keys were not sent and must not be written.
type Values map[string]any

// IsEmpty reports whether the value for key counts as unanswered.
func (v Values) IsEmpty(key string) bool {
	switch val := v[key].(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case time.Time:
		return val.IsZero()
	default:
		return false
	}
}

// Bool returns the value of a boolean field; unanswered is false.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Merge copies every key of other into v.
func (v Values) Merge(other Values) {
	for k, val := range other {
		v[k] = val
	}
}

// DecodeValue normalizes one wire value for f. raw is what encoding/json
// produced (string or nil); shape has already been checked by the schema.
func DecodeValue(f Field, raw any) (any, error) {
	if raw == nil {
		if f.Kind == KindText {
			return "", nil
		}
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a string", f.Label)
	}
	switch f.Kind {
	case KindDate:
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD format", f.Label)
		}
		return t, nil
	case KindBool:
		b, answered, err := ParseBoolToken(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Label, err)
		}
		if !answered {
			return nil, nil
		}
		return b, nil
	default:
		return s, nil
	}
}

// ParseBoolToken maps "Sim"/"Não" to true/false. The empty string is a valid
// "not answered yet"; anything else is an error, never coerced.
func ParseBoolToken(s string) (value bool, answered bool, err error) {
	switch s {
	case TokenTrue:
		return true, true, nil
	case TokenFalse:
		return false, true, nil
	case "":
		return false, false, nil
	default:
		return false, false, fmt.Errorf("answer must be %q or %q", TokenTrue, TokenFalse)
	}
}

// EncodeValue renders a normalized value back onto the wire.
func EncodeValue(f Field, val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return TokenTrue
		}
		return TokenFalse
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(DateLayout)
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// FromColumn converts a database value for f into its normalized form.
func FromColumn(f Field, val any) any {
	switch v := val.(type) {
	case nil:
		if f.Kind == KindText {
			return ""
		}
		return nil
	case []byte:
		return string(v)
	case time.Time:
		if f.Kind == KindDate {
			return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		}
		return v
	default:
		return v
	}
}

// ToColumn converts a normalized value into a database argument.
func ToColumn(f Field, val any) any {
	if f.Kind == KindDate {
		if t, ok := val.(time.Time); ok && !t.IsZero() {
			return t.Format(DateLayout)
		}
		return nil
	}
	return val
}
