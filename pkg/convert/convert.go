// Package convert converts attribute values between text and their typed
// representation.
//
// The parsers here are the only place where user text is interpreted: the
// codec uses them for every text write, and CheckValue runs exactly the same
// code without producing a value. The Format functions produce text that
// the parsers accept again.
package convert

import (
	"time"
	"unicode/utf8"

	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// UndefinedText is the text of an undefined value.
const UndefinedText = "undefiniert"

// MaxStringBytes is the largest encodable text in bytes.
const MaxStringBytes = 1<<16 - 1

// Location is the time zone absolute times are parsed and rendered in.
var Location = time.Local

// HasUndefinedValue reports whether values of t can be undefined. Text,
// time and reference values always can; integers only when an undefined
// value is configured.
func HasUndefinedValue(t schema.AttributeType) bool {
	switch t := t.(type) {
	case *schema.StringType, *schema.TimeType, *schema.ReferenceType:
		return true
	case *schema.IntegerType:
		return t.Undefined != nil
	default:
		return false
	}
}

// CheckValue validates text for t using the same rules as the encode path.
// A nil lookup restricts reference checks to syntax.
func CheckValue(t schema.AttributeType, text string, lookup schema.ObjectLookup) error {
	switch t := t.(type) {
	case *schema.IntegerType:
		_, err := TextToScaledNumber(t, text)
		return err
	case *schema.FloatType:
		_, err := TextToDouble(t, text)
		return err
	case *schema.StringType:
		return CheckString(t, text)
	case *schema.TimeType:
		_, err := TextToTimestamp(t, text)
		return err
	case *schema.ReferenceType:
		if lookup == nil {
			_, err := parseReference(t, text)
			return err
		}
		_, err := TextToReference(t, text, lookup)
		return err
	default:
		return dataerr.InvalidFormat(t.TypePID(), text, "type has no text representation")
	}
}

// CheckString validates the length of text for t.
func CheckString(t *schema.StringType, text string) error {
	if !utf8.ValidString(text) {
		return dataerr.InvalidFormat(t.PID, text, "text is not valid UTF-8")
	}
	if len(text) > MaxStringBytes {
		return dataerr.OutOfRange(t.PID, text, "text longer than %d bytes", MaxStringBytes)
	}
	if t.MaxLength > 0 && utf8.RuneCountInString(text) > t.MaxLength {
		return dataerr.OutOfRange(t.PID, text, "text longer than %d characters", t.MaxLength)
	}
	return nil
}
