package codec

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// encode builds a record from a value tree shaped like the result of
// Data.Value. Strings are parsed with the text conversions of the
// attribute type, numbers are scaled values, milliseconds or ids. A nil
// or missing member is written as the type default.
func encode(root Info, value any) ([]byte, error) {
	return appendValue(nil, root, value)
}

func appendValue(buf []byte, info Info, v any) ([]byte, error) {
	switch info := info.(type) {
	case *CompositeInfo:
		return appendComposite(buf, info, v)
	case *ListInfo:
		return appendList(buf, info, v)
	case *StringInfo:
		return appendString(buf, info, v)
	}

	// Everything else has a fixed width: reserve it, then write in place.
	off := len(buf)
	buf = append(buf, make([]byte, info.FixedSize())...)
	if v == nil {
		return buf, writeDefault(buf, off, info)
	}
	return buf, setValue(buf, off, info, v)
}

func appendComposite(buf []byte, c *CompositeInfo, v any) ([]byte, error) {
	var members map[string]any
	switch v := v.(type) {
	case nil:
	case map[string]any:
		members = v
		for name := range v {
			if _, ok := c.byName[name]; !ok {
				return nil, dataerr.UnknownItem(c.path, name)
			}
		}
	default:
		return nil, dataerr.TypeMismatch(c.path, "object")
	}
	var err error
	for _, item := range c.items {
		if buf, err = appendValue(buf, item, members[item.Name()]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendList(buf []byte, l *ListInfo, v any) ([]byte, error) {
	var elems []any
	switch v := v.(type) {
	case nil:
	case []any:
		elems = v
	default:
		return nil, dataerr.TypeMismatch(l.path, "array")
	}

	n := len(elems)
	if l.variable {
		limit := int64(l.maxCount)
		if limit <= 0 {
			limit = math.MaxUint32
		}
		if int64(n) > limit {
			return nil, dataerr.OutOfRange(l.path, strconv.Itoa(n), "list holds at most %d elements", limit)
		}
		off := len(buf)
		buf = append(buf, make([]byte, l.prefix)...)
		if err := l.writeInt(buf, off, l.prefix, int64(n)); err != nil {
			return nil, err
		}
	} else if elems != nil && n != l.maxCount {
		return nil, dataerr.OutOfRange(l.path, strconv.Itoa(n), "array holds exactly %d elements", l.maxCount)
	} else {
		n = l.maxCount
	}

	var err error
	for i := 0; i < n; i++ {
		var e any
		if elems != nil {
			e = elems[i]
		}
		if buf, err = appendValue(buf, l.elem, e); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendString(buf []byte, s *StringInfo, v any) ([]byte, error) {
	var text string
	switch v := v.(type) {
	case nil:
	case string:
		text = v
	default:
		return nil, dataerr.TypeMismatch(s.path, "string")
	}
	if err := convert.CheckString(s.typ, text); err != nil {
		return nil, err
	}
	return s.appendText(buf, text), nil
}

// writeDefault stores the default of a fixed-width leaf without checking
// it against the type. Record validation reports defaults the type does
// not allow.
func writeDefault(buf []byte, off int, info Info) error {
	if i, ok := info.(*IntegerInfo); ok {
		return i.writeInt(buf, off, i.width, i.defaultValue())
	}
	// Zero bytes encode 0 for floats, times and references.
	return nil
}

func setValue(buf []byte, off int, info Info, v any) error {
	if text, ok := v.(string); ok {
		m := info.CreateModifiableData(buf)
		m.off = off
		return m.SetText(text)
	}

	if r, ok := info.(*ReferenceInfo); ok {
		if obj, ok := v.(*schema.Object); ok {
			return r.SetObject(buf, off, obj)
		}
	}

	i, f, isInt, ok := number(v)
	if !ok {
		return dataerr.TypeMismatch(info.Path(), "number or text")
	}

	switch info := info.(type) {
	case *IntegerInfo:
		if isInt && info.typ.Factor() == 1 {
			return info.SetUnscaled(buf, off, i)
		}
		return info.SetScaled(buf, off, f)
	case *FloatInfo:
		return info.SetValue(buf, off, f)
	case *TimeInfo:
		if !isInt {
			return dataerr.InvalidFormat(info.typ.PID, strconv.FormatFloat(f, 'g', -1, 64), "milliseconds must be whole")
		}
		return info.SetMillis(buf, off, i)
	case *ReferenceInfo:
		if !isInt {
			return dataerr.InvalidFormat(info.typ.PID, strconv.FormatFloat(f, 'g', -1, 64), "object id must be whole")
		}
		return info.SetID(buf, off, i)
	}
	return dataerr.TypeMismatch(info.Path(), "simple value")
}

// number reads the numeric kinds a decoded value tree can hold. Whole
// floats count as integers so that JSON input works.
func number(v any) (i int64, f float64, isInt, ok bool) {
	switch v := v.(type) {
	case int:
		return int64(v), float64(v), true, true
	case int8:
		return int64(v), float64(v), true, true
	case int16:
		return int64(v), float64(v), true, true
	case int32:
		return int64(v), float64(v), true, true
	case int64:
		return v, float64(v), true, true
	case uint8:
		return int64(v), float64(v), true, true
	case uint16:
		return int64(v), float64(v), true, true
	case uint32:
		return int64(v), float64(v), true, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, float64(v), false, true
		}
		return int64(v), float64(v), true, true
	case float32:
		return number(float64(v))
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), v, true, true
		}
		return 0, v, false, true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, float64(n), true, true
		}
		if x, err := v.Float64(); err == nil {
			return number(x)
		}
	}
	return 0, 0, false, false
}
