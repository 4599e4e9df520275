package codec

import (
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// ValueClass tells how an encoded integer is interpreted.
type ValueClass int

const (
	ClassNumber ValueClass = iota
	ClassState
	ClassUndefined
)

// IntegerInfo lays out a scaled integer with optional states.
type IntegerInfo struct {
	node
	typ   *schema.IntegerType
	width int
}

func (i *IntegerInfo) Kind() Kind                            { return KindInteger }
func (i *IntegerInfo) Type() *schema.IntegerType             { return i.typ }
func (i *IntegerInfo) IsNumberAttribute() bool               { return true }
func (i *IntegerInfo) IsScalableNumberAttribute() bool       { return i.typ.Factor() != 1 }
func (i *IntegerInfo) Size(buf []byte, off int) (int, error) { return i.width, nil }

// Width is the encoded width in bytes.
func (i *IntegerInfo) Width() int { return i.width }

// Unit is the unit of the scaled value.
func (i *IntegerInfo) Unit() string { return i.typ.Unit() }

// UnscaledValue returns the stored integer.
func (i *IntegerInfo) UnscaledValue(buf []byte, off int) (int64, error) {
	return i.readInt(buf, off, i.width)
}

// ScaledValue returns the stored integer multiplied by the factor.
func (i *IntegerInfo) ScaledValue(buf []byte, off int) (float64, error) {
	v, err := i.UnscaledValue(buf, off)
	if err != nil {
		return 0, err
	}
	return convert.Scale(v, i.typ.Factor()), nil
}

// State returns the state the stored value matches, if any.
func (i *IntegerInfo) State(buf []byte, off int) (schema.State, bool, error) {
	v, err := i.UnscaledValue(buf, off)
	if err != nil {
		return schema.State{}, false, err
	}
	st, ok := i.typ.StateByValue(v)
	return st, ok, nil
}

// IsState reports whether the stored value is a declared state.
func (i *IntegerInfo) IsState(buf []byte, off int) bool {
	_, ok, err := i.State(buf, off)
	return err == nil && ok
}

// IsNumber reports whether the stored value is a number inside the range
// that is not also a state. IsNumber and IsState are both false for a value
// outside the range that matches no state; Classify reports that case.
func (i *IntegerInfo) IsNumber(buf []byte, off int) bool {
	v, err := i.UnscaledValue(buf, off)
	if err != nil {
		return false
	}
	if _, ok := i.typ.StateByValue(v); ok {
		return false
	}
	return i.typ.InRange(v)
}

// IsUndefined reports whether the stored value is the undefined value.
func (i *IntegerInfo) IsUndefined(buf []byte, off int) bool {
	v, err := i.UnscaledValue(buf, off)
	return err == nil && i.typ.IsUndefined(v)
}

// Classify interprets the stored value. A value that is neither a state,
// the undefined value nor inside the range is a corrupt encoding.
func (i *IntegerInfo) Classify(buf []byte, off int) (ValueClass, error) {
	v, err := i.UnscaledValue(buf, off)
	if err != nil {
		return 0, err
	}
	switch {
	case i.isStateValue(v):
		return ClassState, nil
	case i.typ.IsUndefined(v):
		return ClassUndefined, nil
	case i.typ.InRange(v):
		return ClassNumber, nil
	default:
		return 0, dataerr.Corrupt(i.path, off, "value %d is neither a state nor in range", v)
	}
}

func (i *IntegerInfo) isStateValue(v int64) bool {
	_, ok := i.typ.StateByValue(v)
	return ok
}

// ValueText renders the state name, the undefined text or the scaled value
// with its unit.
func (i *IntegerInfo) ValueText(buf []byte, off int) (string, error) {
	class, err := i.Classify(buf, off)
	if err != nil {
		return "", err
	}
	v, _ := i.UnscaledValue(buf, off)
	switch class {
	case ClassState:
		st, _ := i.typ.StateByValue(v)
		return st.Name, nil
	case ClassUndefined:
		return convert.UndefinedText, nil
	}
	text := convert.FormatScaled(i.typ, v)
	if unit := i.typ.Unit(); unit != "" {
		text += " " + unit
	}
	return text, nil
}

// UnscaledValueText renders the state name or the raw stored integer.
func (i *IntegerInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	v, err := i.UnscaledValue(buf, off)
	if err != nil {
		return "", err
	}
	if st, ok := i.typ.StateByValue(v); ok {
		return st.Name, nil
	}
	return strconv.FormatInt(v, 10), nil
}

// SetUnscaled stores v, which must be a state, the undefined value or
// inside the range.
func (i *IntegerInfo) SetUnscaled(buf []byte, off int, v int64) error {
	if !i.isStateValue(v) && !i.typ.IsUndefined(v) && !i.typ.InRange(v) {
		return dataerr.OutOfRange(i.typ.PID, strconv.FormatInt(v, 10), "unscaled value outside range")
	}
	if v < schema.MinForWidth(i.width) || v > schema.MaxForWidth(i.width) {
		return dataerr.OutOfRange(i.typ.PID, strconv.FormatInt(v, 10), "value exceeds %d bytes", i.width)
	}
	return i.writeInt(buf, off, i.width, v)
}

// SetScaled stores the unscaled equivalent of a scaled value.
func (i *IntegerInfo) SetScaled(buf []byte, off int, f float64) error {
	v, ok := convert.Unscale(f, i.typ.Factor())
	if !ok {
		return dataerr.OutOfRange(i.typ.PID, strconv.FormatFloat(f, 'g', -1, 64), "value not representable")
	}
	return i.SetUnscaled(buf, off, v)
}

// SetText parses text and stores the result.
func (i *IntegerInfo) SetText(buf []byte, off int, text string) error {
	v, err := convert.TextToScaledNumber(i.typ, text)
	if err != nil {
		return err
	}
	return i.SetUnscaled(buf, off, v)
}

// defaultValue is written for members missing from an encoded value.
func (i *IntegerInfo) defaultValue() int64 {
	if i.typ.Undefined != nil {
		return *i.typ.Undefined
	}
	return 0
}
