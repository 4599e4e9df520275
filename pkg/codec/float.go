package codec

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// FloatInfo lays out an IEEE-754 value of 4 or 8 bytes.
type FloatInfo struct {
	node
	typ   *schema.FloatType
	width int
}

func (f *FloatInfo) Kind() Kind                            { return KindFloat }
func (f *FloatInfo) Type() *schema.FloatType               { return f.typ }
func (f *FloatInfo) IsNumberAttribute() bool               { return true }
func (f *FloatInfo) Size(buf []byte, off int) (int, error) { return f.width, nil }

// IsNumber reports whether the stored value can be read.
func (f *FloatInfo) IsNumber(buf []byte, off int) bool {
	return f.need(buf, off, f.width) == nil
}

// Value returns the stored value.
func (f *FloatInfo) Value(buf []byte, off int) (float64, error) {
	if err := f.need(buf, off, f.width); err != nil {
		return 0, err
	}
	if f.width == 4 {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf[off:]))), nil
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[off:])), nil
}

func (f *FloatInfo) ValueText(buf []byte, off int) (string, error) {
	v, err := f.Value(buf, off)
	if err != nil {
		return "", err
	}
	text := convert.FormatDouble(f.typ, v)
	if f.typ.Unit != "" {
		text += " " + f.typ.Unit
	}
	return text, nil
}

func (f *FloatInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	v, err := f.Value(buf, off)
	if err != nil {
		return "", err
	}
	return convert.FormatDouble(f.typ, v), nil
}

// SetValue stores v. Single precision rejects magnitudes it cannot hold.
func (f *FloatInfo) SetValue(buf []byte, off int, v float64) error {
	if err := f.need(buf, off, f.width); err != nil {
		return err
	}
	if f.width == 4 {
		if math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
			return dataerr.OutOfRange(f.typ.PID, strconv.FormatFloat(v, 'g', -1, 64), "magnitude exceeds single precision")
		}
		binary.BigEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
		return nil
	}
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(v))
	return nil
}

// SetText parses text and stores the result.
func (f *FloatInfo) SetText(buf []byte, off int, text string) error {
	v, err := convert.TextToDouble(f.typ, text)
	if err != nil {
		return err
	}
	return f.SetValue(buf, off, v)
}
