package codec

import (
	"math"
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// TimeInfo lays out an absolute or relative time. Second accuracy is
// stored as 4 bytes of seconds, millisecond accuracy as 8 bytes of
// milliseconds.
type TimeInfo struct {
	node
	typ   *schema.TimeType
	width int
}

func (t *TimeInfo) Kind() Kind                            { return KindTime }
func (t *TimeInfo) Type() *schema.TimeType                { return t.typ }
func (t *TimeInfo) IsTimeAttribute() bool                 { return true }
func (t *TimeInfo) Size(buf []byte, off int) (int, error) { return t.width, nil }

// IsRelative reports whether the value is a duration.
func (t *TimeInfo) IsRelative() bool { return t.typ.Relative }

// Millis returns the stored time in milliseconds.
func (t *TimeInfo) Millis(buf []byte, off int) (int64, error) {
	v, err := t.readInt(buf, off, t.width)
	if err != nil {
		return 0, err
	}
	if t.typ.Accuracy == schema.TimeSeconds {
		return v * 1000, nil
	}
	return v, nil
}

// Seconds returns the stored time in seconds, truncating milliseconds.
func (t *TimeInfo) Seconds(buf []byte, off int) (int64, error) {
	v, err := t.readInt(buf, off, t.width)
	if err != nil {
		return 0, err
	}
	if t.typ.Accuracy == schema.TimeSeconds {
		return v, nil
	}
	return v / 1000, nil
}

func (t *TimeInfo) ValueText(buf []byte, off int) (string, error) {
	ms, err := t.Millis(buf, off)
	if err != nil {
		return "", err
	}
	return convert.FormatTimestamp(t.typ, ms), nil
}

// UnscaledValueText renders the stored number as is.
func (t *TimeInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	v, err := t.readInt(buf, off, t.width)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

// SetMillis stores ms. Second accuracy rejects a millisecond remainder.
func (t *TimeInfo) SetMillis(buf []byte, off int, ms int64) error {
	v := ms
	if t.typ.Accuracy == schema.TimeSeconds {
		if ms%1000 != 0 {
			return dataerr.OutOfRange(t.typ.PID, strconv.FormatInt(ms, 10), "milliseconds not storable at second accuracy")
		}
		v = ms / 1000
		if v > math.MaxInt32 || v < math.MinInt32 {
			return dataerr.OutOfRange(t.typ.PID, strconv.FormatInt(ms, 10), "time exceeds 4 bytes of seconds")
		}
	}
	return t.writeInt(buf, off, t.width, v)
}

// SetSeconds stores s seconds.
func (t *TimeInfo) SetSeconds(buf []byte, off int, s int64) error {
	if s > math.MaxInt64/1000 || s < math.MinInt64/1000 {
		return dataerr.OutOfRange(t.typ.PID, strconv.FormatInt(s, 10), "seconds exceed range")
	}
	return t.SetMillis(buf, off, s*1000)
}

// SetText parses text and stores the result.
func (t *TimeInfo) SetText(buf []byte, off int, text string) error {
	ms, err := convert.TextToTimestamp(t.typ, text)
	if err != nil {
		return err
	}
	return t.SetMillis(buf, off, ms)
}
