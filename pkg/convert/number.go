package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

var (
	locationDistance = regexp.MustCompile(`^(\d{1,5})\s*-\s*(\d{1,3})$`)
	decimalNumber    = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	plainInteger     = regexp.MustCompile(`^[+-]?\d+$`)
)

// unscaleContext divides exactly and rounds half away from zero.
var unscaleContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(60)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// TextToScaledNumber returns the unscaled value text denotes for t.
//
// Text is tried as a state name (exact match first, then the longest state
// name the text starts with), as the undefined text, in location-distance
// form and finally as a decimal number in the scaled domain.
func TextToScaledNumber(t *schema.IntegerType, text string) (int64, error) {
	s := strings.TrimSpace(text)
	if st, ok := matchState(t.States, s); ok {
		return st.Value, nil
	}
	if t.Undefined != nil && strings.EqualFold(s, UndefinedText) {
		return *t.Undefined, nil
	}

	if m := locationDistance.FindStringSubmatch(s); m != nil {
		location, _ := strconv.ParseInt(m[1], 10, 64)
		distance, _ := strconv.ParseInt(m[2], 10, 64)
		if location > 65535 {
			return 0, dataerr.OutOfRange(t.PID, text, "location %d above 65535", location)
		}
		if distance > 255 {
			return 0, dataerr.OutOfRange(t.PID, text, "distance %d above 255", distance)
		}
		return checkUnscaled(t, text, location*256+distance)
	}

	n, err := normalizeDecimal(stripUnit(s, t.Unit()))
	if err != nil {
		return 0, dataerr.InvalidFormat(t.PID, text, "not a state or number")
	}
	v, ok := unscaleDecimal(n, t.Factor())
	if !ok {
		return 0, dataerr.OutOfRange(t.PID, text, "value not representable")
	}
	return checkUnscaled(t, text, v)
}

func checkUnscaled(t *schema.IntegerType, text string, v int64) (int64, error) {
	if !t.InRange(v) {
		if t.Range != nil {
			return 0, dataerr.OutOfRange(t.PID, text, "unscaled %d outside [%d, %d]", v, t.Range.Min, t.Range.Max)
		}
		return 0, dataerr.OutOfRange(t.PID, text, "unscaled %d exceeds %d bytes", v, t.ByteCount)
	}
	return v, nil
}

// matchState prefers an exact name match. Otherwise the longest state name
// that prefixes s wins; on equal length the first declared state wins.
func matchState(states []schema.State, s string) (schema.State, bool) {
	for _, st := range states {
		if st.Name == s {
			return st, true
		}
	}
	var best schema.State
	found := false
	for _, st := range states {
		if st.Name == "" || !strings.HasPrefix(s, st.Name) {
			continue
		}
		if !found || len(st.Name) > len(best.Name) {
			best, found = st, true
		}
	}
	return best, found
}

// Unscale converts a scaled value into the stored integer. Factors below 1
// multiply by the reciprocal so that e.g. 0.95 with factor 0.1 yields 10.
func Unscale(scaled, factor float64) (int64, bool) {
	var x float64
	if factor < 1 {
		x = scaled * (1 / factor)
	} else {
		x = scaled / factor
	}
	r := math.Round(x)
	if math.IsNaN(r) || r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, false
	}
	return int64(r), true
}

// unscaleDecimal is Unscale on decimal text, computed without going through
// float64 so that every 8-byte value survives.
func unscaleDecimal(s string, factor float64) (int64, bool) {
	if factor == 1 && plainInteger.MatchString(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		return v, err == nil
	}
	x, _, err := unscaleContext.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if factor != 1 {
		f, _, err := apd.NewFromString(strconv.FormatFloat(factor, 'f', -1, 64))
		if err != nil {
			return 0, false
		}
		if _, err := unscaleContext.Quo(x, x, f); err != nil {
			return 0, false
		}
	}
	if _, err := unscaleContext.RoundToIntegralValue(x, x); err != nil {
		return 0, false
	}
	v, err := x.Int64()
	return v, err == nil
}

// Scale converts a stored integer into its scaled value.
func Scale(unscaled int64, factor float64) float64 {
	if factor < 1 {
		return float64(unscaled) / (1 / factor)
	}
	return float64(unscaled) * factor
}

// TextToDouble parses a floating point value for t.
func TextToDouble(t *schema.FloatType, text string) (float64, error) {
	f, err := parseDecimal(stripUnit(strings.TrimSpace(text), t.Unit))
	if err != nil {
		return 0, dataerr.InvalidFormat(t.PID, text, "not a number")
	}
	// Texts of values near MaxFloat32 may exceed it slightly and still round
	// to it.
	if t.Accuracy == schema.FloatSingle && math.IsInf(float64(float32(f)), 0) {
		return 0, dataerr.OutOfRange(t.PID, text, "magnitude exceeds single precision")
	}
	return f, nil
}

func parseDecimal(s string) (float64, error) {
	n, err := normalizeDecimal(s)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// normalizeDecimal accepts comma or dot as fraction separator and returns
// the number with a dot. When both occur the last one separates the
// fraction and the other groups digits.
func normalizeDecimal(s string) (string, error) {
	comma := strings.LastIndexByte(s, ',')
	dot := strings.LastIndexByte(s, '.')
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	if !decimalNumber.MatchString(s) {
		return "", strconv.ErrSyntax
	}
	return s, nil
}

func stripUnit(s, unit string) string {
	if unit == "" {
		return s
	}
	if trimmed, ok := strings.CutSuffix(s, unit); ok {
		return strings.TrimSpace(trimmed)
	}
	return s
}

// FormatScaled renders unscaled*factor exactly, with as many fraction
// digits as the factor has.
func FormatScaled(t *schema.IntegerType, unscaled int64) string {
	factor := t.Factor()
	if factor == 1 {
		return strconv.FormatInt(unscaled, 10)
	}
	d, _, err := apd.NewFromString(strconv.FormatFloat(factor, 'f', -1, 64))
	if err != nil {
		return formatFloat(Scale(unscaled, factor), 64)
	}
	places := int32(0)
	if d.Exponent < 0 {
		places = -d.Exponent
	}
	ctx := apd.BaseContext.WithPrecision(40)
	var r apd.Decimal
	if _, err := ctx.Mul(&r, apd.New(unscaled, 0), d); err != nil {
		return formatFloat(Scale(unscaled, factor), 64)
	}
	if _, err := ctx.Quantize(&r, &r, -places); err != nil {
		return formatFloat(Scale(unscaled, factor), 64)
	}
	return strings.Replace(r.Text('f'), ".", ",", 1)
}

// FormatDouble renders a floating point value with the shortest text that
// parses back to the same value at the type's precision.
func FormatDouble(t *schema.FloatType, v float64) string {
	if t.Accuracy == schema.FloatSingle {
		return formatFloat(v, 32)
	}
	return formatFloat(v, 64)
}

func formatFloat(v float64, bits int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, bits), ".", ",", 1)
}
