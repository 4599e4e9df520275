package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/attrdata/pkg/schema"
)

func int64Ptr(v int64) *int64 { return &v }

type fixture struct {
	model *schema.Model
	fixed *schema.AttributeGroup
	mixed *schema.AttributeGroup
	codec Codec
}

// newFixture builds a model with two groups:
//
//	fixed: speed(2) count(1) temp(4) stamp(4) signal(8) counts(3x1) = 22 bytes
//	mixed: id(1) name(string) speed(2) points(list of {km, label}) dur(8)
func newFixture(t testing.TB) *fixture {
	t.Helper()

	speed := &schema.IntegerType{
		PID:       "att.speed",
		ByteCount: 2,
		Range:     &schema.Range{Min: 0, Max: 3000, Factor: 0.1, Unit: "km/h"},
		States:    []schema.State{{Name: "Stoerung", Value: -1}},
		Undefined: int64Ptr(-2),
	}
	count := &schema.IntegerType{PID: "att.count", ByteCount: 1}
	temp := &schema.FloatType{PID: "att.temp", Accuracy: schema.FloatSingle, Unit: "°C"}
	name := &schema.StringType{PID: "att.name", MaxLength: 10}
	stamp := &schema.TimeType{PID: "att.stamp", Accuracy: schema.TimeSeconds}
	dur := &schema.TimeType{PID: "att.dur", Relative: true}
	signal := &schema.ReferenceType{PID: "att.signal", Target: "Signal"}
	point := &schema.ListDefinition{PID: "list.point", Attributes: []*schema.Attribute{
		{Name: "km", Type: count},
		{Name: "label", Type: name},
	}}

	m := schema.NewModel("fixture")
	for _, typ := range []schema.AttributeType{speed, count, temp, name, stamp, dur, signal, point} {
		require.NoError(t, m.AddType(typ))
	}
	require.NoError(t, m.AddObject(&schema.Object{ID: 7, PID: "sig.A", Type: "Signal"}))
	require.NoError(t, m.AddObject(&schema.Object{ID: 8, PID: "weiche.1", Type: "Weiche"}))

	fixed, err := m.NewGroup("grp.fixed",
		&schema.Attribute{Name: "speed", Type: speed},
		&schema.Attribute{Name: "count", Type: count},
		&schema.Attribute{Name: "temp", Type: temp},
		&schema.Attribute{Name: "stamp", Type: stamp},
		&schema.Attribute{Name: "signal", Type: signal},
		&schema.Attribute{Name: "counts", Type: count, Array: true, MaxCount: 3},
	)
	require.NoError(t, err)

	mixed, err := m.NewGroup("grp.mixed",
		&schema.Attribute{Name: "id", Type: count},
		&schema.Attribute{Name: "name", Type: name},
		&schema.Attribute{Name: "speed", Type: speed},
		&schema.Attribute{Name: "points", Type: point, Array: true, MaxCount: 10, CountVariable: true},
		&schema.Attribute{Name: "dur", Type: dur},
	)
	require.NoError(t, err)

	c, err := ForVersion(CurrentVersion)
	require.NoError(t, err)
	t.Cleanup(func() { c.Forget(m) })

	return &fixture{model: m, fixed: fixed, mixed: mixed, codec: c}
}

func fixedValue() map[string]any {
	return map[string]any{
		"speed":  "12,5 km/h",
		"count":  3,
		"temp":   21.5,
		"stamp":  int64(1700000000000),
		"signal": "sig.A",
		"counts": []any{1, 2, 3},
	}
}

func mixedValue() map[string]any {
	points := []any{
		map[string]any{"km": 1, "label": "x"},
		map[string]any{"km": 2, "label": "yz"},
	}
	return map[string]any{
		"id":     5,
		"name":   "abc",
		"speed":  100,
		"points": points,
		"dur":    "1t",
	}
}

func (f *fixture) encode(t *testing.T, group *schema.AttributeGroup, value any) []byte {
	t.Helper()
	buf, err := f.codec.Encode(group, value)
	require.NoError(t, err)
	return buf
}

func (f *fixture) record(t *testing.T, group *schema.AttributeGroup, value any) *ModifiableData {
	t.Helper()
	rec, err := f.codec.CreateModifiableData(group, f.encode(t, group, value))
	require.NoError(t, err)
	return rec
}

func item(t *testing.T, d *Data, path ...string) *Data {
	t.Helper()
	for _, name := range path {
		var err error
		d, err = d.Item(name)
		require.NoError(t, err)
	}
	return d
}
