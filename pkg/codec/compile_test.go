package codec

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

func TestCompile_FixedGroup(t *testing.T) {
	f := newFixture(t)

	root, err := Compile(f.fixed)
	require.NoError(t, err)

	assert.Equal(t, KindComposite, root.Kind())
	assert.True(t, root.IsSizeFixed())
	assert.Equal(t, 22, root.FixedSize())
	assert.Equal(t, 6, root.ItemCount())

	offsets := map[string]int{"speed": 0, "count": 2, "temp": 3, "stamp": 7, "signal": 11, "counts": 19}
	for name, want := range offsets {
		info, ok := root.Item(name)
		require.True(t, ok, name)
		rel, known := info.RelativeOffset()
		assert.True(t, known, name)
		assert.Equal(t, want, rel, name)
	}

	counts, _ := root.Item("counts")
	assert.True(t, counts.IsList())
	assert.Equal(t, 3, counts.FixedSize())
	assert.Equal(t, "grp.fixed.counts", counts.Path())
	assert.Equal(t, "grp.fixed.counts[]", counts.(*ListInfo).Element().Path())
}

func TestCompile_VariableGroup(t *testing.T) {
	f := newFixture(t)

	root, err := Compile(f.mixed)
	require.NoError(t, err)
	assert.False(t, root.IsSizeFixed())
	assert.Equal(t, -1, root.FixedSize())

	tests := []struct {
		name  string
		rel   int
		known bool
		fixed bool
	}{
		{"id", 0, true, true},
		{"name", 1, true, false},
		{"speed", -1, false, true},
		{"points", -1, false, false},
		{"dur", -1, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, ok := root.Item(tc.name)
			require.True(t, ok)
			rel, known := info.RelativeOffset()
			assert.Equal(t, tc.known, known)
			if known {
				assert.Equal(t, tc.rel, rel)
			}
			assert.Equal(t, tc.fixed, info.IsSizeFixed())
		})
	}

	points, _ := root.Item("points")
	list := points.(*ListInfo)
	assert.True(t, list.IsCountVariable())
	assert.True(t, list.IsCountLimited())
	assert.Equal(t, 1, list.PrefixWidth())
	assert.Equal(t, KindComposite, list.Element().Kind())
}

func TestCompile_Deterministic(t *testing.T) {
	f := newFixture(t)
	buf := f.encode(t, f.mixed, mixedValue())

	a, err := Compile(f.mixed)
	require.NoError(t, err)
	b, err := Compile(f.mixed)
	require.NoError(t, err)
	require.NotSame(t, a, b)

	for i := 0; i < a.ItemCount(); i++ {
		ia, _ := a.ItemAt(i)
		ib, _ := b.ItemAt(i)
		offA, err := ia.AbsoluteOffset(buf, 0)
		require.NoError(t, err)
		offB, err := ib.AbsoluteOffset(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, offA, offB)
		assert.Equal(t, ia.FixedSize(), ib.FixedSize())
	}
}

func TestCountPrefixWidth(t *testing.T) {
	tests := map[int]int{0: 4, 1: 1, 255: 1, 256: 2, 65535: 2, 65536: 4, 1 << 20: 4}
	for maxCount, want := range tests {
		assert.Equal(t, want, countPrefixWidth(maxCount), "max count %d", maxCount)
	}
}

func TestCompile_InvalidSchemas(t *testing.T) {
	count := &schema.IntegerType{PID: "att.count", ByteCount: 1}
	self := &schema.ListDefinition{PID: "list.self"}
	self.Attributes = []*schema.Attribute{{Name: "inner", Type: self}}

	tests := []struct {
		name  string
		attrs []*schema.Attribute
	}{
		{"integer width", []*schema.Attribute{{Name: "a", Type: &schema.IntegerType{PID: "w3", ByteCount: 3}}}},
		{"inverted range", []*schema.Attribute{{Name: "a", Type: &schema.IntegerType{
			PID: "r", ByteCount: 2, Range: &schema.Range{Min: 10, Max: 1},
		}}}},
		{"negative factor", []*schema.Attribute{{Name: "a", Type: &schema.IntegerType{
			PID: "f", ByteCount: 2, Range: &schema.Range{Min: 0, Max: 1, Factor: -1},
		}}}},
		{"duplicate name", []*schema.Attribute{{Name: "a", Type: count}, {Name: "a", Type: count}}},
		{"empty name", []*schema.Attribute{{Name: "", Type: count}}},
		{"nil attribute", []*schema.Attribute{nil}},
		{"nil type", []*schema.Attribute{{Name: "a"}}},
		{"negative count", []*schema.Attribute{{Name: "a", Type: count, Array: true, MaxCount: -1}}},
		{"recursive list", []*schema.Attribute{{Name: "a", Type: self}}},
		{"unbounded empty elements", []*schema.Attribute{{
			Name: "a", Type: &schema.ListDefinition{PID: "list.empty"}, Array: true, CountVariable: true,
		}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(&schema.AttributeGroup{PID: "grp.bad", Attributes: tc.attrs})
			require.Error(t, err)
			assert.True(t, errors.Is(err, dataerr.ErrInvalidSchema), err.Error())
		})
	}
}

func TestCompile_SharedListDefinition(t *testing.T) {
	count := &schema.IntegerType{PID: "att.count", ByteCount: 1}
	pair := &schema.ListDefinition{PID: "list.pair", Attributes: []*schema.Attribute{
		{Name: "a", Type: count},
		{Name: "b", Type: count},
	}}

	// Using a list definition twice side by side is not recursion.
	root, err := Compile(&schema.AttributeGroup{PID: "grp.pairs", Attributes: []*schema.Attribute{
		{Name: "first", Type: pair},
		{Name: "second", Type: pair},
	}})
	require.NoError(t, err)
	assert.Equal(t, 4, root.FixedSize())

	second, _ := root.Item("second")
	rel, ok := second.RelativeOffset()
	assert.True(t, ok)
	assert.Equal(t, 2, rel)
}

func TestCompile_BoundedEmptyElements(t *testing.T) {
	root, err := Compile(&schema.AttributeGroup{PID: "grp.marks", Attributes: []*schema.Attribute{
		{Name: "marks", Type: &schema.ListDefinition{PID: "list.empty"}, Array: true, CountVariable: true, MaxCount: 3},
	}})
	require.NoError(t, err)

	marks, err := root.CreateModifiableData([]byte{2}).ReadOnly().Item("marks")
	require.NoError(t, err)
	n, err := marks.ElementCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	marks, err = root.CreateModifiableData([]byte{0xff}).ReadOnly().Item("marks")
	require.NoError(t, err)
	_, err = marks.ElementCount()
	assert.True(t, errors.Is(err, dataerr.ErrCorruptEncoding))
}

func TestCompile_EmptyGroup(t *testing.T) {
	root, err := Compile(&schema.AttributeGroup{PID: "grp.empty"})
	require.NoError(t, err)
	assert.Equal(t, 0, root.FixedSize())

	c, err := ForVersion(CurrentVersion)
	require.NoError(t, err)
	buf, err := c.Encode(&schema.AttributeGroup{PID: "grp.empty2"}, nil)
	require.NoError(t, err)
	assert.Empty(t, buf)
}
