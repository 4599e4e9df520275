package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	m, err := Load("testdata/model.yaml")
	require.NoError(t, err)
	assert.Equal(t, "stellwerk", m.Name())

	groups := m.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "grp.train", groups[0].PID)
	assert.Equal(t, "grp.weather", groups[1].PID)
	assert.Same(t, m, groups[0].Model())

	train, ok := m.Group("grp.train")
	require.True(t, ok)
	require.Len(t, train.Attributes, 6)

	speed, ok := train.Attributes[1].Type.(*IntegerType)
	require.True(t, ok)
	assert.Equal(t, 2, speed.ByteCount)
	assert.Equal(t, 0.1, speed.Factor())
	assert.Equal(t, "km/h", speed.Unit())
	require.NotNil(t, speed.Undefined)
	assert.Equal(t, int64(-2), *speed.Undefined)
	assert.Equal(t, []State{{Name: "Stoerung", Value: -1}}, speed.States)

	axles := train.Attributes[4]
	assert.True(t, axles.Array)
	assert.False(t, axles.CountVariable)
	assert.Equal(t, 4, axles.MaxCount)

	route := train.Attributes[5]
	assert.True(t, route.CountVariable)
	assert.True(t, route.IsCountLimited())
	passage, ok := route.Type.(*ListDefinition)
	require.True(t, ok)
	require.Len(t, passage.Attributes, 3)
	dwell, ok := passage.Attributes[2].Type.(*TimeType)
	require.True(t, ok)
	assert.True(t, dwell.Relative)

	stamp, ok := m.Type("att.stamp")
	require.True(t, ok)
	assert.Equal(t, TimeSeconds, stamp.(*TimeType).Accuracy)

	temp, ok := m.Type("att.temperature")
	require.True(t, ok)
	assert.Equal(t, FloatSingle, temp.(*FloatType).Accuracy)
}

func TestLoad_Objects(t *testing.T) {
	m, err := Load("testdata/model.yaml")
	require.NoError(t, err)

	sigB := m.ObjectByPID("sig.B")
	require.NotNil(t, sigB)
	assert.Equal(t, int64(8), sigB.ID)
	assert.Same(t, sigB, m.ObjectByID(8))

	signal, _ := m.Type("att.signal")
	ref := signal.(*ReferenceType)
	assert.True(t, ref.Accepts(sigB))
	assert.True(t, ref.Accepts(m.ObjectByID(7)))
	assert.False(t, ref.Accepts(m.ObjectByID(20)))

	assert.Nil(t, m.ObjectByID(99))
	assert.Nil(t, m.ObjectByPID("sig.Z"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "types: [unclosed"},
		{"unknown kind", "types: [{pid: a, kind: blob}]"},
		{"missing pid", "types: [{kind: string}]"},
		{"bad float accuracy", "types: [{pid: a, kind: float, accuracy: half}]"},
		{"bad time accuracy", "types: [{pid: a, kind: time, accuracy: hours}]"},
		{"duplicate type", "types: [{pid: a, kind: string}, {pid: a, kind: string}]"},
		{"unknown attribute type", "groups: [{pid: g, attributes: [{name: x, type: missing}]}]"},
		{"unknown list member type", "types: [{pid: l, kind: list, attributes: [{name: x, type: missing}]}]"},
		{"duplicate group", "types: [{pid: a, kind: string}]\ngroups: [{pid: g}, {pid: g}]"},
		{"reserved object id", "objects: [{id: 0, pid: o}]"},
		{"duplicate object", "objects: [{id: 1, pid: o}, {id: 1, pid: p}]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestParse_ForwardListReference(t *testing.T) {
	m, err := Parse([]byte(`
types:
  - pid: list.pair
    kind: list
    attributes:
      - {name: a, type: att.n}
      - {name: b, type: att.n}
  - pid: att.n
    kind: integer
    bytes: 2
groups:
  - pid: g
    attributes:
      - {name: pairs, type: list.pair, array: {maxCount: 0, variable: true}}
`))
	require.NoError(t, err)
	g, ok := m.Group("g")
	require.True(t, ok)
	assert.False(t, g.Attributes[0].IsCountLimited())
	pair := g.Attributes[0].Type.(*ListDefinition)
	assert.Len(t, pair.Attributes, 2)
}
