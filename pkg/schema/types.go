// Package schema describes attribute groups: the runtime-defined record
// structures that the codec lays out over byte buffers.
//
// A Model is one data-model instance. It owns the attribute types, list
// definitions and attribute groups loaded from a schema source and doubles
// as the object lookup used to resolve references.
package schema

// AttributeType is the type of an attribute. The set of implementations is
// closed: *IntegerType, *FloatType, *StringType, *TimeType, *ReferenceType
// and *ListDefinition.
type AttributeType interface {
	TypePID() string
	attributeType()
}

// State is a named constant of an integer type.
type State struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// Range is the valid numeric range of an integer type together with the
// factor converting unscaled (stored) values into scaled ones.
type Range struct {
	Min    int64   `yaml:"min"`
	Max    int64   `yaml:"max"`
	Factor float64 `yaml:"factor"`
	Unit   string  `yaml:"unit"`
}

// IntegerType is a signed integer of ByteCount bytes, optionally with a
// scaled range, named states and an undefined value.
type IntegerType struct {
	PID       string
	ByteCount int
	Range     *Range
	States    []State
	Undefined *int64
}

func (t *IntegerType) TypePID() string { return t.PID }
func (*IntegerType) attributeType()    {}

// Factor returns the conversion factor, 1 when the type has no range.
func (t *IntegerType) Factor() float64 {
	if t.Range == nil || t.Range.Factor == 0 {
		return 1
	}
	return t.Range.Factor
}

// Unit returns the unit of the range, if any.
func (t *IntegerType) Unit() string {
	if t.Range == nil {
		return ""
	}
	return t.Range.Unit
}

// InRange reports whether an unscaled value lies inside the declared range.
// Types without a range accept every value of their byte width.
func (t *IntegerType) InRange(v int64) bool {
	if t.Range == nil {
		return v >= MinForWidth(t.ByteCount) && v <= MaxForWidth(t.ByteCount)
	}
	return v >= t.Range.Min && v <= t.Range.Max
}

// StateByValue returns the state declared for v.
func (t *IntegerType) StateByValue(v int64) (State, bool) {
	for _, s := range t.States {
		if s.Value == v {
			return s, true
		}
	}
	return State{}, false
}

// IsUndefined reports whether v is the configured undefined value.
func (t *IntegerType) IsUndefined(v int64) bool {
	return t.Undefined != nil && *t.Undefined == v
}

// MinForWidth returns the smallest signed value representable in n bytes.
func MinForWidth(n int) int64 {
	if n >= 8 {
		return -1 << 63
	}
	return -1 << (uint(n)*8 - 1)
}

// MaxForWidth returns the largest signed value representable in n bytes.
func MaxForWidth(n int) int64 {
	if n >= 8 {
		return 1<<63 - 1
	}
	return 1<<(uint(n)*8-1) - 1
}

// FloatAccuracy selects single or double precision.
type FloatAccuracy int

const (
	FloatDouble FloatAccuracy = iota
	FloatSingle
)

// FloatType is an IEEE-754 floating point attribute.
type FloatType struct {
	PID      string
	Accuracy FloatAccuracy
	Unit     string
}

func (t *FloatType) TypePID() string { return t.PID }
func (*FloatType) attributeType()    {}

// StringType is a text attribute. MaxLength 0 means unbounded.
type StringType struct {
	PID       string
	MaxLength int
}

func (t *StringType) TypePID() string { return t.PID }
func (*StringType) attributeType()    {}

// TimeAccuracy selects the resolution a time attribute is stored with.
type TimeAccuracy int

const (
	TimeMilliseconds TimeAccuracy = iota
	TimeSeconds
)

// TimeType is an absolute point in time or a relative duration.
type TimeType struct {
	PID      string
	Relative bool
	Accuracy TimeAccuracy
}

func (t *TimeType) TypePID() string { return t.PID }
func (*TimeType) attributeType()    {}

// ReferenceType is a reference to a configuration object. Target restricts
// the object type; empty accepts any object.
type ReferenceType struct {
	PID              string
	Target           string
	UndefinedAllowed bool
}

func (t *ReferenceType) TypePID() string { return t.PID }
func (*ReferenceType) attributeType()    {}

// Accepts reports whether obj satisfies the target type.
func (t *ReferenceType) Accepts(obj *Object) bool {
	return t.Target == "" || obj.IsOfType(t.Target)
}

// ListDefinition is a named, ordered sequence of attributes that can be
// used as the type of an attribute.
type ListDefinition struct {
	PID        string
	Attributes []*Attribute
}

func (t *ListDefinition) TypePID() string { return t.PID }
func (*ListDefinition) attributeType()    {}

// Attribute is one member of an attribute group or list definition.
//
// An array attribute repeats its type. With CountVariable the count is
// stored in the record and bounded by MaxCount when MaxCount > 0; otherwise
// the array always holds exactly MaxCount elements.
type Attribute struct {
	Name          string
	Type          AttributeType
	Array         bool
	MaxCount      int
	CountVariable bool
}

// IsCountLimited reports whether an array attribute has an upper bound.
func (a *Attribute) IsCountLimited() bool {
	return a.Array && a.MaxCount > 0
}

// AttributeGroup is the schema of one kind of record.
type AttributeGroup struct {
	PID        string
	Attributes []*Attribute
	model      *Model
}

// Model returns the data model the group belongs to.
func (g *AttributeGroup) Model() *Model {
	return g.model
}

// Object is a configuration object that references can point to.
type Object struct {
	ID         int64
	PID        string
	Type       string
	Supertypes []string
}

// IsOfType reports whether the object is of type pid or inherits from it.
func (o *Object) IsOfType(pid string) bool {
	if o.Type == pid {
		return true
	}
	for _, s := range o.Supertypes {
		if s == pid {
			return true
		}
	}
	return false
}

// ObjectLookup resolves objects by id or PID. Both methods return nil when
// no object matches.
type ObjectLookup interface {
	ObjectByID(id int64) *Object
	ObjectByPID(pid string) *Object
}
