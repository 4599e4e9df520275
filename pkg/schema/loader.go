package schema

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a data model.
type File struct {
	Name    string       `yaml:"name"`
	Types   []TypeFile   `yaml:"types"`
	Groups  []GroupFile  `yaml:"groups"`
	Objects []ObjectFile `yaml:"objects"`
}

// TypeFile describes one attribute type. Kind selects which of the other
// fields apply.
type TypeFile struct {
	PID              string          `yaml:"pid"`
	Kind             string          `yaml:"kind"`
	Bytes            int             `yaml:"bytes,omitempty"`
	Range            *Range          `yaml:"range,omitempty"`
	States           []State         `yaml:"states,omitempty"`
	Undefined        *int64          `yaml:"undefined,omitempty"`
	Accuracy         string          `yaml:"accuracy,omitempty"`
	Unit             string          `yaml:"unit,omitempty"`
	MaxLength        int             `yaml:"maxLength,omitempty"`
	Relative         bool            `yaml:"relative,omitempty"`
	Target           string          `yaml:"target,omitempty"`
	UndefinedAllowed bool            `yaml:"undefinedAllowed,omitempty"`
	Attributes       []AttributeFile `yaml:"attributes,omitempty"`
}

// AttributeFile describes one attribute of a group or list definition.
type AttributeFile struct {
	Name  string     `yaml:"name"`
	Type  string     `yaml:"type"`
	Array *ArrayFile `yaml:"array,omitempty"`
}

// ArrayFile describes the cardinality of an array attribute.
type ArrayFile struct {
	MaxCount int  `yaml:"maxCount"`
	Variable bool `yaml:"variable"`
}

// GroupFile describes an attribute group.
type GroupFile struct {
	PID        string          `yaml:"pid"`
	Attributes []AttributeFile `yaml:"attributes"`
}

// ObjectFile describes a referenceable object.
type ObjectFile struct {
	ID         int64    `yaml:"id"`
	PID        string   `yaml:"pid"`
	Type       string   `yaml:"type"`
	Supertypes []string `yaml:"supertypes,omitempty"`
}

// Load reads a data model from a YAML file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema file")
	}
	return Parse(data)
}

// Parse builds a data model from YAML.
func Parse(data []byte) (*Model, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse schema")
	}
	return f.Build()
}

// Build converts the file representation into a Model. List definitions
// may refer to types declared after them.
func (f *File) Build() (*Model, error) {
	m := NewModel(f.Name)

	lists := make(map[string]TypeFile)
	for _, tf := range f.Types {
		t, err := tf.build()
		if err != nil {
			return nil, err
		}
		if err := m.AddType(t); err != nil {
			return nil, err
		}
		if _, ok := t.(*ListDefinition); ok {
			lists[tf.PID] = tf
		}
	}

	for pid, tf := range lists {
		t, _ := m.Type(pid)
		def := t.(*ListDefinition)
		attrs, err := m.buildAttributes(tf.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "list definition %s", pid)
		}
		def.Attributes = attrs
	}

	for _, gf := range f.Groups {
		attrs, err := m.buildAttributes(gf.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute group %s", gf.PID)
		}
		if _, err := m.NewGroup(gf.PID, attrs...); err != nil {
			return nil, err
		}
	}

	for _, of := range f.Objects {
		obj := &Object{ID: of.ID, PID: of.PID, Type: of.Type, Supertypes: of.Supertypes}
		if err := m.AddObject(obj); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) buildAttributes(files []AttributeFile) ([]*Attribute, error) {
	attrs := make([]*Attribute, 0, len(files))
	for _, af := range files {
		t, ok := m.Type(af.Type)
		if !ok {
			return nil, errors.Newf("attribute %s: unknown type %s", af.Name, af.Type)
		}
		a := &Attribute{Name: af.Name, Type: t}
		if af.Array != nil {
			a.Array = true
			a.MaxCount = af.Array.MaxCount
			a.CountVariable = af.Array.Variable
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (tf TypeFile) build() (AttributeType, error) {
	if tf.PID == "" {
		return nil, errors.New("attribute type without pid")
	}
	switch tf.Kind {
	case "integer":
		return &IntegerType{
			PID:       tf.PID,
			ByteCount: tf.Bytes,
			Range:     tf.Range,
			States:    tf.States,
			Undefined: tf.Undefined,
		}, nil
	case "float":
		t := &FloatType{PID: tf.PID, Unit: tf.Unit}
		switch tf.Accuracy {
		case "", "double":
		case "single":
			t.Accuracy = FloatSingle
		default:
			return nil, errors.Newf("type %s: unknown float accuracy %q", tf.PID, tf.Accuracy)
		}
		return t, nil
	case "string":
		return &StringType{PID: tf.PID, MaxLength: tf.MaxLength}, nil
	case "time":
		t := &TimeType{PID: tf.PID, Relative: tf.Relative}
		switch tf.Accuracy {
		case "", "millis":
		case "seconds":
			t.Accuracy = TimeSeconds
		default:
			return nil, errors.Newf("type %s: unknown time accuracy %q", tf.PID, tf.Accuracy)
		}
		return t, nil
	case "reference":
		return &ReferenceType{PID: tf.PID, Target: tf.Target, UndefinedAllowed: tf.UndefinedAllowed}, nil
	case "list":
		return &ListDefinition{PID: tf.PID}, nil
	default:
		return nil, errors.Newf("type %s: unknown kind %q", tf.PID, tf.Kind)
	}
}
