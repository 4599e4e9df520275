package codec

import (
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// Compile builds the descriptor tree of an attribute group. Compilation is
// deterministic: compiling the same group twice yields trees with identical
// offsets and sizes. Most callers use Codec, which caches the result.
func Compile(group *schema.AttributeGroup) (*CompositeInfo, error) {
	c := &compiler{visiting: make(map[*schema.ListDefinition]bool)}
	if m := group.Model(); m != nil {
		c.lookup = m
	}
	return c.composite(group.PID, group.PID, group.Attributes)
}

type compiler struct {
	lookup   schema.ObjectLookup
	visiting map[*schema.ListDefinition]bool
}

func (c *compiler) composite(name, path string, attrs []*schema.Attribute) (*CompositeInfo, error) {
	ci := &CompositeInfo{
		items:         make([]Info, 0, len(attrs)),
		byName:        make(map[string]int, len(attrs)),
		firstVariable: -1,
	}
	ci.init(ci, name, path, -1)

	off := 0
	for i, a := range attrs {
		if a == nil || a.Name == "" {
			return nil, dataerr.InvalidSchema(path, "attribute %d has no name", i)
		}
		if _, dup := ci.byName[a.Name]; dup {
			return nil, dataerr.InvalidSchema(path, "duplicate attribute %s", a.Name)
		}
		item, err := c.attribute(a, path+"."+a.Name)
		if err != nil {
			return nil, err
		}
		n := item.base()
		n.parent = ci
		n.index = i
		if ci.firstVariable < 0 {
			n.relOffset = off
			if item.IsSizeFixed() {
				off += item.FixedSize()
			} else {
				ci.firstVariable = i
			}
		}
		ci.items = append(ci.items, item)
		ci.byName[a.Name] = i
	}
	if ci.firstVariable < 0 {
		ci.fixedSize = off
	}
	return ci, nil
}

func (c *compiler) attribute(a *schema.Attribute, path string) (Info, error) {
	if !a.Array {
		return c.typ(a.Type, a.Name, path)
	}
	if a.MaxCount < 0 {
		return nil, dataerr.InvalidSchema(path, "negative array count %d", a.MaxCount)
	}
	elem, err := c.typ(a.Type, a.Name, path+"[]")
	if err != nil {
		return nil, err
	}

	if a.CountVariable && a.MaxCount == 0 && elem.IsSizeFixed() && elem.FixedSize() == 0 {
		return nil, dataerr.InvalidSchema(path, "unbounded list of empty elements")
	}

	l := &ListInfo{elem: elem, variable: a.CountVariable, maxCount: a.MaxCount}
	fixedSize := -1
	if a.CountVariable {
		l.prefix = countPrefixWidth(a.MaxCount)
	} else if elem.IsSizeFixed() {
		fixedSize = a.MaxCount * elem.FixedSize()
	}
	l.init(l, a.Name, path, fixedSize)
	return l, nil
}

func (c *compiler) typ(t schema.AttributeType, name, path string) (Info, error) {
	switch t := t.(type) {
	case *schema.IntegerType:
		switch t.ByteCount {
		case 1, 2, 4, 8:
		default:
			return nil, dataerr.InvalidSchema(path, "integer type %s has %d bytes", t.PID, t.ByteCount)
		}
		if r := t.Range; r != nil && (r.Min > r.Max || r.Factor < 0) {
			return nil, dataerr.InvalidSchema(path, "integer type %s has an invalid range", t.PID)
		}
		i := &IntegerInfo{typ: t, width: t.ByteCount}
		i.init(i, name, path, i.width)
		return i, nil

	case *schema.FloatType:
		f := &FloatInfo{typ: t, width: 8}
		if t.Accuracy == schema.FloatSingle {
			f.width = 4
		}
		f.init(f, name, path, f.width)
		return f, nil

	case *schema.StringType:
		s := &StringInfo{typ: t}
		s.init(s, name, path, -1)
		return s, nil

	case *schema.TimeType:
		ti := &TimeInfo{typ: t, width: 8}
		if t.Accuracy == schema.TimeSeconds {
			ti.width = 4
		}
		ti.init(ti, name, path, ti.width)
		return ti, nil

	case *schema.ReferenceType:
		r := &ReferenceInfo{typ: t, lookup: c.lookup}
		r.init(r, name, path, referenceWidth)
		return r, nil

	case *schema.ListDefinition:
		if c.visiting[t] {
			return nil, dataerr.InvalidSchema(path, "list definition %s contains itself", t.PID)
		}
		c.visiting[t] = true
		defer delete(c.visiting, t)
		return c.composite(name, path, t.Attributes)

	default:
		return nil, dataerr.InvalidSchema(path, "unsupported attribute type %T", t)
	}
}
