package codec

import (
	"math"
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// Data is a read-only view of one node of an encoded record. It pairs a
// descriptor with the record bytes and the offset of the node. Views are
// cheap to create and never copy the buffer.
type Data struct {
	info Info
	buf  []byte
	off  int
}

func (d *Data) Info() Info     { return d.info }
func (d *Data) Name() string   { return d.info.Name() }
func (d *Data) Path() string   { return d.info.Path() }
func (d *Data) Offset() int    { return d.off }
func (d *Data) Kind() Kind     { return d.info.Kind() }
func (d *Data) Record() []byte { return d.buf }

// Size returns the encoded size of this node.
func (d *Data) Size() (int, error) {
	return d.info.Size(d.buf, d.off)
}

// Bytes returns the encoded bytes of this node. The slice aliases the
// record.
func (d *Data) Bytes() ([]byte, error) {
	size, err := d.Size()
	if err != nil {
		return nil, err
	}
	return d.buf[d.off : d.off+size], nil
}

func (d *Data) composite() (*CompositeInfo, error) {
	c, ok := d.info.(*CompositeInfo)
	if !ok {
		return nil, dataerr.TypeMismatch(d.info.Path(), "composite")
	}
	return c, nil
}

func (d *Data) list() (*ListInfo, error) {
	l, ok := d.info.(*ListInfo)
	if !ok {
		return nil, dataerr.TypeMismatch(d.info.Path(), "list")
	}
	return l, nil
}

func (d *Data) integer() (*IntegerInfo, error) {
	i, ok := d.info.(*IntegerInfo)
	if !ok {
		return nil, dataerr.TypeMismatch(d.info.Path(), "integer")
	}
	return i, nil
}

func (d *Data) timeInfo() (*TimeInfo, error) {
	t, ok := d.info.(*TimeInfo)
	if !ok {
		return nil, dataerr.TypeMismatch(d.info.Path(), "time")
	}
	return t, nil
}

func (d *Data) reference() (*ReferenceInfo, error) {
	r, ok := d.info.(*ReferenceInfo)
	if !ok {
		return nil, dataerr.TypeMismatch(d.info.Path(), "reference")
	}
	return r, nil
}

// ItemCount returns the number of items of a composite.
func (d *Data) ItemCount() (int, error) {
	c, err := d.composite()
	if err != nil {
		return 0, err
	}
	return c.ItemCount(), nil
}

// Item returns the item called name of a composite.
func (d *Data) Item(name string) (*Data, error) {
	c, err := d.composite()
	if err != nil {
		return nil, err
	}
	i, ok := c.byName[name]
	if !ok {
		return nil, dataerr.UnknownItem(c.path, name)
	}
	return d.itemAt(c, i)
}

// ItemAt returns the item at index i of a composite.
func (d *Data) ItemAt(i int) (*Data, error) {
	c, err := d.composite()
	if err != nil {
		return nil, err
	}
	return d.itemAt(c, i)
}

func (d *Data) itemAt(c *CompositeInfo, i int) (*Data, error) {
	off, err := c.childOffset(d.buf, d.off, i)
	if err != nil {
		return nil, err
	}
	return &Data{info: c.items[i], buf: d.buf, off: off}, nil
}

// ElementCount returns the number of elements of a list.
func (d *Data) ElementCount() (int, error) {
	l, err := d.list()
	if err != nil {
		return 0, err
	}
	return l.ElementCount(d.buf, d.off)
}

// Element returns element i of a list.
func (d *Data) Element(i int) (*Data, error) {
	l, err := d.list()
	if err != nil {
		return nil, err
	}
	off, err := l.ElementOffset(d.buf, d.off, i)
	if err != nil {
		return nil, err
	}
	return &Data{info: l.elem, buf: d.buf, off: off}, nil
}

// Elements returns all elements of a list in a single pass.
func (d *Data) Elements() ([]*Data, error) {
	l, err := d.list()
	if err != nil {
		return nil, err
	}
	n, err := l.ElementCount(d.buf, d.off)
	if err != nil {
		return nil, err
	}
	out := make([]*Data, 0, n)
	pos := d.off + l.prefix
	for i := 0; i < n; i++ {
		size, err := l.elem.Size(d.buf, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, &Data{info: l.elem, buf: d.buf, off: pos})
		pos += size
	}
	return out, nil
}

// Text renders the value for display: states by name, numbers scaled and
// with their unit, times and references in their text form.
func (d *Data) Text() (string, error) {
	return d.info.ValueText(d.buf, d.off)
}

// UnscaledText renders the stored value without scaling or units.
func (d *Data) UnscaledText() (string, error) {
	return d.info.UnscaledValueText(d.buf, d.off)
}

// IsNumber reports whether the value is a number. It never fails; a value
// that cannot be read is not a number.
func (d *Data) IsNumber() bool { return d.info.IsNumber(d.buf, d.off) }

// IsState reports whether the value is a declared state.
func (d *Data) IsState() bool { return d.info.IsState(d.buf, d.off) }

// Classify tells whether an integer holds a number, a state or the
// undefined value.
func (d *Data) Classify() (ValueClass, error) {
	i, err := d.integer()
	if err != nil {
		return 0, err
	}
	return i.Classify(d.buf, d.off)
}

// State returns the state an integer holds, if any.
func (d *Data) State() (schema.State, bool, error) {
	i, err := d.integer()
	if err != nil {
		return schema.State{}, false, err
	}
	return i.State(d.buf, d.off)
}

// Unscaled returns the stored integer of an integer attribute.
func (d *Data) Unscaled() (int64, error) {
	i, err := d.integer()
	if err != nil {
		return 0, err
	}
	return i.UnscaledValue(d.buf, d.off)
}

func (d *Data) UnscaledInt8() (int8, error) {
	v, err := d.Unscaled()
	return fitInt[int8](d, v, err)
}

func (d *Data) UnscaledInt16() (int16, error) {
	v, err := d.Unscaled()
	return fitInt[int16](d, v, err)
}

func (d *Data) UnscaledInt32() (int32, error) {
	v, err := d.Unscaled()
	return fitInt[int32](d, v, err)
}

func (d *Data) UnscaledInt64() (int64, error) {
	return d.Unscaled()
}

// scaledInt returns the scaled value of an integer attribute rounded to the
// nearest integer.
func (d *Data) scaledInt() (int64, error) {
	f, err := d.Float64()
	if err != nil {
		return 0, err
	}
	r := math.Round(f)
	if r >= math.MaxInt64 || r < math.MinInt64 || math.IsNaN(r) {
		return 0, dataerr.OutOfRange(d.info.Path(), strconv.FormatFloat(f, 'g', -1, 64), "scaled value exceeds int64")
	}
	return int64(r), nil
}

func (d *Data) Int8() (int8, error) {
	v, err := d.scaledInt()
	return fitInt[int8](d, v, err)
}

func (d *Data) Int16() (int16, error) {
	v, err := d.scaledInt()
	return fitInt[int16](d, v, err)
}

func (d *Data) Int32() (int32, error) {
	v, err := d.scaledInt()
	return fitInt[int32](d, v, err)
}

func (d *Data) Int64() (int64, error) {
	return d.scaledInt()
}

// Float64 returns a float value or the scaled value of an integer.
func (d *Data) Float64() (float64, error) {
	switch info := d.info.(type) {
	case *FloatInfo:
		return info.Value(d.buf, d.off)
	case *IntegerInfo:
		return info.ScaledValue(d.buf, d.off)
	default:
		return 0, dataerr.TypeMismatch(d.info.Path(), "number")
	}
}

func (d *Data) Float32() (float32, error) {
	f, err := d.Float64()
	if err != nil {
		return 0, err
	}
	if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
		return 0, dataerr.OutOfRange(d.info.Path(), strconv.FormatFloat(f, 'g', -1, 64), "value exceeds float32")
	}
	return float32(f), nil
}

// Millis returns a time value in milliseconds.
func (d *Data) Millis() (int64, error) {
	t, err := d.timeInfo()
	if err != nil {
		return 0, err
	}
	return t.Millis(d.buf, d.off)
}

// Seconds returns a time value in seconds.
func (d *Data) Seconds() (int64, error) {
	t, err := d.timeInfo()
	if err != nil {
		return 0, err
	}
	return t.Seconds(d.buf, d.off)
}

// ID returns the object id a reference holds.
func (d *Data) ID() (int64, error) {
	r, err := d.reference()
	if err != nil {
		return 0, err
	}
	return r.ID(d.buf, d.off)
}

// Object returns the object a reference points to. It is nil for the
// undefined reference and for objects the data model does not know.
func (d *Data) Object() (*schema.Object, error) {
	r, err := d.reference()
	if err != nil {
		return nil, err
	}
	return r.Object(d.buf, d.off)
}

// Value decodes the node into plain Go values: composites become
// map[string]any, lists []any, states their name, the undefined value nil,
// integers their scaled value, times milliseconds and references ids. The
// result can be passed back to Codec.Encode.
func (d *Data) Value() (any, error) {
	switch info := d.info.(type) {
	case *CompositeInfo:
		out := make(map[string]any, len(info.items))
		pos := d.off
		for _, item := range info.items {
			child := &Data{info: item, buf: d.buf, off: pos}
			v, err := child.Value()
			if err != nil {
				return nil, err
			}
			size, err := item.Size(d.buf, pos)
			if err != nil {
				return nil, err
			}
			out[item.Name()] = v
			pos += size
		}
		return out, nil

	case *ListInfo:
		elems, err := d.Elements()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(elems))
		for _, e := range elems {
			v, err := e.Value()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case *IntegerInfo:
		class, err := info.Classify(d.buf, d.off)
		if err != nil {
			return nil, err
		}
		v, _ := info.UnscaledValue(d.buf, d.off)
		switch class {
		case ClassState:
			st, _ := info.typ.StateByValue(v)
			return st.Name, nil
		case ClassUndefined:
			return nil, nil
		}
		if info.typ.Factor() == 1 {
			return v, nil
		}
		return info.ScaledValue(d.buf, d.off)

	case *FloatInfo:
		return info.Value(d.buf, d.off)

	case *StringInfo:
		return info.Text(d.buf, d.off)

	case *TimeInfo:
		return info.Millis(d.buf, d.off)

	case *ReferenceInfo:
		id, err := info.ID(d.buf, d.off)
		if err != nil || id == 0 {
			return nil, err
		}
		return id, nil
	}
	return nil, dataerr.TypeMismatch(d.info.Path(), "value")
}

// Validate walks the node and reports the first value the schema does not
// allow: integers that are neither a state, undefined nor in range, text
// over its limit, undefined references where they are not allowed and
// references to objects of the wrong type.
func (d *Data) Validate() error {
	switch info := d.info.(type) {
	case *CompositeInfo:
		pos := d.off
		for _, item := range info.items {
			if err := (&Data{info: item, buf: d.buf, off: pos}).Validate(); err != nil {
				return err
			}
			size, err := item.Size(d.buf, pos)
			if err != nil {
				return err
			}
			pos += size
		}
		return nil

	case *ListInfo:
		elems, err := d.Elements()
		if err != nil {
			return err
		}
		for _, e := range elems {
			if err := e.Validate(); err != nil {
				return err
			}
		}
		return nil

	case *IntegerInfo:
		_, err := info.Classify(d.buf, d.off)
		return err

	case *FloatInfo:
		_, err := info.Value(d.buf, d.off)
		return err

	case *StringInfo:
		text, err := info.Text(d.buf, d.off)
		if err != nil {
			return err
		}
		return convert.CheckString(info.typ, text)

	case *TimeInfo:
		_, err := info.Millis(d.buf, d.off)
		return err

	case *ReferenceInfo:
		id, err := info.ID(d.buf, d.off)
		if err != nil {
			return err
		}
		if id == 0 {
			if !info.typ.UndefinedAllowed {
				return dataerr.NotAllowed(info.typ.PID, "0")
			}
			return nil
		}
		if info.lookup == nil {
			return nil
		}
		obj := info.lookup.ObjectByID(id)
		if obj == nil || !info.typ.Accepts(obj) {
			return dataerr.NotResolvable(info.typ.PID, strconv.FormatInt(id, 10))
		}
		return nil
	}
	return dataerr.TypeMismatch(d.info.Path(), "value")
}

type signedInt interface {
	~int8 | ~int16 | ~int32 | ~int64
}

func fitInt[T signedInt](d *Data, v int64, err error) (T, error) {
	if err != nil {
		return 0, err
	}
	if t := T(v); int64(t) == v {
		return t, nil
	}
	return 0, dataerr.OutOfRange(d.info.Path(), strconv.FormatInt(v, 10), "value exceeds %T", T(0))
}

// ModifiableData is a view that also writes through to the record. Writes
// never change the encoded size of the record.
type ModifiableData struct {
	Data
}

// ReadOnly returns the read-only view of the same node.
func (m *ModifiableData) ReadOnly() *Data {
	d := m.Data
	return &d
}

func (m *ModifiableData) wrap(d *Data, err error) (*ModifiableData, error) {
	if err != nil {
		return nil, err
	}
	return &ModifiableData{Data: *d}, nil
}

func (m *ModifiableData) Item(name string) (*ModifiableData, error) {
	return m.wrap(m.Data.Item(name))
}

func (m *ModifiableData) ItemAt(i int) (*ModifiableData, error) {
	return m.wrap(m.Data.ItemAt(i))
}

func (m *ModifiableData) Element(i int) (*ModifiableData, error) {
	return m.wrap(m.Data.Element(i))
}

func (m *ModifiableData) Elements() ([]*ModifiableData, error) {
	elems, err := m.Data.Elements()
	if err != nil {
		return nil, err
	}
	out := make([]*ModifiableData, len(elems))
	for i, e := range elems {
		out[i] = &ModifiableData{Data: *e}
	}
	return out, nil
}

// SetText parses text according to the attribute type and stores it.
func (m *ModifiableData) SetText(text string) error {
	switch info := m.info.(type) {
	case *IntegerInfo:
		return info.SetText(m.buf, m.off, text)
	case *FloatInfo:
		return info.SetText(m.buf, m.off, text)
	case *StringInfo:
		return info.SetText(m.buf, m.off, text)
	case *TimeInfo:
		return info.SetText(m.buf, m.off, text)
	case *ReferenceInfo:
		return info.SetText(m.buf, m.off, text)
	}
	return dataerr.TypeMismatch(m.info.Path(), "simple value")
}

// SetUnscaled stores the raw integer v.
func (m *ModifiableData) SetUnscaled(v int64) error {
	i, err := m.integer()
	if err != nil {
		return err
	}
	return i.SetUnscaled(m.buf, m.off, v)
}

// SetScaled stores a scaled number into an integer or float attribute.
func (m *ModifiableData) SetScaled(v float64) error {
	switch info := m.info.(type) {
	case *IntegerInfo:
		return info.SetScaled(m.buf, m.off, v)
	case *FloatInfo:
		return info.SetValue(m.buf, m.off, v)
	}
	return dataerr.TypeMismatch(m.info.Path(), "number")
}

// SetFloat stores v into a float attribute.
func (m *ModifiableData) SetFloat(v float64) error {
	f, ok := m.info.(*FloatInfo)
	if !ok {
		return dataerr.TypeMismatch(m.info.Path(), "float")
	}
	return f.SetValue(m.buf, m.off, v)
}

func (m *ModifiableData) SetMillis(ms int64) error {
	t, err := m.timeInfo()
	if err != nil {
		return err
	}
	return t.SetMillis(m.buf, m.off, ms)
}

func (m *ModifiableData) SetSeconds(s int64) error {
	t, err := m.timeInfo()
	if err != nil {
		return err
	}
	return t.SetSeconds(m.buf, m.off, s)
}

func (m *ModifiableData) SetID(id int64) error {
	r, err := m.reference()
	if err != nil {
		return err
	}
	return r.SetID(m.buf, m.off, id)
}

func (m *ModifiableData) SetObject(obj *schema.Object) error {
	r, err := m.reference()
	if err != nil {
		return err
	}
	return r.SetObject(m.buf, m.off, obj)
}
