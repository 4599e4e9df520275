package codec

import (
	"strconv"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

const referenceWidth = 8

// ReferenceInfo lays out an object reference as an 8-byte id, 0 being the
// undefined reference. Objects are resolved through the lookup of the data
// model the tree was compiled for.
type ReferenceInfo struct {
	node
	typ    *schema.ReferenceType
	lookup schema.ObjectLookup
}

func (r *ReferenceInfo) Kind() Kind                            { return KindReference }
func (r *ReferenceInfo) Type() *schema.ReferenceType           { return r.typ }
func (r *ReferenceInfo) IsReferenceAttribute() bool            { return true }
func (r *ReferenceInfo) Size(buf []byte, off int) (int, error) { return referenceWidth, nil }

// ID returns the stored object id.
func (r *ReferenceInfo) ID(buf []byte, off int) (int64, error) {
	return r.readInt(buf, off, referenceWidth)
}

// Object returns the referenced object. It is nil for the undefined
// reference and for ids the lookup does not know.
func (r *ReferenceInfo) Object(buf []byte, off int) (*schema.Object, error) {
	id, err := r.ID(buf, off)
	if err != nil || id == 0 || r.lookup == nil {
		return nil, err
	}
	return r.lookup.ObjectByID(id), nil
}

func (r *ReferenceInfo) ValueText(buf []byte, off int) (string, error) {
	id, err := r.ID(buf, off)
	if err != nil {
		return "", err
	}
	obj, _ := r.Object(buf, off)
	return convert.FormatReference(obj, id), nil
}

func (r *ReferenceInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	id, err := r.ID(buf, off)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// SetID stores id. Id 0 requires a type that allows undefined references.
func (r *ReferenceInfo) SetID(buf []byte, off int, id int64) error {
	if id == 0 && !r.typ.UndefinedAllowed {
		return dataerr.NotAllowed(r.typ.PID, "0")
	}
	return r.writeInt(buf, off, referenceWidth, id)
}

// SetObject stores a reference to obj; nil stores the undefined reference.
func (r *ReferenceInfo) SetObject(buf []byte, off int, obj *schema.Object) error {
	if obj == nil {
		return r.SetID(buf, off, 0)
	}
	if !r.typ.Accepts(obj) {
		return dataerr.NotResolvable(r.typ.PID, obj.PID)
	}
	return r.SetID(buf, off, obj.ID)
}

// SetText resolves text and stores the result.
func (r *ReferenceInfo) SetText(buf []byte, off int, text string) error {
	obj, err := convert.TextToReference(r.typ, text, r.lookup)
	if err != nil {
		return err
	}
	return r.SetObject(buf, off, obj)
}
