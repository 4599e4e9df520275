package codec

import (
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// CurrentVersion is the only record format version in use.
const CurrentVersion = 1

// Codec turns attribute groups and record bytes into data views. It is
// safe for concurrent use; compiled descriptor trees are shared by all
// codecs of the process.
type Codec interface {
	// Version is the record format version the codec reads and writes.
	Version() int

	// Compile returns the cached descriptor tree of group, compiling it on
	// first use.
	Compile(group *schema.AttributeGroup) (*CompositeInfo, error)

	// CreateUnmodifiableData wraps buf as a read-only record of group. The
	// buffer must hold exactly one record.
	CreateUnmodifiableData(group *schema.AttributeGroup, buf []byte) (*Data, error)

	// CreateModifiableData wraps buf as a writable record of group. Writes
	// go straight to buf.
	CreateModifiableData(group *schema.AttributeGroup, buf []byte) (*ModifiableData, error)

	// Encode builds a new record of group from a value tree in the shape
	// returned by Data.Value and validates it.
	Encode(group *schema.AttributeGroup, value any) ([]byte, error)

	// Forget drops the cached trees of every group of model. Call it when
	// the model changes.
	Forget(model *schema.Model)
}

// ForVersion returns the codec for a record format version.
func ForVersion(version int) (Codec, error) {
	if version != CurrentVersion {
		return nil, dataerr.UnsupportedVersion(version)
	}
	return &codecV1{cache: groups}, nil
}

type codecV1 struct {
	cache *schemaCache
}

func (c *codecV1) Version() int { return CurrentVersion }

func (c *codecV1) Compile(group *schema.AttributeGroup) (*CompositeInfo, error) {
	if group == nil {
		return nil, dataerr.InvalidSchema("", "attribute group is nil")
	}
	return c.cache.get(group)
}

func (c *codecV1) CreateUnmodifiableData(group *schema.AttributeGroup, buf []byte) (*Data, error) {
	root, err := c.Compile(group)
	if err != nil {
		return nil, err
	}
	d := &Data{info: root, buf: buf}
	size, err := d.Size()
	if err != nil {
		return nil, err
	}
	if size != len(buf) {
		return nil, dataerr.Corrupt(root.path, size, "record holds %d bytes, layout covers %d", len(buf), size)
	}
	return d, nil
}

func (c *codecV1) CreateModifiableData(group *schema.AttributeGroup, buf []byte) (*ModifiableData, error) {
	d, err := c.CreateUnmodifiableData(group, buf)
	if err != nil {
		return nil, err
	}
	return &ModifiableData{Data: *d}, nil
}

func (c *codecV1) Encode(group *schema.AttributeGroup, value any) ([]byte, error) {
	root, err := c.Compile(group)
	if err != nil {
		return nil, err
	}
	buf, err := encode(root, value)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		buf = []byte{}
	}
	if err := (&Data{info: root, buf: buf}).Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *codecV1) Forget(model *schema.Model) {
	c.cache.forget(model)
}
