package codec

import (
	"encoding/binary"

	"github.com/ssargent/attrdata/pkg/dataerr"
)

// Kind identifies the variant of a layout descriptor.
type Kind uint8

const (
	KindInteger Kind = iota + 1
	KindFloat
	KindString
	KindTime
	KindReference
	KindComposite
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindReference:
		return "reference"
	case KindComposite:
		return "composite"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Info is the compiled layout descriptor of one schema node. Descriptors
// hold layout metadata only and are immutable once compiled, so one tree is
// shared by every record of an attribute group.
//
// The implementations are *IntegerInfo, *FloatInfo, *StringInfo,
// *TimeInfo, *ReferenceInfo, *CompositeInfo and *ListInfo.
type Info interface {
	Kind() Kind
	// Name is the attribute name, or the group PID for the root.
	Name() string
	// Path is the dotted path from the root, used in error messages.
	Path() string

	IsSizeFixed() bool
	// FixedSize is the encoded size when IsSizeFixed, -1 otherwise.
	FixedSize() int
	// Size is the encoded size of the value starting at off.
	Size(buf []byte, off int) (int, error)

	// RelativeOffset is the offset within the parent composite. It is not
	// known when a preceding sibling has a variable size.
	RelativeOffset() (int, bool)
	// AbsoluteOffset resolves the offset of this node inside buf given the
	// offset of its parent composite.
	AbsoluteOffset(buf []byte, parentOffset int) (int, error)

	IsList() bool
	IsTimeAttribute() bool
	IsReferenceAttribute() bool
	IsNumberAttribute() bool
	IsScalableNumberAttribute() bool
	IsNumber(buf []byte, off int) bool
	IsState(buf []byte, off int) bool

	ValueText(buf []byte, off int) (string, error)
	UnscaledValueText(buf []byte, off int) (string, error)

	// CreateModifiableData wraps buf as a mutable record rooted at this
	// node.
	CreateModifiableData(buf []byte) *ModifiableData

	base() *node
}

// node carries what every descriptor variant shares.
type node struct {
	self      Info
	name      string
	path      string
	parent    *CompositeInfo
	index     int
	relOffset int
	fixedSize int
}

func (n *node) init(self Info, name, path string, fixedSize int) {
	n.self = self
	n.name = name
	n.path = path
	n.relOffset = -1
	n.fixedSize = fixedSize
}

func (n *node) base() *node    { return n }
func (n *node) Name() string   { return n.name }
func (n *node) Path() string   { return n.path }
func (n *node) FixedSize() int { return n.fixedSize }

func (n *node) IsSizeFixed() bool {
	return n.fixedSize >= 0
}

func (n *node) RelativeOffset() (int, bool) {
	return n.relOffset, n.relOffset >= 0
}

func (n *node) AbsoluteOffset(buf []byte, parentOffset int) (int, error) {
	if n.parent == nil {
		return parentOffset, nil
	}
	return n.parent.childOffset(buf, parentOffset, n.index)
}

func (n *node) IsList() bool                      { return false }
func (n *node) IsTimeAttribute() bool             { return false }
func (n *node) IsReferenceAttribute() bool        { return false }
func (n *node) IsNumberAttribute() bool           { return false }
func (n *node) IsScalableNumberAttribute() bool   { return false }
func (n *node) IsNumber(buf []byte, off int) bool { return false }
func (n *node) IsState(buf []byte, off int) bool  { return false }

func (n *node) CreateModifiableData(buf []byte) *ModifiableData {
	return &ModifiableData{Data{info: n.self, buf: buf}}
}

// need fails unless width bytes are available at off.
func (n *node) need(buf []byte, off, width int) error {
	if off < 0 || off > len(buf) || len(buf)-off < width {
		return dataerr.Corrupt(n.path, off, "need %d bytes, buffer holds %d", width, len(buf))
	}
	return nil
}

func (n *node) readInt(buf []byte, off, width int) (int64, error) {
	if err := n.need(buf, off, width); err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int64(int8(buf[off])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(buf[off:]))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(buf[off:]))), nil
	default:
		return int64(binary.BigEndian.Uint64(buf[off:])), nil
	}
}

func (n *node) readUint(buf []byte, off, width int) (uint64, error) {
	if err := n.need(buf, off, width); err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(buf[off]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf[off:])), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf[off:])), nil
	default:
		return binary.BigEndian.Uint64(buf[off:]), nil
	}
}

// writeInt stores the low width bytes of v. Callers check that v fits.
func (n *node) writeInt(buf []byte, off, width int, v int64) error {
	if err := n.need(buf, off, width); err != nil {
		return err
	}
	switch width {
	case 1:
		buf[off] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(buf[off:], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(buf[off:], uint32(v))
	default:
		binary.BigEndian.PutUint64(buf[off:], uint64(v))
	}
	return nil
}
