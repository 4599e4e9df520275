package codec

import (
	"strings"

	"github.com/ssargent/attrdata/pkg/dataerr"
)

// CompositeInfo lays out an ordered sequence of named items: an attribute
// group or a list definition. Items are stored back to back without
// padding.
type CompositeInfo struct {
	node
	items  []Info
	byName map[string]int
	// firstVariable is the index of the first item with a variable size,
	// -1 when all items are fixed. Items up to and including it have a
	// known relative offset.
	firstVariable int
}

func (c *CompositeInfo) Kind() Kind { return KindComposite }

// ItemCount returns the number of items.
func (c *CompositeInfo) ItemCount() int { return len(c.items) }

// Item returns the item called name.
func (c *CompositeInfo) Item(name string) (Info, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// ItemAt returns the item at index i.
func (c *CompositeInfo) ItemAt(i int) (Info, error) {
	if i < 0 || i >= len(c.items) {
		return nil, dataerr.IndexOutOfRange(c.path, i, len(c.items))
	}
	return c.items[i], nil
}

// Items returns all items in declaration order.
func (c *CompositeInfo) Items() []Info {
	return append([]Info(nil), c.items...)
}

// Size sums the item sizes. Fixed composites do not touch buf.
func (c *CompositeInfo) Size(buf []byte, off int) (int, error) {
	if c.fixedSize >= 0 {
		return c.fixedSize, nil
	}
	end, err := c.offsetAfter(buf, off, len(c.items))
	if err != nil {
		return 0, err
	}
	return end - off, nil
}

// childOffset returns the absolute offset of item i of the composite
// starting at off.
func (c *CompositeInfo) childOffset(buf []byte, off, i int) (int, error) {
	if i < 0 || i >= len(c.items) {
		return 0, dataerr.IndexOutOfRange(c.path, i, len(c.items))
	}
	if rel := c.items[i].base().relOffset; rel >= 0 {
		return off + rel, nil
	}
	return c.offsetAfter(buf, off, i)
}

// offsetAfter returns the offset following items [0, i). Only items from
// the first variable one onward need to be measured.
func (c *CompositeInfo) offsetAfter(buf []byte, off, i int) (int, error) {
	if c.firstVariable < 0 || i <= c.firstVariable {
		if i == len(c.items) {
			return off + c.fixedSize, nil
		}
		return off + c.items[i].base().relOffset, nil
	}
	pos := off + c.items[c.firstVariable].base().relOffset
	for j := c.firstVariable; j < i; j++ {
		size, err := c.items[j].Size(buf, pos)
		if err != nil {
			return 0, err
		}
		pos += size
	}
	return pos, nil
}

// ValueText renders the items as {name=text; ...}.
func (c *CompositeInfo) ValueText(buf []byte, off int) (string, error) {
	return c.render(buf, off, Info.ValueText)
}

func (c *CompositeInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	return c.render(buf, off, Info.UnscaledValueText)
}

func (c *CompositeInfo) render(buf []byte, off int, text func(Info, []byte, int) (string, error)) (string, error) {
	var b strings.Builder
	b.WriteByte('{')
	pos := off
	for i, item := range c.items {
		size, err := item.Size(buf, pos)
		if err != nil {
			return "", err
		}
		s, err := text(item, buf, pos)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(item.Name())
		b.WriteByte('=')
		b.WriteString(s)
		pos += size
	}
	b.WriteByte('}')
	return b.String(), nil
}
