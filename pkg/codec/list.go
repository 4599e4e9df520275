package codec

import (
	"strings"

	"github.com/ssargent/attrdata/pkg/dataerr"
)

// ListInfo lays out an array attribute. A fixed array stores exactly
// count elements. A variable list stores its count in a prefix whose width
// follows from the declared maximum, followed by the elements.
type ListInfo struct {
	node
	elem     Info
	variable bool
	maxCount int
	prefix   int
}

// countPrefixWidth returns the width of the count prefix for a variable
// list bounded by maxCount (0 for unbounded).
func countPrefixWidth(maxCount int) int {
	switch {
	case maxCount <= 0:
		return 4
	case maxCount <= 0xff:
		return 1
	case maxCount <= 0xffff:
		return 2
	default:
		return 4
	}
}

func (l *ListInfo) Kind() Kind   { return KindList }
func (l *ListInfo) IsList() bool { return true }

// Element returns the descriptor shared by all elements.
func (l *ListInfo) Element() Info { return l.elem }

// IsCountVariable reports whether the count is stored in the record.
func (l *ListInfo) IsCountVariable() bool { return l.variable }

// IsCountLimited reports whether the count has an upper bound.
func (l *ListInfo) IsCountLimited() bool { return !l.variable || l.maxCount > 0 }

// MaxCount returns the fixed count of an array or the bound of a variable
// list, 0 for an unbounded list.
func (l *ListInfo) MaxCount() int { return l.maxCount }

// PrefixWidth returns the width of the count prefix, 0 for fixed arrays.
func (l *ListInfo) PrefixWidth() int { return l.prefix }

// ElementCount returns the number of elements of the list at off.
func (l *ListInfo) ElementCount(buf []byte, off int) (int, error) {
	if !l.variable {
		return l.maxCount, nil
	}
	n, err := l.readUint(buf, off, l.prefix)
	if err != nil {
		return 0, err
	}
	if l.maxCount > 0 && n > uint64(l.maxCount) {
		return 0, dataerr.Corrupt(l.path, off, "count %d exceeds maximum %d", n, l.maxCount)
	}
	if l.elem.IsSizeFixed() {
		// The elements must fit the rest of the buffer.
		avail := uint64(len(buf) - off - l.prefix)
		if size := uint64(l.elem.FixedSize()); size > 0 && n > avail/size {
			return 0, dataerr.Corrupt(l.path, off, "count %d of %d-byte elements exceeds buffer", n, size)
		}
	} else if n > uint64(len(buf)-off-l.prefix) {
		// Every variable element occupies at least one byte.
		return 0, dataerr.Corrupt(l.path, off, "count %d exceeds buffer", n)
	}
	return int(n), nil
}

// Size returns the encoded size of the list at off.
func (l *ListInfo) Size(buf []byte, off int) (int, error) {
	if l.fixedSize >= 0 {
		return l.fixedSize, nil
	}
	n, err := l.ElementCount(buf, off)
	if err != nil {
		return 0, err
	}
	end, err := l.elementEnd(buf, off, n)
	if err != nil {
		return 0, err
	}
	return end - off, nil
}

// ElementOffset returns the absolute offset of element index. It costs
// O(1) for fixed-size elements and O(index) otherwise.
func (l *ListInfo) ElementOffset(buf []byte, off, index int) (int, error) {
	n, err := l.ElementCount(buf, off)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= n {
		return 0, dataerr.IndexOutOfRange(l.path, index, n)
	}
	return l.elementEnd(buf, off, index)
}

// elementEnd returns the offset following the first n elements.
func (l *ListInfo) elementEnd(buf []byte, off, n int) (int, error) {
	pos := off + l.prefix
	if l.elem.IsSizeFixed() {
		return pos + n*l.elem.FixedSize(), nil
	}
	for i := 0; i < n; i++ {
		size, err := l.elem.Size(buf, pos)
		if err != nil {
			return 0, err
		}
		pos += size
	}
	return pos, nil
}

// ValueText renders the elements as [text; ...].
func (l *ListInfo) ValueText(buf []byte, off int) (string, error) {
	return l.render(buf, off, Info.ValueText)
}

func (l *ListInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	return l.render(buf, off, Info.UnscaledValueText)
}

func (l *ListInfo) render(buf []byte, off int, text func(Info, []byte, int) (string, error)) (string, error) {
	n, err := l.ElementCount(buf, off)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, n)
	pos := off + l.prefix
	for i := 0; i < n; i++ {
		size, err := l.elem.Size(buf, pos)
		if err != nil {
			return "", err
		}
		s, err := text(l.elem, buf, pos)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
		pos += size
	}
	return "[" + strings.Join(parts, "; ") + "]", nil
}
