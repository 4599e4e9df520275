package codec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/ssargent/attrdata/pkg/convert"
	"github.com/ssargent/attrdata/pkg/dataerr"
	"github.com/ssargent/attrdata/pkg/schema"
)

// stringPrefix is the width of the byte length preceding text.
const stringPrefix = 2

// StringInfo lays out text as a 2-byte big-endian length followed by UTF-8
// bytes. Its size always depends on the buffer.
type StringInfo struct {
	node
	typ *schema.StringType
}

func (s *StringInfo) Kind() Kind               { return KindString }
func (s *StringInfo) Type() *schema.StringType { return s.typ }

// Size reads the length prefix and checks the text fits the buffer.
func (s *StringInfo) Size(buf []byte, off int) (int, error) {
	n, err := s.readUint(buf, off, stringPrefix)
	if err != nil {
		return 0, err
	}
	size := stringPrefix + int(n)
	if err := s.need(buf, off, size); err != nil {
		return 0, err
	}
	return size, nil
}

// Text returns the stored text.
func (s *StringInfo) Text(buf []byte, off int) (string, error) {
	size, err := s.Size(buf, off)
	if err != nil {
		return "", err
	}
	text := buf[off+stringPrefix : off+size]
	if !utf8.Valid(text) {
		return "", dataerr.Corrupt(s.path, off, "text is not valid UTF-8")
	}
	return string(text), nil
}

func (s *StringInfo) ValueText(buf []byte, off int) (string, error) {
	return s.Text(buf, off)
}

func (s *StringInfo) UnscaledValueText(buf []byte, off int) (string, error) {
	return s.Text(buf, off)
}

// SetText overwrites the stored text in place. The new text must encode to
// the same number of bytes.
func (s *StringInfo) SetText(buf []byte, off int, text string) error {
	if err := convert.CheckString(s.typ, text); err != nil {
		return err
	}
	size, err := s.Size(buf, off)
	if err != nil {
		return err
	}
	if want := stringPrefix + len(text); want != size {
		return dataerr.SizeMismatch(s.path, size, want)
	}
	copy(buf[off+stringPrefix:], text)
	return nil
}

func (s *StringInfo) appendText(buf []byte, text string) []byte {
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(text)))
	return append(buf, text...)
}
