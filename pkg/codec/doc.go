// Package codec reads and writes attribute group records.
//
// An attribute group is an ordered list of typed attributes. A record of a
// group is the concatenation of its encoded attribute values, without
// padding or per-record headers. The layout of a group is compiled once
// into a tree of descriptors (Info) that knows, for every node, its size
// and where it lives inside a record.
//
// # Record Format
//
// All integers are big-endian.
//
//	integer    1, 2, 4 or 8 bytes, two's complement, unscaled
//	float      4 bytes (single) or 8 bytes (double), IEEE 754
//	time       4 bytes of seconds or 8 bytes of milliseconds
//	reference  8 bytes object id, 0 is the undefined reference
//	string     2 bytes byte length, then UTF-8 text
//	array      count elements back to back
//	list       count prefix, then the elements
//	composite  items back to back in declaration order
//
// The count prefix of a variable list is 1 byte when its maximum is at most
// 255, 2 bytes up to 65535 and 4 bytes otherwise or when it is unbounded.
//
// A node has a fixed size when it contains no string and no variable list.
// Items of a composite that follow a variable item have no fixed offset;
// their position is found by measuring the preceding items in the buffer.
//
// # Usage
//
// Records are accessed through a Codec:
//
//	c, err := codec.ForVersion(codec.CurrentVersion)
//	if err != nil {
//	    return err
//	}
//
//	buf, err := c.Encode(group, map[string]any{"speed": "12,5 km/h"})
//	if err != nil {
//	    return err
//	}
//
//	rec, err := c.CreateUnmodifiableData(group, buf)
//	if err != nil {
//	    return err
//	}
//	speed, err := rec.Item("speed")
//	if err != nil {
//	    return err
//	}
//	text, err := speed.Text() // "12,5 km/h"
//
// CreateModifiableData returns a view that writes through to the buffer.
// Writes that would change the record size, such as replacing a text by
// one of another length, fail with a size mismatch; build a new record
// with Encode instead.
//
// # Error Handling
//
// Errors are marked with the sentinels of package dataerr and can be
// tested with errors.Is of github.com/cockroachdb/errors. Malformed buffers
// report ErrCorruptEncoding, bad indices ErrIndexOutOfRange and accessors
// used on the wrong kind of node ErrTypeMismatch.
//
// # Thread Safety
//
// Descriptor trees are immutable and shared. Compiled trees are cached per
// data model and group; the first use of a group compiles it exactly once
// even when many goroutines ask for it at the same time. Call Forget when
// a data model changes. Data views are as safe as the buffer they wrap.
package codec
