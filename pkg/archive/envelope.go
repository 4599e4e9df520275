package archive

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/cockroachdb/errors"
)

// headerSize is CRC32(4) + Version(1) + Timestamp(8).
const headerSize = 13

// ErrChecksum is returned when a stored envelope fails its CRC32 check.
var ErrChecksum = errors.New("archive: checksum mismatch")

// envelope frames one stored record.
// Format: [CRC32(4)][Version(1)][Timestamp(8)][Data]
type envelope struct {
	CRC32     uint32
	Version   uint8
	Timestamp uint64 // Unix time in nanoseconds
	Data      []byte
}

func newEnvelope(version int, data []byte, now time.Time) (*envelope, error) {
	if version <= 0 || version > 0xff {
		return nil, errors.Newf("archive: codec version %d does not fit the envelope", version)
	}
	e := &envelope{
		Version:   uint8(version),
		Timestamp: uint64(now.UnixNano()),
		Data:      data,
	}
	e.CRC32 = e.checksum()
	return e, nil
}

// encode serializes the envelope.
func (e *envelope) encode() []byte {
	buf := make([]byte, headerSize+len(e.Data))
	binary.LittleEndian.PutUint32(buf[0:], e.CRC32)
	buf[4] = e.Version
	binary.LittleEndian.PutUint64(buf[5:], e.Timestamp)
	copy(buf[headerSize:], e.Data)
	return buf
}

// decodeEnvelope parses and validates an envelope. Data is copied out of
// raw, which may be owned by the storage engine.
func decodeEnvelope(raw []byte) (*envelope, error) {
	if len(raw) < headerSize {
		return nil, errors.Newf("archive: %d bytes too short for envelope header", len(raw))
	}
	e := &envelope{
		CRC32:     binary.LittleEndian.Uint32(raw[0:]),
		Version:   raw[4],
		Timestamp: binary.LittleEndian.Uint64(raw[5:]),
		Data:      append([]byte(nil), raw[headerSize:]...),
	}
	if sum := e.checksum(); sum != e.CRC32 {
		return nil, errors.Wrapf(ErrChecksum, "stored %08x, computed %08x", e.CRC32, sum)
	}
	return e, nil
}

// checksum covers everything except the CRC32 field itself.
func (e *envelope) checksum() uint32 {
	var hdr [headerSize - 4]byte
	hdr[0] = e.Version
	binary.LittleEndian.PutUint64(hdr[1:], e.Timestamp)

	crc := crc32.NewIEEE()
	crc.Write(hdr[:])
	crc.Write(e.Data)
	return crc.Sum32()
}
