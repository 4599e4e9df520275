// Package archive stores encoded attribute group records in a pebble
// database.
//
// Records are keyed by their group PID and a KSUID, so listing a group
// returns its records ordered by creation time at second resolution. Each
// value is framed by an envelope carrying the codec version, the write time
// and a CRC32 of both plus the record bytes.
package archive

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// ErrNotFound is returned when no record exists for a group and id.
var ErrNotFound = errors.New("archive: record not found")

// separator ends the group PID in a key. Group PIDs never contain it.
const separator = 0x00

// Entry is one stored record.
type Entry struct {
	ID        ksuid.KSUID
	Group     string
	Version   int
	Timestamp time.Time
	Data      []byte
}

// Archive is a record store. It is safe for concurrent use.
type Archive struct {
	db     *pebble.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the archive in dir.
func Open(dir string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive at %s", dir)
	}
	logger.Debug("archive opened", "dir", dir)
	return &Archive{db: db, logger: logger, now: time.Now}, nil
}

func groupPrefix(group string) []byte {
	return append([]byte(group), separator)
}

func recordKey(group string, id ksuid.KSUID) []byte {
	return append(groupPrefix(group), id.Bytes()...)
}

func checkGroup(group string) error {
	if group == "" {
		return errors.New("archive: empty group")
	}
	for i := 0; i < len(group); i++ {
		if group[i] == separator {
			return errors.Newf("archive: group %q contains a NUL byte", group)
		}
	}
	return nil
}

// Put stores data as a new record of group written with codec version and
// returns its id.
func (a *Archive) Put(group string, version int, data []byte) (ksuid.KSUID, error) {
	if err := checkGroup(group); err != nil {
		return ksuid.Nil, err
	}
	now := a.now()
	env, err := newEnvelope(version, data, now)
	if err != nil {
		return ksuid.Nil, err
	}
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "failed to generate record id")
	}
	if err := a.db.Set(recordKey(group, id), env.encode(), pebble.Sync); err != nil {
		return ksuid.Nil, errors.Wrap(err, "failed to store record")
	}
	a.logger.Debug("record stored", "group", group, "id", id.String(), "bytes", len(data))
	return id, nil
}

// Get returns the record of group with id.
func (a *Archive) Get(group string, id ksuid.KSUID) (*Entry, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	raw, closer, err := a.db.Get(recordKey(group, id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", group, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read record")
	}
	defer closer.Close()

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "record %s/%s", group, id)
	}
	return newEntry(group, id, env), nil
}

// List returns up to limit records of group in id order, oldest second
// first. A limit of 0 or less returns all records.
func (a *Archive) List(group string, limit int) ([]*Entry, error) {
	if err := checkGroup(group); err != nil {
		return nil, err
	}
	prefix := groupPrefix(group)
	upper := append([]byte(group), separator+1)

	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open iterator")
	}
	defer iter.Close()

	var entries []*Entry
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		key := iter.Key()
		id, err := ksuid.FromBytes(key[len(prefix):])
		if err != nil {
			a.logger.Warn("skipping malformed archive key", "group", group, "key", key)
			continue
		}
		env, err := decodeEnvelope(iter.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "record %s/%s", group, id)
		}
		entries = append(entries, newEntry(group, id, env))
	}
	return entries, iter.Error()
}

// Delete removes the record of group with id. Deleting a missing record
// is not an error.
func (a *Archive) Delete(group string, id ksuid.KSUID) error {
	if err := checkGroup(group); err != nil {
		return err
	}
	if err := a.db.Delete(recordKey(group, id), pebble.Sync); err != nil {
		return errors.Wrap(err, "failed to delete record")
	}
	return nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func newEntry(group string, id ksuid.KSUID, env *envelope) *Entry {
	return &Entry{
		ID:        id,
		Group:     group,
		Version:   int(env.Version),
		Timestamp: time.Unix(0, int64(env.Timestamp)),
		Data:      env.Data,
	}
}
