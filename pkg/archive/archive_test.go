package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	// Advance one second per write so ids sort in write order.
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return a
}

func TestArchive_PutGet(t *testing.T) {
	a := openTestArchive(t)

	data := []byte{0x00, 0x03, 'a', 'b', 'c', 0x00, 0x7d}
	id, err := a.Put("grp.train", 1, data)
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)

	entry, err := a.Get("grp.train", id)
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, "grp.train", entry.Group)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, data, entry.Data)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC), entry.Timestamp.UTC())

	_, err = a.Get("grp.weather", id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestArchive_ListByGroup(t *testing.T) {
	a := openTestArchive(t)

	var trains []ksuid.KSUID
	for i := 0; i < 5; i++ {
		id, err := a.Put("grp.train", 1, []byte{byte(i)})
		require.NoError(t, err)
		trains = append(trains, id)

		_, err = a.Put("grp.train2", 1, []byte{0xff})
		require.NoError(t, err)
	}

	entries, err := a.List("grp.train", 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, trains[i], e.ID)
		assert.Equal(t, []byte{byte(i)}, e.Data)
	}

	limited, err := a.List("grp.train", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, trains[1], limited[1].ID)

	none, err := a.List("grp.none", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestArchive_Delete(t *testing.T) {
	a := openTestArchive(t)

	id, err := a.Put("grp.train", 1, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, a.Delete("grp.train", id))

	_, err = a.Get("grp.train", id)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, a.Delete("grp.train", id))
}

func TestArchive_RejectsBadInput(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.Put("", 1, nil)
	assert.Error(t, err)
	_, err = a.Put("grp\x00x", 1, nil)
	assert.Error(t, err)
	_, err = a.Put("grp.train", 0, nil)
	assert.Error(t, err)
	_, err = a.Put("grp.train", 256, nil)
	assert.Error(t, err)
}

func TestArchive_ReadsRejectBadGroups(t *testing.T) {
	a := openTestArchive(t)

	id, err := a.Put("grp", 1, []byte("payload"))
	require.NoError(t, err)

	for _, group := range []string{"", "grp\x00", "grp\x00x"} {
		_, err := a.Get(group, id)
		assert.Error(t, err, "get %q", group)
		assert.False(t, errors.Is(err, ErrNotFound), "get %q", group)
		_, err = a.List(group, 0)
		assert.Error(t, err, "list %q", group)
		assert.Error(t, a.Delete(group, id), "delete %q", group)
	}

	got, err := a.Get("grp", id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got.Data)
}

func TestArchive_DetectsCorruption(t *testing.T) {
	a := openTestArchive(t)

	id, err := a.Put("grp.train", 1, []byte("payload"))
	require.NoError(t, err)

	key := recordKey("grp.train", id)
	raw, closer, err := a.db.Get(key)
	require.NoError(t, err)
	mangled := bytes.Clone(raw)
	require.NoError(t, closer.Close())
	mangled[len(mangled)-1] ^= 0xff
	require.NoError(t, a.db.Set(key, mangled, nil))

	_, err = a.Get("grp.train", id)
	assert.True(t, errors.Is(err, ErrChecksum))

	_, err = a.List("grp.train", 0)
	assert.True(t, errors.Is(err, ErrChecksum))
}

func TestArchive_Reopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")

	a, err := Open(dir, nil)
	require.NoError(t, err)
	id, err := a.Put("grp.train", 1, []byte("kept"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(dir, nil)
	require.NoError(t, err)
	defer b.Close()
	entry, err := b.Get("grp.train", id)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), entry.Data)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestEnvelope(t *testing.T) {
	now := time.Unix(1700000000, 42)
	env, err := newEnvelope(1, []byte("abc"), now)
	require.NoError(t, err)

	buf := env.encode()
	assert.Len(t, buf, headerSize+3)

	got, err := decodeEnvelope(buf)
	require.NoError(t, err)
	assert.Equal(t, env, got)

	_, err = decodeEnvelope(buf[:headerSize-1])
	assert.Error(t, err)

	buf[4] = 2
	_, err = decodeEnvelope(buf)
	assert.True(t, errors.Is(err, ErrChecksum))
}
