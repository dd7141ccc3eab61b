package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevault/bytevault/pkg/vault"
)

func newRegistry(t *testing.T, capacity uint64) *Registry {
	t.Helper()

	reg, err := New(Config{Path: t.TempDir(), Capacity: capacity})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestRegistry_OpenCreatesFile(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "new-file.bin")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	rec, err := reg.Stat(ctx, "new-file.bin")
	require.NoError(t, err)
	assert.Equal(t, "new-file.bin", rec.Name)
	assert.Zero(t, rec.Length)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestRegistry_OpenRejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	for _, name := range []string{"", "Upper", "has space", "slash/name", "x@y"} {
		_, err := reg.Open(ctx, name)
		require.Error(t, err, "name %q should be rejected", name)
		assert.Equal(t, vault.ErrInvalidArgument, vault.Code(err), "name %q", name)
	}
}

func TestRegistry_OpenWhileHeldIsBusy(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "held.bin")
	require.NoError(t, err)

	_, err = reg.Open(ctx, "held.bin")
	require.Error(t, err)
	assert.Equal(t, vault.ErrBusy, vault.Code(err))

	// After close the name is free again.
	require.NoError(t, h.Close())
	h2, err := reg.Open(ctx, "held.bin")
	require.NoError(t, err)
	require.NoError(t, h2.Close())
}

func TestRegistry_CloseHandlePersistsLength(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "sized.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("hello world"), 0)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	rec, err := reg.Stat(ctx, "sized.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.Length)
}

func TestRegistry_ContentSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "durable.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("persisted"), 0)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h, err = reg.Open(ctx, "durable.bin")
	require.NoError(t, err)
	defer h.Close()

	buf := make([]byte, 9)
	n, err := h.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(buf[:n]))
}

func TestRegistry_Delete(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "doomed.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, make([]byte, 64), 0)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	assert.Equal(t, uint64(64), reg.Ledger().Granted())

	require.NoError(t, reg.Delete(ctx, "doomed.bin"))

	_, err = reg.Stat(ctx, "doomed.bin")
	assert.Equal(t, vault.ErrNotFound, vault.Code(err))

	// Deleting returns the bytes to the ledger.
	assert.Equal(t, uint64(0), reg.Ledger().Granted())
}

func TestRegistry_DeleteWhileOpenIsBusy(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "held.bin")
	require.NoError(t, err)
	defer h.Close()

	err = reg.Delete(ctx, "held.bin")
	require.Error(t, err)
	assert.Equal(t, vault.ErrBusy, vault.Code(err))
}

func TestRegistry_DeleteMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	err := reg.Delete(ctx, "absent.bin")
	require.Error(t, err)
	assert.Equal(t, vault.ErrNotFound, vault.Code(err))
}

func TestRegistry_Rename(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "old.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("content"), 0)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	before, err := reg.Stat(ctx, "old.bin")
	require.NoError(t, err)

	require.NoError(t, reg.Rename(ctx, "old.bin", "new.bin"))

	_, err = reg.Stat(ctx, "old.bin")
	assert.Equal(t, vault.ErrNotFound, vault.Code(err))

	after, err := reg.Stat(ctx, "new.bin")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, int64(7), after.Length)

	// Content moved with the name.
	h, err = reg.Open(ctx, "new.bin")
	require.NoError(t, err)
	defer h.Close()
	buf := make([]byte, 7)
	n, err := h.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "content", string(buf[:n]))
}

func TestRegistry_RenameToExistingFails(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	for _, name := range []string{"a.bin", "b.bin"} {
		h, err := reg.Open(ctx, name)
		require.NoError(t, err)
		require.NoError(t, h.Close())
	}

	err := reg.Rename(ctx, "a.bin", "b.bin")
	require.Error(t, err)
	assert.Equal(t, vault.ErrAlreadyExists, vault.Code(err))
}

func TestRegistry_RenameWhileOpenIsBusy(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "held.bin")
	require.NoError(t, err)
	defer h.Close()

	err = reg.Rename(ctx, "held.bin", "other.bin")
	require.Error(t, err)
	assert.Equal(t, vault.ErrBusy, vault.Code(err))
}

func TestRegistry_RenameSameNameIsNoop(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	h, err := reg.Open(ctx, "same.bin")
	require.NoError(t, err)
	require.NoError(t, h.Close())

	require.NoError(t, reg.Rename(ctx, "same.bin", "same.bin"))
}

func TestRegistry_ListSortedByName(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 0)

	for _, name := range []string{"zeta.bin", "alpha.bin", "mid.bin"} {
		h, err := reg.Open(ctx, name)
		require.NoError(t, err)
		require.NoError(t, h.Close())
	}

	records, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alpha.bin", records[0].Name)
	assert.Equal(t, "mid.bin", records[1].Name)
	assert.Equal(t, "zeta.bin", records[2].Name)
}

func TestRegistry_Stats(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 1000)

	h, err := reg.Open(ctx, "one.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, make([]byte, 100), 0)
	require.NoError(t, err)
	defer h.Close()

	stats, err := reg.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.OpenHandles)
	assert.Equal(t, uint64(1000), stats.Capacity)
	assert.Equal(t, uint64(100), stats.Granted)
	assert.Equal(t, uint64(900), stats.Remaining)
}

func TestRegistry_CapacityEnforced(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, 50)

	h, err := reg.Open(ctx, "big.bin")
	require.NoError(t, err)
	defer h.Close()

	_, err = h.WriteAt(ctx, make([]byte, 40), 0)
	require.NoError(t, err)

	_, err = h.WriteAt(ctx, make([]byte, 20), 40)
	require.Error(t, err)
	assert.Equal(t, vault.ErrNoCapacity, vault.Code(err))
}

func TestRegistry_ExistingDataChargedOnReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	reg, err := New(Config{Path: dir, Capacity: 100})
	require.NoError(t, err)

	h, err := reg.Open(ctx, "kept.bin")
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, make([]byte, 80), 0)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, reg.Close())

	// Reopening replays the persisted length into the ledger.
	reg, err = New(Config{Path: dir, Capacity: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(80), reg.Ledger().Granted())
	require.NoError(t, reg.Close())

	// A lowered capacity below the footprint refuses to open.
	_, err = New(Config{Path: dir, Capacity: 50})
	require.Error(t, err)
}

func TestRegistry_CloseClosesOpenHandles(t *testing.T) {
	ctx := context.Background()
	reg, err := New(Config{Path: t.TempDir()})
	require.NoError(t, err)

	h, err := reg.Open(ctx, "open.bin")
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	assert.Equal(t, vault.StateClosed, h.State())
}

func TestValidateName(t *testing.T) {
	valid := []string{"a", "file.bin", "dir-ish_name.tar.gz", "0.dat"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q", name)
	}

	invalid := []string{"", "UPPER", "white space", "a/b", string(make([]byte, MaxNameLength+1))}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q", name)
	}
}
