package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestStoreDefaultsWhenFileMissing(t *testing.T) {
	store, _ := newTestStore(t)

	got := store.Get()
	assert.Equal(t, Sanitize(Default()), got)
	assert.Equal(t, 0.6, got.Detection.PresenceThreshold)
}

func TestStoreSetPersistsSanitized(t *testing.T) {
	store, path := newTestStore(t)

	next := Default()
	next.Detection.PresenceThreshold = 3 // out of range
	next.Apps.GameBlacklist = []string{" steam ", "steam"}
	require.NoError(t, store.Set(next))

	assert.Equal(t, 1.0, store.Get().Detection.PresenceThreshold)
	assert.Equal(t, []string{"steam"}, store.Get().Apps.GameBlacklist)

	// A second store reading the same file sees the sanitized snapshot.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, store.Get(), reopened.Get())
}

func TestStoreOnChangeOrder(t *testing.T) {
	store, _ := newTestStore(t)

	var order []int
	store.OnChange(func(AppSettings) { order = append(order, 1) })
	store.OnChange(func(AppSettings) { order = append(order, 2) })
	store.OnChange(func(AppSettings) { order = append(order, 3) })

	require.NoError(t, store.Set(Default()))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestStoreIgnoresInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, Sanitize(Default()), store.Get())
}

func TestStoreLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"detection":{"cooldownSeconds":30}}`), 0644))

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	got := store.Get()
	assert.Equal(t, 30, got.Detection.CooldownSeconds)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 0.6, got.Detection.PresenceThreshold)
	assert.Equal(t, 100, got.Detection.SampleIntervalMs)
}
