package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiesta/internal/storage/blobstore"
)

func TestFavoritesToggle(t *testing.T) {
	favorites := NewFavorites(blobstore.NewMemoryStore(), nil)

	assert.True(t, favorites.Toggle("ana", "sinulog-festival"))
	assert.Equal(t, []string{"sinulog-festival"}, favorites.List("ana"))

	assert.False(t, favorites.Toggle("ana", "sinulog-festival"))
	assert.Empty(t, favorites.List("ana"))
	assert.Empty(t, favorites.List("ben"), "favorites are per user")
}

func TestFavoritesUnreadCount(t *testing.T) {
	favorites := NewFavorites(blobstore.NewMemoryStore(), nil)

	favorites.Toggle("ana", "a")
	favorites.Toggle("ana", "b")
	assert.Equal(t, 2, favorites.UnreadCount("ana"))

	favorites.MarkSeen("ana")
	assert.Equal(t, 0, favorites.UnreadCount("ana"))

	favorites.Toggle("ana", "c")
	assert.Equal(t, 1, favorites.UnreadCount("ana"))

	// Removing favorites never yields a negative badge.
	favorites.Toggle("ana", "a")
	favorites.Toggle("ana", "b")
	favorites.Toggle("ana", "c")
	assert.Equal(t, 0, favorites.UnreadCount("ana"))
}

func TestFavoritesSurviveReload(t *testing.T) {
	persistence := blobstore.NewMemoryStore()

	favorites := NewFavorites(persistence, nil)
	favorites.Toggle("ana", "sinulog-festival")
	favorites.MarkSeen("ana")
	favorites.Toggle("ana", "masskara-festival")

	reloaded := NewFavorites(persistence, nil)
	assert.Equal(t, []string{"sinulog-festival", "masskara-festival"}, reloaded.List("ana"))
	assert.Equal(t, 1, reloaded.UnreadCount("ana"))
}

type saveRecorder struct {
	keys   []string
	errors int
}

func (r *saveRecorder) RecordUpload(time.Duration, int64, string) {}

func (r *saveRecorder) RecordSave(key string, err error) {
	r.keys = append(r.keys, key)
	if err != nil {
		r.errors++
	}
}

type failingBlobStore struct{}

func (failingBlobStore) Load(string) ([]byte, bool, error) { return nil, false, nil }
func (failingBlobStore) Save(string, []byte) error         { return fmt.Errorf("disk full") }

func TestFavoritesRecordFailedSaves(t *testing.T) {
	recorder := &saveRecorder{}
	favorites := NewFavorites(failingBlobStore{}, recorder)

	favorites.Toggle("ana", "sinulog-festival")

	assert.Equal(t, 2, recorder.errors, "each favorites blob reports its failed write")
	assert.Contains(t, recorder.keys, FavoritesKey)
	assert.Contains(t, recorder.keys, LastSeenKey)
}

func TestSeedIfEmpty(t *testing.T) {
	persistence := blobstore.NewMemoryStore()
	store := NewStore(persistence, nil)

	installed := SeedIfEmpty(store)
	assert.Equal(t, len(DefaultDrafts()), installed)
	assert.Len(t, store.List(), installed)

	// Seeding again, or on a populated reload, is a no-op.
	assert.Zero(t, SeedIfEmpty(store))
	assert.Zero(t, SeedIfEmpty(NewStore(persistence, nil)))
}

func TestSeedRespectsEmptiedCatalog(t *testing.T) {
	persistence := blobstore.NewMemoryStore()
	store := NewStore(persistence, nil)
	require.Equal(t, len(DefaultDrafts()), SeedIfEmpty(store))

	for _, festival := range store.List() {
		require.True(t, store.Delete(festival.ID))
	}

	// The starter set installs only when the blob has never been written;
	// deleted records stay deleted across restarts.
	reloaded := NewStore(persistence, nil)
	assert.Zero(t, SeedIfEmpty(reloaded))
	assert.Empty(t, reloaded.List())
}
