package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiesta/internal/storage/blobstore"
)

func newTestStore(t *testing.T) (*Store, *blobstore.MemoryStore) {
	t.Helper()
	persistence := blobstore.NewMemoryStore()
	return NewStore(persistence, nil), persistence
}

func draft(name string) Draft {
	return Draft{
		Name:              name,
		Location:          "Cebu City",
		Month:             "January",
		Category:          CategoryCultural,
		ExpectedAttendees: 1000,
		Images:            []string{"https://res.cloudinary.com/demo/a.png"},
	}
}

func TestCreateAssignsSlugAndDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	festival := store.Create(draft("Tinagba Festival!"))

	assert.Equal(t, "tinagba-festival", festival.ID)
	assert.Equal(t, 0.0, festival.Rating)
	assert.Empty(t, festival.JoinedUsers)
	assert.NotZero(t, festival.Year)
	assert.Equal(t, []string{"https://res.cloudinary.com/demo/a.png"}, festival.ImageURLs)
}

func TestCreateClampsAttendees(t *testing.T) {
	store, _ := newTestStore(t)

	d := draft("Negative Fest")
	d.ExpectedAttendees = -5
	festival := store.Create(d)

	assert.Equal(t, 0, festival.ExpectedAttendees)
}

func TestCreateSuffixesDuplicateSlugs(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.Create(draft("Sinulog Festival"))
	second := store.Create(draft("Sinulog; Festival"))
	third := store.Create(draft("SINULOG Festival"))

	assert.Equal(t, "sinulog-festival", first.ID)
	assert.Equal(t, "sinulog-festival-2", second.ID)
	assert.Equal(t, "sinulog-festival-3", third.ID)
}

func TestCreateNormalizesLegacyImage(t *testing.T) {
	store, _ := newTestStore(t)

	festival := store.Create(Draft{Name: "Legacy", LegacyImage: "https://res.cloudinary.com/demo/one.png"})
	assert.Equal(t, []string{"https://res.cloudinary.com/demo/one.png"}, festival.ImageURLs)
}

func TestCreateFiltersTransientPreviews(t *testing.T) {
	store, _ := newTestStore(t)

	d := draft("Preview Fest")
	d.Images = []string{
		"blob:http://localhost/0893-preview",
		"https://res.cloudinary.com/demo/kept.png",
		"data:image/png;base64,AAAA",
	}
	festival := store.Create(d)

	assert.Equal(t, []string{"https://res.cloudinary.com/demo/kept.png"}, festival.ImageURLs)
}

func TestUpdateMergesAndReplacesImages(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Editable Fest"))

	location := "Iloilo City"
	images := []string{"https://res.cloudinary.com/demo/new.png"}
	updated := store.Update(festival.ID, Patch{Location: &location, Images: &images})
	require.True(t, updated)

	got, ok := store.GetByID(festival.ID)
	require.True(t, ok)
	assert.Equal(t, "Iloilo City", got.Location)
	assert.Equal(t, "Editable Fest", got.Name, "untouched fields survive")
	assert.Equal(t, images, got.ImageURLs, "images replace, not merge")
}

func TestUpdateMissingIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	name := "ghost"
	assert.False(t, store.Update("absent", Patch{Name: &name}))
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Doomed Fest"))

	assert.True(t, store.Delete(festival.ID))
	_, ok := store.GetByID(festival.ID)
	assert.False(t, ok)
	assert.False(t, store.Delete(festival.ID), "second delete is a no-op")
}

func TestJoinIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Join Fest"))

	require.True(t, store.Join(festival.ID, "ana@example.com"))
	require.True(t, store.Join(festival.ID, "ana@example.com"))

	got, _ := store.GetByID(festival.ID)
	require.Len(t, got.JoinedUsers, 1)
	assert.Equal(t, "ana@example.com", got.JoinedUsers[0].UserID)
	assert.Nil(t, got.JoinedUsers[0].Rating)
}

func TestRateRecomputesMeanExcludingUnrated(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Rated Fest"))
	require.True(t, store.Join(festival.ID, "u1"))
	require.True(t, store.Join(festival.ID, "u2"))

	require.True(t, store.Rate(festival.ID, "u1", 4))
	got, _ := store.GetByID(festival.ID)
	assert.Equal(t, 4.0, got.Rating, "sole rating stands alone")

	require.True(t, store.Rate(festival.ID, "u2", 2))
	got, _ = store.GetByID(festival.ID)
	assert.Equal(t, 3.0, got.Rating, "mean of 4 and 2")
}

func TestRateRequiresJoin(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Strangers Fest"))

	assert.False(t, store.Rate(festival.ID, "stranger", 5))
	got, _ := store.GetByID(festival.ID)
	assert.Equal(t, 0.0, got.Rating)
}

func TestPersistedStateMatchesMemory(t *testing.T) {
	store, persistence := newTestStore(t)

	created := store.Create(draft("Durable Fest"))
	month := "March"
	store.Update(created.ID, Patch{Month: &month})
	store.Create(draft("Second Fest"))
	store.Delete("second-fest")
	store.Join(created.ID, "u1")
	store.Rate(created.ID, "u1", 5)

	reloaded := NewStore(persistence, nil)
	assert.Equal(t, store.List(), reloaded.List(),
		"round-trip through durable storage reproduces the record set")
}

func TestCorruptBlobStartsEmpty(t *testing.T) {
	persistence := blobstore.NewMemoryStore()
	require.NoError(t, persistence.Save(StorageKey, []byte("{not json")))

	store := NewStore(persistence, nil)
	assert.Empty(t, store.List())
}

func TestGetByIDReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	festival := store.Create(draft("Copy Fest"))

	got, _ := store.GetByID(festival.ID)
	got.ImageURLs[0] = "mutated"

	again, _ := store.GetByID(festival.ID)
	assert.Equal(t, "https://res.cloudinary.com/demo/a.png", again.ImageURLs[0])
}

func TestPersistedBlobIsValidJSON(t *testing.T) {
	store, persistence := newTestStore(t)
	store.Create(draft("Blob Fest"))

	blob, found, err := persistence.Load(StorageKey)
	require.NoError(t, err)
	require.True(t, found)

	var decoded []Festival
	require.NoError(t, json.Unmarshal(blob, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "blob-fest", decoded[0].ID)
}
