package catalog

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"fiesta/internal/ident"
	"fiesta/internal/metrics"
	"fiesta/internal/storage/blobstore"
	"fiesta/internal/utils"
)

// StorageKey names the blob under which the full record set is persisted.
const StorageKey = "festivals"

// Store is the process-wide owner of published festival records. All
// mutations go through its operation set; every mutation synchronously
// re-serializes the full record set to the persistence collaborator, so the
// durable state is always the last completed operation.
type Store struct {
	mu          sync.Mutex
	festivals   []*Festival
	restored    bool
	persistence blobstore.Store
	logger      *utils.Logger
	observer    metrics.Observer
	now         func() time.Time
}

// NewStore loads the record set from the persistence collaborator. A missing
// blob starts empty; a corrupt blob is logged and discarded rather than
// aborting startup.
func NewStore(persistence blobstore.Store, observer metrics.Observer) *Store {
	s := &Store{
		persistence: persistence,
		logger:      utils.NewComponentLogger("CatalogStore"),
		observer:    metrics.OrNop(observer),
		now:         time.Now,
	}
	blob, found, err := persistence.Load(StorageKey)
	if err != nil {
		s.logger.Warn("loading festivals: %v, starting empty", err)
		return s
	}
	if !found {
		return s
	}
	s.restored = true
	if err := json.Unmarshal(blob, &s.festivals); err != nil {
		s.logger.Warn("corrupt festival blob discarded: %v", err)
		s.festivals = nil
	}
	return s
}

// Create publishes a new festival from a draft. The id is derived from the
// name; when two names normalize to the same slug the new record gets a
// numeric suffix rather than overwriting the existing one.
func (s *Store) Create(draft Draft) Festival {
	s.mu.Lock()
	defer s.mu.Unlock()

	festival := &Festival{
		ID:                s.freeID(draft.Name),
		Name:              draft.Name,
		Location:          draft.Location,
		Month:             draft.Month,
		Description:       draft.Description,
		Category:          draft.Category,
		ExpectedAttendees: clampAttendees(draft.ExpectedAttendees),
		Year:              s.now().Year(),
		ImageURLs:         NormalizeImages(draft.Images, draft.LegacyImage),
		Rating:            0,
		JoinedUsers:       []JoinedUser{},
	}
	s.festivals = append(s.festivals, festival)
	s.persist()
	return *festival
}

// freeID returns the name slug, suffixed when the slug is already taken.
func (s *Store) freeID(name string) string {
	base := ident.MakeID(name)
	if base == "" {
		base = ident.DefaultBase
	}
	id := base
	for n := 2; s.find(id) != nil; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

// Patch carries the fields Update may change. Nil fields are left untouched;
// a non-nil Images fully replaces the record's image list so callers can
// honor deletions of individual images.
type Patch struct {
	Name              *string
	Location          *string
	Month             *string
	Description       *string
	Category          *Category
	ExpectedAttendees *int
	Images            *[]string
}

// Update merges patch into the record. It reports false, without error, when
// id is absent: missing-id updates are an explicit idempotent no-op.
func (s *Store) Update(id string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	festival := s.find(id)
	if festival == nil {
		return false
	}
	if patch.Name != nil {
		festival.Name = *patch.Name
	}
	if patch.Location != nil {
		festival.Location = *patch.Location
	}
	if patch.Month != nil {
		festival.Month = *patch.Month
	}
	if patch.Description != nil {
		festival.Description = *patch.Description
	}
	if patch.Category != nil {
		festival.Category = *patch.Category
	}
	if patch.ExpectedAttendees != nil {
		festival.ExpectedAttendees = clampAttendees(*patch.ExpectedAttendees)
	}
	if patch.Images != nil {
		festival.ImageURLs = NormalizeImages(*patch.Images, "")
	}
	s.persist()
	return true
}

// Delete removes the record; false when id is absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, festival := range s.festivals {
		if festival.ID == id {
			s.festivals = append(s.festivals[:i], s.festivals[i+1:]...)
			s.persist()
			return true
		}
	}
	return false
}

// GetByID returns a copy of the record.
func (s *Store) GetByID(id string) (Festival, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	festival := s.find(id)
	if festival == nil {
		return Festival{}, false
	}
	return copyFestival(festival), true
}

// List returns copies of every record in insertion order.
func (s *Store) List() []Festival {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Festival, 0, len(s.festivals))
	for _, festival := range s.festivals {
		out = append(out, copyFestival(festival))
	}
	return out
}

// Join appends the user to the festival's participants. Joining twice is a
// silent no-op; a user joins at most once.
func (s *Store) Join(id, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	festival := s.find(id)
	if festival == nil {
		return false
	}
	for _, user := range festival.JoinedUsers {
		if user.UserID == userID {
			return true
		}
	}
	festival.JoinedUsers = append(festival.JoinedUsers, JoinedUser{
		UserID:   userID,
		JoinedAt: s.now().UTC(),
	})
	s.persist()
	return true
}

// Rate sets the joined user's rating and recomputes the festival rating as
// the arithmetic mean of all ratings among joined users, nil ratings
// excluded. Range validation is a presentation-layer responsibility.
func (s *Store) Rate(id, userID string, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	festival := s.find(id)
	if festival == nil {
		return false
	}
	rated := false
	for i := range festival.JoinedUsers {
		if festival.JoinedUsers[i].UserID == userID {
			v := value
			festival.JoinedUsers[i].Rating = &v
			rated = true
			break
		}
	}
	if !rated {
		return false
	}

	// The caller's rating was just set, so count is at least one and the
	// mean of a sole rating is that rating.
	var sum float64
	var count int
	for _, user := range festival.JoinedUsers {
		if user.Rating != nil {
			sum += *user.Rating
			count++
		}
	}
	festival.Rating = sum / float64(count)
	s.persist()
	return true
}

func (s *Store) find(id string) *Festival {
	for _, festival := range s.festivals {
		if festival.ID == id {
			return festival
		}
	}
	return nil
}

// persist re-serializes the full record set. Callers hold the lock.
func (s *Store) persist() {
	blob, err := json.MarshalIndent(s.festivals, "", "  ")
	if err != nil {
		s.observer.RecordSave(StorageKey, err)
		s.logger.Error("encode festivals: %v", err)
		return
	}
	err = s.persistence.Save(StorageKey, blob)
	s.observer.RecordSave(StorageKey, err)
	if err != nil {
		s.logger.Error("persist festivals: %v", err)
	}
}

func clampAttendees(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func copyFestival(f *Festival) Festival {
	out := *f
	out.ImageURLs = append([]string(nil), f.ImageURLs...)
	out.JoinedUsers = make([]JoinedUser, len(f.JoinedUsers))
	for i, user := range f.JoinedUsers {
		out.JoinedUsers[i] = user
		if user.Rating != nil {
			v := *user.Rating
			out.JoinedUsers[i].Rating = &v
		}
	}
	return out
}
