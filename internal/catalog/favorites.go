package catalog

import (
	"encoding/json"
	"sync"

	"fiesta/internal/metrics"
	"fiesta/internal/storage/blobstore"
	"fiesta/internal/utils"
)

// Storage keys for the favorites state.
const (
	FavoritesKey = "favorites"
	LastSeenKey  = "favorites_last_seen_count"
)

// Favorites tracks each user's favorite festivals plus the count they last
// acknowledged, so the presentation layer can show an unread badge.
type Favorites struct {
	mu          sync.Mutex
	byUser      map[string][]string
	lastSeen    map[string]int
	persistence blobstore.Store
	logger      *utils.Logger
	observer    metrics.Observer
}

// NewFavorites loads favorites state; corrupt blobs degrade to empty.
func NewFavorites(persistence blobstore.Store, observer metrics.Observer) *Favorites {
	f := &Favorites{
		byUser:      make(map[string][]string),
		lastSeen:    make(map[string]int),
		persistence: persistence,
		logger:      utils.NewComponentLogger("Favorites"),
		observer:    metrics.OrNop(observer),
	}
	if blob, found, err := persistence.Load(FavoritesKey); err == nil && found {
		if err := json.Unmarshal(blob, &f.byUser); err != nil {
			f.logger.Warn("corrupt favorites blob discarded: %v", err)
			f.byUser = make(map[string][]string)
		}
	}
	if blob, found, err := persistence.Load(LastSeenKey); err == nil && found {
		if err := json.Unmarshal(blob, &f.lastSeen); err != nil {
			f.logger.Warn("corrupt last-seen blob discarded: %v", err)
			f.lastSeen = make(map[string]int)
		}
	}
	return f
}

// Toggle flips the festival in the user's favorite set and reports whether it
// is favorited after the call.
func (f *Favorites) Toggle(userID, festivalID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.byUser[userID]
	for i, id := range current {
		if id == festivalID {
			f.byUser[userID] = append(current[:i], current[i+1:]...)
			f.persist()
			return false
		}
	}
	f.byUser[userID] = append(current, festivalID)
	f.persist()
	return true
}

// List returns the user's favorites in insertion order.
func (f *Favorites) List(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.byUser[userID]...)
}

// MarkSeen records that the user has viewed their current favorites.
func (f *Favorites) MarkSeen(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen[userID] = len(f.byUser[userID])
	f.persist()
}

// UnreadCount returns how many favorites accrued since the user last looked.
func (f *Favorites) UnreadCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	unread := len(f.byUser[userID]) - f.lastSeen[userID]
	if unread < 0 {
		return 0
	}
	return unread
}

func (f *Favorites) persist() {
	f.save(FavoritesKey, f.byUser)
	f.save(LastSeenKey, f.lastSeen)
}

// save re-serializes one blob. Callers hold the lock.
func (f *Favorites) save(key string, value interface{}) {
	blob, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		f.observer.RecordSave(key, err)
		f.logger.Error("encode %s: %v", key, err)
		return
	}
	err = f.persistence.Save(key, blob)
	f.observer.RecordSave(key, err)
	if err != nil {
		f.logger.Error("persist %s: %v", key, err)
	}
}
