// Package catalog owns the set of published festival records: creation,
// updates, rating aggregation and durable persistence.
package catalog

import (
	"strings"
	"time"
)

// Category classifies a festival.
type Category string

const (
	CategoryReligious  Category = "Religious"
	CategoryCultural   Category = "Cultural"
	CategoryHistorical Category = "Historical"
	CategoryNature     Category = "Nature"
)

// JoinedUser records a participant. Rating is nil until the user rates.
type JoinedUser struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
	Rating   *float64  `json:"rating"`
}

// Festival is a published, user-visible record. It is owned exclusively by
// the Store; accessors hand out copies, never mutable references.
type Festival struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Location          string       `json:"location"`
	Month             string       `json:"month"`
	Description       string       `json:"description"`
	Category          Category     `json:"category"`
	ExpectedAttendees int          `json:"expectedAttendees"`
	Year              int          `json:"year"`
	ImageURLs         []string     `json:"imageUrls"`
	Rating            float64      `json:"rating"`
	JoinedUsers       []JoinedUser `json:"joinedUsers"`
}

// Draft is the not-yet-persisted set of fields a caller supplies to create or
// submit a record. Images is the canonical list; LegacyImage accepts the old
// single-value shape and is only consulted when Images is empty.
type Draft struct {
	Name              string   `json:"name"`
	Location          string   `json:"location"`
	Month             string   `json:"month"`
	Description       string   `json:"description"`
	Category          Category `json:"category"`
	ExpectedAttendees int      `json:"expectedAttendees"`
	Images            []string `json:"imageUrls"`
	LegacyImage       string   `json:"imagePreview,omitempty"`
}

// NormalizeImages collapses the draft image shapes into one list of absolute
// URLs: the list wins over the legacy single value, and transient
// local-preview references never survive into a persisted record.
func NormalizeImages(images []string, legacy string) []string {
	candidates := images
	if len(candidates) == 0 && legacy != "" {
		candidates = []string{legacy}
	}
	normalized := make([]string, 0, len(candidates))
	for _, url := range candidates {
		if isTransientRef(url) {
			continue
		}
		normalized = append(normalized, url)
	}
	return normalized
}

// isTransientRef reports whether url is a local preview handle rather than a
// durable absolute URL.
func isTransientRef(url string) bool {
	url = strings.TrimSpace(url)
	return url == "" || strings.HasPrefix(url, "blob:") || strings.HasPrefix(url, "data:")
}
