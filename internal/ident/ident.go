// Package ident derives stable slug identifiers for festival records and
// pending submissions.
package ident

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBase is the slug used when a name normalizes to nothing.
const DefaultBase = "festival"

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// MakeID normalizes a display name into a slug identifier. It is pure and
// deterministic: the same name always yields the same id. Names that consist
// entirely of stripped characters normalize to the empty string.
func MakeID(name string) string {
	id := strings.ToLower(name)
	id = invalidChars.ReplaceAllString(id, "")
	id = strings.TrimSpace(id)
	id = whitespace.ReplaceAllString(id, "-")
	id = hyphenRuns.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}

var (
	stampMu   sync.Mutex
	lastStamp int64
)

// submissionStamp returns a strictly increasing millisecond token so two
// submissions in the same instant still get distinct ids.
func submissionStamp(now time.Time) int64 {
	stampMu.Lock()
	defer stampMu.Unlock()
	stamp := now.UnixMilli()
	if stamp <= lastStamp {
		stamp = lastStamp + 1
	}
	lastStamp = stamp
	return stamp
}

// MakeSubmissionID derives an ephemeral identifier for a pending submission:
// the name slug plus a monotonic timestamp suffix. Empty or all-punctuation
// names degrade to DefaultBase before suffixing.
func MakeSubmissionID(name string, now time.Time) string {
	base := MakeID(name)
	if base == "" {
		base = DefaultBase
	}
	return base + "-" + strconv.FormatInt(submissionStamp(now), 10)
}
