// Package submissions owns the queue of user-submitted festival proposals
// awaiting moderation.
package submissions

import (
	"encoding/json"
	"sync"
	"time"

	"fiesta/internal/catalog"
	"fiesta/internal/ident"
	"fiesta/internal/metrics"
	"fiesta/internal/storage/blobstore"
	"fiesta/internal/utils"
)

// StorageKey names the blob under which the pending queue is persisted,
// independently of the catalog's record set.
const StorageKey = "pendingSubmissions"

// Status of a pending submission. Terminal states remove the record rather
// than flagging it, so pending is the only value that ever persists.
type Status string

// StatusPending marks a submission awaiting moderation.
const StatusPending Status = "pending"

// Submission is a proposal awaiting moderation. It is never mutated in
// place: approval copies its fields into a new catalog record.
type Submission struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Location          string           `json:"location"`
	Month             string           `json:"month"`
	Description       string           `json:"description"`
	Category          catalog.Category `json:"category"`
	ExpectedAttendees int              `json:"expectedAttendees"`
	Images            []string         `json:"imageUrls"`
	Status            Status           `json:"status"`
	SubmittedBy       string           `json:"submittedBy"`
	SubmittedAt       time.Time        `json:"submittedAt"`
}

// Publisher is the slice of the catalog store the queue needs: approval
// delegates record creation to it.
type Publisher interface {
	Create(draft catalog.Draft) catalog.Festival
}

// Queue is the process-wide owner of pending submissions, most recent first.
// Every mutation synchronously persists the full queue.
type Queue struct {
	mu          sync.Mutex
	pending     []Submission
	publisher   Publisher
	persistence blobstore.Store
	logger      *utils.Logger
	observer    metrics.Observer
	now         func() time.Time
}

// NewQueue loads the pending queue from the persistence collaborator. A
// corrupt blob is discarded rather than aborting startup.
func NewQueue(publisher Publisher, persistence blobstore.Store, observer metrics.Observer) *Queue {
	q := &Queue{
		publisher:   publisher,
		persistence: persistence,
		logger:      utils.NewComponentLogger("SubmissionQueue"),
		observer:    metrics.OrNop(observer),
		now:         time.Now,
	}
	q.pending = q.load()
	return q
}

// Submit enqueues a proposal for moderation and returns the stored copy. The
// id is suffixed so identical names submitted in the same instant stay
// distinct; submitters without an identity are recorded as anonymous.
func (q *Queue) Submit(draft catalog.Draft, submittedBy string) Submission {
	q.mu.Lock()
	defer q.mu.Unlock()

	if submittedBy == "" {
		submittedBy = "anonymous"
	}
	submission := Submission{
		ID:                ident.MakeSubmissionID(draft.Name, q.now()),
		Name:              draft.Name,
		Location:          draft.Location,
		Month:             draft.Month,
		Description:       draft.Description,
		Category:          draft.Category,
		ExpectedAttendees: draft.ExpectedAttendees,
		Images:            catalog.NormalizeImages(draft.Images, draft.LegacyImage),
		Status:            StatusPending,
		SubmittedBy:       submittedBy,
		SubmittedAt:       q.now().UTC(),
	}
	q.pending = append([]Submission{submission}, q.pending...)
	q.persist()
	q.logger.Info("submission %s queued by %s", submission.ID, submission.SubmittedBy)
	return submission
}

// Approve publishes the matching submission through the catalog store and
// removes it from the queue. The returned festival is the created record;
// found is false when id is absent and nothing happens.
func (q *Queue) Approve(id string) (catalog.Festival, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, submission := range q.pending {
		if submission.ID != id {
			continue
		}
		festival := q.publisher.Create(catalog.Draft{
			Name:              submission.Name,
			Location:          submission.Location,
			Month:             submission.Month,
			Description:       submission.Description,
			Category:          submission.Category,
			ExpectedAttendees: submission.ExpectedAttendees,
			Images:            submission.Images,
		})
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		q.persist()
		q.logger.Info("submission %s approved as %s", id, festival.ID)
		return festival, true
	}
	return catalog.Festival{}, false
}

// Reject removes the matching submission without creating a record; false
// when id is absent.
func (q *Queue) Reject(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, submission := range q.pending {
		if submission.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.persist()
			q.logger.Info("submission %s rejected", id)
			return true
		}
	}
	return false
}

// Pending returns a snapshot of the queue, most recent first.
func (q *Queue) Pending() []Submission {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Submission, len(q.pending))
	for i, submission := range q.pending {
		out[i] = submission
		out[i].Images = append([]string(nil), submission.Images...)
	}
	return out
}

// Refresh reloads the queue from durable storage, reconciling this copy with
// writes another in-process observer may have issued.
func (q *Queue) Refresh() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = q.load()
}

func (q *Queue) load() []Submission {
	blob, found, err := q.persistence.Load(StorageKey)
	if err != nil {
		q.logger.Warn("loading submissions: %v, starting empty", err)
		return nil
	}
	if !found {
		return nil
	}
	var pending []Submission
	if err := json.Unmarshal(blob, &pending); err != nil {
		q.logger.Warn("corrupt submission blob discarded: %v", err)
		return nil
	}
	return pending
}

// persist re-serializes the full queue. Callers hold the lock.
func (q *Queue) persist() {
	blob, err := json.MarshalIndent(q.pending, "", "  ")
	if err != nil {
		q.observer.RecordSave(StorageKey, err)
		q.logger.Error("encode submissions: %v", err)
		return
	}
	err = q.persistence.Save(StorageKey, blob)
	q.observer.RecordSave(StorageKey, err)
	if err != nil {
		q.logger.Error("persist submissions: %v", err)
	}
}
