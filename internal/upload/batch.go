package upload

import (
	"context"

	"fiesta/internal/utils"
)

// FileFailure records which file in a batch failed and why.
type FileFailure struct {
	Index int
	Name  string
	Cause Failure
}

// BatchResult aggregates a sequential multi-file upload. URLs preserves the
// input order of the successful subset.
type BatchResult struct {
	URLs     []string
	Failures []FileFailure
}

// FailureCount returns the number of files that did not upload.
func (r BatchResult) FailureCount() int {
	return len(r.Failures)
}

// AllFailed reports whether no file in a non-empty batch succeeded.
func (r BatchResult) AllFailed() bool {
	return len(r.URLs) == 0 && len(r.Failures) > 0
}

// Partial reports whether some but not all files succeeded. Callers decide
// whether to accept the partial result or retry the whole batch.
func (r BatchResult) Partial() bool {
	return len(r.URLs) > 0 && len(r.Failures) > 0
}

// BatchUploader drives the single-file uploader over a list of files,
// strictly in order and one at a time. Serializing bounds outbound
// connections and makes the successful-URL list deterministic; a failure on
// one file never aborts the batch.
type BatchUploader struct {
	uploader *Uploader
	logger   *utils.Logger
}

// NewBatchUploader wraps a single-file uploader.
func NewBatchUploader(uploader *Uploader) *BatchUploader {
	return &BatchUploader{
		uploader: uploader,
		logger:   utils.NewComponentLogger("BatchUploader"),
	}
}

// UploadAll uploads every file sequentially, collecting successful URLs in
// input order and recording each failure.
func (b *BatchUploader) UploadAll(ctx context.Context, files []File) BatchResult {
	var result BatchResult
	for i, file := range files {
		res := b.uploader.Upload(ctx, file)
		if res.Ok() {
			result.URLs = append(result.URLs, res.URL)
			continue
		}
		result.Failures = append(result.Failures, FileFailure{
			Index: i,
			Name:  file.Name,
			Cause: *res.Failure,
		})
	}
	if n := result.FailureCount(); n > 0 {
		b.logger.Warn("batch finished with %d of %d files failed", n, len(files))
	}
	return result
}
