// Package upload implements the image ingestion pipeline: credential
// negotiation with the signature collaborator, single-file uploads to the
// media host, and sequential batch uploads.
package upload

import "fmt"

// FailureKind classifies upload failures.
type FailureKind string

const (
	// KindTooLarge: the file exceeds the size ceiling; no network call made.
	KindTooLarge FailureKind = "too_large"
	// KindTimeout: negotiation or upload exceeded its allotted window.
	KindTimeout FailureKind = "timeout"
	// KindRejected: the media host returned a non-success status.
	KindRejected FailureKind = "rejected"
	// KindMalformed: success status but the expected payload field is missing.
	KindMalformed FailureKind = "malformed"
	// KindConfigMissing: required client-side identifiers are absent.
	KindConfigMissing FailureKind = "config_missing"
)

// Failure describes why an upload did not produce a URL.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is the outcome of a single-file upload: either a canonical secure
// URL or a classified failure, never both.
type Result struct {
	URL     string
	Failure *Failure
}

// Ok reports whether the upload produced a URL.
func (r Result) Ok() bool {
	return r.Failure == nil
}

func failure(kind FailureKind, format string, args ...interface{}) Result {
	return Result{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// File is an in-memory image payload queued for upload.
type File struct {
	Name string
	Data []byte
}

// Size returns the payload size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}
