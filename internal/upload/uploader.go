package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"fiesta/internal/config"
	"fiesta/internal/metrics"
	"fiesta/internal/utils"
)

// Uploader posts a single image to the media host, preferring signed mode
// when the negotiator can produce a credential and falling back to unsigned
// otherwise. Every failure is returned as a classified Result; Upload never
// panics and never returns an error to crash the caller.
type Uploader struct {
	cfg        config.Config
	negotiator *Negotiator
	client     *http.Client
	logger     *utils.Logger
	observer   metrics.Observer
	inflight   atomic.Bool
	now        func() time.Time
}

// NewUploader builds an Uploader from the shared configuration.
func NewUploader(cfg config.Config, negotiator *Negotiator, observer metrics.Observer) *Uploader {
	return &Uploader{
		cfg:        config.Normalize(cfg),
		negotiator: negotiator,
		client:     &http.Client{},
		logger:     utils.NewComponentLogger("Uploader"),
		observer:   metrics.OrNop(observer),
		now:        time.Now,
	}
}

// InFlight reports whether an upload is currently outstanding. Observers use
// it to reflect busy/idle status; it carries no synchronization guarantees
// beyond the flag itself.
func (u *Uploader) InFlight() bool {
	return u.inflight.Load()
}

// Upload sends one file to the media host and returns the canonical secure
// URL or a classified failure.
func (u *Uploader) Upload(ctx context.Context, file File) Result {
	start := u.now()
	if file.Size() > u.cfg.MaxFileBytes {
		return u.record(file, start, failure(KindTooLarge,
			"%s is %d bytes, ceiling is %d", file.Name, file.Size(), u.cfg.MaxFileBytes))
	}
	if err := u.cfg.ValidateUpload(); err != nil {
		return u.record(file, start, failure(KindConfigMissing, "%v", err))
	}

	u.inflight.Store(true)
	defer u.inflight.Store(false)

	cred := u.negotiator.Negotiate(ctx, u.now().Unix())
	if cred != nil {
		u.logger.Debug("uploading %s in signed mode", file.Name)
	} else {
		u.logger.Debug("uploading %s in unsigned mode", file.Name)
	}

	body, contentType, err := buildForm(file, u.cfg.UploadPreset, cred)
	if err != nil {
		return u.record(file, start, failure(KindRejected, "build upload form: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL(), body)
	if err != nil {
		return u.record(file, start, failure(KindRejected, "build upload request: %v", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return u.record(file, start, failure(KindTimeout,
				"upload of %s exceeded %s", file.Name, u.cfg.UploadTimeout))
		}
		return u.record(file, start, failure(KindRejected, "upload request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	result := parseResponse(resp)
	if result.Ok() {
		u.logger.Info("uploaded %s in %s", file.Name, time.Since(start).Round(time.Millisecond))
	}
	return u.record(file, start, result)
}

func (u *Uploader) record(file File, start time.Time, result Result) Result {
	outcome := "success"
	if !result.Ok() {
		outcome = string(result.Failure.Kind)
		u.logger.Warn("upload of %s failed: %v", file.Name, result.Failure)
	}
	u.observer.RecordUpload(u.now().Sub(start), file.Size(), outcome)
	return result
}

// buildForm assembles the multipart request body: the file, the upload
// preset, and the signed-mode fields when a credential is present.
func buildForm(file File, preset string, cred *Credential) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField("upload_preset", preset); err != nil {
		return nil, "", err
	}
	if cred != nil {
		fields := map[string]string{
			"signature": cred.Signature,
			"timestamp": strconv.FormatInt(cred.Timestamp, 10),
			"api_key":   cred.APIKey,
		}
		for name, value := range fields {
			if err := writer.WriteField(name, value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// parseResponse normalizes the media host reply into a Result.
func parseResponse(resp *http.Response) Result {
	var parsed uploadResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && parsed.Error.Message != "" {
			return failure(KindRejected, "%s", parsed.Error.Message)
		}
		return failure(KindRejected, "upload failed with status %s", resp.Status)
	}

	if decodeErr != nil || parsed.SecureURL == "" {
		return failure(KindMalformed, "success status but no secure_url in response")
	}
	return Result{URL: parsed.SecureURL}
}
