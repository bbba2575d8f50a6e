package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"fiesta/internal/config"
	"fiesta/internal/utils"
)

// Credential is a short-lived signed-upload authorization issued by the
// signature collaborator.
type Credential struct {
	Signature    string `json:"signature"`
	Timestamp    int64  `json:"timestamp"`
	UploadPreset string `json:"upload_preset"`
	CloudName    string `json:"cloud_name"`
	APIKey       string `json:"api_key"`
}

// Negotiator requests signed-upload credentials under a short fail-fast
// timeout. Any failure degrades to unsigned mode: signed upload is a
// hardening step, not a hard dependency, so negotiation errors are swallowed
// and never surfaced to the caller.
type Negotiator struct {
	endpoint string
	secret   string
	timeout  time.Duration
	client   *http.Client
	logger   *utils.Logger
	group    singleflight.Group
}

// NewNegotiator builds a Negotiator from the shared configuration. An empty
// signature URL yields a negotiator that always answers nil, which keeps
// unsigned-only deployments on the same code path.
func NewNegotiator(cfg config.Config) *Negotiator {
	return &Negotiator{
		endpoint: cfg.SignatureURL,
		secret:   cfg.APISecret,
		timeout:  cfg.NegotiateTimeout,
		client:   &http.Client{},
		logger:   utils.NewComponentLogger("UploadNegotiator"),
	}
}

// Negotiate asks the signature collaborator to sign the given UNIX timestamp.
// It returns nil when the collaborator is unreachable, errors, times out, or
// replies without a signature. A single fast attempt, no retry.
func (n *Negotiator) Negotiate(ctx context.Context, timestamp int64) *Credential {
	if n == nil || n.endpoint == "" {
		return nil
	}

	// Concurrent uploads negotiating the same timestamp share one request.
	value, err, _ := n.group.Do(strconv.FormatInt(timestamp, 10), func() (interface{}, error) {
		return n.request(ctx, timestamp)
	})
	if err != nil {
		n.logger.Warn("signature negotiation failed, proceeding unsigned: %v", err)
		return nil
	}

	cred := value.(*Credential)
	if n.secret != "" && !VerifyCredential(cred, n.secret) {
		// Advisory only: a mismatched local secret must not block the upload.
		n.logger.Warn("negotiated signature does not match local secret")
	}
	return cred
}

func (n *Negotiator) request(ctx context.Context, timestamp int64) (*Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]int64{"timestamp": timestamp})
	if err != nil {
		return nil, fmt.Errorf("encode negotiation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build negotiation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("negotiation request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signature endpoint returned %s", resp.Status)
	}

	var cred Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, fmt.Errorf("decode negotiation response: %w", err)
	}
	if cred.Signature == "" {
		return nil, fmt.Errorf("negotiation response missing signature")
	}
	return &cred, nil
}
