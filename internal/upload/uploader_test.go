package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiesta/internal/config"
)

func testConfig(uploadURL, signatureURL string) config.Config {
	return config.Normalize(config.Config{
		CloudName:        "demo",
		UploadPreset:     "unsigned_preset",
		UploadEndpoint:   uploadURL,
		SignatureURL:     signatureURL,
		NegotiateTimeout: 100 * time.Millisecond,
		UploadTimeout:    2 * time.Second,
	})
}

func newTestUploader(cfg config.Config) *Uploader {
	return NewUploader(cfg, NewNegotiator(cfg), nil)
}

func TestUploadTooLargeSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.MaxFileBytes = 16
	uploader := newTestUploader(cfg)

	res := uploader.Upload(context.Background(), File{Name: "huge.png", Data: make([]byte, 17)})
	require.False(t, res.Ok())
	assert.Equal(t, KindTooLarge, res.Failure.Kind)
	assert.Equal(t, int32(0), hits.Load(), "size ceiling must be enforced before any network call")
}

func TestUploadConfigMissing(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/upload", "")
	cfg.UploadPreset = ""
	uploader := newTestUploader(cfg)

	res := uploader.Upload(context.Background(), File{Name: "a.png", Data: []byte("x")})
	require.False(t, res.Ok())
	assert.Equal(t, KindConfigMissing, res.Failure.Kind)
}

func TestUploadUnsignedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "unsigned_preset", r.FormValue("upload_preset"))
		assert.Empty(t, r.FormValue("signature"), "no credential means unsigned mode")
		assert.Empty(t, r.FormValue("api_key"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://res.cloudinary.com/demo/image/upload/a.png",
		})
	}))
	defer server.Close()

	uploader := newTestUploader(testConfig(server.URL, ""))
	res := uploader.Upload(context.Background(), File{Name: "a.png", Data: []byte("png-bytes")})
	require.True(t, res.Ok(), "unexpected failure: %v", res.Failure)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/a.png", res.URL)
	assert.False(t, uploader.InFlight())
}

func TestUploadSignedSuccess(t *testing.T) {
	signature := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"signature":     Sign("unsigned_preset", body["timestamp"], "topsecret"),
			"timestamp":     body["timestamp"],
			"upload_preset": "unsigned_preset",
			"cloud_name":    "demo",
			"api_key":       "123456",
		})
	}))
	defer signature.Close()

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.NotEmpty(t, r.FormValue("timestamp"))
		assert.Equal(t, "123456", r.FormValue("api_key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://res.cloudinary.com/demo/signed.png"})
	}))
	defer media.Close()

	uploader := newTestUploader(testConfig(media.URL, signature.URL))
	res := uploader.Upload(context.Background(), File{Name: "signed.png", Data: []byte("png-bytes")})
	require.True(t, res.Ok(), "unexpected failure: %v", res.Failure)
	assert.Equal(t, "https://res.cloudinary.com/demo/signed.png", res.URL)
}

func TestUploadProceedsUnsignedWhenNegotiatorTimesOut(t *testing.T) {
	release := make(chan struct{})
	signature := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		signature.Close()
	}()

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Empty(t, r.FormValue("signature"))
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://res.cloudinary.com/demo/fallback.png"})
	}))
	defer media.Close()

	cfg := testConfig(media.URL, signature.URL)
	cfg.NegotiateTimeout = 50 * time.Millisecond
	uploader := newTestUploader(cfg)

	res := uploader.Upload(context.Background(), File{Name: "fallback.png", Data: []byte("png-bytes")})
	require.True(t, res.Ok(), "negotiator failure must degrade to unsigned, not fail the upload")
	assert.Equal(t, "https://res.cloudinary.com/demo/fallback.png", res.URL)
}

func TestUploadRejectedPassesHostMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Upload preset not found"},
		})
	}))
	defer server.Close()

	res := newTestUploader(testConfig(server.URL, "")).Upload(context.Background(), File{Name: "a.png", Data: []byte("x")})
	require.False(t, res.Ok())
	assert.Equal(t, KindRejected, res.Failure.Kind)
	assert.Equal(t, "Upload preset not found", res.Failure.Message)
}

func TestUploadRejectedWithoutMessageUsesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	res := newTestUploader(testConfig(server.URL, "")).Upload(context.Background(), File{Name: "a.png", Data: []byte("x")})
	require.False(t, res.Ok())
	assert.Equal(t, KindRejected, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "502")
}

func TestUploadMalformedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"public_id": "abc"})
	}))
	defer server.Close()

	res := newTestUploader(testConfig(server.URL, "")).Upload(context.Background(), File{Name: "a.png", Data: []byte("x")})
	require.False(t, res.Ok())
	assert.Equal(t, KindMalformed, res.Failure.Kind)
}

func TestUploadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	cfg := testConfig(server.URL, "")
	cfg.UploadTimeout = 50 * time.Millisecond
	res := newTestUploader(cfg).Upload(context.Background(), File{Name: "slow.png", Data: []byte("x")})
	require.False(t, res.Ok())
	assert.Equal(t, KindTimeout, res.Failure.Kind)
}
