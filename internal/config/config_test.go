package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Normalize(Config{})

	assert.Equal(t, DefaultUploadEndpoint, cfg.UploadEndpoint)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, 2500*time.Millisecond, cfg.NegotiateTimeout)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxFileBytes)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := Normalize(Config{
		UploadEndpoint:   "https://media.example.com/%s/upload",
		NegotiateTimeout: time.Second,
		MaxFileBytes:     1,
	})

	assert.Equal(t, "https://media.example.com/%s/upload", cfg.UploadEndpoint)
	assert.Equal(t, time.Second, cfg.NegotiateTimeout)
	assert.Equal(t, int64(1), cfg.MaxFileBytes)
}

func TestValidateUpload(t *testing.T) {
	assert.Error(t, Config{}.ValidateUpload())
	assert.Error(t, Config{CloudName: "demo"}.ValidateUpload())
	assert.Error(t, Config{UploadPreset: "unsigned"}.ValidateUpload())
	assert.NoError(t, Config{CloudName: "demo", UploadPreset: "unsigned"}.ValidateUpload())
}

func TestUploadURL(t *testing.T) {
	cfg := Normalize(Config{CloudName: "demo"})
	assert.Equal(t, "https://api.cloudinary.com/v1_1/demo/image/upload", cfg.UploadURL())

	fixed := Config{UploadEndpoint: "http://127.0.0.1:9000/upload"}
	assert.Equal(t, "http://127.0.0.1:9000/upload", fixed.UploadURL())
}
