// Package config holds the user-configurable settings shared across the
// upload pipeline, the stores and the CLI.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultUploadEndpoint is the media host endpoint template; the cloud
	// name is interpolated at request time.
	DefaultUploadEndpoint = "https://api.cloudinary.com/v1_1/%s/image/upload"
	// DefaultNegotiateTimeout is the fail-fast window for the signature
	// collaborator. Signed upload is an optimization, not a dependency, so
	// the window is deliberately short.
	DefaultNegotiateTimeout = 2500 * time.Millisecond
	// DefaultUploadTimeout bounds a single file upload end to end.
	DefaultUploadTimeout = 30 * time.Second
	// DefaultMaxFileBytes is the upload size ceiling.
	DefaultMaxFileBytes = 10 << 20
	// DefaultDataDir stores the durable record sets.
	DefaultDataDir = "~/.fiesta"
)

// Config captures every tunable the binaries share.
type Config struct {
	CloudName        string        `json:"cloud_name" yaml:"cloud_name" mapstructure:"cloud_name"`
	UploadPreset     string        `json:"upload_preset" yaml:"upload_preset" mapstructure:"upload_preset"`
	APIKey           string        `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	APISecret        string        `json:"api_secret" yaml:"api_secret" mapstructure:"api_secret"`
	SignatureURL     string        `json:"signature_url" yaml:"signature_url" mapstructure:"signature_url"`
	UploadEndpoint   string        `json:"upload_endpoint" yaml:"upload_endpoint" mapstructure:"upload_endpoint"`
	DataDir          string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	AdminUser        string        `json:"admin_user" yaml:"admin_user" mapstructure:"admin_user"`
	AdminPassword    string        `json:"admin_password" yaml:"admin_password" mapstructure:"admin_password"`
	NegotiateTimeout time.Duration `json:"negotiate_timeout" yaml:"negotiate_timeout" mapstructure:"negotiate_timeout"`
	UploadTimeout    time.Duration `json:"upload_timeout" yaml:"upload_timeout" mapstructure:"upload_timeout"`
	MaxFileBytes     int64         `json:"max_file_bytes" yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
}

// Normalize fills defaults when unset.
func Normalize(cfg Config) Config {
	if strings.TrimSpace(cfg.UploadEndpoint) == "" {
		cfg.UploadEndpoint = DefaultUploadEndpoint
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.NegotiateTimeout <= 0 {
		cfg.NegotiateTimeout = DefaultNegotiateTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return cfg
}

// ValidateUpload reports whether the client-side identifiers required for any
// upload are present. Called before a network request is attempted.
func (c Config) ValidateUpload() error {
	if strings.TrimSpace(c.CloudName) == "" {
		return fmt.Errorf("cloud name missing")
	}
	if strings.TrimSpace(c.UploadPreset) == "" {
		return fmt.Errorf("upload preset missing")
	}
	return nil
}

// UploadURL returns the media host endpoint for the configured cloud.
func (c Config) UploadURL() string {
	if strings.Contains(c.UploadEndpoint, "%s") {
		return fmt.Sprintf(c.UploadEndpoint, c.CloudName)
	}
	return c.UploadEndpoint
}
