package upload

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Sign computes the media host signature: an HMAC-SHA1 hex digest over the
// literal string `upload_preset=<preset>&timestamp=<timestamp>` keyed by the
// server-held API secret.
func Sign(preset string, timestamp int64, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	fmt.Fprintf(mac, "upload_preset=%s&timestamp=%d", preset, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCredential checks a negotiated credential against a locally held
// secret. Deployments that keep the secret server-side only cannot verify;
// callers treat a failed check as advisory, never as an upload blocker.
func VerifyCredential(cred *Credential, secret string) bool {
	if cred == nil || secret == "" {
		return false
	}
	expected := Sign(cred.UploadPreset, cred.Timestamp, secret)
	return hmac.Equal([]byte(expected), []byte(cred.Signature))
}
