package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// TestSignature is accepted in place of a real HMAC when test signatures
// are enabled.
const TestSignature = "test_signature"

// ErrUnauthorized is returned for a webhook whose signature does not match.
var ErrUnauthorized = errors.New("invalid webhook signature")

// Sign returns the base64 HMAC-SHA256 of body, as sent in X-Shopify-Hmac-Sha256.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks a webhook signature against the shared secret. An
// empty secret rejects every real signature.
func VerifyWebhook(body []byte, signature, secret string, allowTest bool) error {
	if allowTest && signature == TestSignature {
		return nil
	}
	if secret == "" || signature == "" {
		return ErrUnauthorized
	}
	if !hmac.Equal([]byte(Sign(body, secret)), []byte(signature)) {
		return ErrUnauthorized
	}
	return nil
}
