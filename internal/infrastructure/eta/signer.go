package eta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Signer computes the message authentication code the authority expects in
// the X-Signature header: HMAC-SHA256 keyed by the client secret, base64
// encoded. It must be fed the exact bytes that go on the wire: the client
// marshals each signed payload once and reuses those bytes for both the
// signature and the request body.
type Signer struct {
	key []byte
}

// NewSigner builds a signer keyed by the client secret.
func NewSigner(clientSecret string) *Signer {
	return &Signer{key: []byte(clientSecret)}
}

// Sign returns the base64-encoded HMAC-SHA256 digest of payload.
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
