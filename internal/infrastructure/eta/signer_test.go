package eta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner_Sign(t *testing.T) {
	s := NewSigner("test-secret")

	// Fixed vectors computed with openssl dgst -sha256 -hmac.
	assert.Equal(t,
		"cpfiuuYCu1XEmGs6I3awq48Gp2613aW1vPjocAHzGFE=",
		s.Sign([]byte(`{"documents":[]}`)))
	assert.Equal(t,
		"pBvG2B1kE1dq4JlJleCtiaQW7Jc4lRXDYE9HciEi7us=",
		s.Sign(nil))
}

func TestSigner_Sign_KeyMatters(t *testing.T) {
	payload := []byte("payload")

	assert.Equal(t,
		"XZi0XJCiB/qZjOY5/qbwLsyMw/Nv74HWlPuFa00KKMo=",
		NewSigner("key").Sign(payload))
	assert.NotEqual(t,
		NewSigner("key").Sign(payload),
		NewSigner("other-key").Sign(payload))
}

func TestSigner_Sign_Deterministic(t *testing.T) {
	s := NewSigner("secret")
	payload := []byte(`{"submissionId":"abc"}`)

	assert.Equal(t, s.Sign(payload), s.Sign(payload))
}
