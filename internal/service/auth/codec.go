package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// Bytes of entropy per token value. Base64 of 16 random bytes gives 22
// significant chars plus '==' padding, which satisfies the stored
// token format (>=16 chars of [\w\-.~+/]) with room to spare.
const tokenEntropyBytes = 16

// GenerateTokenValue produces an opaque bearer token value from the
// system entropy source. The value carries no structure; all meaning
// lives in the server-side record it indexes.
//
// crypto/rand failing means the platform cannot produce secure
// randomness, which is not a recoverable condition for a token server.
func GenerateTokenValue() string {
	b := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		panic("auth: entropy source unavailable: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(b)
}
