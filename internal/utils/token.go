package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// VerificationTokenBytes is the entropy of a verification token before encoding.
const VerificationTokenBytes = 32

// GenerateURLSafeToken returns n random bytes encoded as unpadded URL-safe base64.
func GenerateURLSafeToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex sha256 of a token, used as a storage key.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// URLSafeTokenGenerator produces verification tokens.
type URLSafeTokenGenerator struct {
	Bytes int
}

func (g URLSafeTokenGenerator) Generate() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = VerificationTokenBytes
	}
	return GenerateURLSafeToken(n)
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
