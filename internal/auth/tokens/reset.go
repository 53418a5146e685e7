package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = 10 * time.Minute

// ResetToken is a freshly generated password reset token. Only HashedToken is stored.
type ResetToken struct {
	PlaintextToken string
	HashedToken    string
	ExpiresAt      time.Time
}

// GenerateResetToken creates 32 random bytes, hex encoded, and their sha256 digest.
func GenerateResetToken(now time.Time) (*ResetToken, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random token: %w", err)
	}

	plaintext := hex.EncodeToString(tokenBytes)
	return &ResetToken{
		PlaintextToken: plaintext,
		HashedToken:    HashResetToken(plaintext),
		ExpiresAt:      now.Add(ResetTokenTTL),
	}, nil
}

// HashResetToken returns the stored form of a plaintext token.
func HashResetToken(plaintext string) string {
	hash := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(hash[:])
}

// ValidateResetToken compares a plaintext token with a stored hash in constant time.
func ValidateResetToken(plaintext, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashResetToken(plaintext)), []byte(storedHash)) == 1
}
