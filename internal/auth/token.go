package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// TokenBytes is the entropy of an opaque session token.
const TokenBytes = 32

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken returns a random opaque token as lowercase hex.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken is the only form in which tokens are stored.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if len(token) != TokenBytes*2 {
		return "", ErrInvalidToken
	}
	if _, err := hex.DecodeString(token); err != nil {
		return "", ErrInvalidToken
	}
	return token, nil
}
