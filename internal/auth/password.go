package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltBytes is the per-user salt length.
	saltBytes = 32
	// tokenBytes is the session token entropy.
	tokenBytes = 32
	// hashIterations is the pbkdf2 work factor.
	hashIterations = 210_000
	// hashKeyLen is the derived key length.
	hashKeyLen = 32

	// MinUsernameLength is the shortest accepted username.
	MinUsernameLength = 3
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
)

// specialChars is the set of characters that satisfy the special-character
// requirement of the password policy.
const specialChars = `!@#$%^&*(),.?":{}|<>`

// GenerateSalt returns a fresh hex-encoded per-user salt.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives a one-way digest of the password and salt.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIterations, hashKeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword reports whether password matches the stored digest.
// Comparison is constant-time.
func VerifyPassword(password, salt, storedHash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// NewSessionToken returns a high-entropy opaque bearer token.
func NewSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidatePassword enforces the strength policy: at least 8 characters with
// an uppercase letter, a lowercase letter, a digit and a special character.
// The returned error names the missing class.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Message: "Password must be at least 8 characters long"}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return &ValidationError{Message: "Password must contain at least one uppercase letter"}
	case !hasLower:
		return &ValidationError{Message: "Password must contain at least one lowercase letter"}
	case !hasDigit:
		return &ValidationError{Message: "Password must contain at least one number"}
	case !hasSpecial:
		return &ValidationError{Message: "Password must contain at least one special character"}
	}

	return nil
}

// emailRegex is a standard pattern check, not a full RFC 5322 parser.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail performs a standard pattern check.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return &ValidationError{Message: "Please enter a valid email address"}
	}
	return nil
}

// ValidateUsername checks the minimum length requirement.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return &ValidationError{Message: "Username must be at least 3 characters long"}
	}
	return nil
}
