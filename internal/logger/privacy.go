package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// MinHashSaltLength is the shortest accepted LOG_HASH_SALT.
const MinHashSaltLength = 32

var hashSalt string

// InitHashSalt loads LOG_HASH_SALT. It panics when the salt is missing or
// shorter than MinHashSaltLength, since hashes would then be guessable.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if len(salt) < MinHashSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be set to at least %d characters", MinHashSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hash(data string) string {
	sum := sha256.Sum256([]byte(data + ":" + hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashUserID creates a privacy-preserving hash of a Telegram user ID.
func HashUserID(userID int64) string {
	return hash(fmt.Sprintf("%d", userID))
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hash(fmt.Sprintf("%d", chatID))
}

// HashUID hashes an identity provider uid or an email address.
func HashUID(uid string) string {
	if uid == "" {
		return "<none>"
	}
	return hash("uid:" + strings.ToLower(uid))
}

// SanitizeDescription redacts a transaction description but keeps its shape.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(desc)), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}
	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
