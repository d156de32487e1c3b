package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewUserID creates a public user identifier in the format "USR_XXXXXXXX".
// Uniqueness is ultimately enforced by the users table index.
func NewUserID() string {
	fragment := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "USR_" + strings.ToUpper(fragment[:12])
}

// UniqueSuffix returns a short random fragment for deduplicating
// generated usernames.
func UniqueSuffix() string {
	return strings.ToUpper(uuid.NewString()[:6])
}
