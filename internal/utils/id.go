package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random identifier suitable for sessions and connections.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
