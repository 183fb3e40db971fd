package taskcluster

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// SlugID returns a new "nice" slugId: a v4 UUID, URL-safe base64 encoded
// without padding, with the first bit cleared so it never starts with '-'.
func SlugID() string {
	u := uuid.New()
	u[0] &= 0x7f
	return base64.RawURLEncoding.EncodeToString(u[:])
}

// IDGenerator hands out task ids. Decision runs use SlugID; tests inject a
// deterministic sequence.
type IDGenerator func() string
