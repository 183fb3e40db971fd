package taskdef

import (
	"fmt"
	"path"
	"time"

	"github.com/vk/tvtaskgraph/internal/tcdate"
)

// ArtifactType is the kind of filesystem object an artifact captures.
type ArtifactType string

const (
	ArtifactFile      ArtifactType = "file"
	ArtifactDirectory ArtifactType = "directory"
)

// Artifact describes an expected output of a task and its retention.
type Artifact struct {
	Type    ArtifactType `json:"type"`
	Path    string       `json:"path"`
	Expires string       `json:"expires"`
}

// NewArtifact builds an artifact descriptor whose expiry is the offset
// expression applied to now. The path must be absolute and the resulting
// expiry must be strictly after now.
func NewArtifact(typ ArtifactType, absolutePath, expiresIn string, now time.Time) (Artifact, error) {
	switch typ {
	case ArtifactFile, ArtifactDirectory:
	default:
		return Artifact{}, fmt.Errorf("artifact %s: unknown type %q", absolutePath, typ)
	}
	if !path.IsAbs(absolutePath) {
		return Artifact{}, fmt.Errorf("artifact path %q is not absolute", absolutePath)
	}

	off, err := tcdate.ParseOffset(expiresIn)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %s: %w", absolutePath, err)
	}
	expires := off.From(now)
	if !expires.After(now) {
		return Artifact{}, fmt.Errorf("artifact %s: expiry %q is not in the future", absolutePath, expiresIn)
	}

	return Artifact{
		Type:    typ,
		Path:    absolutePath,
		Expires: tcdate.Format(expires),
	}, nil
}

// MustArtifact is NewArtifact for descriptors built from constants.
func MustArtifact(typ ArtifactType, absolutePath, expiresIn string, now time.Time) Artifact {
	a, err := NewArtifact(typ, absolutePath, expiresIn, now)
	if err != nil {
		panic(err)
	}
	return a
}
