package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique job identifier.
// Format: 32 lowercase hex characters (no dashes) so the ID can be embedded
// in file names like video_<id>.mp4.
func NewJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewScrapedImageName generates a file name for an image downloaded during
// product analysis. Format: sc_<uuid>.jpg
func NewScrapedImageName() string {
	return "sc_" + strings.ReplaceAll(uuid.New().String(), "-", "") + ".jpg"
}
