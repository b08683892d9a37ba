package utils

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// TempPrefix holds in-progress uploads; nothing under it is downloadable.
	TempPrefix = "tmp/"
	// ArtifactPrefix holds finished artifacts, keyed by job ID.
	ArtifactPrefix = "artifacts/"
)

// TempObjectKey is where a job's output streams while it is still processing.
func TempObjectKey(jobID uuid.UUID, extension string) string {
	return fmt.Sprintf("%s%s.%s", TempPrefix, jobID, extension)
}

// ArtifactObjectKey is the final location of a completed job's output.
func ArtifactObjectKey(jobID uuid.UUID, extension string) string {
	return fmt.Sprintf("%s%s.%s", ArtifactPrefix, jobID, extension)
}

// JobIDFromArtifactKey recovers the job ID from an artifact object key, for
// mapping swept objects back to their job rows.
func JobIDFromArtifactKey(key string) (uuid.UUID, bool) {
	if len(key) <= len(ArtifactPrefix) || key[:len(ArtifactPrefix)] != ArtifactPrefix {
		return uuid.Nil, false
	}
	name := key[len(ArtifactPrefix):]
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			name = name[:i]
			break
		}
	}
	id, err := uuid.Parse(name)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// DownloadFilename is the attachment name suggested to download clients.
func DownloadFilename(dataType string, jobID uuid.UUID, extension string) string {
	return fmt.Sprintf("%s_%s.%s", dataType, jobID, extension)
}
