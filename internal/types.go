package internal

// SessionID represents a unique identifier for a launched container.
type SessionID string

// ImageName represents a Docker image name.
type ImageName string

// Command represents the command and arguments to execute in the container.
type Command []string

// Environment represents environment variables to pass to the container.
type Environment []string

// ObjectKey represents the key of an object in the S3 bucket.
type ObjectKey string

// IngestionMode selects how the pipeline discovers source tracks.
type IngestionMode string

const (
	// IngestionTrackList reads source keys from a JSON track list file.
	IngestionTrackList IngestionMode = "track_list"

	// IngestionDynamic scans the configured S3 bucket for source keys.
	IngestionDynamic IngestionMode = "dynamic"

	// IngestionCache sorts whatever is already in the local cache directory.
	IngestionCache IngestionMode = "cache"
)
