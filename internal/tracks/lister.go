package tracks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/duffing/sortie/internal"
	"github.com/duffing/sortie/internal/s3io"
	"github.com/sirupsen/logrus"
)

// ObjectLister lists the object keys in the source bucket.
// The s3io.Orchestrator implements it.
type ObjectLister interface {
	ListObjects(ctx context.Context) ([]string, error)
}

// CacheLister lists the filenames of cached tracks.
// The cache.Store implements it.
type CacheLister interface {
	List() ([]string, error)
}

// Lister discovers which tracks to process, according to the configured
// ingestion mode.
type Lister struct {
	mode      internal.IngestionMode
	trackList string
	objects   ObjectLister
	cache     CacheLister
	log       logrus.FieldLogger
}

// NewLister creates a Lister for the configured ingestion mode. The objects
// lister is only required in dynamic mode.
func NewLister(config internal.Config, objects ObjectLister, cache CacheLister, log logrus.FieldLogger) Lister {
	return Lister{
		mode:      config.Mode,
		trackList: config.TrackList,
		objects:   objects,
		cache:     cache,
		log:       log,
	}
}

// List returns the source track names for this run. In track_list mode these
// come from the JSON track list file, in dynamic mode from a scan of the
// bucket, and in cache mode from the local cache directory. Only .mp3 entries
// are kept.
func (l Lister) List(ctx context.Context) ([]string, error) {
	l.log.Debugf("using track listing mode %q", l.mode)

	switch l.mode {
	case internal.IngestionTrackList:
		return readTrackList(l.trackList)

	case internal.IngestionDynamic:
		keys, err := l.objects.ListObjects(ctx)
		if err != nil {
			return nil, err
		}
		l.log.Debugf("S3 contents found: %v", keys)

		var tracks []string
		for _, key := range keys {
			if !s3io.IsDirectoryMarker(key) && strings.HasSuffix(key, ".mp3") {
				tracks = append(tracks, key)
			}
		}
		return tracks, nil

	case internal.IngestionCache:
		return l.cache.List()

	default:
		// LoadConfig validates the mode, so this is unreachable from the CLI.
		return nil, fmt.Errorf("unknown ingestion mode %q", l.mode)
	}
}

// readTrackList parses a JSON track list of the form {"input": ["a.mp3", ...]}
// and keeps the .mp3 entries.
func readTrackList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track list %q: %w\nCheck the [ingestion] track_list setting", path, err)
	}
	defer file.Close()

	var contents struct {
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(file).Decode(&contents); err != nil {
		return nil, fmt.Errorf("failed to parse track list %q: %w", path, err)
	}

	var tracks []string
	for _, track := range contents.Input {
		if strings.HasSuffix(track, ".mp3") {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}
