package tracks

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"
)

// Track is a cached file paired with the destination key rendered from its tags.
type Track struct {
	// LocalName is the track's filename within the cache directory.
	LocalName string

	// TargetKey is the destination object key in the bucket.
	TargetKey string
}

// tagFields are the values exposed to the sort mask template.
type tagFields struct {
	Artist string
	Album  string
	Title  string
}

// Converter turns a track's ID3 tags into a destination key by rendering the
// configured sort mask, e.g. "{{.Artist}}/{{.Album}}/{{.Title}}.mp3".
type Converter struct {
	mask *template.Template
	log  logrus.FieldLogger
}

// NewConverter parses the sort mask template. A malformed mask is a
// configuration error surfaced before any track is touched.
func NewConverter(sortMask string, log logrus.FieldLogger) (*Converter, error) {
	mask, err := template.New("sort_mask").Parse(sortMask)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sort mask %q: %w\nCheck the [targeting] sort_mask setting", sortMask, err)
	}

	return &Converter{
		mask: mask,
		log:  log,
	}, nil
}

// Convert reads the ID3 tags from r and renders the destination key for the
// named cache file. A track with no readable tags is an error so the caller
// can decide to skip it rather than upload to a half-rendered key.
func (c *Converter) Convert(name string, r io.ReadSeeker) (Track, error) {
	metadata, err := tag.ReadFrom(r)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read tags from %q: %w", name, err)
	}
	c.log.Debugf("tags found for %q: artist=%q album=%q title=%q", name, metadata.Artist(), metadata.Album(), metadata.Title())

	var target bytes.Buffer
	err = c.mask.Execute(&target, tagFields{
		Artist: metadata.Artist(),
		Album:  metadata.Album(),
		Title:  metadata.Title(),
	})
	if err != nil {
		return Track{}, fmt.Errorf("failed to render sort mask for %q: %w", name, err)
	}

	c.log.Infof("target path: %s", target.String())

	return Track{
		LocalName: name,
		TargetKey: target.String(),
	}, nil
}
