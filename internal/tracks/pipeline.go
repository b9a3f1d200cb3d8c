package tracks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/duffing/sortie/internal"
	"github.com/duffing/sortie/internal/cache"
	"github.com/sirupsen/logrus"
)

// ObjectStore is the bucket interaction surface the pipeline needs.
// The s3io.Orchestrator implements it.
type ObjectStore interface {
	ListObjects(ctx context.Context) ([]string, error)
	Download(ctx context.Context, key string, w io.Writer) (int64, error)
	Upload(ctx context.Context, r io.Reader, key string) error
	Delete(ctx context.Context, key string) error
}

// Pipeline runs a full sorting pass: discover source tracks, populate the
// local cache, derive destination keys from tags, upload the sorted copies,
// and optionally clean up the sources and the cache.
type Pipeline struct {
	config    internal.Config
	objects   ObjectStore
	store     *cache.Store
	converter *Converter
	log       logrus.FieldLogger

	// progress is nil when no spinner should be shown, e.g. in tests.
	progress *spinner.Spinner
}

// NewPipeline wires a Pipeline from the run configuration. The sort mask is
// parsed here so a malformed mask fails before any S3 traffic.
func NewPipeline(config internal.Config, objects ObjectStore, store *cache.Store, log logrus.FieldLogger) (*Pipeline, error) {
	converter, err := NewConverter(config.SortMask, log)
	if err != nil {
		return nil, err
	}

	var progress *spinner.Spinner
	if fileInfo, err := os.Stderr.Stat(); err == nil && fileInfo.Mode()&os.ModeCharDevice != 0 {
		progress = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	}

	return &Pipeline{
		config:    config,
		objects:   objects,
		store:     store,
		converter: converter,
		log:       log,
		progress:  progress,
	}, nil
}

// Run executes one sorting pass. In cache mode no S3 downloads happen and no
// source objects are deleted; the cache contents are sorted and uploaded as-is.
func (p *Pipeline) Run(ctx context.Context) error {
	lister := NewLister(p.config, p.objects, p.store, p.log)

	sources, err := lister.List(ctx)
	if err != nil {
		return err
	}
	p.log.Infof("tracks found: %v", sources)

	if p.config.Mode != internal.IngestionCache {
		if err := p.downloadAll(ctx, sources); err != nil {
			return err
		}
	}

	sorted, err := p.slurpCache()
	if err != nil {
		return err
	}

	if err := p.uploadAll(ctx, sorted); err != nil {
		return err
	}

	if p.config.CleanUp && p.config.Mode != internal.IngestionCache {
		if err := p.deleteSources(ctx, sources); err != nil {
			return err
		}
	}

	if !p.store.Persistent() {
		p.log.Warnf("erasing cache directory %q", p.store.Dir())
		if err := p.store.Wipe(); err != nil {
			return err
		}
	}

	return nil
}

// downloadAll populates the cache with every source track.
func (p *Pipeline) downloadAll(ctx context.Context, keys []string) error {
	if p.progress != nil {
		p.progress.Suffix = fmt.Sprintf(" downloading %d tracks...", len(keys))
		p.progress.Start()
		defer p.progress.Stop()
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		file, err := p.store.Create(key)
		if err != nil {
			return err
		}

		_, err = p.objects.Download(ctx, key, file)
		closeErr := file.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("failed to flush cached track for %q: %w", key, closeErr)
		}
	}
	return nil
}

// slurpCache converts everything in the cache into Tracks with rendered
// destination keys. Tracks whose tags cannot be read are skipped with a
// warning rather than uploaded under a broken key.
func (p *Pipeline) slurpCache() ([]Track, error) {
	names, err := p.store.List()
	if err != nil {
		return nil, err
	}

	var sorted []Track
	for _, name := range names {
		p.log.Infof("cache found: %s", name)

		file, err := p.store.Open(name)
		if err != nil {
			return nil, err
		}

		track, err := p.converter.Convert(name, file)
		file.Close()
		if err != nil {
			p.log.Warnf("skipping %q: %v", name, err)
			continue
		}
		sorted = append(sorted, track)
	}
	return sorted, nil
}

// uploadAll pushes each converted track to its rendered destination key.
func (p *Pipeline) uploadAll(ctx context.Context, sorted []Track) error {
	for _, track := range sorted {
		file, err := p.store.Open(track.LocalName)
		if err != nil {
			return err
		}

		err = p.objects.Upload(ctx, file, track.TargetKey)
		file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// deleteSources removes the original objects after their sorted copies are
// uploaded, so the bucket does not carry duplicates.
func (p *Pipeline) deleteSources(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := p.objects.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
