package archiver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/sjcam/sjc-archived/internal/config"
	"github.com/sjcam/sjc-archived/internal/excluder"
	"github.com/sjcam/sjc-archived/internal/fileops"
	"github.com/sjcam/sjc-archived/internal/fitsname"
)

// CandidateSuffix is the suffix finished capture files carry in the source
// directory. Compressed files no longer match it, so a file that was
// compressed but could not be moved is left behind and never retried.
const CandidateSuffix = ".fits"

// Archiver polls the source directory and moves finished captures into the
// date-partitioned archive tree.
type Archiver struct {
	cfg  *config.Config
	ops  fileops.Ops
	ex   *excluder.Excluder
	wake chan struct{}
}

// New creates an Archiver from a validated config.
func New(cfg *config.Config, ops fileops.Ops, ex *excluder.Excluder) *Archiver {
	return &Archiver{
		cfg:  cfg,
		ops:  ops,
		ex:   ex,
		wake: make(chan struct{}, 1),
	}
}

// Run polls until ctx is cancelled, processing every candidate present at
// the start of each poll. Cancellation is cooperative: it is observed
// before each poll and between files, never mid-operation.
func (a *Archiver) Run(ctx context.Context) error {
	if a.cfg.Watch {
		watcher, err := a.startWatcher(ctx)
		if err != nil {
			return fmt.Errorf("could not watch %s: %w", a.cfg.Source, err)
		}
		defer watcher.Close()
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		a.poll(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-a.wake:
		}
	}
}

// poll processes all candidates currently present in the source directory.
func (a *Archiver) poll(ctx context.Context) {
	names, err := a.listCandidates()
	if err != nil {
		log.Warnf("Could not list %s: %v", a.cfg.Source, err)
		return
	}

	for _, name := range names {
		if ctx.Err() != nil {
			log.Debug("Shutdown requested, abandoning remaining files in this batch")
			return
		}
		a.processOne(name)
	}
}

// listCandidates returns the names of all regular entries in the source
// directory ending in the candidate suffix, minus excluded names. The
// order is whatever the directory listing gives; nothing depends on it.
func (a *Archiver) listCandidates() ([]string, error) {
	entries, err := os.ReadDir(a.cfg.Source)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, CandidateSuffix) {
			continue
		}
		if a.ex.IsExcluded(name) {
			log.Debugf("Excluded: %s", name)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// processOne compresses a candidate, derives its archive directory from the
// filename, ensures the directory exists and moves the compressed file
// there. Any step's failure abandons this file only; uncompressed files are
// picked up again on the next poll.
func (a *Archiver) processOne(name string) {
	src := filepath.Join(a.cfg.Source, name)

	if a.cfg.DryRun {
		log.Infof("[dry run] Would archive %s", src)
		return
	}

	if err := a.ops.Compress(src); err != nil {
		log.Debugf("Compression failed, will retry next poll: %v", err)
		return
	}

	packed := name + a.ops.Suffix()
	stamp, err := fitsname.Parse(packed)
	if err != nil {
		// The compressed file stays in the source directory and no longer
		// matches the candidate suffix, so it will not be retried.
		log.Warnf("Leaving %s in place: %v", packed, err)
		return
	}

	destDir := stamp.ArchiveDir(a.cfg.Destination)
	if !a.ops.DirExists(destDir) {
		if err := a.ops.MkdirAll(destDir); err != nil {
			log.Debugf("Could not create %s, skipping %s this round: %v", destDir, packed, err)
			return
		}
	}

	oldPath := filepath.Join(a.cfg.Source, packed)
	newPath := filepath.Join(destDir, packed)
	if err := a.ops.Move(oldPath, newPath); err != nil {
		log.Warnf("Could not move %s, leaving it behind: %v", oldPath, err)
		return
	}

	log.Debugf("%s -> %s", src, newPath)
}

// startWatcher wakes the poll loop as soon as a new candidate shows up,
// instead of waiting out the rest of the interval. Polling semantics are
// unchanged; missed events cost at most one interval.
func (a *Archiver) startWatcher(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = watcher.Add(a.cfg.Source); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 && strings.HasSuffix(event.Name, CandidateSuffix) {
					select {
					case a.wake <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("error:", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return watcher, nil
}
