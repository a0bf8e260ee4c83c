package catalog

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/andreyvit/nskeyed"
)

// ScanStats sums up what one Scan call did.
type ScanStats struct {
	Scanned int // candidate files found under the root
	Updated int // entries written with fresh inspection results
	Skipped int // files whose cataloged entry was already current
	Removed int // entries pruned because their files are gone
	Failed  int // files that could not be read
}

func (stats ScanStats) String() string {
	return fmt.Sprintf("scanned %d, updated %d, skipped %d, removed %d, failed %d",
		stats.Scanned, stats.Updated, stats.Skipped, stats.Removed, stats.Failed)
}

type candidate struct {
	path    string
	size    int64
	modTime time.Time
}

type scanResult struct {
	entry  *Entry
	fresh  bool // entry carries new inspection results, not just new stat fields
	failed bool
}

// Scan catalogs every candidate file under root. Files whose size and
// modification time match their entry are skipped without reading; files
// whose content hash matches keep their inspection results. The rest are
// read and inspected concurrently. All catalog changes, including pruning
// of entries under root whose files no longer exist, are applied in a
// single write transaction.
//
// Unreadable files are logged and counted as Failed without aborting the
// scan; walk and storage errors abort.
func (c *Catalog) Scan(root string) (ScanStats, error) {
	var stats ScanStats
	root, err := filepath.Abs(root)
	if err != nil {
		return stats, err
	}

	cands, err := c.findCandidates(root)
	if err != nil {
		return stats, fmt.Errorf("catalog: %w", err)
	}
	stats.Scanned = len(cands)

	old, err := c.loadEntries(cands)
	if err != nil {
		return stats, err
	}

	results := make([]scanResult, len(cands))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, cand := range cands {
		prev := old[cand.path]
		if prev != nil && prev.Size == cand.size && prev.ModTime.Equal(cand.modTime) {
			continue // current per stat, no need to read
		}
		i, cand := i, cand
		g.Go(func() error {
			results[i] = c.inspectFile(cand, prev)
			return nil
		})
	}
	g.Wait()

	err = c.bdb.Update(func(tx *bbolt.Tx) error {
		archives := tx.Bucket(archivesBucket)
		classes := tx.Bucket(classesBucket)

		seen := make(map[string]bool, len(cands))
		for i, cand := range cands {
			seen[cand.path] = true
			res := results[i]
			switch {
			case res.failed:
				stats.Failed++
				continue
			case res.entry == nil:
				stats.Skipped++
				continue
			case res.fresh:
				stats.Updated++
			default:
				stats.Skipped++
			}
			if err := putEntry(archives, classes, res.entry, old[cand.path]); err != nil {
				return err
			}
		}

		removed, err := pruneMissing(archives, classes, root, seen)
		if err != nil {
			return err
		}
		stats.Removed = removed
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("catalog: %w", err)
	}

	c.logger.Debug("catalog: scan finished", "root", root,
		"scanned", stats.Scanned, "updated", stats.Updated, "skipped", stats.Skipped,
		"removed", stats.Removed, "failed", stats.Failed)
	return stats, nil
}

func (c *Catalog) findCandidates(root string) ([]candidate, error) {
	var cands []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !c.isCandidate(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		cands = append(cands, candidate{path, info.Size(), info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cands, nil
}

func (c *Catalog) isCandidate(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(c.exts, ext)
}

func (c *Catalog) loadEntries(cands []candidate) (map[string]*Entry, error) {
	entries := make(map[string]*Entry, len(cands))
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		archives := tx.Bucket(archivesBucket)
		for _, cand := range cands {
			raw := archives.Get([]byte(cand.path))
			if raw == nil {
				continue
			}
			entry, err := decodeEntry(cand.path, raw)
			if err != nil {
				return err
			}
			entries[cand.path] = entry
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Catalog) inspectFile(cand candidate, prev *Entry) scanResult {
	data, err := os.ReadFile(cand.path)
	if err != nil {
		c.logger.Warn("catalog: cannot read file", "path", cand.path, "err", err)
		return scanResult{failed: true}
	}

	hash := xxhash.Sum64(data)
	if prev != nil && hash == prev.Hash {
		// Same content under a changed stat; keep the old inspection.
		entry := *prev
		entry.Size, entry.ModTime = cand.size, cand.modTime
		return scanResult{entry: &entry}
	}

	entry := &Entry{
		Path:    cand.path,
		Size:    cand.size,
		ModTime: cand.modTime,
		Hash:    hash,
	}
	info, err := nskeyed.Inspect(data)
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Archiver = info.Archiver
		entry.Version = info.Version
		entry.Objects = info.Objects
		entry.RootClass = info.RootClass
		entry.Classes = info.Classes
	}
	return scanResult{entry: entry, fresh: true}
}

// putEntry writes the entry and maintains its class index rows: rows the
// previous version contributed that the new one does not are removed, so
// the index never goes stale.
func putEntry(archives, classes *bbolt.Bucket, entry, prev *Entry) error {
	if err := archives.Put([]byte(entry.Path), encodeEntry(entry)); err != nil {
		return err
	}
	if prev != nil {
		for _, class := range prev.Classes {
			if !slices.Contains(entry.Classes, class) {
				if err := classes.Delete(classKey(class, entry.Path)); err != nil {
					return err
				}
			}
		}
	}
	for _, class := range entry.Classes {
		if err := classes.Put(classKey(class, entry.Path), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// pruneMissing drops entries under root whose files were not seen by the
// walk, along with their class index rows.
func pruneMissing(archives, classes *bbolt.Bucket, root string, seen map[string]bool) (int, error) {
	prefix := []byte(root + string(filepath.Separator))
	var gone []*Entry
	cur := archives.Cursor()
	for k, v := cur.Seek(prefix); bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		path := string(k)
		if seen[path] {
			continue
		}
		entry, err := decodeEntry(path, v)
		if err != nil {
			return 0, err
		}
		gone = append(gone, entry)
	}

	for _, entry := range gone {
		if err := archives.Delete([]byte(entry.Path)); err != nil {
			return 0, err
		}
		for _, class := range entry.Classes {
			if err := classes.Delete(classKey(class, entry.Path)); err != nil {
				return 0, err
			}
		}
	}
	return len(gone), nil
}
