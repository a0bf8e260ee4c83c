// Package catalog maintains a persistent index of keyed archives on disk.
//
// A catalog is a bbolt database mapping archive file paths to inspection
// summaries (archiver, root class, class names, object count), plus a
// by-class index for finding every archive that mentions a class. Scan
// walks a directory tree and brings the catalog up to date; unchanged
// files are detected by size and modification time first, then by content
// hash, so repeated scans stay cheap.
package catalog

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	archivesBucket = []byte("archives")
	classesBucket  = []byte("classes")
)

// classSep separates the class name from the file path in by-class index
// keys. Class names never contain NUL.
const classSep = 0

type Catalog struct {
	bdb     *bbolt.DB
	logger  *slog.Logger
	workers int
	exts    []string
}

type Options struct {
	Workers   int      // concurrent file inspections during Scan
	Exts      []string // candidate file extensions, default .plist and .keyedarchive
	Logger    *slog.Logger
	IsTesting bool
}

const defaultWorkers = 4

var defaultExts = []string{".plist", ".keyedarchive"}

func Open(path string, opt Options) (*Catalog, error) {
	if opt.Workers <= 0 {
		opt.Workers = defaultWorkers
	}
	if opt.Exts == nil {
		opt.Exts = defaultExts
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}

	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 64
		bopt.FreelistType = bbolt.FreelistMapType
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(archivesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(classesBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}

	return &Catalog{
		bdb:     bdb,
		logger:  opt.Logger,
		workers: opt.Workers,
		exts:    opt.Exts,
	}, nil
}

func (c *Catalog) Close() error {
	return c.bdb.Close()
}

// Bolt returns the underlying bbolt database.
func (c *Catalog) Bolt() *bbolt.DB {
	return c.bdb
}

// Entry is one cataloged file, keyed by its absolute path. Files that turn
// out not to be readable keyed archives are cataloged too, with Error set,
// so scans do not reinspect them every time.
type Entry struct {
	Path      string    `msgpack:"-"`
	Size      int64     `msgpack:"s"`
	ModTime   time.Time `msgpack:"t"`
	Hash      uint64    `msgpack:"h"`
	Archiver  string    `msgpack:"a,omitempty"`
	Version   uint64    `msgpack:"v,omitempty"`
	Objects   int       `msgpack:"o,omitempty"`
	RootClass string    `msgpack:"r,omitempty"`
	Classes   []string  `msgpack:"c,omitempty"`
	Error     string    `msgpack:"e,omitempty"`
}

func encodeEntry(entry *Entry) []byte {
	raw, err := msgpack.Marshal(entry)
	if err != nil {
		panic(fmt.Errorf("catalog: failed to encode entry for %s: %w", entry.Path, err))
	}
	return raw
}

func decodeEntry(path string, raw []byte) (*Entry, error) {
	entry := new(Entry)
	if err := msgpack.Unmarshal(raw, entry); err != nil {
		return nil, fmt.Errorf("catalog: decoding entry for %s: %w", path, err)
	}
	entry.Path = path
	return entry, nil
}

// Entry returns the cataloged entry for the given file, or nil when the
// file is not cataloged.
func (c *Catalog) Entry(path string) (*Entry, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var entry *Entry
	err = c.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(archivesBucket).Get([]byte(path))
		if raw == nil {
			return nil
		}
		entry, err = decodeEntry(path, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns all cataloged entries, ordered by path.
func (c *Catalog) Entries() ([]*Entry, error) {
	var entries []*Entry
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(archivesBucket).ForEach(func(k, v []byte) error {
			entry, err := decodeEntry(string(k), v)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ByClass returns entries for the archives that mention the given class
// name, ordered by path.
func (c *Catalog) ByClass(class string) ([]*Entry, error) {
	prefix := classKey(class, "")
	var entries []*Entry
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		archives := tx.Bucket(archivesBucket)
		cur := tx.Bucket(classesBucket).Cursor()
		for k, _ := cur.Seek(prefix); bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			pathRaw := k[len(prefix):]
			raw := archives.Get(pathRaw)
			if raw == nil {
				return fmt.Errorf("catalog: dangling class index row %s/%s", class, pathRaw)
			}
			entry, err := decodeEntry(string(pathRaw), raw)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func classKey(class, path string) []byte {
	k := make([]byte, 0, len(class)+1+len(path))
	k = append(k, class...)
	k = append(k, classSep)
	k = append(k, path...)
	return k
}
