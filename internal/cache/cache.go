// Package cache persists the read-only cross-unit prelude SymbolIndex
// (spec §5) between compiler invocations, keyed by a content hash of the
// prelude sources, so a multi-unit build doesn't re-resolve the same
// prelude from scratch on every run. Grounded on termfx-morfx's db.Connect:
// ensure the directory exists, open a pure-Go sqlite dialector, AutoMigrate.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plcforge/stc/internal/index"
)

// Cache wraps the sqlite-backed store of prelude index.Snapshots.
type Cache struct {
	db *gorm.DB
}

// entry is one row of a persisted snapshot: Hash names the prelude source
// set it belongs to, Kind+Key identify the entry within that snapshot, and
// Payload is its JSON-encoded index.POU/index.Variable/index.VTable.
type entry struct {
	Hash    string `gorm:"primaryKey;size:64"`
	Kind    string `gorm:"primaryKey;size:16"`
	Key     string `gorm:"primaryKey"`
	Payload string
}

func (entry) TableName() string { return "prelude_entries" }

// Open connects to (creating if absent) the sqlite database at dsn and
// migrates the prelude cache schema.
func Open(dsn string, debug bool) (*Cache, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache: create directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("cache: migrate: %w", err)
	}
	return &Cache{db: db}, nil
}

// HashSources returns the content hash identifying a set of prelude source
// files: the same prelude text always lands on the same cache entry, and
// editing a single byte of it invalidates that entry. Sources must be
// passed in a stable order (e.g. sorted by path) for the hash to be
// reproducible across runs.
func HashSources(sources ...[]byte) string {
	h := sha256.New()
	for _, s := range sources {
		h.Write(s)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store replaces any existing snapshot under hash with snap, atomically.
func (c *Cache) Store(hash string, snap index.Snapshot) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hash = ?", hash).Delete(&entry{}).Error; err != nil {
			return fmt.Errorf("cache: clear stale entry: %w", err)
		}

		rows := make([]entry, 0, len(snap.POUs)+len(snap.Variables)+len(snap.VTables))
		for _, p := range snap.POUs {
			payload, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("cache: encode POU %s: %w", p.QualifiedName, err)
			}
			rows = append(rows, entry{Hash: hash, Kind: "pou", Key: p.QualifiedName, Payload: string(payload)})
		}
		for _, v := range snap.Variables {
			payload, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("cache: encode variable %s.%s: %w", v.Owner, v.Name, err)
			}
			rows = append(rows, entry{Hash: hash, Kind: "variable", Key: v.Owner + "." + v.Name, Payload: string(payload)})
		}
		for _, vt := range snap.VTables {
			payload, err := json.Marshal(vt)
			if err != nil {
				return fmt.Errorf("cache: encode vtable %s: %w", vt.Owner, err)
			}
			rows = append(rows, entry{Hash: hash, Kind: "vtable", Key: vt.Owner, Payload: string(payload)})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Load returns the snapshot stored under hash. ok is false on a cache miss
// (not an error: the caller falls back to lowering/indexing the prelude
// itself and then Store-ing the result).
func (c *Cache) Load(hash string) (snap index.Snapshot, ok bool, err error) {
	var rows []entry
	if err := c.db.Where("hash = ?", hash).Find(&rows).Error; err != nil {
		return index.Snapshot{}, false, fmt.Errorf("cache: query: %w", err)
	}
	if len(rows) == 0 {
		return index.Snapshot{}, false, nil
	}

	for _, r := range rows {
		switch r.Kind {
		case "pou":
			var p index.POU
			if err := json.Unmarshal([]byte(r.Payload), &p); err != nil {
				return index.Snapshot{}, false, fmt.Errorf("cache: decode POU %s: %w", r.Key, err)
			}
			snap.POUs = append(snap.POUs, &p)
		case "variable":
			var v index.Variable
			if err := json.Unmarshal([]byte(r.Payload), &v); err != nil {
				return index.Snapshot{}, false, fmt.Errorf("cache: decode variable %s: %w", r.Key, err)
			}
			snap.Variables = append(snap.Variables, &v)
		case "vtable":
			var vt index.VTable
			if err := json.Unmarshal([]byte(r.Payload), &vt); err != nil {
				return index.Snapshot{}, false, fmt.Errorf("cache: decode vtable %s: %w", r.Key, err)
			}
			snap.VTables = append(snap.VTables, &vt)
		}
	}
	return snap, true, nil
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("cache: close: %w", err)
	}
	return sqlDB.Close()
}
