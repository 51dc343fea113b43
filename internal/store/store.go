// Package store persists small per-connection caches in LevelDB.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/igraph100/DW-Spectrum/internal/log"
)

// Version of the persisted document layout.
const Version = 1

// DB is a LevelDB handle shared by the caches of every connection.
type DB struct {
	db *leveldb.DB
	wg sync.WaitGroup
}

// Open opens (or creates) the database directory at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// OpenMemory returns a database that lives only as long as the process.
func OpenMemory() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	d.wg.Wait()
	return d.db.Close()
}

type document struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// load decodes the document under key into v. A missing key, another
// version or an undecodable document leave v untouched.
func (d *DB) load(key string, v any) error {
	d.wg.Add(1)
	defer d.wg.Done()

	raw, err := d.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}

	logger := log.WithComponent("store").WithField("key", key)
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.WithError(err).Warn("discarding unreadable document")
		return nil
	}
	if doc.Version != Version {
		logger.WithField("version", doc.Version).Warn("discarding document with unknown version")
		return nil
	}
	if len(doc.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc.Data, v); err != nil {
		logger.WithError(err).Warn("discarding malformed data")
	}
	return nil
}

func (d *DB) save(key string, v any) error {
	d.wg.Add(1)
	defer d.wg.Done()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(document{Version: Version, Data: data})
	if err != nil {
		return err
	}
	if err := d.db.Put([]byte(key), raw, nil); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
