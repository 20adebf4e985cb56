package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

// Record is one schemaless document in a collection.
type Record map[string]any

// ID returns the record's id rendered as a string, or "" if it has none.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// JSONDB is a flat JSON file holding named collections of records, in the shape json-server reads:
//
//	{"movies": [...], "users": [...]}
//
// Every mutation rewrites the file. The file is read once on open.
type JSONDB struct {
	mu          sync.Mutex
	fs          afero.Fs
	path        string
	collections map[string][]Record
	now         func() time.Time
	lastID      int64
}

// OpenJSONDB loads path from fs, creating it with the given empty collections when it does not exist.
func OpenJSONDB(fs afero.Fs, path string, collections ...string) (*JSONDB, error) {
	db := &JSONDB{fs: fs, path: path, collections: map[string][]Record{}, now: time.Now}

	data, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	case len(data) > 0:
		if err := json.Unmarshal(data, &db.collections); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrStorageCorrupt, path, err)
		}
	}

	created := false
	for _, name := range collections {
		if _, ok := db.collections[name]; !ok {
			db.collections[name] = []Record{}
			created = true
		}
	}
	if created || os.IsNotExist(err) {
		if err := db.save(); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (db *JSONDB) save() error {
	data, err := json.MarshalIndent(db.collections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode db: %w", err)
	}

	if dir := filepath.Dir(db.path); dir != "." {
		if err := db.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	tmp := db.path + ".tmp"
	if err := afero.WriteFile(db.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write db: %w", err)
	}
	if err := db.fs.Rename(tmp, db.path); err != nil {
		return fmt.Errorf("failed to replace db: %w", err)
	}
	return nil
}

// nextID returns a time-derived id that is strictly increasing within this process.
func (db *JSONDB) nextID() int64 {
	id := db.now().UnixMilli()
	if id <= db.lastID {
		id = db.lastID + 1
	}
	db.lastID = id
	return id
}

func (db *JSONDB) index(name, id string) int {
	for i, rec := range db.collections[name] {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

// Has reports whether collection name exists.
func (db *JSONDB) Has(name string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.collections[name]
	return ok
}

// List returns the records of name whose fields equal every value in filter.
func (db *JSONDB) List(name string, filter map[string]string) []Record {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []Record{}
	for _, rec := range db.collections[name] {
		if matches(rec, filter) {
			out = append(out, clone(rec))
		}
	}
	return out
}

func matches(rec Record, filter map[string]string) bool {
	for k, want := range filter {
		v, ok := rec[k]
		if !ok {
			return false
		}
		if k == "id" {
			if rec.ID() != want {
				return false
			}
			continue
		}
		if fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

// Get returns the record of name with id.
func (db *JSONDB) Get(name, id string) (Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(name, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrNotFound, name, id)
	}
	return clone(db.collections[name][i]), nil
}

// Insert appends rec to name. A missing id is assigned from the clock; a duplicate id is rejected.
//
// check, when non-nil, runs first under the lock and may reject or amend the record.
func (db *JSONDB) Insert(name string, rec Record, check func(existing []Record, rec Record) error) (Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec = clone(rec)
	if check != nil {
		if err := check(db.collections[name], rec); err != nil {
			return nil, err
		}
	}
	if rec.ID() == "" {
		rec["id"] = db.nextID()
	} else if db.index(name, rec.ID()) >= 0 {
		return nil, fmt.Errorf("%w: %s/%s already exists", shared.ErrInvalidInput, name, rec.ID())
	}

	db.collections[name] = append(db.collections[name], rec)
	if err := db.save(); err != nil {
		db.collections[name] = db.collections[name][:len(db.collections[name])-1]
		return nil, err
	}
	return clone(rec), nil
}

// Replace overwrites the record with id, keeping its id. With merge set, fields absent from rec are kept.
func (db *JSONDB) Replace(name, id string, rec Record, merge bool) (Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(name, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s", shared.ErrNotFound, name, id)
	}

	old := db.collections[name][i]
	next := Record{}
	if merge {
		next = clone(old)
	}
	for k, v := range rec {
		next[k] = v
	}
	next["id"] = old["id"]

	db.collections[name][i] = next
	if err := db.save(); err != nil {
		db.collections[name][i] = old
		return nil, err
	}
	return clone(next), nil
}

// Delete removes the record with id.
func (db *JSONDB) Delete(name, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	i := db.index(name, id)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", shared.ErrNotFound, name, id)
	}

	old := db.collections[name]
	next := make([]Record, 0, len(old)-1)
	next = append(next, old[:i]...)
	next = append(next, old[i+1:]...)
	db.collections[name] = next
	if err := db.save(); err != nil {
		db.collections[name] = old
		return err
	}
	return nil
}

func clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
