package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

const keyPrefix = "identity/"

// Disk is a Store backed by a pebble database.
type Disk struct {
	db *pebble.DB
}

func Open(dir string) (*Disk, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open identity store %s: %w", dir, err)
	}
	return &Disk{db: db}, nil
}

func (d *Disk) Load(key string) (Pair, error) {
	val, closer, err := d.db.Get([]byte(keyPrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return Pair{}, ErrNotFound
	}
	if err != nil {
		return Pair{}, err
	}
	defer closer.Close()

	var p Pair
	if err := json.Unmarshal(val, &p); err != nil {
		return Pair{}, fmt.Errorf("decode identity %s: %w", key, err)
	}
	return p, nil
}

func (d *Disk) Save(key string, p Pair) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return d.db.Set([]byte(keyPrefix+key), b, pebble.Sync)
}

func (d *Disk) Close() error {
	return d.db.Close()
}
