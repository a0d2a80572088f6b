package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

const indexBucket = "uploads"

// Record es lo que guarda el índice por cada clave de idempotencia.
type Record struct {
	Filename    string    `json:"filename"`
	SHA256      string    `json:"sha256"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Index mapea clave de idempotencia (o hash del contenido) -> archivo guardado.
type Index struct {
	db *bolt.DB
}

func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open upload index: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(indexBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) Get(key string) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := x.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(indexBucket)).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	return rec, found, err
}

// PutIfAbsent guarda rec solo si la clave no existe. Si ya existía devuelve
// el registro guardado y created=false.
func (x *Index) PutIfAbsent(key string, rec Record) (Record, bool, error) {
	if key == "" {
		return Record{}, false, errors.New("empty index key")
	}
	out := rec
	created := false
	err := x.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		if existing := b.Get([]byte(key)); existing != nil {
			return json.Unmarshal(existing, &out)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		created = true
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return Record{}, false, err
	}
	return out, created, nil
}

func (x *Index) Delete(key string) error {
	return x.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(indexBucket)).Delete([]byte(key))
	})
}
