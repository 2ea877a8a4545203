// Package storage keeps finished games in a BadgerDB archive.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/benbeisheim/chesscore-backend/internal/model"
)

const gamePrefix = "game/"

var ErrRecordNotFound = errors.New("archived game not found")

// GameRecord is the archived form of a finished game.
type GameRecord struct {
	ID         string           `json:"id"`
	StartFEN   string           `json:"startFen"`
	FinalFEN   string           `json:"finalFen"`
	Moves      []string         `json:"moves"`
	Result     model.GameResult `json:"result"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
}

type Archive struct {
	db *badger.DB
}

// Open opens the archive under dir, creating it if needed. An empty dir means
// DefaultDir. With inMemory set dir is ignored and nothing touches the disk.
func Open(dir string, inMemory bool) (*Archive, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("archive dir: %w", err)
			}
			dir = d
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("archive dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Archive) SaveGame(rec GameRecord) error {
	if rec.ID == "" {
		return errors.New("archive: record has no id")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(gamePrefix+rec.ID), data)
	})
}

func (a *Archive) LoadGame(id string) (GameRecord, error) {
	var rec GameRecord
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gamePrefix + id))
		if err == badger.ErrKeyNotFound {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns every archived game, oldest first.
func (a *Archive) List() ([]GameRecord, error) {
	var recs []GameRecord
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(gamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].FinishedAt.Before(recs[j].FinishedAt)
	})
	return recs, nil
}
