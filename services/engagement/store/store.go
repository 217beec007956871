// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store implements engagement.Store on an embedded BadgerDB.
//
// Legacy stage values ("matched", "waitlist") still present in old rows
// are normalized onto the canonical enum here, at the storage boundary;
// nothing above this package ever sees an alias.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/Not-Another-Coach/nac-platform/services/engagement"
)

const keyPrefix = "engagement/"

func recordKey(clientID, trainerID string) []byte {
	return []byte(keyPrefix + clientID + "/" + trainerID)
}

func clientPrefix(clientID string) []byte {
	return []byte(keyPrefix + clientID + "/")
}

// BadgerStore implements engagement.Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badgerdb.DB
}

// NewBadgerStore wraps an open BadgerDB handle. The caller owns the
// handle's lifecycle.
func NewBadgerStore(db *badgerdb.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Get(ctx context.Context, clientID, trainerID string) (*engagement.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *engagement.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(recordKey(clientID, trainerID))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return engagement.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = decodeRecord(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *BadgerStore) Put(ctx context.Context, rec *engagement.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ClientID == "" || rec.TrainerID == "" {
		return errors.New("record requires client and trainer ids")
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode engagement record: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(recordKey(rec.ClientID, rec.TrainerID), val)
	})
}

func (s *BadgerStore) ListByClient(ctx context.Context, clientID string) ([]*engagement.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []*engagement.Record
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		prefix := clientPrefix(clientID)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := decodeRecord(val)
				if err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// decodeRecord unmarshals a stored record and normalizes legacy stage
// values onto the canonical enum.
func decodeRecord(val []byte) (*engagement.Record, error) {
	var raw struct {
		engagement.Record
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal(val, &raw); err != nil {
		return nil, fmt.Errorf("decode engagement record: %w", err)
	}
	stage, err := engagement.NormalizeStage(raw.Stage)
	if err != nil {
		return nil, err
	}
	rec := raw.Record
	rec.Stage = stage
	return &rec, nil
}
