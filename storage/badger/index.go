// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
//
// Entries are versioned by generation. The generation pointer and the new
// generation's entries commit in one transaction, so a reader sees either
// the previous generation complete or the new one complete. Stale
// generations are swept after the pointer flip.
type IndexRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{
		backend: backend,
		logger:  slog.Default().With("component", "badger-index"),
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *IndexRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *IndexRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertGeneration writes all entries for one generation and flips the
// generation pointer atomically, then sweeps older generations. A commit
// whose generation does not advance the pointer is dropped: it can only
// come from a superseded run landing after its successor committed.
func (r *IndexRepository) UpsertGeneration(ctx context.Context, docID core.ID, generation uint64, entries []*core.IndexEntry) error {
	if generation == 0 {
		return storage.ErrInvalidQuery
	}

	stale := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		current, err := r.readGeneration(tx, docID)
		if err != nil {
			return err
		}
		if generation <= current {
			stale = true
			return nil
		}
		for _, entry := range entries {
			key := makeEntryKey(docID, generation, entry.Sequence)
			if err := tx.Set(key, storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		genValue := make([]byte, 8)
		binary.BigEndian.PutUint64(genValue, generation)
		if err := tx.Set(makeGenerationKey(docID), genValue); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	if stale {
		r.logger.Warn("dropped index commit for an outdated generation",
			"document_id", docID, "generation", generation)
		return nil
	}

	if err := r.sweepStale(docID, generation); err != nil {
		// The new generation is live; stale entries only cost space and
		// are filtered out of queries by the generation check.
		r.logger.Warn("failed to sweep stale index entries",
			"document_id", docID, "generation", generation, "err", err)
	}

	r.logger.Debug("committed index generation",
		"document_id", docID, "generation", generation, "entries", len(entries))
	return nil
}

// sweepStale removes entries of the document that belong to generations
// other than current.
func (r *IndexRepository) sweepStale(docID core.ID, current uint64) error {
	var stale [][]byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryDocPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if entryGeneration(key) != current {
				stale = append(stale, key)
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CurrentGeneration returns the live generation for a document, 0 when the
// document has never been indexed.
func (r *IndexRepository) CurrentGeneration(ctx context.Context, docID core.ID) (uint64, error) {
	var generation uint64

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeGenerationKey(docID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return storage.ErrSerializationFailed
			}
			generation = binary.BigEndian.Uint64(val)
			return nil
		})
	}, false)

	return generation, err
}

// Search finds index entries similar to the given vector. Only entries in
// their document's live generation are considered. A non-zero scope
// restricts the scan to one document.
func (r *IndexRepository) Search(ctx context.Context, vector []float32, minSimilarity float32, limit int, scope core.ID) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult
	generations := make(map[core.ID]uint64)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		if scope != 0 {
			opts.Prefix = makeEntryDocPrefix(scope)
		} else {
			opts.Prefix = []byte(entryPrefix + ":")
		}
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := iter.Item()
			docID := entryDocumentID(item.Key())

			current, ok := generations[docID]
			if !ok {
				var err error
				current, err = r.readGeneration(tx, docID)
				if err != nil {
					return err
				}
				generations[docID] = current
			}
			if current == 0 || entryGeneration(item.Key()) != current {
				continue
			}

			var entry *core.IndexEntry
			err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(entry.Vector) == 0 {
				continue
			}

			// Vectors are normalized at write time, so the dot product
			// is the cosine similarity.
			score := core.CosineSimilarity(vector, entry.Vector)
			if score >= minSimilarity {
				results = append(results, &core.SearchResult{Entry: entry, Score: score})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return a.Entry.Sequence - b.Entry.Sequence
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteDocument removes all index entries and the generation pointer for
// a document.
func (r *IndexRepository) DeleteDocument(ctx context.Context, docID core.ID) error {
	var keys [][]byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEntryDocPrefix(docID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeGenerationKey(docID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *IndexRepository) readGeneration(tx *badger.Txn, docID core.ID) (uint64, error) {
	item, err := tx.Get(makeGenerationKey(docID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var generation uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return storage.ErrSerializationFailed
		}
		generation = binary.BigEndian.Uint64(val)
		return nil
	})
	return generation, err
}

// entryDocumentID extracts the document ID from an entry key.
func entryDocumentID(key []byte) core.ID {
	offset := len(entryPrefix) + 1
	return core.ID(binary.BigEndian.Uint64(key[offset:]))
}

// entryGeneration extracts the generation from an entry key.
func entryGeneration(key []byte) uint64 {
	offset := len(entryPrefix) + 1 + 8
	return binary.BigEndian.Uint64(key[offset:])
}
