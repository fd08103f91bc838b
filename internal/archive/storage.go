package archive

import (
	"context"

	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage looks up storage entries by key, optionally constrained to one
// block hash or to a block range bounded by hashes.
//
// Results are ordered by ascending block number, then row id, and capped at
// the configured page size.
type Storage struct {
	db       *gorm.DB
	blocks   *Resolver
	pageSize int
}

func NewStorage(db *gorm.DB, blocks *Resolver, pageSize int) *Storage {
	return &Storage{db: db, blocks: blocks, pageSize: clampPageSize(pageSize)}
}

// PointLookup returns the entries of key recorded at block hash at, or the
// whole history of key when at is nil. Backs state_getStorage.
func (s *Storage) PointLookup(ctx context.Context, key []byte, at []byte) ([]StorageEntry, error) {
	conds := []clause.Expression{clause.Eq{Column: clause.Column{Name: "key"}, Value: key}}
	if at != nil {
		conds = append(conds, clause.Eq{Column: clause.Column{Name: "hash"}, Value: at})
	}

	return s.find(ctx, "PointLookup", conds...)
}

// RangeLookup returns the entries of keys recorded between the blocks from
// and to, both inclusive. Backs state_queryStorage.
//
// If from does not resolve the result is empty. If to is nil or does not
// resolve, the range collapses to the single block from.
func (s *Storage) RangeLookup(ctx context.Context, keys [][]byte, from []byte, to []byte) ([]StorageEntry, error) {
	if len(keys) == 0 {
		return []StorageEntry{}, nil
	}

	fromNum, found, err := s.blocks.NumberOf(ctx, from)
	if err != nil {
		return nil, err
	}

	if !found {
		return []StorageEntry{}, nil
	}

	toNum := fromNum
	if to != nil {
		num, found, err := s.blocks.NumberOf(ctx, to)
		if err != nil {
			return nil, err
		}

		if found {
			toNum = num
		} else {
			logger.Debugf("range end %x not in archive, collapsing range to block %d", to, fromNum)
		}
	}

	logger.Debugf("storage range lookup for %d keys in blocks [%d, %d]", len(keys), fromNum, toNum)

	return s.find(
		ctx, "RangeLookup",
		keysIn(keys),
		clause.Gte{Column: clause.Column{Name: "block_num"}, Value: fromNum},
		clause.Lte{Column: clause.Column{Name: "block_num"}, Value: toNum},
	)
}

// LookupAt returns the entries of keys recorded at block hash at, or their
// whole history when at is nil. Backs state_queryStorageAt.
func (s *Storage) LookupAt(ctx context.Context, keys [][]byte, at []byte) ([]StorageEntry, error) {
	if len(keys) == 0 {
		return []StorageEntry{}, nil
	}

	conds := []clause.Expression{keysIn(keys)}
	if at != nil {
		conds = append(conds, clause.Eq{Column: clause.Column{Name: "hash"}, Value: at})
	}

	return s.find(ctx, "LookupAt", conds...)
}

func (s *Storage) find(ctx context.Context, op string, conds ...clause.Expression) ([]StorageEntry, error) {
	var entries []StorageEntry

	err := s.db.WithContext(ctx).
		Clauses(clause.Where{Exprs: conds}).
		Scopes(capped(s.pageSize, "id")).
		Find(&entries).
		Error
	if err != nil {
		return nil, newError(KindQueryFailed, op, errors.Wrap(err, "loading storage"))
	}

	return entries, nil
}

func keysIn(keys [][]byte) clause.Expression {
	return clause.IN{Column: clause.Column{Name: "key"}, Values: byteValues(keys)}
}
