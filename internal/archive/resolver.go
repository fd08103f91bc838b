package archive

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver maps between block numbers and block hashes.
type Resolver struct {
	db       *gorm.DB
	pageSize int
}

func NewResolver(db *gorm.DB, pageSize int) *Resolver {
	return &Resolver{db: db, pageSize: clampPageSize(pageSize)}
}

// ByNumber returns the blocks whose number is in numbers. Unknown numbers
// are omitted from the result. Backs chain_getBlockHash.
func (r *Resolver) ByNumber(ctx context.Context, numbers []uint64) ([]Block, error) {
	if len(numbers) == 0 {
		return []Block{}, nil
	}

	values := make([]interface{}, len(numbers))
	for i := range numbers {
		values[i] = numbers[i]
	}

	return r.find(ctx, "ByNumber", clause.IN{Column: clause.Column{Name: "block_num"}, Values: values})
}

// ByHash returns the blocks whose hash is in hashes. Unknown hashes are
// omitted from the result. Backs chain_getHeader.
func (r *Resolver) ByHash(ctx context.Context, hashes [][]byte) ([]Block, error) {
	if len(hashes) == 0 {
		return []Block{}, nil
	}

	return r.find(ctx, "ByHash", clause.IN{Column: clause.Column{Name: "hash"}, Values: byteValues(hashes)})
}

// NumberOf resolves a single block hash to its number. found is false when
// the hash is not in the archive.
func (r *Resolver) NumberOf(ctx context.Context, hash []byte) (num uint64, found bool, err error) {
	blocks, err := r.ByHash(ctx, [][]byte{hash})
	if err != nil {
		return 0, false, err
	}

	if len(blocks) == 0 {
		return 0, false, nil
	}

	return blocks[0].BlockNum, true, nil
}

func (r *Resolver) find(ctx context.Context, op string, cond clause.Expression) ([]Block, error) {
	var blocks []Block

	err := r.db.WithContext(ctx).
		Where(cond).
		Scopes(capped(r.pageSize, "hash")).
		Find(&blocks).
		Error
	if err != nil {
		return nil, newError(KindResolutionFailed, op, errors.Wrap(err, "loading blocks"))
	}

	return blocks, nil
}

func byteValues(bs [][]byte) []interface{} {
	values := make([]interface{}, len(bs))
	for i := range bs {
		values[i] = bs[i]
	}

	return values
}
