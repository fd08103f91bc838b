package archive

import (
	"context"
	"time"

	"github.com/flare-foundation/archive-data-proxy/internal/config"
	"github.com/flare-foundation/archive-data-proxy/internal/database"
	"github.com/flare-foundation/go-flare-common/pkg/logger"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Proxy is the read-only query layer over an archive database.
//
// A Proxy does not synchronize access to its handle. With the default pool
// of one connection, concurrent callers queue on that connection.
type Proxy struct {
	db             *gorm.DB
	blocks         *Resolver
	storage        *Storage
	requestTimeout time.Duration
}

type Option func(*Proxy)

// WithPageSize lowers the row cap. Values outside (0, PageSize] keep PageSize.
func WithPageSize(n int) Option {
	return func(p *Proxy) {
		p.blocks.pageSize = clampPageSize(n)
		p.storage.pageSize = clampPageSize(n)
	}
}

// WithRequestTimeout bounds each operation. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		p.requestTimeout = d
	}
}

// New wraps an open connection handle.
func New(db *gorm.DB, opts ...Option) *Proxy {
	blocks := NewResolver(db, PageSize)
	p := &Proxy{
		db:      db,
		blocks:  blocks,
		storage: NewStorage(db, blocks, PageSize),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Connect opens the archive database described by cfg and returns a Proxy
// over it.
func Connect(ctx context.Context, cfg *config.Config) (*Proxy, error) {
	db, err := database.Connect(ctx, &cfg.DB, &cfg.Timeout)
	if err != nil {
		return nil, newError(KindConnectionFailed, "Connect", err)
	}

	logger.Info("archive proxy ready")

	return New(db,
		WithPageSize(cfg.Query.PageSize),
		WithRequestTimeout(time.Duration(cfg.Timeout.RequestTimeoutMillis)*time.Millisecond),
	), nil
}

func (p *Proxy) Blocks() *Resolver {
	return p.blocks
}

func (p *Proxy) Storage() *Storage {
	return p.storage
}

// Lenient returns a view of the storage lookups that absorbs failures into
// empty results.
func (p *Proxy) Lenient() *Lenient {
	return &Lenient{proxy: p}
}

func (p *Proxy) BlocksByNumber(ctx context.Context, numbers []uint64) ([]Block, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.blocks.ByNumber(ctx, numbers)
}

func (p *Proxy) BlocksByHash(ctx context.Context, hashes [][]byte) ([]Block, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.blocks.ByHash(ctx, hashes)
}

func (p *Proxy) PointLookup(ctx context.Context, key []byte, at []byte) ([]StorageEntry, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.storage.PointLookup(ctx, key, at)
}

func (p *Proxy) RangeLookup(ctx context.Context, keys [][]byte, from []byte, to []byte) ([]StorageEntry, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.storage.RangeLookup(ctx, keys, from, to)
}

func (p *Proxy) LookupAt(ctx context.Context, keys [][]byte, at []byte) ([]StorageEntry, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.storage.LookupAt(ctx, keys, at)
}

func (p *Proxy) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB handle")
	}

	return sqlDB.Close()
}

func (p *Proxy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.requestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, p.requestTimeout)
}
