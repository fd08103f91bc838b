package archive

import (
	"context"

	"github.com/flare-foundation/go-flare-common/pkg/logger"
)

// Lenient exposes the storage lookups with soft failure semantics: a failed
// storage query is logged and turned into an empty result, so callers cannot
// tell "no rows" from "query failed". Failing to resolve a range boundary
// hash is still returned as a KindResolutionFailed error. Block lookups have
// no lenient form.
type Lenient struct {
	proxy *Proxy
}

func (l *Lenient) PointLookup(ctx context.Context, key []byte, at []byte) ([]StorageEntry, error) {
	entries, err := l.proxy.PointLookup(ctx, key, at)
	return absorb(entries, err)
}

func (l *Lenient) RangeLookup(ctx context.Context, keys [][]byte, from []byte, to []byte) ([]StorageEntry, error) {
	entries, err := l.proxy.RangeLookup(ctx, keys, from, to)
	return absorb(entries, err)
}

func (l *Lenient) LookupAt(ctx context.Context, keys [][]byte, at []byte) ([]StorageEntry, error) {
	entries, err := l.proxy.LookupAt(ctx, keys, at)
	return absorb(entries, err)
}

// absorb swallows only storage query failures.
func absorb(entries []StorageEntry, err error) ([]StorageEntry, error) {
	switch {
	case err == nil:
		return entries, nil
	case IsKind(err, KindQueryFailed):
		logger.Warnf("storage lookup failed, returning empty result: %v", err)
		return []StorageEntry{}, nil
	default:
		return nil, err
	}
}
