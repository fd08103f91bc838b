package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/flare-foundation/archive-data-proxy/internal/archive"
	"github.com/pkg/errors"
)

type CLIArgs struct {
	ConfigFile string `arg:"--config,env:CONFIG_FILE" default:"config.toml" help:"path to the TOML config"`
	BuildDir   string `arg:"--build-dir,env:BUILD_DIR" default:"." help:"directory holding the PROJECT_* build files"`
	Lenient    bool   `arg:"--lenient" help:"return empty storage results instead of failing on query errors"`

	BlockByNumber *BlockByNumberCmd `arg:"subcommand:block-by-number" help:"blocks by number (chain_getBlockHash)"`
	BlockByHash   *BlockByHashCmd   `arg:"subcommand:block-by-hash" help:"blocks by hash (chain_getHeader)"`
	Storage       *StorageCmd       `arg:"subcommand:storage" help:"value history of one key (state_getStorage)"`
	QueryStorage  *QueryStorageCmd  `arg:"subcommand:query-storage" help:"keys changed within a block range (state_queryStorage)"`
	StorageAt     *StorageAtCmd     `arg:"subcommand:storage-at" help:"keys at one block (state_queryStorageAt)"`
}

type BlockByNumberCmd struct {
	Numbers []uint64 `arg:"positional,required"`
}

type BlockByHashCmd struct {
	Hashes []string `arg:"positional,required"`
}

type StorageCmd struct {
	Key string `arg:"positional,required"`
	At  string `arg:"--at" help:"block hash"`
}

type QueryStorageCmd struct {
	Keys []string `arg:"positional,required"`
	From string   `arg:"--from,required" help:"first block hash"`
	To   string   `arg:"--to" help:"last block hash, defaults to --from"`
}

type StorageAtCmd struct {
	Keys []string `arg:"positional,required"`
	At   string   `arg:"--at" help:"block hash"`
}

// Querier is the subset of *archive.Proxy the CLI needs.
type Querier interface {
	BlocksByNumber(ctx context.Context, numbers []uint64) ([]archive.Block, error)
	BlocksByHash(ctx context.Context, hashes [][]byte) ([]archive.Block, error)
	PointLookup(ctx context.Context, key []byte, at []byte) ([]archive.StorageEntry, error)
	RangeLookup(ctx context.Context, keys [][]byte, from []byte, to []byte) ([]archive.StorageEntry, error)
	LookupAt(ctx context.Context, keys [][]byte, at []byte) ([]archive.StorageEntry, error)
	Lenient() *archive.Lenient
}

func run(ctx context.Context, q Querier, args *CLIArgs, w io.Writer) error {
	switch {
	case args.BlockByNumber != nil:
		blocks, err := q.BlocksByNumber(ctx, args.BlockByNumber.Numbers)
		if err != nil {
			return err
		}

		return writeJSON(w, newBlockViews(blocks))

	case args.BlockByHash != nil:
		hashes, err := decodeAll(args.BlockByHash.Hashes)
		if err != nil {
			return err
		}

		blocks, err := q.BlocksByHash(ctx, hashes)
		if err != nil {
			return err
		}

		return writeJSON(w, newBlockViews(blocks))

	case args.Storage != nil:
		key, err := decode(args.Storage.Key)
		if err != nil {
			return err
		}

		at, err := decodeOptional(args.Storage.At)
		if err != nil {
			return err
		}

		var entries []archive.StorageEntry
		if args.Lenient {
			entries, err = q.Lenient().PointLookup(ctx, key, at)
		} else {
			entries, err = q.PointLookup(ctx, key, at)
		}
		if err != nil {
			return err
		}

		return writeJSON(w, newStorageViews(entries))

	case args.QueryStorage != nil:
		keys, err := decodeAll(args.QueryStorage.Keys)
		if err != nil {
			return err
		}

		from, err := decode(args.QueryStorage.From)
		if err != nil {
			return err
		}

		to, err := decodeOptional(args.QueryStorage.To)
		if err != nil {
			return err
		}

		var entries []archive.StorageEntry
		if args.Lenient {
			entries, err = q.Lenient().RangeLookup(ctx, keys, from, to)
		} else {
			entries, err = q.RangeLookup(ctx, keys, from, to)
		}
		if err != nil {
			return err
		}

		return writeJSON(w, newStorageViews(entries))

	case args.StorageAt != nil:
		keys, err := decodeAll(args.StorageAt.Keys)
		if err != nil {
			return err
		}

		at, err := decodeOptional(args.StorageAt.At)
		if err != nil {
			return err
		}

		var entries []archive.StorageEntry
		if args.Lenient {
			entries, err = q.Lenient().LookupAt(ctx, keys, at)
		} else {
			entries, err = q.LookupAt(ctx, keys, at)
		}
		if err != nil {
			return err
		}

		return writeJSON(w, newStorageViews(entries))
	}

	return errors.New("no subcommand given")
}

func decode(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", s)
	}

	return b, nil
}

// decodeOptional maps an empty flag to nil, meaning "not given".
func decodeOptional(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	return decode(s)
}

func decodeAll(ss []string) ([][]byte, error) {
	out := make([][]byte, len(ss))
	for i := range ss {
		b, err := decode(ss[i])
		if err != nil {
			return nil, err
		}

		out[i] = b
	}

	return out, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(v), "encoding result")
}
