package main

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/flare-foundation/archive-data-proxy/internal/archive"
)

type blockView struct {
	Number         hexutil.Uint64 `json:"number"`
	Hash           hexutil.Bytes  `json:"hash"`
	ParentHash     hexutil.Bytes  `json:"parentHash"`
	StateRoot      hexutil.Bytes  `json:"stateRoot"`
	ExtrinsicsRoot hexutil.Bytes  `json:"extrinsicsRoot"`
	Digest         hexutil.Bytes  `json:"digest"`
	Ext            hexutil.Bytes  `json:"ext"`
	SpecVersion    uint64         `json:"specVersion"`
}

type storageView struct {
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	BlockHash   hexutil.Bytes  `json:"blockHash"`
	Key         hexutil.Bytes  `json:"key"`
	Value       *hexutil.Bytes `json:"value"`
	IsFull      bool           `json:"isFull"`
}

func newBlockViews(blocks []archive.Block) []blockView {
	views := make([]blockView, len(blocks))
	for i, b := range blocks {
		views[i] = blockView{
			Number:         hexutil.Uint64(b.BlockNum),
			Hash:           b.Hash,
			ParentHash:     b.ParentHash,
			StateRoot:      b.StateRoot,
			ExtrinsicsRoot: b.ExtrinsicsRoot,
			Digest:         b.Digest,
			Ext:            b.Ext,
			SpecVersion:    b.Spec,
		}
	}

	return views
}

// newStorageViews renders an absent value as JSON null.
func newStorageViews(entries []archive.StorageEntry) []storageView {
	views := make([]storageView, len(entries))
	for i, e := range entries {
		views[i] = storageView{
			BlockNumber: hexutil.Uint64(e.BlockNum),
			BlockHash:   e.Hash,
			Key:         e.Key,
			IsFull:      e.IsFull,
		}

		if e.Value != nil {
			value := hexutil.Bytes(e.Value)
			views[i].Value = &value
		}
	}

	return views
}
