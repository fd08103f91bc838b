package archive

import (
	"bytes"
	"context"
	"testing"

	"github.com/flare-foundation/archive-data-proxy/internal/config"
	"github.com/flare-foundation/archive-data-proxy/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	key1 = []byte("3fba98689ebed1138735e0e7a5a790abb984cfb497221deefcefb70073dcaac1")
	key2 = []byte("3fba98689ebed1138735e0e7a5a790ab21a5051453bd3ae7ed269190f4653f3b")
	key3 = []byte("26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9")

	unknownHash = bytes.Repeat([]byte{0xee}, 32)
)

func blockHash(num uint64) []byte {
	return bytes.Repeat([]byte{byte(num)}, 32)
}

func fixtureBlocks() []Block {
	blocks := make([]Block, 0, 5)
	for num := uint64(1); num <= 5; num++ {
		blocks = append(blocks, Block{
			ID:             int64(num),
			ParentHash:     blockHash(num - 1),
			Hash:           blockHash(num),
			BlockNum:       num,
			StateRoot:      []byte{0x5a, byte(num)},
			ExtrinsicsRoot: []byte{0xe0, byte(num)},
			Digest:         []byte{0xd1, byte(num)},
			Ext:            []byte{},
			Spec:           9,
		})
	}

	return blocks
}

// key1 changes at blocks 2 and 4, key2 at 1, 2 and 3, key3 is deleted at 5.
func fixtureStorage() []StorageEntry {
	return []StorageEntry{
		{ID: 1, BlockNum: 1, Hash: blockHash(1), IsFull: true, Key: key2, Value: []byte("k2@1")},
		{ID: 2, BlockNum: 2, Hash: blockHash(2), IsFull: true, Key: key1, Value: []byte("k1@2")},
		{ID: 3, BlockNum: 2, Hash: blockHash(2), IsFull: false, Key: key2, Value: []byte("k2@2")},
		{ID: 4, BlockNum: 3, Hash: blockHash(3), IsFull: false, Key: key2, Value: []byte("k2@3")},
		{ID: 5, BlockNum: 4, Hash: blockHash(4), IsFull: false, Key: key1, Value: []byte("k1@4")},
		{ID: 6, BlockNum: 5, Hash: blockHash(5), IsFull: true, Key: key3, Value: nil},
	}
}

// newTestDB returns an in-memory archive database with the fixture rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DB{MaxOpenConns: 1, MaxIdleConns: 1}
	db, err := database.Open(context.Background(), sqlite.Open(":memory:"), &cfg, &config.TimeoutConfig{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.AutoMigrate(&Block{}, &StorageEntry{}))
	require.NoError(t, db.Create(fixtureBlocks()).Error)
	require.NoError(t, db.Create(fixtureStorage()).Error)

	return db
}

func blockNums(blocks []Block) []uint64 {
	nums := make([]uint64, len(blocks))
	for i := range blocks {
		nums[i] = blocks[i].BlockNum
	}

	return nums
}

func entryIDs(entries []StorageEntry) []int64 {
	ids := make([]int64, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}

	return ids
}
