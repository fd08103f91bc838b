package archive

// Block is one canonical block header row. Rows are written by the ingestion
// process; this package only reads them.
type Block struct {
	ID             int64  `gorm:"column:id;not null"`
	ParentHash     []byte `gorm:"column:parent_hash;not null"`
	Hash           []byte `gorm:"column:hash;primaryKey"`
	BlockNum       uint64 `gorm:"column:block_num;not null;index"`
	StateRoot      []byte `gorm:"column:state_root;not null"`
	ExtrinsicsRoot []byte `gorm:"column:extrinsics_root;not null"`
	Digest         []byte `gorm:"column:digest;not null"`
	Ext            []byte `gorm:"column:ext;not null"`
	Spec           uint64 `gorm:"column:spec;not null"`
}

func (Block) TableName() string {
	return "blocks"
}

// StorageEntry is the value of a storage key as recorded at one block.
// A nil Value means the key was deleted or unset at that block.
type StorageEntry struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	BlockNum uint64 `gorm:"column:block_num;not null;index"`
	Hash     []byte `gorm:"column:hash;not null"`
	IsFull   bool   `gorm:"column:is_full;not null"`
	Key      []byte `gorm:"column:key;not null;index"`
	Value    []byte `gorm:"column:storage"`
}

func (StorageEntry) TableName() string {
	return "storage"
}
