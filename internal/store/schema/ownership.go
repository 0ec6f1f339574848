package schema

import (
	"time"
)

// BeastOwner represents the beast_owners table - one row per beast mapping
// to its current owner. Upserted on transfer events; burn transfers are
// never recorded so the last real owner survives a burn.
type BeastOwner struct {
	// TokenID is the beast token id and the natural primary key
	TokenID uint64 `gorm:"column:token_id;primaryKey" json:"token_id"`
	// OwnerAddress is the current owner in normalized unpadded lowercase hex
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;index" json:"owner_address"`
	// BlockNumber is the block of the transfer that set this owner
	BlockNumber uint64 `gorm:"column:block_number;not null" json:"block_number"`
	// UpdatedAt is the timestamp of the last write
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the BeastOwner model
func (BeastOwner) TableName() string {
	return "beast_owners"
}
