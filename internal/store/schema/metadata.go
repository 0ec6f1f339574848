package schema

import (
	"time"
)

// BeastMetadata represents the beast_metadata table - immutable per-beast
// attributes resolved from the external metadata service the first time a
// beast is observed. Written once, never reconciled, never diffed.
type BeastMetadata struct {
	// TokenID is the beast token id and the natural primary key
	TokenID uint64 `gorm:"column:token_id;primaryKey" json:"token_id"`
	// Name is the beast's base name
	Name string `gorm:"column:name;not null;type:text" json:"name"`
	// Prefix is the name prefix special, empty until specials are unlocked
	Prefix string `gorm:"column:prefix;type:text" json:"prefix"`
	// Suffix is the name suffix special, empty until specials are unlocked
	Suffix string `gorm:"column:suffix;type:text" json:"suffix"`
	// Tier is the beast tier (1 strongest)
	Tier uint64 `gorm:"column:tier;not null" json:"tier"`
	// Level is the beast level at mint
	Level uint64 `gorm:"column:level;not null" json:"level"`
	// Type is the combat type (magic, blade, bludgeon)
	Type string `gorm:"column:type;not null;type:text" json:"type"`
	// Power is the derived power rating
	Power uint64 `gorm:"column:power;not null" json:"power"`
	// CreatedAt is the timestamp when this row was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the BeastMetadata model
func (BeastMetadata) TableName() string {
	return "beast_metadata"
}

// DungeonBeast represents the dungeon_beasts table - links beasts observed
// in an external dungeon to their dungeon-side identity. Latest-state
// upsert keyed by (dungeon, token_id).
type DungeonBeast struct {
	// Dungeon is the dungeon contract address in normalized form
	Dungeon string `gorm:"column:dungeon;not null;type:text;primaryKey" json:"dungeon"`
	// TokenID is the beast token id
	TokenID uint64 `gorm:"column:token_id;not null;primaryKey" json:"token_id"`
	// CollectibleIndex is the dungeon-side collectible index, zero until assigned
	CollectibleIndex uint64 `gorm:"column:collectible_index;not null;default:0" json:"collectible_index"`
	// BlockNumber is the block of the last dungeon event for this beast
	BlockNumber uint64 `gorm:"column:block_number;not null" json:"block_number"`
	// UpdatedAt is the timestamp of the last write
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the DungeonBeast model
func (DungeonBeast) TableName() string {
	return "dungeon_beasts"
}
