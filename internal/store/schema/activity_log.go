package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Category classifies an activity log entry
type Category string

const (
	// CategoryCombat covers battles, poison, consumable use, and summit changes
	CategoryCombat Category = "combat"
	// CategoryUpgrade covers stat and unlock increases
	CategoryUpgrade Category = "upgrade"
	// CategoryRewards covers reward earn/claim events
	CategoryRewards Category = "rewards"
	// CategoryArrival covers first-appearance events (starter kit, dungeon beasts)
	CategoryArrival Category = "arrival"
)

// Activity sub-categories. Derived entries synthesized by the reconciliation
// engine reuse the diffed field name as their sub-category.
const (
	SubCategoryBattleEvent    = "battle_event"
	SubCategoryEarned         = "earned"
	SubCategoryClaimed        = "claimed"
	SubCategoryPoison         = "poison"
	SubCategorySkullClaim     = "skull_claim"
	SubCategoryDungeonBeast   = "dungeon_beast"
	SubCategoryClaimedPotions = "claimed_potions"
	SubCategorySummitChange   = "summit_change"
)

// ActivityLogEntry represents the activity_log table - the append-only feed
// of everything that happened, both direct (one per raw chain event) and
// derived (synthesized by diffing old vs. new canonical state). The natural
// key (block_number, tx_hash, event_index) makes replays of the same block
// range no-ops; derived entries use deterministically offset indices so they
// never collide with real event positions.
type ActivityLogEntry struct {
	// BlockNumber is the block of the originating chain event
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_activity_natural_key,priority:1" json:"block_number"`
	// TxHash is the transaction of the originating chain event
	TxHash string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_activity_natural_key,priority:2" json:"tx_hash"`
	// EventIndex is the event position within the block, possibly offset for derived entries
	EventIndex uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_activity_natural_key,priority:3" json:"event_index"`
	// Category is the top-level classification (combat, upgrade, rewards, arrival)
	Category Category `gorm:"column:category;not null;type:text;index" json:"category"`
	// SubCategory refines the category (battle_event, earned, spirit, ...)
	SubCategory string `gorm:"column:sub_category;not null;type:text" json:"sub_category"`
	// Payload mirrors the decoded fields of the originating event as JSON
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	// PlayerAddress is the acting player, when the event carries one
	PlayerAddress *string `gorm:"column:player_address;type:text;index" json:"player_address,omitempty"`
	// TokenID is the subject beast, when the event carries one
	TokenID *uint64 `gorm:"column:token_id;index" json:"token_id,omitempty"`
	// Timestamp is the chain timestamp of the originating block
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	// CreatedAt is the timestamp when this row was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the ActivityLogEntry model
func (ActivityLogEntry) TableName() string {
	return "activity_log"
}
