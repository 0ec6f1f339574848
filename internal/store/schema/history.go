package schema

import (
	"time"

	"gorm.io/datatypes"
)

// The raw history tables are append-only. Each shares the natural key
// (block_number, tx_hash, event_index); a colliding write is silently
// dropped, which is what makes replaying a block range after a restart or
// reorg safe.

// Battle represents the battles table - one row per battle event
type Battle struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_battles_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_battles_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_battles_natural_key,priority:3" json:"event_index"`
	// AttackerTokenID is the challenging beast
	AttackerTokenID uint64 `gorm:"column:attacker_token_id;not null;index" json:"attacker_token_id"`
	// DefenderTokenID is the beast holding the summit
	DefenderTokenID uint64 `gorm:"column:defender_token_id;not null;index" json:"defender_token_id"`
	// AttackDamage / AttackCritDamage are dealt by the attacker
	AttackDamage     uint64 `gorm:"column:attack_damage;not null" json:"attack_damage"`
	AttackCritDamage uint64 `gorm:"column:attack_crit_damage;not null" json:"attack_crit_damage"`
	// CounterDamage / CounterCritDamage are dealt back by the defender
	CounterDamage     uint64 `gorm:"column:counter_damage;not null" json:"counter_damage"`
	CounterCritDamage uint64 `gorm:"column:counter_crit_damage;not null" json:"counter_crit_damage"`
	// Capture indicates the attacker took the summit
	Capture   bool      `gorm:"column:capture;not null" json:"capture"`
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the Battle model
func (Battle) TableName() string {
	return "battles"
}

// QuestRewardKind distinguishes earn from claim rows
type QuestRewardKind string

const (
	// QuestRewardEarned marks rewards credited to a beast
	QuestRewardEarned QuestRewardKind = "earned"
	// QuestRewardClaimed marks rewards withdrawn by a player
	QuestRewardClaimed QuestRewardKind = "claimed"
)

// QuestReward represents the quest_rewards table - one row per reward
// earned/claimed event
type QuestReward struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_quest_rewards_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_quest_rewards_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_quest_rewards_natural_key,priority:3" json:"event_index"`
	// Kind is earned or claimed
	Kind QuestRewardKind `gorm:"column:kind;not null;type:text" json:"kind"`
	// PlayerAddress is the player earning or claiming
	PlayerAddress string `gorm:"column:player_address;not null;type:text;index" json:"player_address"`
	// BeastTokenID is the beast the reward is attributed to
	BeastTokenID uint64 `gorm:"column:beast_token_id;not null;index" json:"beast_token_id"`
	// Amount is the reward amount
	Amount    uint64    `gorm:"column:amount;not null" json:"amount"`
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the QuestReward model
func (QuestReward) TableName() string {
	return "quest_rewards"
}

// PoisonEvent represents the poison_events table - one row per poison
// application against the summit holder
type PoisonEvent struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_poison_events_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_poison_events_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_poison_events_natural_key,priority:3" json:"event_index"`
	// PlayerAddress is the poisoning player
	PlayerAddress string `gorm:"column:player_address;not null;type:text;index" json:"player_address"`
	// TargetTokenID is the poisoned beast
	TargetTokenID uint64 `gorm:"column:target_token_id;not null;index" json:"target_token_id"`
	// PotionCount is how many poison potions were applied at once
	PotionCount uint64    `gorm:"column:potion_count;not null" json:"potion_count"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the PoisonEvent model
func (PoisonEvent) TableName() string {
	return "poison_events"
}

// DiplomacyGroup represents the diplomacy_groups table - one row per
// diplomacy-group formation
type DiplomacyGroup struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_diplomacy_groups_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_diplomacy_groups_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_diplomacy_groups_natural_key,priority:3" json:"event_index"`
	// PlayerAddress is the player forming the group
	PlayerAddress string `gorm:"column:player_address;not null;type:text;index" json:"player_address"`
	// Members is the JSON array of member token ids
	Members   datatypes.JSON `gorm:"column:members;type:jsonb" json:"members"`
	Timestamp time.Time      `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the DiplomacyGroup model
func (DiplomacyGroup) TableName() string {
	return "diplomacy_groups"
}

// CorpseCollection represents the corpse_collections table
type CorpseCollection struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_corpse_collections_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_corpse_collections_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_corpse_collections_natural_key,priority:3" json:"event_index"`
	// PlayerAddress is the collecting player
	PlayerAddress string `gorm:"column:player_address;not null;type:text;index" json:"player_address"`
	// TokenID is the dead beast collected from
	TokenID uint64 `gorm:"column:token_id;not null;index" json:"token_id"`
	// Amount is the collected corpse amount
	Amount    uint64    `gorm:"column:amount;not null" json:"amount"`
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the CorpseCollection model
func (CorpseCollection) TableName() string {
	return "corpse_collections"
}

// SkullClaim represents the skull_claims table
type SkullClaim struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_skull_claims_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_skull_claims_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_skull_claims_natural_key,priority:3" json:"event_index"`
	// PlayerAddress is the claiming player
	PlayerAddress string `gorm:"column:player_address;not null;type:text;index" json:"player_address"`
	// TokenID is the beast whose skulls are claimed
	TokenID uint64 `gorm:"column:token_id;not null;index" json:"token_id"`
	// Skulls is the claimed skull count
	Skulls    uint64    `gorm:"column:skulls;not null" json:"skulls"`
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the SkullClaim model
func (SkullClaim) TableName() string {
	return "skull_claims"
}

// SummitHistory represents the summit_history table - one row per summit
// takeover detected by the reconciliation engine (health leaving zero)
type SummitHistory struct {
	BlockNumber uint64 `gorm:"column:block_number;not null;uniqueIndex:idx_summit_history_natural_key,priority:1" json:"block_number"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:idx_summit_history_natural_key,priority:2" json:"tx_hash"`
	EventIndex  uint64 `gorm:"column:event_index;not null;uniqueIndex:idx_summit_history_natural_key,priority:3" json:"event_index"`
	// TokenID is the beast that took the summit
	TokenID uint64 `gorm:"column:token_id;not null;index" json:"token_id"`
	// Health is the health the beast arrived with
	Health    uint64    `gorm:"column:health;not null" json:"health"`
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// TableName specifies the table name for the SummitHistory model
func (SummitHistory) TableName() string {
	return "summit_history"
}
