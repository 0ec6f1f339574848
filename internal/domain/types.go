package domain

import (
	"time"
)

// Channel identifies a change-notification channel shared by the store
// (pg_notify) and the realtime hub (client subscriptions)
type Channel string

const (
	// ChannelStateUpdates carries canonical beast state changes
	ChannelStateUpdates Channel = "state_updates"
	// ChannelActivityLog carries new activity log entries
	ChannelActivityLog Channel = "activity_log"
)

// IsValidChannel checks if a channel name is one the hub serves
func IsValidChannel(ch Channel) bool {
	return ch == ChannelStateUpdates || ch == ChannelActivityLog
}

// Event represents a single raw contract event inside a block.
// Keys[0] is the event selector; the remaining keys and the data array are
// felt-encoded hex strings as delivered by the chain feed.
type Event struct {
	FromAddress string   `json:"from_address"` // emitting contract address
	Keys        []string `json:"keys"`         // selector + indexed fields
	Data        []string `json:"data"`         // positional felt array
	TxHash      string   `json:"tx_hash"`      // transaction id
	EventIndex  uint64   `json:"event_index"`  // position within the block
}

// Selector returns the event selector (first key), or empty if the key
// array is malformed
func (e *Event) Selector() string {
	if len(e.Keys) == 0 {
		return ""
	}
	return e.Keys[0]
}

// Block represents one delivered block: a header plus its ordered events
type Block struct {
	Number    uint64    `json:"number"`    // block number
	Timestamp time.Time `json:"timestamp"` // chain timestamp
	Events    []Event   `json:"events"`    // delivery order is processing order
}

// BeastStats is the decoded canonical per-beast state carried by packed
// stats records. Field widths are fixed by the contract's bit layout; see
// the codec package for offsets.
type BeastStats struct {
	TokenID            uint64 `json:"token_id"`
	CurrentHealth      uint64 `json:"current_health"`
	BonusHealth        uint64 `json:"bonus_health"`
	BonusXP            uint64 `json:"bonus_xp"`
	AttackStreak       uint64 `json:"attack_streak"`
	RevivalCount       uint64 `json:"revival_count"`
	ExtraLives         uint64 `json:"extra_lives"`
	SummitHeldSeconds  uint64 `json:"summit_held_seconds"`
	Spirit             uint64 `json:"spirit"`
	Luck               uint64 `json:"luck"`
	SpecialsUnlocked   bool   `json:"specials_unlocked"`
	WisdomUnlocked     bool   `json:"wisdom_unlocked"`
	DiplomacyUnlocked  bool   `json:"diplomacy_unlocked"`
	CapturedSummit     bool   `json:"captured_summit"`
	UsedRevivalPotion  bool   `json:"used_revival_potion"`
	UsedAttackPotion   bool   `json:"used_attack_potion"`
	MaxAttackStreak    bool   `json:"max_attack_streak"`
	LastDeathTimestamp uint64 `json:"last_death_timestamp"` // unix seconds
	RewardsEarned      uint64 `json:"rewards_earned"`
	RewardsClaimed     uint64 `json:"rewards_claimed"`
}

// StarterKitClaimed reports whether the beast has claimed its starter
// potions. The contract packs this as the captured_summit-adjacent flag
// group; claiming is signalled by the revival+attack potion pair being
// granted, which the contract exposes as a single unlock on first claim.
func (s *BeastStats) StarterKitClaimed() bool {
	return s.UsedRevivalPotion && s.UsedAttackPotion
}

// QuestReward is the decoded packed quest-reward record
type QuestReward struct {
	Amount       uint64 `json:"amount"`
	BeastTokenID uint64 `json:"beast_token_id"`
}

// TransferEvent is a decoded ownership transfer from the beast token contract
type TransferEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
}

// BattleEvent is a decoded battle result from the summit contract
type BattleEvent struct {
	AttackerTokenID   uint64 `json:"attacker_token_id"`
	DefenderTokenID   uint64 `json:"defender_token_id"`
	AttackDamage      uint64 `json:"attack_damage"`
	AttackCritDamage  uint64 `json:"attack_crit_damage"`
	CounterDamage     uint64 `json:"counter_damage"`
	CounterCritDamage uint64 `json:"counter_crit_damage"`
	Capture           bool   `json:"capture"`
}

// RewardEvent is a decoded reward earned/claimed event
type RewardEvent struct {
	Player string      `json:"player"`
	Reward QuestReward `json:"reward"`
}

// PoisonEvent is a decoded poison application
type PoisonEvent struct {
	Player        string `json:"player"`
	TargetTokenID uint64 `json:"target_token_id"`
	PotionCount   uint64 `json:"potion_count"`
}

// DiplomacyEvent is a decoded diplomacy-group formation
type DiplomacyEvent struct {
	Player   string   `json:"player"`
	TokenIDs []uint64 `json:"token_ids"`
}

// CorpseEvent is a decoded corpse collection
type CorpseEvent struct {
	Player  string `json:"player"`
	TokenID uint64 `json:"token_id"`
	Amount  uint64 `json:"amount"`
}

// SkullEvent is a decoded skull claim
type SkullEvent struct {
	Player  string `json:"player"`
	TokenID uint64 `json:"token_id"`
	Skulls  uint64 `json:"skulls"`
}

// DungeonStatsEvent is a decoded external-dungeon entity-stats event.
// The dungeon address comes from the event keys and is used to filter out
// events from unrelated dungeons.
type DungeonStatsEvent struct {
	Dungeon string   `json:"dungeon"`
	TokenID uint64   `json:"token_id"`
	Stats   []string `json:"stats"` // raw felt values, shape owned by the dungeon
}

// DungeonCollectibleEvent is a decoded external-dungeon collectible-entity event
type DungeonCollectibleEvent struct {
	Dungeon string `json:"dungeon"`
	TokenID uint64 `json:"token_id"`
	Index   uint64 `json:"index"`
}

// BeastMetadata is the immutable per-beast metadata resolved from the
// external metadata service. Written once; never reconciled.
type BeastMetadata struct {
	TokenID uint64 `json:"token_id"`
	Name    string `json:"name"`
	Prefix  string `json:"prefix"`
	Suffix  string `json:"suffix"`
	Tier    uint64 `json:"tier"`
	Level   uint64 `json:"level"`
	Type    string `json:"type"`
	Power   uint64 `json:"power"`
}
