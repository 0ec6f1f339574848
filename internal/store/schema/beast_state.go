package schema

import (
	"time"
)

// BeastState represents the beast_states table - the single current-truth
// row per beast. Exactly one live row exists per token id; every update
// replaces the mutable fields wholesale and the row is never deleted.
// Business fields are not monotonic (health legitimately drops to zero and
// rises again); only the write timestamps move forward.
type BeastState struct {
	// TokenID is the beast token id and the natural primary key
	TokenID uint64 `gorm:"column:token_id;primaryKey" json:"token_id"`
	// CurrentHealth is the beast's current health
	CurrentHealth uint64 `gorm:"column:current_health;not null" json:"current_health"`
	// BonusHealth is health granted on top of the base stat
	BonusHealth uint64 `gorm:"column:bonus_health;not null" json:"bonus_health"`
	// BonusXP is experience granted on top of the base stat
	BonusXP uint64 `gorm:"column:bonus_xp;not null" json:"bonus_xp"`
	// AttackStreak is the current consecutive-attack counter
	AttackStreak uint64 `gorm:"column:attack_streak;not null" json:"attack_streak"`
	// RevivalCount is how many times the beast has been revived
	RevivalCount uint64 `gorm:"column:revival_count;not null" json:"revival_count"`
	// ExtraLives is the number of banked extra lives
	ExtraLives uint64 `gorm:"column:extra_lives;not null" json:"extra_lives"`
	// SummitHeldSeconds is the cumulative time the beast has held the summit
	SummitHeldSeconds uint64 `gorm:"column:summit_held_seconds;not null" json:"summit_held_seconds"`
	// Spirit is the spirit upgrade stat
	Spirit uint64 `gorm:"column:spirit;not null" json:"spirit"`
	// Luck is the luck upgrade stat
	Luck uint64 `gorm:"column:luck;not null" json:"luck"`
	// SpecialsUnlocked indicates the specials upgrade has been unlocked
	SpecialsUnlocked bool `gorm:"column:specials_unlocked;not null;default:false" json:"specials_unlocked"`
	// WisdomUnlocked indicates the wisdom upgrade has been unlocked
	WisdomUnlocked bool `gorm:"column:wisdom_unlocked;not null;default:false" json:"wisdom_unlocked"`
	// DiplomacyUnlocked indicates the diplomacy upgrade has been unlocked
	DiplomacyUnlocked bool `gorm:"column:diplomacy_unlocked;not null;default:false" json:"diplomacy_unlocked"`
	// CapturedSummit indicates the beast has captured the summit at least once
	CapturedSummit bool `gorm:"column:captured_summit;not null;default:false" json:"captured_summit"`
	// UsedRevivalPotion indicates a revival potion has been consumed
	UsedRevivalPotion bool `gorm:"column:used_revival_potion;not null;default:false" json:"used_revival_potion"`
	// UsedAttackPotion indicates an attack potion has been consumed
	UsedAttackPotion bool `gorm:"column:used_attack_potion;not null;default:false" json:"used_attack_potion"`
	// MaxAttackStreak indicates the attack streak cap has been reached
	MaxAttackStreak bool `gorm:"column:max_attack_streak;not null;default:false" json:"max_attack_streak"`
	// HasClaimedStarterKit indicates the beast's starter potions were claimed
	HasClaimedStarterKit bool `gorm:"column:has_claimed_starter_kit;not null;default:false" json:"has_claimed_starter_kit"`
	// LastDeathTimestamp is the unix-seconds timestamp of the last death (64-bit wire width)
	LastDeathTimestamp uint64 `gorm:"column:last_death_timestamp;not null" json:"last_death_timestamp"`
	// RewardsEarned is the cumulative rewards-earned counter
	RewardsEarned uint64 `gorm:"column:rewards_earned;not null" json:"rewards_earned"`
	// RewardsClaimed is the cumulative rewards-claimed counter
	RewardsClaimed uint64 `gorm:"column:rewards_claimed;not null" json:"rewards_claimed"`
	// BlockNumber is the block that produced this state
	BlockNumber uint64 `gorm:"column:block_number;not null" json:"block_number"`
	// TxHash is the transaction that produced this state
	TxHash string `gorm:"column:tx_hash;not null;type:text" json:"tx_hash"`
	// Timestamp is the chain timestamp of the producing block
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz" json:"timestamp"`
	// CreatedAt is the timestamp when this row was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is the timestamp of the last write
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the BeastState model
func (BeastState) TableName() string {
	return "beast_states"
}
