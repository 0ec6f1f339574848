package codec

import (
	"math/big"

	"github.com/summit-games/summit-indexer/internal/domain"
)

// Packed stats record layout. The wire value is packed = low | (high << 128)
// where low and high are 128-bit words delivered as two felts.
//
// low word, from LSB:
//
//	last_death_timestamp [0,64) · rewards_earned [64,32) · rewards_claimed [96,32)
//
// high word, from LSB:
//
//	token_id [0,17) · current_health [17,12) · bonus_health [29,11) ·
//	bonus_xp [40,15) · attack_streak [55,4) · revival_count [59,6) ·
//	extra_lives [65,12) · summit_held_seconds [77,23) · spirit [100,8) ·
//	luck [108,8) · seven single-bit flags at 116..122
const (
	offLastDeathTimestamp = 0
	offRewardsEarned      = 64
	offRewardsClaimed     = 96

	offTokenID           = 0
	offCurrentHealth     = 17
	offBonusHealth       = 29
	offBonusXP           = 40
	offAttackStreak      = 55
	offRevivalCount      = 59
	offExtraLives        = 65
	offSummitHeldSeconds = 77
	offSpirit            = 100
	offLuck              = 108
	offSpecials          = 116
	offWisdom            = 117
	offDiplomacy         = 118
	offCapturedSummit    = 119
	offUsedRevivalPotion = 120
	offUsedAttackPotion  = 121
	offMaxAttackStreak   = 122

	widthLastDeathTimestamp = 64
	widthRewardsEarned      = 32
	widthRewardsClaimed     = 32
	widthTokenID            = 17
	widthCurrentHealth      = 12
	widthBonusHealth        = 11
	widthBonusXP            = 15
	widthAttackStreak       = 4
	widthRevivalCount       = 6
	widthExtraLives         = 12
	widthSummitHeldSeconds  = 23
	widthSpirit             = 8
	widthLuck               = 8

	// quest reward layout: packed = amount | (beast_token_id << 8)
	offRewardAmount       = 0
	offRewardBeastTokenID = 8
	widthRewardAmount     = 8
	widthRewardBeastID    = 24

	wordBits = 128
)

// extractBits returns the value of (v >> offset) & ((1<<width)-1)
func extractBits(v *big.Int, offset, width uint) uint64 {
	shifted := new(big.Int).Rsh(v, offset)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	return shifted.And(shifted, mask).Uint64()
}

// extractFlag returns the single bit of v at offset
func extractFlag(v *big.Int, offset uint) bool {
	return v.Bit(int(offset)) == 1
}

// DecodeBeastStats decodes a packed 256-bit stats record from its low and
// high 128-bit words. Each word must fit 128 bits; the widths above are
// masked exactly so an off-by-one would corrupt an adjacent field rather
// than error, which is why the layout is locked by exhaustive bit tests.
func DecodeBeastStats(low, high *big.Int) (*domain.BeastStats, error) {
	const eventType = "beast_stats"
	if low == nil {
		return nil, domain.NewDecodeError(eventType, "low", "missing low word")
	}
	if high == nil {
		return nil, domain.NewDecodeError(eventType, "high", "missing high word")
	}
	if low.Sign() < 0 || low.BitLen() > wordBits {
		return nil, domain.NewDecodeError(eventType, "low", "word exceeds 128 bits")
	}
	if high.Sign() < 0 || high.BitLen() > wordBits {
		return nil, domain.NewDecodeError(eventType, "high", "word exceeds 128 bits")
	}

	return &domain.BeastStats{
		LastDeathTimestamp: extractBits(low, offLastDeathTimestamp, widthLastDeathTimestamp),
		RewardsEarned:      extractBits(low, offRewardsEarned, widthRewardsEarned),
		RewardsClaimed:     extractBits(low, offRewardsClaimed, widthRewardsClaimed),

		TokenID:           extractBits(high, offTokenID, widthTokenID),
		CurrentHealth:     extractBits(high, offCurrentHealth, widthCurrentHealth),
		BonusHealth:       extractBits(high, offBonusHealth, widthBonusHealth),
		BonusXP:           extractBits(high, offBonusXP, widthBonusXP),
		AttackStreak:      extractBits(high, offAttackStreak, widthAttackStreak),
		RevivalCount:      extractBits(high, offRevivalCount, widthRevivalCount),
		ExtraLives:        extractBits(high, offExtraLives, widthExtraLives),
		SummitHeldSeconds: extractBits(high, offSummitHeldSeconds, widthSummitHeldSeconds),
		Spirit:            extractBits(high, offSpirit, widthSpirit),
		Luck:              extractBits(high, offLuck, widthLuck),
		SpecialsUnlocked:  extractFlag(high, offSpecials),
		WisdomUnlocked:    extractFlag(high, offWisdom),
		DiplomacyUnlocked: extractFlag(high, offDiplomacy),
		CapturedSummit:    extractFlag(high, offCapturedSummit),
		UsedRevivalPotion: extractFlag(high, offUsedRevivalPotion),
		UsedAttackPotion:  extractFlag(high, offUsedAttackPotion),
		MaxAttackStreak:   extractFlag(high, offMaxAttackStreak),
	}, nil
}

// EncodeBeastStats packs stats back into low and high words. Decode-only on
// the wire; this exists so the bit layout can be round-trip tested.
func EncodeBeastStats(s *domain.BeastStats) (low, high *big.Int) {
	low = new(big.Int)
	packInto(low, s.LastDeathTimestamp, offLastDeathTimestamp)
	packInto(low, s.RewardsEarned, offRewardsEarned)
	packInto(low, s.RewardsClaimed, offRewardsClaimed)

	high = new(big.Int)
	packInto(high, s.TokenID, offTokenID)
	packInto(high, s.CurrentHealth, offCurrentHealth)
	packInto(high, s.BonusHealth, offBonusHealth)
	packInto(high, s.BonusXP, offBonusXP)
	packInto(high, s.AttackStreak, offAttackStreak)
	packInto(high, s.RevivalCount, offRevivalCount)
	packInto(high, s.ExtraLives, offExtraLives)
	packInto(high, s.SummitHeldSeconds, offSummitHeldSeconds)
	packInto(high, s.Spirit, offSpirit)
	packInto(high, s.Luck, offLuck)
	packFlag(high, s.SpecialsUnlocked, offSpecials)
	packFlag(high, s.WisdomUnlocked, offWisdom)
	packFlag(high, s.DiplomacyUnlocked, offDiplomacy)
	packFlag(high, s.CapturedSummit, offCapturedSummit)
	packFlag(high, s.UsedRevivalPotion, offUsedRevivalPotion)
	packFlag(high, s.UsedAttackPotion, offUsedAttackPotion)
	packFlag(high, s.MaxAttackStreak, offMaxAttackStreak)
	return low, high
}

func packInto(word *big.Int, value uint64, offset uint) {
	v := new(big.Int).SetUint64(value)
	word.Or(word, v.Lsh(v, offset))
}

func packFlag(word *big.Int, set bool, offset uint) {
	if set {
		word.SetBit(word, int(offset), 1)
	}
}

// DecodeQuestReward decodes a packed quest-reward record:
// amount occupies bits [0,8) and beast_token_id bits [8,32).
func DecodeQuestReward(packed *big.Int) (*domain.QuestReward, error) {
	const eventType = "quest_reward"
	if packed == nil {
		return nil, domain.NewDecodeError(eventType, "packed", "missing value")
	}
	if packed.Sign() < 0 || packed.BitLen() > offRewardBeastTokenID+widthRewardBeastID {
		return nil, domain.NewDecodeError(eventType, "packed", "value exceeds 32 bits")
	}
	return &domain.QuestReward{
		Amount:       extractBits(packed, offRewardAmount, widthRewardAmount),
		BeastTokenID: extractBits(packed, offRewardBeastTokenID, widthRewardBeastID),
	}, nil
}

// EncodeQuestReward packs a quest reward; test helper only
func EncodeQuestReward(r *domain.QuestReward) *big.Int {
	packed := new(big.Int).SetUint64(r.BeastTokenID)
	packed.Lsh(packed, offRewardBeastTokenID)
	packed.Or(packed, new(big.Int).SetUint64(r.Amount))
	return packed
}
