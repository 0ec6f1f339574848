package codec

import (
	"fmt"

	"github.com/summit-games/summit-indexer/internal/domain"
)

// Event type names used in decode errors and log context
const (
	EventTypeTransfer           = "transfer"
	EventTypeBattle             = "battle"
	EventTypeRewardEarned       = "reward_earned"
	EventTypeRewardClaimed      = "reward_claimed"
	EventTypePoison             = "poison"
	EventTypeDiplomacy          = "diplomacy"
	EventTypeCorpse             = "corpse"
	EventTypeSkull              = "skull"
	EventTypeStatsBatch         = "stats_batch"
	EventTypeStatsSingle        = "stats_single"
	EventTypeDungeonStats       = "dungeon_stats"
	EventTypeDungeonCollectible = "dungeon_collectible"
)

// DecodeTransfer decodes an ownership transfer from the beast token contract:
// data = [from, to, token_id]
func DecodeTransfer(event *domain.Event) (*domain.TransferEvent, error) {
	r := newFeltReader(EventTypeTransfer, event.Data)
	from, err := r.ReadAddress("from")
	if err != nil {
		return nil, err
	}
	to, err := r.ReadAddress("to")
	if err != nil {
		return nil, err
	}
	tokenID, err := r.ReadUint64("token_id")
	if err != nil {
		return nil, err
	}
	return &domain.TransferEvent{From: from, To: to, TokenID: tokenID}, nil
}

// DecodeBattle decodes a battle result:
// data = [attacker_token_id, defender_token_id, attack_damage,
// attack_crit_damage, counter_damage, counter_crit_damage, capture]
func DecodeBattle(event *domain.Event) (*domain.BattleEvent, error) {
	r := newFeltReader(EventTypeBattle, event.Data)
	out := &domain.BattleEvent{}
	var err error
	if out.AttackerTokenID, err = r.ReadUint64("attacker_token_id"); err != nil {
		return nil, err
	}
	if out.DefenderTokenID, err = r.ReadUint64("defender_token_id"); err != nil {
		return nil, err
	}
	if out.AttackDamage, err = r.ReadUint64("attack_damage"); err != nil {
		return nil, err
	}
	if out.AttackCritDamage, err = r.ReadUint64("attack_crit_damage"); err != nil {
		return nil, err
	}
	if out.CounterDamage, err = r.ReadUint64("counter_damage"); err != nil {
		return nil, err
	}
	if out.CounterCritDamage, err = r.ReadUint64("counter_crit_damage"); err != nil {
		return nil, err
	}
	if out.Capture, err = r.ReadBool("capture"); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeReward decodes a reward earned/claimed event: data = [player, packed]
func DecodeReward(eventType string, event *domain.Event) (*domain.RewardEvent, error) {
	r := newFeltReader(eventType, event.Data)
	player, err := r.ReadAddress("player")
	if err != nil {
		return nil, err
	}
	packed, err := r.ReadFelt("packed")
	if err != nil {
		return nil, err
	}
	reward, err := DecodeQuestReward(packed)
	if err != nil {
		return nil, err
	}
	return &domain.RewardEvent{Player: player, Reward: *reward}, nil
}

// DecodePoison decodes a poison application:
// data = [player, target_token_id, potion_count]
func DecodePoison(event *domain.Event) (*domain.PoisonEvent, error) {
	r := newFeltReader(EventTypePoison, event.Data)
	out := &domain.PoisonEvent{}
	var err error
	if out.Player, err = r.ReadAddress("player"); err != nil {
		return nil, err
	}
	if out.TargetTokenID, err = r.ReadUint64("target_token_id"); err != nil {
		return nil, err
	}
	if out.PotionCount, err = r.ReadUint64("potion_count"); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeDiplomacy decodes a diplomacy-group formation:
// data = [player, token_ids.len, token_ids...]
func DecodeDiplomacy(event *domain.Event) (*domain.DiplomacyEvent, error) {
	r := newFeltReader(EventTypeDiplomacy, event.Data)
	player, err := r.ReadAddress("player")
	if err != nil {
		return nil, err
	}
	tokenIDs, err := r.ReadSpanU32("token_ids")
	if err != nil {
		return nil, err
	}
	return &domain.DiplomacyEvent{Player: player, TokenIDs: tokenIDs}, nil
}

// DecodeCorpse decodes a corpse collection: data = [player, token_id, amount]
func DecodeCorpse(event *domain.Event) (*domain.CorpseEvent, error) {
	r := newFeltReader(EventTypeCorpse, event.Data)
	out := &domain.CorpseEvent{}
	var err error
	if out.Player, err = r.ReadAddress("player"); err != nil {
		return nil, err
	}
	if out.TokenID, err = r.ReadUint64("token_id"); err != nil {
		return nil, err
	}
	if out.Amount, err = r.ReadUint64("amount"); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeSkull decodes a skull claim: data = [player, token_id, skulls]
func DecodeSkull(event *domain.Event) (*domain.SkullEvent, error) {
	r := newFeltReader(EventTypeSkull, event.Data)
	out := &domain.SkullEvent{}
	var err error
	if out.Player, err = r.ReadAddress("player"); err != nil {
		return nil, err
	}
	if out.TokenID, err = r.ReadUint64("token_id"); err != nil {
		return nil, err
	}
	if out.Skulls, err = r.ReadUint64("skulls"); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeStatsSingle decodes a single packed stats update: data = [low, high]
func DecodeStatsSingle(event *domain.Event) (*domain.BeastStats, error) {
	r := newFeltReader(EventTypeStatsSingle, event.Data)
	low, err := r.ReadFelt("low")
	if err != nil {
		return nil, err
	}
	high, err := r.ReadFelt("high")
	if err != nil {
		return nil, err
	}
	return DecodeBeastStats(low, high)
}

// DecodeStatsBatch decodes a batch of packed stats updates:
// data = [count, low_0, high_0, low_1, high_1, ...]
func DecodeStatsBatch(event *domain.Event) ([]*domain.BeastStats, error) {
	r := newFeltReader(EventTypeStatsBatch, event.Data)
	count, err := r.ReadUint64("count")
	if err != nil {
		return nil, err
	}
	// each update is a (low, high) pair; the wire count is untrusted
	if count > r.remaining()/2 {
		return nil, domain.NewDecodeError(EventTypeStatsBatch, "count",
			fmt.Sprintf("batch count %d exceeds %d remaining felt pairs", count, r.remaining()/2))
	}
	updates := make([]*domain.BeastStats, 0, count)
	for i := uint64(0); i < count; i++ {
		low, err := r.ReadFelt("low")
		if err != nil {
			return nil, err
		}
		high, err := r.ReadFelt("high")
		if err != nil {
			return nil, err
		}
		stats, err := DecodeBeastStats(low, high)
		if err != nil {
			return nil, err
		}
		updates = append(updates, stats)
	}
	return updates, nil
}

// DecodeDungeonStats decodes an external-dungeon entity-stats event.
// keys = [selector, dungeon]; data = [token_id, stats.len, stats...]
func DecodeDungeonStats(event *domain.Event) (*domain.DungeonStatsEvent, error) {
	dungeon, err := dungeonKey(EventTypeDungeonStats, event)
	if err != nil {
		return nil, err
	}
	r := newFeltReader(EventTypeDungeonStats, event.Data)
	tokenID, err := r.ReadUint64("token_id")
	if err != nil {
		return nil, err
	}
	stats, err := r.ReadSpanFelt("stats")
	if err != nil {
		return nil, err
	}
	return &domain.DungeonStatsEvent{Dungeon: dungeon, TokenID: tokenID, Stats: stats}, nil
}

// DecodeDungeonCollectible decodes an external-dungeon collectible-entity
// event. keys = [selector, dungeon]; data = [token_id, index]
func DecodeDungeonCollectible(event *domain.Event) (*domain.DungeonCollectibleEvent, error) {
	dungeon, err := dungeonKey(EventTypeDungeonCollectible, event)
	if err != nil {
		return nil, err
	}
	r := newFeltReader(EventTypeDungeonCollectible, event.Data)
	tokenID, err := r.ReadUint64("token_id")
	if err != nil {
		return nil, err
	}
	index, err := r.ReadUint64("index")
	if err != nil {
		return nil, err
	}
	return &domain.DungeonCollectibleEvent{Dungeon: dungeon, TokenID: tokenID, Index: index}, nil
}

// dungeonKey extracts the secondary dungeon address embedded in the event keys
func dungeonKey(eventType string, event *domain.Event) (string, error) {
	if len(event.Keys) < 2 {
		return "", domain.NewDecodeError(eventType, "dungeon", "missing dungeon key")
	}
	if domain.ParseFelt(event.Keys[1]) == nil {
		return "", domain.NewDecodeError(eventType, "dungeon", "invalid dungeon key felt")
	}
	return domain.NormalizeAddress(event.Keys[1]), nil
}
