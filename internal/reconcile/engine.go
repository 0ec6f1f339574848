package reconcile

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/store"
	"github.com/summit-games/summit-indexer/internal/store/schema"
)

// Derived entries get event indices offset from the triggering chain event
// so they never collide with real positions. A single stats update can carry
// at most 99 derived facts and a batch at most 999 updates; the offsets are
// not guarded against overflow because downstream consumers key on the
// resulting indices and widening the scheme would change persisted keys.
const (
	// SingleUpdateStride spaces derived indices for a standalone stats update
	SingleUpdateStride = 100
	// BatchUpdateStride spaces derived indices for updates inside a batch
	BatchUpdateStride = 1000
)

// Provenance carries the chain coordinates of the event that triggered a
// reconciliation pass.
type Provenance struct {
	BlockNumber uint64
	TxHash      string
	Timestamp   time.Time
	// EventIndex is the raw position of the triggering event in its block
	EventIndex uint64
	// BatchPos is the zero-based position inside a batch update, or -1 for
	// a standalone update
	BatchPos int
}

func (p Provenance) derivedIndex(k uint64) uint64 {
	if p.BatchPos >= 0 {
		return p.EventIndex*BatchUpdateStride + uint64(p.BatchPos) + k
	}
	return p.EventIndex*SingleUpdateStride + k
}

// SummitIndex returns the record-distinct index used for summit takeover
// rows: the base derived slot, below the first derived activity offset, so
// every record of a batch lands on its own natural key.
func (p Provenance) SummitIndex() uint64 {
	return p.derivedIndex(0)
}

// Result reports what a reconciliation pass observed and wrote.
type Result struct {
	// FirstSight is true when no previous state existed for the beast
	FirstSight bool
	// SummitTaken is true when current_health transitioned 0 -> >0
	SummitTaken bool
	// DerivedEntries is the number of derived activity entries emitted
	DerivedEntries int
}

// Engine diffs a freshly decoded stats record against the stored canonical
// state and synthesizes the activity entries the chain never emits directly
// (stat upgrades, unlock flips, summit takeovers). The previous state is
// read before anything is written and the new state is written last, so a
// crash mid-pass replays cleanly: derived appends are keyed and the diff
// re-derives identically as long as the state row still holds the old
// values.
type Engine struct {
	store store.Store
	json  adapter.JSON
	clock adapter.Clock
}

// NewEngine creates a reconciliation engine on top of a store
func NewEngine(s store.Store, json adapter.JSON, clock adapter.Clock) *Engine {
	return &Engine{store: s, json: json, clock: clock}
}

// statDiff is one entry of the fixed ordered diff list. Boolean unlocks are
// compared as 0 -> 1 transitions. The order is load-bearing: simultaneous
// increases must emit derived entries in a reproducible order so their
// offset indices are deterministic across replays.
type statDiff struct {
	name     string
	category schema.Category
	old, new uint64
}

func boolStat(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func diffFields(prev *schema.BeastState, next *domain.BeastStats) []statDiff {
	return []statDiff{
		{"spirit", schema.CategoryUpgrade, prev.Spirit, next.Spirit},
		{"luck", schema.CategoryUpgrade, prev.Luck, next.Luck},
		{"specials", schema.CategoryUpgrade, boolStat(prev.SpecialsUnlocked), boolStat(next.SpecialsUnlocked)},
		{"wisdom", schema.CategoryUpgrade, boolStat(prev.WisdomUnlocked), boolStat(next.WisdomUnlocked)},
		{"diplomacy", schema.CategoryUpgrade, boolStat(prev.DiplomacyUnlocked), boolStat(next.DiplomacyUnlocked)},
		{"bonus_health", schema.CategoryUpgrade, prev.BonusHealth, next.BonusHealth},
		// extra lives are a combat consumable, not an upgrade
		{"extra_lives", schema.CategoryCombat, prev.ExtraLives, next.ExtraLives},
	}
}

// Reconcile compares the decoded stats against the stored state for the same
// beast, appends one derived activity entry per detected fact, then replaces
// the canonical state. It runs once per record even inside a batch.
func (e *Engine) Reconcile(ctx context.Context, stats *domain.BeastStats, prov Provenance) (*Result, error) {
	prev, err := e.store.GetBeastState(ctx, stats.TokenID)
	if err != nil {
		return nil, fmt.Errorf("load previous state for beast %d: %w", stats.TokenID, err)
	}

	result := &Result{}
	if prev == nil {
		// first sight: nothing to diff against
		result.FirstSight = true
		if err := e.store.UpsertBeastState(ctx, e.newState(stats, prov)); err != nil {
			return nil, fmt.Errorf("write first state for beast %d: %w", stats.TokenID, err)
		}
		return result, nil
	}

	var k uint64 = 1
	for _, d := range diffFields(prev, stats) {
		if d.new <= d.old {
			continue
		}
		payload, err := e.json.Marshal(map[string]interface{}{
			"token_id": stats.TokenID,
			"previous": d.old,
			"current":  d.new,
			"change":   d.new - d.old,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload for beast %d: %w", d.name, stats.TokenID, err)
		}
		if err := e.append(ctx, stats.TokenID, prov, k, d.category, d.name, payload); err != nil {
			return nil, err
		}
		result.DerivedEntries++
		k++
	}

	if !prev.HasClaimedStarterKit && stats.StarterKitClaimed() {
		payload, err := e.json.Marshal(map[string]interface{}{
			"token_id": stats.TokenID,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal starter kit payload for beast %d: %w", stats.TokenID, err)
		}
		if err := e.append(ctx, stats.TokenID, prov, k, schema.CategoryArrival, schema.SubCategoryClaimedPotions, payload); err != nil {
			return nil, err
		}
		result.DerivedEntries++
		k++
	}

	if prev.CurrentHealth == 0 && stats.CurrentHealth > 0 {
		// only the summit holder is revived by a takeover, so a 0 -> alive
		// transition means this beast just took the summit
		result.SummitTaken = true
		payload, err := e.json.Marshal(map[string]interface{}{
			"token_id":        stats.TokenID,
			"previous_health": prev.CurrentHealth,
			"current_health":  stats.CurrentHealth,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal summit payload for beast %d: %w", stats.TokenID, err)
		}
		if err := e.append(ctx, stats.TokenID, prov, k, schema.CategoryCombat, schema.SubCategorySummitChange, payload); err != nil {
			return nil, err
		}
		result.DerivedEntries++
	}

	if err := e.store.UpsertBeastState(ctx, e.newState(stats, prov)); err != nil {
		return nil, fmt.Errorf("write state for beast %d: %w", stats.TokenID, err)
	}
	return result, nil
}

func (e *Engine) append(ctx context.Context, tokenID uint64, prov Provenance, k uint64, category schema.Category, subCategory string, payload []byte) error {
	entry := &schema.ActivityLogEntry{
		BlockNumber: prov.BlockNumber,
		TxHash:      prov.TxHash,
		EventIndex:  prov.derivedIndex(k),
		Category:    category,
		SubCategory: subCategory,
		Payload:     datatypes.JSON(payload),
		TokenID:     &tokenID,
		Timestamp:   prov.Timestamp,
		CreatedAt:   e.clock.Now(),
	}
	if err := e.store.AppendActivityLog(ctx, entry); err != nil {
		return fmt.Errorf("append derived %s entry for beast %d: %w", subCategory, tokenID, err)
	}
	return nil
}

func (e *Engine) newState(stats *domain.BeastStats, prov Provenance) *schema.BeastState {
	now := e.clock.Now()
	return &schema.BeastState{
		TokenID:              stats.TokenID,
		CurrentHealth:        stats.CurrentHealth,
		BonusHealth:          stats.BonusHealth,
		BonusXP:              stats.BonusXP,
		AttackStreak:         stats.AttackStreak,
		RevivalCount:         stats.RevivalCount,
		ExtraLives:           stats.ExtraLives,
		SummitHeldSeconds:    stats.SummitHeldSeconds,
		Spirit:               stats.Spirit,
		Luck:                 stats.Luck,
		SpecialsUnlocked:     stats.SpecialsUnlocked,
		WisdomUnlocked:       stats.WisdomUnlocked,
		DiplomacyUnlocked:    stats.DiplomacyUnlocked,
		CapturedSummit:       stats.CapturedSummit,
		UsedRevivalPotion:    stats.UsedRevivalPotion,
		UsedAttackPotion:     stats.UsedAttackPotion,
		MaxAttackStreak:      stats.MaxAttackStreak,
		HasClaimedStarterKit: stats.StarterKitClaimed(),
		LastDeathTimestamp:   stats.LastDeathTimestamp,
		RewardsEarned:        stats.RewardsEarned,
		RewardsClaimed:       stats.RewardsClaimed,
		BlockNumber:          prov.BlockNumber,
		TxHash:               prov.TxHash,
		Timestamp:            prov.Timestamp,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
