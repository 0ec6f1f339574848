package store

import (
	"context"

	"github.com/summit-games/summit-indexer/internal/store/schema"
)

// Store defines the interface for database operations. Two write
// disciplines apply, chosen per table: latest-state upsert (replace all
// mutable fields, refresh the write timestamp, never delete) and
// append-only (a write colliding on the natural (block, tx, event_index)
// key is silently dropped). Both make replaying a block range a no-op.
type Store interface {
	// GetBeastState retrieves the canonical state for a beast, (nil, nil) if unseen
	GetBeastState(ctx context.Context, tokenID uint64) (*schema.BeastState, error)
	// UpsertBeastState replaces the canonical state for a beast and emits a
	// state_updates change notification
	UpsertBeastState(ctx context.Context, state *schema.BeastState) error
	// AppendActivityLog appends one activity entry; duplicate natural keys
	// are dropped. Emits an activity_log change notification on real inserts.
	AppendActivityLog(ctx context.Context, entry *schema.ActivityLogEntry) error
	// UpsertBeastOwner replaces the current owner of a beast
	UpsertBeastOwner(ctx context.Context, owner *schema.BeastOwner) error
	// CreateBeastMetadata writes immutable metadata once; repeats are dropped
	CreateBeastMetadata(ctx context.Context, metadata *schema.BeastMetadata) error
	// HasBeastMetadata reports whether metadata exists for a beast
	HasBeastMetadata(ctx context.Context, tokenID uint64) (bool, error)
	// UpsertDungeonBeast replaces the dungeon link row for a beast
	UpsertDungeonBeast(ctx context.Context, link *schema.DungeonBeast) error
	// AppendBattle appends one battle history row
	AppendBattle(ctx context.Context, battle *schema.Battle) error
	// AppendQuestReward appends one reward earned/claimed history row
	AppendQuestReward(ctx context.Context, reward *schema.QuestReward) error
	// AppendPoisonEvent appends one poison history row
	AppendPoisonEvent(ctx context.Context, poison *schema.PoisonEvent) error
	// AppendDiplomacyGroup appends one diplomacy-group history row
	AppendDiplomacyGroup(ctx context.Context, group *schema.DiplomacyGroup) error
	// AppendCorpseCollection appends one corpse-collection history row
	AppendCorpseCollection(ctx context.Context, corpse *schema.CorpseCollection) error
	// AppendSkullClaim appends one skull-claim history row
	AppendSkullClaim(ctx context.Context, claim *schema.SkullClaim) error
	// AppendSummitHistory appends one summit-takeover history row
	AppendSummitHistory(ctx context.Context, takeover *schema.SummitHistory) error
}
