package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values get reasonable defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values. database/sql treats MaxOpenConns=0 as "unlimited" and
// MaxIdleConns=0 as "no idle connections", neither of which we want by
// default.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// beastStateColumns are the mutable columns replaced wholesale on every
// canonical-state upsert
var beastStateColumns = []string{
	"current_health", "bonus_health", "bonus_xp", "attack_streak",
	"revival_count", "extra_lives", "summit_held_seconds", "spirit", "luck",
	"specials_unlocked", "wisdom_unlocked", "diplomacy_unlocked",
	"captured_summit", "used_revival_potion", "used_attack_potion",
	"max_attack_streak", "has_claimed_starter_kit", "last_death_timestamp",
	"rewards_earned", "rewards_claimed", "block_number", "tx_hash",
	"timestamp", "updated_at",
}

// GetBeastState retrieves the canonical state for a beast
func (s *pgStore) GetBeastState(ctx context.Context, tokenID uint64) (*schema.BeastState, error) {
	var state schema.BeastState
	err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get beast state: %w", err)
	}
	return &state, nil
}

// UpsertBeastState replaces the canonical state for a beast and notifies
// listeners on the state_updates channel in the same transaction
func (s *pgStore) UpsertBeastState(ctx context.Context, state *schema.BeastState) error {
	state.UpdatedAt = time.Now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns(beastStateColumns),
		}).Create(state).Error; err != nil {
			return fmt.Errorf("failed to upsert beast state: %w", err)
		}

		return s.notify(tx, domain.ChannelStateUpdates, state)
	})
}

// AppendActivityLog appends one activity entry. A natural-key collision
// means the same chain event is being reprocessed, so the write is dropped
// and no notification goes out.
func (s *pgStore) AppendActivityLog(ctx context.Context, entry *schema.ActivityLogEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "block_number"}, {Name: "tx_hash"}, {Name: "event_index"},
			},
			DoNothing: true,
		}).Create(entry)
		if result.Error != nil {
			return fmt.Errorf("failed to append activity log entry: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			// Replay of an already-applied event
			return nil
		}

		return s.notify(tx, domain.ChannelActivityLog, entry)
	})
}

// UpsertBeastOwner replaces the current owner of a beast
func (s *pgStore) UpsertBeastOwner(ctx context.Context, owner *schema.BeastOwner) error {
	owner.UpdatedAt = time.Now().UTC()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_address", "block_number", "updated_at"}),
	}).Create(owner).Error
	if err != nil {
		return fmt.Errorf("failed to upsert beast owner: %w", err)
	}
	return nil
}

// CreateBeastMetadata writes immutable metadata once per beast
func (s *pgStore) CreateBeastMetadata(ctx context.Context, metadata *schema.BeastMetadata) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_id"}},
		DoNothing: true,
	}).Create(metadata).Error
	if err != nil {
		return fmt.Errorf("failed to create beast metadata: %w", err)
	}
	return nil
}

// HasBeastMetadata reports whether metadata exists for a beast
func (s *pgStore) HasBeastMetadata(ctx context.Context, tokenID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.BeastMetadata{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check beast metadata: %w", err)
	}
	return count > 0, nil
}

// UpsertDungeonBeast replaces the dungeon link row for a beast
func (s *pgStore) UpsertDungeonBeast(ctx context.Context, link *schema.DungeonBeast) error {
	link.UpdatedAt = time.Now().UTC()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dungeon"}, {Name: "token_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"collectible_index", "block_number", "updated_at"}),
	}).Create(link).Error
	if err != nil {
		return fmt.Errorf("failed to upsert dungeon beast: %w", err)
	}
	return nil
}

// AppendBattle appends one battle history row
func (s *pgStore) AppendBattle(ctx context.Context, battle *schema.Battle) error {
	return s.appendOnly(ctx, battle, "battle")
}

// AppendQuestReward appends one reward history row
func (s *pgStore) AppendQuestReward(ctx context.Context, reward *schema.QuestReward) error {
	return s.appendOnly(ctx, reward, "quest reward")
}

// AppendPoisonEvent appends one poison history row
func (s *pgStore) AppendPoisonEvent(ctx context.Context, poison *schema.PoisonEvent) error {
	return s.appendOnly(ctx, poison, "poison event")
}

// AppendDiplomacyGroup appends one diplomacy-group history row
func (s *pgStore) AppendDiplomacyGroup(ctx context.Context, group *schema.DiplomacyGroup) error {
	return s.appendOnly(ctx, group, "diplomacy group")
}

// AppendCorpseCollection appends one corpse-collection history row
func (s *pgStore) AppendCorpseCollection(ctx context.Context, corpse *schema.CorpseCollection) error {
	return s.appendOnly(ctx, corpse, "corpse collection")
}

// AppendSkullClaim appends one skull-claim history row
func (s *pgStore) AppendSkullClaim(ctx context.Context, claim *schema.SkullClaim) error {
	return s.appendOnly(ctx, claim, "skull claim")
}

// AppendSummitHistory appends one summit-takeover history row
func (s *pgStore) AppendSummitHistory(ctx context.Context, takeover *schema.SummitHistory) error {
	return s.appendOnly(ctx, takeover, "summit history")
}

// appendOnly inserts a history row, dropping natural-key collisions
func (s *pgStore) appendOnly(ctx context.Context, row any, what string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "block_number"}, {Name: "tx_hash"}, {Name: "event_index"},
		},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to append %s: %w", what, err)
	}
	return nil
}

// notify emits a pg_notify on the given channel with the row serialized as
// JSON, inside the caller's transaction so listeners only observe committed
// changes
func (s *pgStore) notify(tx *gorm.DB, channel domain.Channel, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	if err := tx.Exec("SELECT pg_notify(?, ?)", string(channel), string(data)).Error; err != nil {
		return fmt.Errorf("failed to notify channel %s: %w", channel, err)
	}
	return nil
}
