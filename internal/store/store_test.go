package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/summit-games/summit-indexer/internal/store/schema"
)

// storeHarness is one Store implementation under test plus a row counter for
// tables the Store interface has no reader for
type storeHarness struct {
	store Store
	count func(t *testing.T, table string) int
}

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestState(tokenID, health, blockNumber uint64) *schema.BeastState {
	return &schema.BeastState{
		TokenID:       tokenID,
		CurrentHealth: health,
		Spirit:        3,
		Luck:          2,
		BlockNumber:   blockNumber,
		TxHash:        "0xstate",
		Timestamp:     time.Unix(1700000000, 0).UTC(),
		CreatedAt:     time.Unix(1700000000, 0).UTC(),
	}
}

func buildTestActivity(blockNumber uint64, txHash string, eventIndex uint64) *schema.ActivityLogEntry {
	return &schema.ActivityLogEntry{
		BlockNumber: blockNumber,
		TxHash:      txHash,
		EventIndex:  eventIndex,
		Category:    schema.CategoryCombat,
		SubCategory: schema.SubCategoryBattleEvent,
		Payload:     datatypes.JSON(`{"token_id":7}`),
		Timestamp:   time.Unix(1700000000, 0).UTC(),
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

// =============================================================================
// Discipline tests, shared across implementations
// =============================================================================

func testBeastStateUpsert(t *testing.T, h storeHarness) {
	ctx := context.Background()

	// unseen beast reads as (nil, nil)
	state, err := h.store.GetBeastState(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, h.store.UpsertBeastState(ctx, buildTestState(42, 100, 1200)))

	state, err = h.store.GetBeastState(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.EqualValues(t, 100, state.CurrentHealth)
	assert.EqualValues(t, 1200, state.BlockNumber)

	// a later update replaces the mutable fields on the same row
	require.NoError(t, h.store.UpsertBeastState(ctx, buildTestState(42, 0, 1201)))

	state, err = h.store.GetBeastState(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.EqualValues(t, 0, state.CurrentHealth)
	assert.EqualValues(t, 1201, state.BlockNumber)
	assert.Equal(t, 1, h.count(t, "beast_states"))
}

func testActivityLogReplay(t *testing.T, h storeHarness) {
	ctx := context.Background()

	require.NoError(t, h.store.AppendActivityLog(ctx, buildTestActivity(1200, "0xabc", 3)))
	assert.Equal(t, 1, h.count(t, "activity_log"))

	// replaying the same chain event is dropped on the natural key
	replay := buildTestActivity(1200, "0xabc", 3)
	replay.Payload = datatypes.JSON(`{"token_id":999}`)
	require.NoError(t, h.store.AppendActivityLog(ctx, replay))
	assert.Equal(t, 1, h.count(t, "activity_log"))

	// a different event index is a new entry
	require.NoError(t, h.store.AppendActivityLog(ctx, buildTestActivity(1200, "0xabc", 4)))
	assert.Equal(t, 2, h.count(t, "activity_log"))
}

func testBeastOwnerUpsert(t *testing.T, h storeHarness) {
	ctx := context.Background()

	require.NoError(t, h.store.UpsertBeastOwner(ctx, &schema.BeastOwner{
		TokenID: 7, OwnerAddress: "0xaaa", BlockNumber: 10,
	}))
	require.NoError(t, h.store.UpsertBeastOwner(ctx, &schema.BeastOwner{
		TokenID: 7, OwnerAddress: "0xbbb", BlockNumber: 11,
	}))

	assert.Equal(t, 1, h.count(t, "beast_owners"))
}

func testBeastMetadataWrittenOnce(t *testing.T, h storeHarness) {
	ctx := context.Background()

	exists, err := h.store.HasBeastMetadata(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, h.store.CreateBeastMetadata(ctx, &schema.BeastMetadata{
		TokenID: 7, Name: "Warlock", Tier: 1, Level: 5,
	}))

	exists, err = h.store.HasBeastMetadata(ctx, 7)
	require.NoError(t, err)
	assert.True(t, exists)

	// metadata is immutable; a second write is dropped, not an error
	require.NoError(t, h.store.CreateBeastMetadata(ctx, &schema.BeastMetadata{
		TokenID: 7, Name: "Impostor",
	}))
	assert.Equal(t, 1, h.count(t, "beast_metadata"))
}

func testDungeonBeastUpsert(t *testing.T, h storeHarness) {
	ctx := context.Background()

	require.NoError(t, h.store.UpsertDungeonBeast(ctx, &schema.DungeonBeast{
		Dungeon: "0xd00", TokenID: 7, CollectibleIndex: 0, BlockNumber: 10,
	}))
	require.NoError(t, h.store.UpsertDungeonBeast(ctx, &schema.DungeonBeast{
		Dungeon: "0xd00", TokenID: 7, CollectibleIndex: 3, BlockNumber: 11,
	}))
	assert.Equal(t, 1, h.count(t, "dungeon_beasts"))

	// a different beast in the same dungeon is a new row
	require.NoError(t, h.store.UpsertDungeonBeast(ctx, &schema.DungeonBeast{
		Dungeon: "0xd00", TokenID: 8, BlockNumber: 11,
	}))
	assert.Equal(t, 2, h.count(t, "dungeon_beasts"))
}

func testHistoryReplay(t *testing.T, h storeHarness) {
	ctx := context.Background()
	ts := time.Unix(1700000000, 0).UTC()

	appends := []struct {
		table string
		fn    func() error
	}{
		{"battles", func() error {
			return h.store.AppendBattle(ctx, &schema.Battle{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 1,
				AttackerTokenID: 11, DefenderTokenID: 22, AttackDamage: 30,
				Timestamp: ts,
			})
		}},
		{"quest_rewards", func() error {
			return h.store.AppendQuestReward(ctx, &schema.QuestReward{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 2,
				Kind: schema.QuestRewardEarned, PlayerAddress: "0xcafe",
				BeastTokenID: 7, Amount: 5, Timestamp: ts,
			})
		}},
		{"poison_events", func() error {
			return h.store.AppendPoisonEvent(ctx, &schema.PoisonEvent{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 3,
				PlayerAddress: "0xcafe", TargetTokenID: 7, PotionCount: 2,
				Timestamp: ts,
			})
		}},
		{"diplomacy_groups", func() error {
			return h.store.AppendDiplomacyGroup(ctx, &schema.DiplomacyGroup{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 4,
				PlayerAddress: "0xcafe", Members: datatypes.JSON(`[1,2,3]`),
				Timestamp: ts,
			})
		}},
		{"corpse_collections", func() error {
			return h.store.AppendCorpseCollection(ctx, &schema.CorpseCollection{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 5,
				PlayerAddress: "0xcafe", TokenID: 7, Amount: 4, Timestamp: ts,
			})
		}},
		{"skull_claims", func() error {
			return h.store.AppendSkullClaim(ctx, &schema.SkullClaim{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 6,
				PlayerAddress: "0xcafe", TokenID: 7, Skulls: 6, Timestamp: ts,
			})
		}},
		{"summit_history", func() error {
			return h.store.AppendSummitHistory(ctx, &schema.SummitHistory{
				BlockNumber: 1200, TxHash: "0xabc", EventIndex: 700,
				TokenID: 7, Health: 80, Timestamp: ts,
			})
		}},
	}

	for _, a := range appends {
		require.NoError(t, a.fn())
		// replaying the same chain event is a silent no-op
		require.NoError(t, a.fn())
		assert.Equal(t, 1, h.count(t, a.table), "table %s", a.table)
	}
}

// RunStoreTests runs the write-discipline suite against one implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) storeHarness, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, storeHarness)
	}{
		{"BeastStateUpsert", testBeastStateUpsert},
		{"ActivityLogReplay", testActivityLogReplay},
		{"BeastOwnerUpsert", testBeastOwnerUpsert},
		{"BeastMetadataWrittenOnce", testBeastMetadataWrittenOnce},
		{"DungeonBeastUpsert", testDungeonBeastUpsert},
		{"HistoryReplay", testHistoryReplay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, h)
		})
	}
}
