package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/codec"
	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
	"github.com/summit-games/summit-indexer/internal/metadata"
	"github.com/summit-games/summit-indexer/internal/reconcile"
	"github.com/summit-games/summit-indexer/internal/store"
	"github.com/summit-games/summit-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

const (
	testBeastContract        = "0x0421"
	testGameContract         = "0x0522"
	testDungeonEventContract = "0x0623"
	testDungeon              = "0x0d00"
)

// fakeMetadataClient counts fetches and can be told to fail
type fakeMetadataClient struct {
	calls map[uint64]int
	fail  bool
}

func newFakeMetadataClient() *fakeMetadataClient {
	return &fakeMetadataClient{calls: make(map[uint64]int)}
}

func (f *fakeMetadataClient) GetBeastMetadata(_ context.Context, tokenID uint64) (*domain.BeastMetadata, error) {
	f.calls[tokenID]++
	if f.fail {
		return nil, errors.New("metadata service unavailable")
	}
	return &domain.BeastMetadata{
		TokenID: tokenID,
		Name:    fmt.Sprintf("Beast %d", tokenID),
		Tier:    3,
		Level:   1,
		Type:    "blade",
		Power:   12,
	}, nil
}

var _ metadata.Client = (*fakeMetadataClient)(nil)

func newTestProcessor(t *testing.T, mem *store.MemoryStore, meta metadata.Client) *Processor {
	t.Helper()
	json := adapter.NewJSON()
	clock := adapter.NewClock()
	engine := reconcile.NewEngine(mem, json, clock)
	p, err := NewProcessor(Config{
		BeastContract:        testBeastContract,
		GameContract:         testGameContract,
		DungeonEventContract: testDungeonEventContract,
		Dungeon:              testDungeon,
	}, mem, engine, meta, json, clock)
	require.NoError(t, err)
	return p
}

func testBlock(events ...domain.Event) *domain.Block {
	return &domain.Block{
		Number:    4200,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Events:    events,
	}
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func statsEvent(index uint64, stats ...*domain.BeastStats) domain.Event {
	if len(stats) == 1 {
		low, high := codec.EncodeBeastStats(stats[0])
		return domain.Event{
			FromAddress: testGameContract,
			Keys:        []string{selectorStatsSingle},
			Data:        []string{"0x" + low.Text(16), "0x" + high.Text(16)},
			TxHash:      "0xtx",
			EventIndex:  index,
		}
	}
	data := []string{hex(uint64(len(stats)))}
	for _, s := range stats {
		low, high := codec.EncodeBeastStats(s)
		data = append(data, "0x"+low.Text(16), "0x"+high.Text(16))
	}
	return domain.Event{
		FromAddress: testGameContract,
		Keys:        []string{selectorStatsBatch},
		Data:        data,
		TxHash:      "0xtx",
		EventIndex:  index,
	}
}

func battleEvent(index uint64) domain.Event {
	return domain.Event{
		FromAddress: testGameContract,
		Keys:        []string{selectorBattle},
		Data:        []string{hex(11), hex(22), hex(30), hex(5), hex(12), hex(0), hex(1)},
		TxHash:      "0xtx",
		EventIndex:  index,
	}
}

func transferEvent(index uint64, from, to string, tokenID uint64) domain.Event {
	return domain.Event{
		FromAddress: testBeastContract,
		Keys:        []string{selectorTransfer},
		Data:        []string{from, to, hex(tokenID)},
		TxHash:      "0xtx",
		EventIndex:  index,
	}
}

func TestProcessBlockMalformedEventResilience(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())

	// one battle with a truncated data array between four valid events
	bad := battleEvent(2)
	bad.Data = bad.Data[:3]

	block := testBlock(
		battleEvent(0),
		battleEvent(1),
		bad,
		battleEvent(3),
		battleEvent(4),
	)

	require.NoError(t, p.ProcessBlock(context.Background(), block))
	assert.Len(t, mem.Battles(), 4)
	assert.Len(t, mem.ActivityEntries(), 4)
}

func TestProcessBlockBattleWrites(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())

	require.NoError(t, p.ProcessBlock(context.Background(), testBlock(battleEvent(0))))

	battles := mem.Battles()
	require.Len(t, battles, 1)
	assert.Equal(t, uint64(11), battles[0].AttackerTokenID)
	assert.Equal(t, uint64(22), battles[0].DefenderTokenID)
	assert.Equal(t, uint64(30), battles[0].AttackDamage)
	assert.True(t, battles[0].Capture)

	entries := mem.ActivityEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, schema.CategoryCombat, entries[0].Category)
	assert.Equal(t, schema.SubCategoryBattleEvent, entries[0].SubCategory)
	assert.JSONEq(t, `{
		"attacker_token_id": 11,
		"defender_token_id": 22,
		"attack_damage": 30,
		"attack_crit_damage": 5,
		"counter_damage": 12,
		"counter_crit_damage": 0,
		"capture": true
	}`, string(entries[0].Payload))
}

func TestProcessBlockUnknownSelectorSkipped(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())

	block := testBlock(
		domain.Event{FromAddress: testGameContract, Keys: []string{"0xdeadbeef"}, Data: []string{"0x1"}, TxHash: "0xtx", EventIndex: 0},
		// battle selector on the wrong contract is equally unknown
		domain.Event{FromAddress: "0x0999", Keys: []string{selectorBattle}, Data: []string{hex(1), hex(2), hex(3), hex(4), hex(5), hex(6), hex(0)}, TxHash: "0xtx", EventIndex: 1},
	)

	require.NoError(t, p.ProcessBlock(context.Background(), block))
	for table, count := range mem.Counts() {
		assert.Zero(t, count, table)
	}
}

func TestProcessBlockTransferBurnSkipped(t *testing.T) {
	mem := store.NewMemoryStore()
	meta := newFakeMetadataClient()
	p := newTestProcessor(t, mem, meta)

	block := testBlock(
		transferEvent(0, "0x0", "0xabc", 42),
		transferEvent(1, "0xabc", "0x000", 42), // burn
	)

	require.NoError(t, p.ProcessBlock(context.Background(), block))

	owner := mem.Owner(42)
	require.NotNil(t, owner)
	assert.Equal(t, "0xabc", owner.OwnerAddress)
	assert.Equal(t, 1, meta.calls[42])
}

func TestProcessBlockMetadataFetchedOnce(t *testing.T) {
	mem := store.NewMemoryStore()
	meta := newFakeMetadataClient()
	p := newTestProcessor(t, mem, meta)

	block := testBlock(
		transferEvent(0, "0x0", "0xabc", 42),
		transferEvent(1, "0xabc", "0xdef", 42),
		transferEvent(2, "0xdef", "0xabc", 42),
	)
	require.NoError(t, p.ProcessBlock(context.Background(), block))
	assert.Equal(t, 1, meta.calls[42])

	// owner keeps moving even though metadata is settled
	owner := mem.Owner(42)
	require.NotNil(t, owner)
	assert.Equal(t, "0xabc", owner.OwnerAddress)
}

func TestProcessBlockMetadataRetryAfterFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	meta := newFakeMetadataClient()
	meta.fail = true
	p := newTestProcessor(t, mem, meta)

	require.NoError(t, p.ProcessBlock(context.Background(), testBlock(transferEvent(0, "0x0", "0xabc", 7))))
	assert.Equal(t, 1, meta.calls[7])
	assert.Equal(t, 0, mem.Counts()["beast_metadata"])
	// ownership still landed; only the metadata leg failed
	require.NotNil(t, mem.Owner(7))

	// the guard was not set, so the next transfer tries again
	meta.fail = false
	require.NoError(t, p.ProcessBlock(context.Background(), testBlock(transferEvent(1, "0xabc", "0xdef", 7))))
	assert.Equal(t, 2, meta.calls[7])
	assert.Equal(t, 1, mem.Counts()["beast_metadata"])
}

func TestProcessBlockDungeonFilter(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())

	matching := domain.Event{
		FromAddress: testDungeonEventContract,
		Keys:        []string{selectorDungeonCollectible, "0x000d00"}, // padded form of the configured dungeon
		Data:        []string{hex(42), hex(3)},
		TxHash:      "0xtx",
		EventIndex:  0,
	}
	foreign := domain.Event{
		FromAddress: testDungeonEventContract,
		Keys:        []string{selectorDungeonCollectible, "0x0bad"},
		Data:        []string{hex(99), hex(1)},
		TxHash:      "0xtx",
		EventIndex:  1,
	}

	require.NoError(t, p.ProcessBlock(context.Background(), testBlock(matching, foreign)))
	assert.Equal(t, 1, mem.Counts()["dungeon_beasts"])
	assert.Len(t, mem.ActivityEntries(), 1)
}

func TestProcessBlockStatsBatchSummitTakeover(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())
	ctx := context.Background()

	// seed: beast 1 dead, beast 2 alive
	seed := testBlock(statsEvent(0,
		&domain.BeastStats{TokenID: 1, CurrentHealth: 0},
		&domain.BeastStats{TokenID: 2, CurrentHealth: 50},
	))
	require.NoError(t, p.ProcessBlock(ctx, seed))
	assert.Empty(t, mem.SummitTakeovers())

	// beast 1 revives in position 0 of a batch at event index 3
	block := testBlock(statsEvent(3,
		&domain.BeastStats{TokenID: 1, CurrentHealth: 80},
		&domain.BeastStats{TokenID: 2, CurrentHealth: 40},
	))
	require.NoError(t, p.ProcessBlock(ctx, block))

	takeovers := mem.SummitTakeovers()
	require.Len(t, takeovers, 1)
	assert.Equal(t, uint64(1), takeovers[0].TokenID)
	assert.Equal(t, uint64(80), takeovers[0].Health)
	assert.Equal(t, uint64(3*reconcile.BatchUpdateStride), takeovers[0].EventIndex)
}

func TestProcessBlockReplayIdempotent(t *testing.T) {
	mem := store.NewMemoryStore()
	p := newTestProcessor(t, mem, newFakeMetadataClient())
	ctx := context.Background()

	block := testBlock(
		transferEvent(0, "0x0", "0xabc", 42),
		battleEvent(1),
		statsEvent(2, &domain.BeastStats{TokenID: 42, CurrentHealth: 100}),
	)

	require.NoError(t, p.ProcessBlock(ctx, block))
	first := mem.Counts()

	require.NoError(t, p.ProcessBlock(ctx, block))
	require.NoError(t, p.ProcessBlock(ctx, block))
	assert.Equal(t, first, mem.Counts())
}
