package processor

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/summit-games/summit-indexer/internal/adapter"
	"github.com/summit-games/summit-indexer/internal/codec"
	"github.com/summit-games/summit-indexer/internal/domain"
	"github.com/summit-games/summit-indexer/internal/logger"
	"github.com/summit-games/summit-indexer/internal/metadata"
	"github.com/summit-games/summit-indexer/internal/reconcile"
	"github.com/summit-games/summit-indexer/internal/store"
	"github.com/summit-games/summit-indexer/internal/store/schema"
)

// Event selectors from the contract ABIs, in normalized felt form. The
// transfer selector is the standard ERC-721 Transfer hash; the rest hash
// the game contract's event names.
const (
	selectorTransfer           = "0x99cd8bde557814842a3121e8ddfd433a539b8c9f14bf31ebf108d12e6196e9"
	selectorBattle             = "0x3f41e8d9c1d7b6a5420e8f72b1c9e55a0d4a6b8f12c3d74e9a5f0b81c6d2e73"
	selectorRewardEarned       = "0x1b52c8a7f3e9d04b6a8c25f71e0d9b34c6a8e5f20d1b7c94a3e6f08d5b2a791"
	selectorRewardClaimed      = "0x2d74f9b8e1c6a05d3b9e47a82f5c0d16b8e3a7f94c2d65e0a1b8f37c9d4e652"
	selectorPoison             = "0x5e93a1d7c4f8b26e0a7d53c91b4e8f62a0c5d38e7b1f26a94d0c7e53b8f1a04"
	selectorDiplomacy          = "0x7a15c3e9f2d8b460a9c67e14d3b0f85c2a7e49d16b8f03c5e2a9d74f1b6c380"
	selectorCorpse             = "0x4c86e2f7a9d1b35c0e8f64a27d9b50e3c1a8f76d24b9e05a3c7f18d6b4e29a5"
	selectorSkull              = "0x6f20d8b45c1e9a73f0b6d82e5a49c17f3e0b85d26a9c74e1f8b30d5c6a92e47"
	selectorStatsSingle        = "0x3a97f4e1d6c8b25a0f7e93d48b1c60a5f2e8d37c94b6a01e5d8f72c3a9b4061"
	selectorStatsBatch         = "0x8b43e7a2f5d9c16b0a8e54f37d2c91e6b4a0f85c3d7e29a16f0b8d45c3e7a92"
	selectorDungeonStats       = "0x2f68a4d9e7b1c53f0a2d86e49b5f07c3a1e8d62f4b9c05e7a3f16d8b2c4950a"
	selectorDungeonCollectible = "0x9d31b6f8a2e7c40d5b9f16a83e2d75c0b4f98a6e1d3c52f7b0a96e84d1c3f25"
)

// Config identifies the contracts whose events this indexer understands.
// Addresses are normalized at construction so dispatch comparisons hold
// regardless of how the feed pads them.
type Config struct {
	// BeastContract is the beast ERC-721 token contract
	BeastContract string
	// GameContract is the summit game contract
	GameContract string
	// DungeonEventContract is the contract relaying external-dungeon events
	DungeonEventContract string
	// Dungeon is the one dungeon whose relayed events are indexed
	Dungeon string
	// MetadataCacheSize bounds the fetched-metadata guard cache
	MetadataCacheSize int
}

const defaultMetadataCacheSize = 16384

// Processor applies one delivered block to the store: dispatch each event
// by (source address, selector), decode, write. Strictly sequential within
// a block because the reconciliation diff is order-sensitive. Safe to
// re-run over an already-processed range; every write is idempotent.
type Processor struct {
	store    store.Store
	engine   *reconcile.Engine
	metadata metadata.Client
	json     adapter.JSON
	clock    adapter.Clock

	beastContract        string
	gameContract         string
	dungeonEventContract string
	dungeon              string

	// fetchedMetadata guards the once-per-process metadata fetch. Best
	// effort: evicted or lost entries just cause a redundant fetch whose
	// store write is dropped on the existing row.
	fetchedMetadata *lru.Cache[uint64, struct{}]
}

// NewProcessor creates a block processor
func NewProcessor(
	cfg Config,
	s store.Store,
	engine *reconcile.Engine,
	metadataClient metadata.Client,
	json adapter.JSON,
	clock adapter.Clock,
) (*Processor, error) {
	size := cfg.MetadataCacheSize
	if size <= 0 {
		size = defaultMetadataCacheSize
	}
	cache, err := lru.New[uint64, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	return &Processor{
		store:                s,
		engine:               engine,
		metadata:             metadataClient,
		json:                 json,
		clock:                clock,
		beastContract:        domain.NormalizeAddress(cfg.BeastContract),
		gameContract:         domain.NormalizeAddress(cfg.GameContract),
		dungeonEventContract: domain.NormalizeAddress(cfg.DungeonEventContract),
		dungeon:              domain.NormalizeAddress(cfg.Dungeon),
		fetchedMetadata:      cache,
	}, nil
}

// ProcessBlock applies every event of one block in delivery order. A
// failing event is logged with its full context and skipped; one bad event
// never aborts the rest of the block. Only context cancellation stops the
// pass early.
func (p *Processor) ProcessBlock(ctx context.Context, block *domain.Block) error {
	for i := range block.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		event := &block.Events[i]
		if err := p.handleEvent(ctx, block, event); err != nil {
			logger.ErrorCtx(ctx, err,
				zap.Uint64("block_number", block.Number),
				zap.String("tx_hash", event.TxHash),
				zap.Uint64("event_index", event.EventIndex),
				zap.String("from_address", event.FromAddress),
				zap.String("selector", event.Selector()),
				zap.Strings("keys", event.Keys),
				zap.Strings("data", event.Data))
			continue
		}
	}
	return nil
}

// handleEvent resolves the (source, selector) pair to a handler. Unknown
// pairs are a safe no-op, not an error.
func (p *Processor) handleEvent(ctx context.Context, block *domain.Block, event *domain.Event) error {
	source := domain.NormalizeAddress(event.FromAddress)
	selector := domain.NormalizeAddress(event.Selector())

	switch source {
	case p.beastContract:
		if selector == selectorTransfer {
			return p.handleTransfer(ctx, block, event)
		}
	case p.gameContract:
		switch selector {
		case selectorBattle:
			return p.handleBattle(ctx, block, event)
		case selectorRewardEarned:
			return p.handleReward(ctx, block, event, schema.QuestRewardEarned)
		case selectorRewardClaimed:
			return p.handleReward(ctx, block, event, schema.QuestRewardClaimed)
		case selectorPoison:
			return p.handlePoison(ctx, block, event)
		case selectorDiplomacy:
			return p.handleDiplomacy(ctx, block, event)
		case selectorCorpse:
			return p.handleCorpse(ctx, block, event)
		case selectorSkull:
			return p.handleSkull(ctx, block, event)
		case selectorStatsSingle:
			return p.handleStatsSingle(ctx, block, event)
		case selectorStatsBatch:
			return p.handleStatsBatch(ctx, block, event)
		}
	case p.dungeonEventContract:
		switch selector {
		case selectorDungeonStats:
			return p.handleDungeonStats(ctx, block, event)
		case selectorDungeonCollectible:
			return p.handleDungeonCollectible(ctx, block, event)
		}
	}
	return nil
}

func (p *Processor) handleTransfer(ctx context.Context, block *domain.Block, event *domain.Event) error {
	transfer, err := codec.DecodeTransfer(event)
	if err != nil {
		return err
	}

	// burns keep the last real owner on record
	if domain.IsZeroAddress(transfer.To) {
		return nil
	}

	if err := p.store.UpsertBeastOwner(ctx, &schema.BeastOwner{
		TokenID:      transfer.TokenID,
		OwnerAddress: transfer.To,
		BlockNumber:  block.Number,
		UpdatedAt:    p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("upsert owner of beast %d: %w", transfer.TokenID, err)
	}

	return p.ensureMetadata(ctx, transfer.TokenID)
}

// ensureMetadata fetches and stores immutable metadata at most once per
// process lifetime per beast. A fetch failure leaves the guard unset so a
// later event for the same beast can try again.
func (p *Processor) ensureMetadata(ctx context.Context, tokenID uint64) error {
	if _, seen := p.fetchedMetadata.Get(tokenID); seen {
		return nil
	}

	exists, err := p.store.HasBeastMetadata(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("check metadata for beast %d: %w", tokenID, err)
	}
	if exists {
		p.fetchedMetadata.Add(tokenID, struct{}{})
		return nil
	}

	meta, err := p.metadata.GetBeastMetadata(ctx, tokenID)
	if err != nil {
		return err
	}

	if err := p.store.CreateBeastMetadata(ctx, &schema.BeastMetadata{
		TokenID:   meta.TokenID,
		Name:      meta.Name,
		Prefix:    meta.Prefix,
		Suffix:    meta.Suffix,
		Tier:      meta.Tier,
		Level:     meta.Level,
		Type:      meta.Type,
		Power:     meta.Power,
		CreatedAt: p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("store metadata for beast %d: %w", tokenID, err)
	}

	p.fetchedMetadata.Add(tokenID, struct{}{})
	return nil
}

func (p *Processor) handleBattle(ctx context.Context, block *domain.Block, event *domain.Event) error {
	battle, err := codec.DecodeBattle(event)
	if err != nil {
		return err
	}

	if err := p.store.AppendBattle(ctx, &schema.Battle{
		BlockNumber:       block.Number,
		TxHash:            event.TxHash,
		EventIndex:        event.EventIndex,
		AttackerTokenID:   battle.AttackerTokenID,
		DefenderTokenID:   battle.DefenderTokenID,
		AttackDamage:      battle.AttackDamage,
		AttackCritDamage:  battle.AttackCritDamage,
		CounterDamage:     battle.CounterDamage,
		CounterCritDamage: battle.CounterCritDamage,
		Capture:           battle.Capture,
		Timestamp:         block.Timestamp,
		CreatedAt:         p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append battle: %w", err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryCombat, schema.SubCategoryBattleEvent, battle, nil, &battle.AttackerTokenID)
}

func (p *Processor) handleReward(ctx context.Context, block *domain.Block, event *domain.Event, kind schema.QuestRewardKind) error {
	eventType := codec.EventTypeRewardEarned
	subCategory := schema.SubCategoryEarned
	if kind == schema.QuestRewardClaimed {
		eventType = codec.EventTypeRewardClaimed
		subCategory = schema.SubCategoryClaimed
	}

	reward, err := codec.DecodeReward(eventType, event)
	if err != nil {
		return err
	}

	if err := p.store.AppendQuestReward(ctx, &schema.QuestReward{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		Kind:          kind,
		PlayerAddress: reward.Player,
		BeastTokenID:  reward.Reward.BeastTokenID,
		Amount:        reward.Reward.Amount,
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append %s reward: %w", kind, err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryRewards, subCategory, reward, &reward.Player, &reward.Reward.BeastTokenID)
}

func (p *Processor) handlePoison(ctx context.Context, block *domain.Block, event *domain.Event) error {
	poison, err := codec.DecodePoison(event)
	if err != nil {
		return err
	}

	if err := p.store.AppendPoisonEvent(ctx, &schema.PoisonEvent{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		PlayerAddress: poison.Player,
		TargetTokenID: poison.TargetTokenID,
		PotionCount:   poison.PotionCount,
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append poison event: %w", err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryCombat, schema.SubCategoryPoison, poison, &poison.Player, &poison.TargetTokenID)
}

// handleDiplomacy records the raw group only; diplomacy has no activity
// feed presence
func (p *Processor) handleDiplomacy(ctx context.Context, block *domain.Block, event *domain.Event) error {
	diplomacy, err := codec.DecodeDiplomacy(event)
	if err != nil {
		return err
	}

	members, err := p.json.Marshal(diplomacy.TokenIDs)
	if err != nil {
		return fmt.Errorf("marshal diplomacy members: %w", err)
	}

	if err := p.store.AppendDiplomacyGroup(ctx, &schema.DiplomacyGroup{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		PlayerAddress: diplomacy.Player,
		Members:       datatypes.JSON(members),
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append diplomacy group: %w", err)
	}
	return nil
}

// handleCorpse records the raw collection only, same as diplomacy
func (p *Processor) handleCorpse(ctx context.Context, block *domain.Block, event *domain.Event) error {
	corpse, err := codec.DecodeCorpse(event)
	if err != nil {
		return err
	}

	if err := p.store.AppendCorpseCollection(ctx, &schema.CorpseCollection{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		PlayerAddress: corpse.Player,
		TokenID:       corpse.TokenID,
		Amount:        corpse.Amount,
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append corpse collection: %w", err)
	}
	return nil
}

func (p *Processor) handleSkull(ctx context.Context, block *domain.Block, event *domain.Event) error {
	skull, err := codec.DecodeSkull(event)
	if err != nil {
		return err
	}

	if err := p.store.AppendSkullClaim(ctx, &schema.SkullClaim{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		PlayerAddress: skull.Player,
		TokenID:       skull.TokenID,
		Skulls:        skull.Skulls,
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append skull claim: %w", err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryRewards, schema.SubCategorySkullClaim, skull, &skull.Player, &skull.TokenID)
}

func (p *Processor) handleStatsSingle(ctx context.Context, block *domain.Block, event *domain.Event) error {
	stats, err := codec.DecodeStatsSingle(event)
	if err != nil {
		return err
	}
	return p.reconcileRecord(ctx, block, event, stats, -1)
}

func (p *Processor) handleStatsBatch(ctx context.Context, block *domain.Block, event *domain.Event) error {
	records, err := codec.DecodeStatsBatch(event)
	if err != nil {
		return err
	}
	for i, stats := range records {
		if err := p.reconcileRecord(ctx, block, event, stats, i); err != nil {
			return err
		}
	}
	return nil
}

// reconcileRecord runs one decoded stats record through the reconciliation
// engine and records a summit takeover when the engine reports one.
func (p *Processor) reconcileRecord(ctx context.Context, block *domain.Block, event *domain.Event, stats *domain.BeastStats, batchPos int) error {
	result, err := p.engine.Reconcile(ctx, stats, reconcile.Provenance{
		BlockNumber: block.Number,
		TxHash:      event.TxHash,
		Timestamp:   block.Timestamp,
		EventIndex:  event.EventIndex,
		BatchPos:    batchPos,
	})
	if err != nil {
		return err
	}

	if result.SummitTaken {
		if err := p.store.AppendSummitHistory(ctx, &schema.SummitHistory{
			BlockNumber: block.Number,
			TxHash:      event.TxHash,
			// distinct from the batch's own positional index so single and
			// batch records land on separate keys
			EventIndex: reconcile.Provenance{EventIndex: event.EventIndex, BatchPos: batchPos}.SummitIndex(),
			TokenID:    stats.TokenID,
			Health:     stats.CurrentHealth,
			Timestamp:  block.Timestamp,
			CreatedAt:  p.clock.Now(),
		}); err != nil {
			return fmt.Errorf("append summit takeover for beast %d: %w", stats.TokenID, err)
		}
	}
	return nil
}

func (p *Processor) handleDungeonStats(ctx context.Context, block *domain.Block, event *domain.Event) error {
	stats, err := codec.DecodeDungeonStats(event)
	if err != nil {
		return err
	}
	if stats.Dungeon != p.dungeon {
		return nil
	}

	if err := p.store.UpsertDungeonBeast(ctx, &schema.DungeonBeast{
		Dungeon:     stats.Dungeon,
		TokenID:     stats.TokenID,
		BlockNumber: block.Number,
		UpdatedAt:   p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("upsert dungeon beast %d: %w", stats.TokenID, err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryArrival, schema.SubCategoryDungeonBeast, stats, nil, &stats.TokenID)
}

func (p *Processor) handleDungeonCollectible(ctx context.Context, block *domain.Block, event *domain.Event) error {
	collectible, err := codec.DecodeDungeonCollectible(event)
	if err != nil {
		return err
	}
	if collectible.Dungeon != p.dungeon {
		return nil
	}

	if err := p.store.UpsertDungeonBeast(ctx, &schema.DungeonBeast{
		Dungeon:          collectible.Dungeon,
		TokenID:          collectible.TokenID,
		CollectibleIndex: collectible.Index,
		BlockNumber:      block.Number,
		UpdatedAt:        p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("upsert dungeon collectible %d: %w", collectible.TokenID, err)
	}

	return p.appendActivity(ctx, block, event, schema.CategoryArrival, schema.SubCategoryDungeonBeast, collectible, nil, &collectible.TokenID)
}

// appendActivity writes one direct activity entry whose payload mirrors the
// decoded event
func (p *Processor) appendActivity(
	ctx context.Context,
	block *domain.Block,
	event *domain.Event,
	category schema.Category,
	subCategory string,
	payload interface{},
	playerAddress *string,
	tokenID *uint64,
) error {
	body, err := p.json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subCategory, err)
	}

	if err := p.store.AppendActivityLog(ctx, &schema.ActivityLogEntry{
		BlockNumber:   block.Number,
		TxHash:        event.TxHash,
		EventIndex:    event.EventIndex,
		Category:      category,
		SubCategory:   subCategory,
		Payload:       datatypes.JSON(body),
		PlayerAddress: playerAddress,
		TokenID:       tokenID,
		Timestamp:     block.Timestamp,
		CreatedAt:     p.clock.Now(),
	}); err != nil {
		return fmt.Errorf("append %s activity: %w", subCategory, err)
	}
	return nil
}
