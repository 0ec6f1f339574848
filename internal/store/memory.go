package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/summit-games/summit-indexer/internal/store/schema"
)

// MemoryStore is an in-memory Store that applies the same idempotency
// disciplines as the PostgreSQL implementation: latest-state maps keyed by
// natural id and append-only maps keyed by (block, tx, event_index). It
// backs the reconciliation and processor tests, which care about the
// discipline, not the engine.
type MemoryStore struct {
	mu sync.Mutex

	states        map[uint64]schema.BeastState
	owners        map[uint64]schema.BeastOwner
	metadata      map[uint64]schema.BeastMetadata
	dungeonBeasts map[string]schema.DungeonBeast

	activity  map[string]schema.ActivityLogEntry
	battles   map[string]schema.Battle
	rewards   map[string]schema.QuestReward
	poison    map[string]schema.PoisonEvent
	diplomacy map[string]schema.DiplomacyGroup
	corpses   map[string]schema.CorpseCollection
	skulls    map[string]schema.SkullClaim
	summits   map[string]schema.SummitHistory
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:        make(map[uint64]schema.BeastState),
		owners:        make(map[uint64]schema.BeastOwner),
		metadata:      make(map[uint64]schema.BeastMetadata),
		dungeonBeasts: make(map[string]schema.DungeonBeast),
		activity:      make(map[string]schema.ActivityLogEntry),
		battles:       make(map[string]schema.Battle),
		rewards:       make(map[string]schema.QuestReward),
		poison:        make(map[string]schema.PoisonEvent),
		diplomacy:     make(map[string]schema.DiplomacyGroup),
		corpses:       make(map[string]schema.CorpseCollection),
		skulls:        make(map[string]schema.SkullClaim),
		summits:       make(map[string]schema.SummitHistory),
	}
}

func naturalKey(blockNumber uint64, txHash string, eventIndex uint64) string {
	return fmt.Sprintf("%d:%s:%d", blockNumber, txHash, eventIndex)
}

// GetBeastState retrieves the canonical state for a beast
func (m *MemoryStore) GetBeastState(_ context.Context, tokenID uint64) (*schema.BeastState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[tokenID]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

// UpsertBeastState replaces the canonical state for a beast
func (m *MemoryStore) UpsertBeastState(_ context.Context, state *schema.BeastState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.TokenID] = *state
	return nil
}

// AppendActivityLog appends one activity entry, dropping natural-key collisions
func (m *MemoryStore) AppendActivityLog(_ context.Context, entry *schema.ActivityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(entry.BlockNumber, entry.TxHash, entry.EventIndex)
	if _, exists := m.activity[key]; exists {
		return nil
	}
	m.activity[key] = *entry
	return nil
}

// UpsertBeastOwner replaces the current owner of a beast
func (m *MemoryStore) UpsertBeastOwner(_ context.Context, owner *schema.BeastOwner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[owner.TokenID] = *owner
	return nil
}

// CreateBeastMetadata writes immutable metadata once per beast
func (m *MemoryStore) CreateBeastMetadata(_ context.Context, metadata *schema.BeastMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.metadata[metadata.TokenID]; exists {
		return nil
	}
	m.metadata[metadata.TokenID] = *metadata
	return nil
}

// HasBeastMetadata reports whether metadata exists for a beast
func (m *MemoryStore) HasBeastMetadata(_ context.Context, tokenID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.metadata[tokenID]
	return ok, nil
}

// UpsertDungeonBeast replaces the dungeon link row for a beast
func (m *MemoryStore) UpsertDungeonBeast(_ context.Context, link *schema.DungeonBeast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dungeonBeasts[fmt.Sprintf("%s:%d", link.Dungeon, link.TokenID)] = *link
	return nil
}

// AppendBattle appends one battle history row
func (m *MemoryStore) AppendBattle(_ context.Context, battle *schema.Battle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(battle.BlockNumber, battle.TxHash, battle.EventIndex)
	if _, exists := m.battles[key]; exists {
		return nil
	}
	m.battles[key] = *battle
	return nil
}

// AppendQuestReward appends one reward history row
func (m *MemoryStore) AppendQuestReward(_ context.Context, reward *schema.QuestReward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(reward.BlockNumber, reward.TxHash, reward.EventIndex)
	if _, exists := m.rewards[key]; exists {
		return nil
	}
	m.rewards[key] = *reward
	return nil
}

// AppendPoisonEvent appends one poison history row
func (m *MemoryStore) AppendPoisonEvent(_ context.Context, poison *schema.PoisonEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(poison.BlockNumber, poison.TxHash, poison.EventIndex)
	if _, exists := m.poison[key]; exists {
		return nil
	}
	m.poison[key] = *poison
	return nil
}

// AppendDiplomacyGroup appends one diplomacy-group history row
func (m *MemoryStore) AppendDiplomacyGroup(_ context.Context, group *schema.DiplomacyGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(group.BlockNumber, group.TxHash, group.EventIndex)
	if _, exists := m.diplomacy[key]; exists {
		return nil
	}
	m.diplomacy[key] = *group
	return nil
}

// AppendCorpseCollection appends one corpse-collection history row
func (m *MemoryStore) AppendCorpseCollection(_ context.Context, corpse *schema.CorpseCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(corpse.BlockNumber, corpse.TxHash, corpse.EventIndex)
	if _, exists := m.corpses[key]; exists {
		return nil
	}
	m.corpses[key] = *corpse
	return nil
}

// AppendSkullClaim appends one skull-claim history row
func (m *MemoryStore) AppendSkullClaim(_ context.Context, claim *schema.SkullClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(claim.BlockNumber, claim.TxHash, claim.EventIndex)
	if _, exists := m.skulls[key]; exists {
		return nil
	}
	m.skulls[key] = *claim
	return nil
}

// AppendSummitHistory appends one summit-takeover history row
func (m *MemoryStore) AppendSummitHistory(_ context.Context, takeover *schema.SummitHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := naturalKey(takeover.BlockNumber, takeover.TxHash, takeover.EventIndex)
	if _, exists := m.summits[key]; exists {
		return nil
	}
	m.summits[key] = *takeover
	return nil
}

// Inspection helpers for tests

// ActivityEntries returns all activity entries in arbitrary order
func (m *MemoryStore) ActivityEntries() []schema.ActivityLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.ActivityLogEntry, 0, len(m.activity))
	for _, e := range m.activity {
		out = append(out, e)
	}
	return out
}

// Owner returns the recorded owner for a beast, nil if none
func (m *MemoryStore) Owner(tokenID uint64) *schema.BeastOwner {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[tokenID]
	if !ok {
		return nil
	}
	return &owner
}

// Battles returns all battle rows in arbitrary order
func (m *MemoryStore) Battles() []schema.Battle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.Battle, 0, len(m.battles))
	for _, b := range m.battles {
		out = append(out, b)
	}
	return out
}

// SummitTakeovers returns all summit history rows in arbitrary order
func (m *MemoryStore) SummitTakeovers() []schema.SummitHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schema.SummitHistory, 0, len(m.summits))
	for _, s := range m.summits {
		out = append(out, s)
	}
	return out
}

// Counts returns row counts per table for idempotency assertions
func (m *MemoryStore) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int{
		"beast_states":       len(m.states),
		"activity_log":       len(m.activity),
		"beast_owners":       len(m.owners),
		"beast_metadata":     len(m.metadata),
		"dungeon_beasts":     len(m.dungeonBeasts),
		"battles":            len(m.battles),
		"quest_rewards":      len(m.rewards),
		"poison_events":      len(m.poison),
		"diplomacy_groups":   len(m.diplomacy),
		"corpse_collections": len(m.corpses),
		"skull_claims":       len(m.skulls),
		"summit_history":     len(m.summits),
	}
}
