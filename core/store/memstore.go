package store

import (
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"dposchain/core/types"
)

// MemStore is an in-memory reference implementation of Store. It stands in
// for the host-provided storage layer in tests. The
// by-votes and by-next-refund-time secondary indexes are maintained as
// sorted slices of primary keys, mirroring the "second ordered map keyed by
// (secondary, primary) pairs" design note in spec.md §9.
type MemStore struct {
	mu sync.Mutex

	producers   map[uint64]*types.Producer
	votesIndex  []uint64 // producer owners, ascending by (TotalVotes, owner)
	configs     map[uint64]*types.ProducerConfig
	voters      map[uint64]*types.Voter
	requests    map[uint64]*types.UnstakeRequest
	refundIndex []uint64 // request ids, ascending by (NextRefundTime, id)
	nextReqID   uint64
	counts      map[uint64]uint32
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		producers: make(map[uint64]*types.Producer),
		configs:   make(map[uint64]*types.ProducerConfig),
		voters:    make(map[uint64]*types.Voter),
		requests:  make(map[uint64]*types.UnstakeRequest),
		counts:    make(map[uint64]uint32),
	}
}

// Producers implements Store.
func (m *MemStore) Producers() ProducerStore { return (*memProducerStore)(m) }

// ProducerConfigs implements Store.
func (m *MemStore) ProducerConfigs() ProducerConfigStore { return (*memConfigStore)(m) }

// Voters implements Store.
func (m *MemStore) Voters() VoterStore { return (*memVoterStore)(m) }

// UnstakeRequests implements Store.
func (m *MemStore) UnstakeRequests() UnstakeStore { return (*memUnstakeStore)(m) }

// UnstakeCounts implements Store.
func (m *MemStore) UnstakeCounts() UnstakeCountStore { return (*memCountStore)(m) }

type memProducerStore MemStore

func (s *memProducerStore) Find(owner uint64) (*types.Producer, bool, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.producers[owner]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (s *memProducerStore) Put(p *types.Producer) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := p.Clone()
	m.removeFromVotesIndexLocked(clone.Owner)
	m.producers[clone.Owner] = clone
	m.insertIntoVotesIndexLocked(clone)
	return nil
}

func (s *memProducerStore) IterateByVotesDescending(fn IterFunc[*types.Producer]) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	owners := append([]uint64(nil), m.votesIndex...)
	m.mu.Unlock()

	for i := len(owners) - 1; i >= 0; i-- {
		m.mu.Lock()
		p, ok := m.producers[owners[i]]
		var clone *types.Producer
		if ok {
			clone = p.Clone()
		}
		m.mu.Unlock()
		if !ok {
			continue
		}
		cont, err := fn(clone)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (m *MemStore) removeFromVotesIndexLocked(owner uint64) {
	existing, ok := m.producers[owner]
	if !ok {
		return
	}
	idx := sort.Search(len(m.votesIndex), func(i int) bool {
		return !votesLess(m.votesIndex[i], existing.TotalVotes, existing.Owner, m)
	})
	for idx < len(m.votesIndex) && m.votesIndex[idx] != owner {
		idx++
	}
	if idx < len(m.votesIndex) && m.votesIndex[idx] == owner {
		m.votesIndex = append(m.votesIndex[:idx], m.votesIndex[idx+1:]...)
	}
}

func (m *MemStore) insertIntoVotesIndexLocked(p *types.Producer) {
	idx := sort.Search(len(m.votesIndex), func(i int) bool {
		return !votesLess(m.votesIndex[i], p.TotalVotes, p.Owner, m)
	})
	m.votesIndex = append(m.votesIndex, 0)
	copy(m.votesIndex[idx+1:], m.votesIndex[idx:])
	m.votesIndex[idx] = p.Owner
}

// votesLess orders the index ascending by (TotalVotes, owner); it is used
// both to find the insertion point for a new total_votes and to locate an
// existing owner during removal. pivotVotes/pivotOwner describe the row
// being inserted or removed; candidateOwner names an entry already in the
// index.
func votesLess(candidateOwner uint64, pivotVotes *uint256.Int, pivotOwner uint64, m *MemStore) bool {
	candidate, ok := m.producers[candidateOwner]
	if !ok {
		return true
	}
	cmp := candidate.TotalVotes.Cmp(pivotVotes)
	if cmp != 0 {
		return cmp < 0
	}
	return candidate.Owner < pivotOwner
}

type memConfigStore MemStore

func (s *memConfigStore) Find(owner uint64) (*types.ProducerConfig, bool, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.configs[owner]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (s *memConfigStore) Put(c *types.ProducerConfig) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[c.Owner] = c.Clone()
	return nil
}

type memVoterStore MemStore

func (s *memVoterStore) Find(owner uint64) (*types.Voter, bool, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voters[owner]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (s *memVoterStore) Put(v *types.Voter) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voters[v.Owner] = v.Clone()
	return nil
}

type memUnstakeStore MemStore

func (s *memUnstakeStore) NextID() (uint64, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReqID++
	return m.nextReqID, nil
}

func (s *memUnstakeStore) Find(id uint64) (*types.UnstakeRequest, bool, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, false, nil
	}
	return r.Clone(), true, nil
}

func (s *memUnstakeStore) Put(r *types.UnstakeRequest) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromRefundIndexLocked(r.ID)
	m.requests[r.ID] = r.Clone()
	m.insertIntoRefundIndexLocked(r)
	return nil
}

func (s *memUnstakeStore) Delete(id uint64) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeFromRefundIndexLocked(id)
	delete(m.requests, id)
	return nil
}

func (s *memUnstakeStore) IterateByNextRefundAscending(fn IterFunc[*types.UnstakeRequest]) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	ids := append([]uint64(nil), m.refundIndex...)
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		r, ok := m.requests[id]
		var clone *types.UnstakeRequest
		if ok {
			clone = r.Clone()
		}
		m.mu.Unlock()
		if !ok {
			continue
		}
		cont, err := fn(clone)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (m *MemStore) removeFromRefundIndexLocked(id uint64) {
	for i, existing := range m.refundIndex {
		if existing == id {
			m.refundIndex = append(m.refundIndex[:i], m.refundIndex[i+1:]...)
			return
		}
	}
}

func (m *MemStore) insertIntoRefundIndexLocked(r *types.UnstakeRequest) {
	idx := sort.Search(len(m.refundIndex), func(i int) bool {
		other := m.requests[m.refundIndex[i]]
		if other == nil {
			return true
		}
		if other.NextRefundTime != r.NextRefundTime {
			return other.NextRefundTime > r.NextRefundTime
		}
		return other.ID >= r.ID
	})
	m.refundIndex = append(m.refundIndex, 0)
	copy(m.refundIndex[idx+1:], m.refundIndex[idx:])
	m.refundIndex[idx] = r.ID
}

type memCountStore MemStore

func (s *memCountStore) Count(account uint64) (uint32, error) {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[account], nil
}

func (s *memCountStore) Increment(account uint64) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[account]++
	return nil
}

func (s *memCountStore) Decrement(account uint64) error {
	m := (*MemStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[account] > 0 {
		m.counts[account]--
	}
	return nil
}
