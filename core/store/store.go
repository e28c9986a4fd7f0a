// Package store defines the typed, indexed access the state machine needs
// over the four persistent relations (spec.md §3, §9's "Store abstraction
// vs embedded serialization" design note). The host is expected to provide
// the real backing storage; this package defines the contract plus two
// concrete implementations (an in-memory reference store and a
// LevelDB-backed store) that satisfy it.
package store

import "dposchain/core/types"

// IterFunc is invoked once per row during a secondary-index scan. Returning
// cont=false stops iteration early without error.
type IterFunc[T any] func(row T) (cont bool, err error)

// ProducerStore provides primary-key access to producer records plus
// ordered iteration over the by-votes secondary index (spec.md §3:
// "Secondary index: by total_votes ascending, highest votes at the tail").
type ProducerStore interface {
	Find(owner uint64) (*types.Producer, bool, error)
	Put(p *types.Producer) error
	// IterateByVotesDescending walks the secondary index from the highest
	// total_votes to the lowest.
	IterateByVotesDescending(fn IterFunc[*types.Producer]) error
}

// ProducerConfigStore provides primary-key access to producer signing
// keys, kept separate from ProducerStore per spec.md §3.
type ProducerConfigStore interface {
	Find(owner uint64) (*types.ProducerConfig, bool, error)
	Put(c *types.ProducerConfig) error
}

// VoterStore provides primary-key access to voter/proxy records.
type VoterStore interface {
	Find(owner uint64) (*types.Voter, bool, error)
	Put(v *types.Voter) error
}

// UnstakeStore provides primary-key access to unstake requests, a
// host-assigned monotonic id allocator, and ordered iteration over the
// by-next-refund-time secondary index.
type UnstakeStore interface {
	NextID() (uint64, error)
	Find(id uint64) (*types.UnstakeRequest, bool, error)
	Put(r *types.UnstakeRequest) error
	Delete(id uint64) error
	// IterateByNextRefundAscending walks the secondary index from the
	// soonest next_refund_time to the latest.
	IterateByNextRefundAscending(fn IterFunc[*types.UnstakeRequest]) error
}

// UnstakeCountStore tracks the number of open unstake requests per account,
// capped at 10 by the caller (spec.md §3's "Unstake count" relation).
type UnstakeCountStore interface {
	Count(account uint64) (uint32, error)
	Increment(account uint64) error
	Decrement(account uint64) error
}

// Store bundles the four relations' typed accessors.
type Store interface {
	Producers() ProducerStore
	ProducerConfigs() ProducerConfigStore
	Voters() VoterStore
	UnstakeRequests() UnstakeStore
	UnstakeCounts() UnstakeCountStore
}
