// Package types defines the four persistent relations the producer
// election and voting state machine operates over: producers, producer
// configuration, voters, and unstake requests.
package types

import (
	"sort"

	"github.com/holiman/uint256"
)

// ProducerPreferenceCount is the number of block/resource policy fields
// carried on a producer record and used for host-side median selection.
const ProducerPreferenceCount = 9

// ProducerPreferences captures the nine block/resource policy fields a
// producer publishes. InflationBps is expressed as basis-points×10000 per
// spec (i.e. 1.0000% is represented as 10000*100).
type ProducerPreferences struct {
	MaxBlockSize            uint32
	TargetBlockSize         uint32
	MaxStorageSize          uint64
	ResourceWindowSize      uint64
	MaxBlockCPU             uint32
	TargetBlockCPU          uint32
	InflationBps            uint32
	MaxTransactionLifetime  uint32
	MaxTransactionRecursion uint16
}

// Fields returns the nine preference values in the fixed declared order,
// used by the election tabulator for median-position bookkeeping.
func (p ProducerPreferences) Fields() [ProducerPreferenceCount]uint64 {
	return [ProducerPreferenceCount]uint64{
		uint64(p.MaxBlockSize),
		uint64(p.TargetBlockSize),
		p.MaxStorageSize,
		p.ResourceWindowSize,
		uint64(p.MaxBlockCPU),
		uint64(p.TargetBlockCPU),
		uint64(p.InflationBps),
		uint64(p.MaxTransactionLifetime),
		uint64(p.MaxTransactionRecursion),
	}
}

// Producer is one record in the producer registry. Active is a derived
// value computed from ProducerConfig and never stored.
type Producer struct {
	Owner       uint64
	TotalVotes  *uint256.Int
	Preferences ProducerPreferences
}

// Clone returns a deep copy safe for a caller to mutate.
func (p *Producer) Clone() *Producer {
	if p == nil {
		return nil
	}
	clone := *p
	if p.TotalVotes != nil {
		clone.TotalVotes = new(uint256.Int).Set(p.TotalVotes)
	} else {
		clone.TotalVotes = uint256.NewInt(0)
	}
	return &clone
}

// ProducerConfig holds the packed signing key for a producer, stored
// separately from Producer so preference updates never rewrite the key.
type ProducerConfig struct {
	Owner     uint64
	PackedKey []byte
}

// Active reports whether the producer has a non-empty signing key on file.
func (c *ProducerConfig) Active() bool {
	return c != nil && len(c.PackedKey) > 0
}

// Clone returns a deep copy safe for a caller to mutate.
func (c *ProducerConfig) Clone() *ProducerConfig {
	if c == nil {
		return nil
	}
	clone := &ProducerConfig{Owner: c.Owner}
	if len(c.PackedKey) > 0 {
		clone.PackedKey = append([]byte(nil), c.PackedKey...)
	}
	return clone
}

// Voter is one record in the voter/proxy registry.
type Voter struct {
	Owner        uint64
	Proxy        uint64 // 0 if voting directly
	IsProxy      bool
	LastUpdate   int64
	Staked       uint64
	ProxiedVotes *uint256.Int
	Producers    []uint64 // sorted ascending, duplicate-free, len <= 30
}

// NewVoter returns a freshly initialized voter record for the given owner,
// matching the zero-state increase_voting_power establishes on first stake.
func NewVoter(owner uint64) *Voter {
	return &Voter{
		Owner:        owner,
		ProxiedVotes: uint256.NewInt(0),
		Producers:    nil,
	}
}

// Clone returns a deep copy safe for a caller to mutate.
func (v *Voter) Clone() *Voter {
	if v == nil {
		return nil
	}
	clone := *v
	if v.ProxiedVotes != nil {
		clone.ProxiedVotes = new(uint256.Int).Set(v.ProxiedVotes)
	} else {
		clone.ProxiedVotes = uint256.NewInt(0)
	}
	if len(v.Producers) > 0 {
		clone.Producers = append([]uint64(nil), v.Producers...)
	} else {
		clone.Producers = nil
	}
	return &clone
}

// SortedUnique reports whether ids is strictly ascending with no
// duplicates, the precondition vote_producer requires of a direct producer
// list.
func SortedUnique(ids []uint64) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			return false
		}
	}
	return true
}

// SetDifference returns a \ b for two sorted, duplicate-free uint64 slices
// using a single linear scan, preserving the ascending order of a. This is
// the deterministic "revoked"/"elected" computation vote_producer relies on
// for bit-exact reproducible vote totals.
func SetDifference(a, b []uint64) []uint64 {
	result := make([]uint64, 0, len(a))
	i, j := 0, 0
	for i < len(a) {
		for j < len(b) && b[j] < a[i] {
			j++
		}
		if j < len(b) && b[j] == a[i] {
			i++
			continue
		}
		result = append(result, a[i])
		i++
	}
	return result
}

// UnstakeRequest is one outstanding refund schedule.
type UnstakeRequest struct {
	ID                 uint64
	Account            uint64
	CurrentAmount      uint64
	WeeklyRefundAmount uint64
	NextRefundTime     int64
}

// Clone returns a shallow copy; UnstakeRequest has no reference fields.
func (r *UnstakeRequest) Clone() *UnstakeRequest {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// EnsureSortedCopy returns a sorted copy of ids, used defensively where a
// caller-supplied slice must not be mutated in place.
func EnsureSortedCopy(ids []uint64) []uint64 {
	out := append([]uint64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
