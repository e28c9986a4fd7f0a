package store

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"dposchain/core/types"
)

func TestMemStoreProducerIndexReflectsLatestVotes(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 1, TotalVotes: uint256.NewInt(10)}))
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 2, TotalVotes: uint256.NewInt(30)}))
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 3, TotalVotes: uint256.NewInt(20)}))

	var order []uint64
	require.NoError(t, s.Producers().IterateByVotesDescending(func(p *types.Producer) (bool, error) {
		order = append(order, p.Owner)
		return true, nil
	}))
	require.Equal(t, []uint64{2, 3, 1}, order)

	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 1, TotalVotes: uint256.NewInt(100)}))
	order = nil
	require.NoError(t, s.Producers().IterateByVotesDescending(func(p *types.Producer) (bool, error) {
		order = append(order, p.Owner)
		return true, nil
	}))
	require.Equal(t, []uint64{1, 2, 3}, order)
}

func TestMemStoreProducerIterationStopsEarly(t *testing.T) {
	s := NewMemStore()
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.Producers().Put(&types.Producer{Owner: i, TotalVotes: uint256.NewInt(i)}))
	}
	var seen int
	require.NoError(t, s.Producers().IterateByVotesDescending(func(p *types.Producer) (bool, error) {
		seen++
		return seen < 2, nil
	}))
	require.Equal(t, 2, seen)
}

func TestMemStoreUnstakeIndexOrdersByNextRefundTimeThenID(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 1, NextRefundTime: 500}))
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 2, NextRefundTime: 100}))
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 3, NextRefundTime: 100}))

	var order []uint64
	require.NoError(t, s.UnstakeRequests().IterateByNextRefundAscending(func(r *types.UnstakeRequest) (bool, error) {
		order = append(order, r.ID)
		return true, nil
	}))
	require.Equal(t, []uint64{2, 3, 1}, order)
}

func TestMemStoreUnstakeDeleteRemovesFromIndex(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 1, NextRefundTime: 100}))
	require.NoError(t, s.UnstakeRequests().Put(&types.UnstakeRequest{ID: 2, NextRefundTime: 200}))
	require.NoError(t, s.UnstakeRequests().Delete(1))

	var order []uint64
	require.NoError(t, s.UnstakeRequests().IterateByNextRefundAscending(func(r *types.UnstakeRequest) (bool, error) {
		order = append(order, r.ID)
		return true, nil
	}))
	require.Equal(t, []uint64{2}, order)
}

func TestMemStoreUnstakeCounts(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.UnstakeCounts().Increment(1))
	require.NoError(t, s.UnstakeCounts().Increment(1))
	count, err := s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	require.NoError(t, s.UnstakeCounts().Decrement(1))
	count, err = s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	require.NoError(t, s.UnstakeCounts().Decrement(1))
	require.NoError(t, s.UnstakeCounts().Decrement(1))
	count, err = s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)
}

func TestMemStoreNextIDIsMonotonic(t *testing.T) {
	s := NewMemStore()
	first, err := s.UnstakeRequests().NextID()
	require.NoError(t, err)
	second, err := s.UnstakeRequests().NextID()
	require.NoError(t, err)
	require.Equal(t, first+1, second)
}
