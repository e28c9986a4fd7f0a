package unstake

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"dposchain/core/errors"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/native/voting"
)

type allowAll struct{}

func (allowAll) HasAuthority(uint64) bool { return true }

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

type recordingTransferer struct {
	transfers []transferRecord
}

type transferRecord struct {
	from, to, amount uint64
}

func (t *recordingTransferer) Transfer(from, to, amount uint64, memo string) error {
	t.transfers = append(t.transfers, transferRecord{from, to, amount})
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyRecipient(uint64) {}

func newHarness(t *testing.T) (*store.MemStore, *Engine, *manualClock, *recordingTransferer) {
	t.Helper()
	s := store.NewMemStore()
	clock := &manualClock{now: time.Unix(1_000_000, 0)}
	transferer := &recordingTransferer{}
	votingEngine := voting.New(s.Voters(), s.Producers(), s.ProducerConfigs(), allowAll{}, clock, transferer, noopNotifier{}, nil, nil, 1)
	unstakeEngine := New(s.UnstakeRequests(), s.UnstakeCounts(), s.Voters(), allowAll{}, clock, transferer, votingEngine, nil, nil, 1)
	return s, unstakeEngine, clock, transferer
}

func TestUnstakeVoteCreatesRequestAndDecrementsStake(t *testing.T) {
	s, e, clock, _ := newHarness(t)
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 10, TotalVotes: uint256.NewInt(0)}))
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: 10, PackedKey: []byte("k")}))
	require.NoError(t, e.voting.StakeVote(1, 26))
	require.NoError(t, e.voting.VoteProducer(1, 0, []uint64{10}))

	require.NoError(t, e.UnstakeVote(1, 26))

	voter, _, err := s.Voters().Find(1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), voter.Staked)

	p10, _, err := s.Producers().Find(10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), p10.TotalVotes.Uint64())

	count, err := s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	req, found, err := s.UnstakeRequests().Find(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(1), req.WeeklyRefundAmount)
	require.Equal(t, clock.now.Unix()+RefundPeriodSeconds, req.NextRefundTime)
}

func TestUnstakeVoteRejectsOverstake(t *testing.T) {
	_, e, _, _ := newHarness(t)
	require.NoError(t, e.voting.StakeVote(1, 10))

	err := e.UnstakeVote(1, 20)
	require.ErrorIs(t, err, errors.ErrOverstake)
}

func TestUnstakeVoteEnforcesQuota(t *testing.T) {
	_, e, _, _ := newHarness(t)
	require.NoError(t, e.voting.StakeVote(1, 1000))

	for i := 0; i < MaxOpenRequests; i++ {
		require.NoError(t, e.UnstakeVote(1, 1))
	}
	err := e.UnstakeVote(1, 1)
	require.ErrorIs(t, err, errors.ErrQuotaExceeded)
}

func TestCancelUnstakeVoteRequestRestoresVotesAndDecrementsCount(t *testing.T) {
	s, e, _, _ := newHarness(t)
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: 10, TotalVotes: uint256.NewInt(0)}))
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: 10, PackedKey: []byte("k")}))
	require.NoError(t, e.voting.StakeVote(1, 50))
	require.NoError(t, e.voting.VoteProducer(1, 0, []uint64{10}))
	require.NoError(t, e.UnstakeVote(1, 50))

	require.NoError(t, e.CancelUnstakeVoteRequest(1))

	voter, _, err := s.Voters().Find(1)
	require.NoError(t, err)
	require.Equal(t, uint64(50), voter.Staked)

	p10, _, err := s.Producers().Find(10)
	require.NoError(t, err)
	require.Equal(t, uint64(50), p10.TotalVotes.Uint64())

	count, err := s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)

	_, found, err := s.UnstakeRequests().Find(1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCancelUnstakeVoteRequestRejectsUnknownID(t *testing.T) {
	_, e, _, _ := newHarness(t)
	err := e.CancelUnstakeVoteRequest(999)
	require.ErrorIs(t, err, errors.ErrRequestNotFound)
	require.NotErrorIs(t, err, errors.ErrCorruption)
}

func TestProcessRequestsPaysWeeklyAndCompletesAtZero(t *testing.T) {
	s, e, clock, transferer := newHarness(t)
	require.NoError(t, e.voting.StakeVote(1, 26))
	require.NoError(t, e.UnstakeVote(1, 26))
	// Drop the stake transfer so only refund payments are counted below.
	transferer.transfers = nil

	for week := 0; week < 26; week++ {
		clock.now = clock.now.Add(RefundPeriodSeconds * time.Second)
		require.NoError(t, e.ProcessRequests())
	}

	_, found, err := s.UnstakeRequests().Find(1)
	require.NoError(t, err)
	require.False(t, found)

	count, err := s.UnstakeCounts().Count(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)

	var totalPaid uint64
	for _, tr := range transferer.transfers {
		if tr.to == 1 {
			totalPaid += tr.amount
		}
	}
	require.Equal(t, uint64(26), totalPaid)
}

func TestProcessRequestsSkipsNotYetDue(t *testing.T) {
	_, e, _, transferer := newHarness(t)
	require.NoError(t, e.voting.StakeVote(1, 26))
	require.NoError(t, e.UnstakeVote(1, 26))
	// Drop the stake transfer so only refund payments are checked below.
	transferer.transfers = nil

	require.NoError(t, e.ProcessRequests())

	require.Empty(t, transferer.transfers)
}
