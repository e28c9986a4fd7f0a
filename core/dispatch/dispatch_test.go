package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/native/election"
	"dposchain/native/producers"
	"dposchain/native/unstake"
	"dposchain/native/voting"
)

type allowAll struct{}

func (allowAll) HasAuthority(uint64) bool { return true }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type noopTransferer struct{}

func (noopTransferer) Transfer(from, to, amount uint64, memo string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) NotifyRecipient(uint64) {}

func newHarness(t *testing.T) (*Dispatcher, *store.MemStore) {
	t.Helper()
	s := store.NewMemStore()
	reg := producers.New(s.Producers(), s.ProducerConfigs(), allowAll{}, nil, nil)
	votingEngine := voting.New(s.Voters(), s.Producers(), s.ProducerConfigs(), allowAll{}, fixedClock{time.Unix(1, 0)}, noopTransferer{}, noopNotifier{}, nil, nil, 1)
	unstakeEngine := unstake.New(s.UnstakeRequests(), s.UnstakeCounts(), s.Voters(), allowAll{}, fixedClock{time.Unix(1, 0)}, noopTransferer{}, votingEngine, nil, nil, 1)
	tab := election.New(s.Producers(), s.ProducerConfigs(), recordingPublisher{}, nil, nil)
	return New(reg, votingEngine, unstakeEngine, tab), s
}

type recordingPublisher struct{}

func (recordingPublisher) PublishActive(ids []uint64, medians types.ProducerPreferences) {}

func TestDispatchRegisterProducerThenStakeVote(t *testing.T) {
	d, s := newHarness(t)

	require.NoError(t, d.Dispatch(RegisterProducerAction{Producer: 10, ProducerKey: []byte("k")}))
	require.NoError(t, d.Dispatch(StakeVoteAction{Voter: 1, Amount: 100}))
	require.NoError(t, d.Dispatch(VoteProducerAction{Voter: 1, Producers: []uint64{10}}))

	p, found, err := s.Producers().Find(10)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(100), p.TotalVotes.Uint64())
}

func TestDispatchBlockRunsElectionThenUnstake(t *testing.T) {
	d, _ := newHarness(t)
	require.NoError(t, d.Dispatch(RegisterProducerAction{Producer: 10, ProducerKey: []byte("k")}))
	require.NoError(t, d.Dispatch(BlockAction{}))
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	d, _ := newHarness(t)
	err := d.Dispatch(struct{}{})
	require.Error(t, err)
}

func TestDispatchChangeProducerPreferencesRotatesKey(t *testing.T) {
	d, s := newHarness(t)
	require.NoError(t, d.Dispatch(RegisterProducerAction{Producer: 10, ProducerKey: []byte("k1")}))
	require.NoError(t, d.Dispatch(ChangeProducerPreferencesAction{Producer: 10, ProducerKey: []byte("k2"), Preferences: types.ProducerPreferences{MaxBlockSize: 500}}))

	cfg, found, err := s.ProducerConfigs().Find(10)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("k2"), cfg.PackedKey)
}
