package election

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"dposchain/core/store"
	"dposchain/core/types"
)

type capturingPublisher struct {
	ids     []uint64
	medians types.ProducerPreferences
	calls   int
}

func (p *capturingPublisher) PublishActive(ids []uint64, medians types.ProducerPreferences) {
	p.ids = append([]uint64(nil), ids...)
	p.medians = medians
	p.calls++
}

func putProducer(t *testing.T, s *store.MemStore, owner uint64, votes uint64, active bool, prefs types.ProducerPreferences) {
	t.Helper()
	require.NoError(t, s.Producers().Put(&types.Producer{Owner: owner, TotalVotes: uint256.NewInt(votes), Preferences: prefs}))
	var key []byte
	if active {
		key = []byte("k")
	}
	require.NoError(t, s.ProducerConfigs().Put(&types.ProducerConfig{Owner: owner, PackedKey: key}))
}

func TestTabulatorPublishesTop21InDescendingVoteOrder(t *testing.T) {
	s := store.NewMemStore()
	for i := uint64(1); i <= 25; i++ {
		putProducer(t, s, i, 100-i, true, types.ProducerPreferences{})
	}
	publisher := &capturingPublisher{}
	tab := New(s.Producers(), s.ProducerConfigs(), publisher, nil, nil)

	require.NoError(t, tab.Run())

	require.Len(t, publisher.ids, MaxActiveProducers)
	for i := 1; i < len(publisher.ids); i++ {
		prev, _, err := s.Producers().Find(publisher.ids[i-1])
		require.NoError(t, err)
		cur, _, err := s.Producers().Find(publisher.ids[i])
		require.NoError(t, err)
		require.True(t, prev.TotalVotes.Cmp(cur.TotalVotes) >= 0)
	}
}

func TestTabulatorSkipsInactiveProducers(t *testing.T) {
	s := store.NewMemStore()
	for i := uint64(1); i <= 25; i++ {
		active := i != 3 && i != 7
		putProducer(t, s, i, 100-i, active, types.ProducerPreferences{})
	}
	publisher := &capturingPublisher{}
	tab := New(s.Producers(), s.ProducerConfigs(), publisher, nil, nil)

	require.NoError(t, tab.Run())

	require.Len(t, publisher.ids, MaxActiveProducers)
	for _, id := range publisher.ids {
		require.NotEqual(t, uint64(3), id)
		require.NotEqual(t, uint64(7), id)
	}
}

func TestTabulatorPublishesFewerThan21WithoutError(t *testing.T) {
	s := store.NewMemStore()
	for i := uint64(1); i <= 5; i++ {
		putProducer(t, s, i, i, true, types.ProducerPreferences{})
	}
	publisher := &capturingPublisher{}
	tab := New(s.Producers(), s.ProducerConfigs(), publisher, nil, nil)

	require.NoError(t, tab.Run())
	require.Len(t, publisher.ids, 5)
}

func TestTabulatorIsDeterministicAcrossRepeatedRuns(t *testing.T) {
	s := store.NewMemStore()
	for i := uint64(1); i <= 30; i++ {
		putProducer(t, s, i, i*3, true, types.ProducerPreferences{MaxBlockSize: uint32(i)})
	}
	publisher := &capturingPublisher{}
	tab := New(s.Producers(), s.ProducerConfigs(), publisher, nil, nil)

	require.NoError(t, tab.Run())
	first := append([]uint64(nil), publisher.ids...)
	firstMedians := publisher.medians

	require.NoError(t, tab.Run())
	require.Equal(t, first, publisher.ids)
	require.Equal(t, firstMedians, publisher.medians)
}
