// Package election implements the per-block top-21 producer tabulator
// (spec.md §4.6).
package election

import (
	"log/slog"

	"dposchain/core/events"
	"dposchain/core/host"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/observability/metrics"
)

// MaxActiveProducers is the fixed size of the elected producer set.
const MaxActiveProducers = 21

// Tabulator recomputes the active producer set from the by-votes index on
// every block boundary.
type Tabulator struct {
	producers store.ProducerStore
	configs   store.ProducerConfigStore
	publisher host.ActivePublisher
	emitter   events.Emitter
	log       *slog.Logger
}

// New constructs a Tabulator. A nil emitter defaults to a no-op emitter and
// a nil logger defaults to slog.Default().
func New(producers store.ProducerStore, configs store.ProducerConfigStore, publisher host.ActivePublisher, emitter events.Emitter, log *slog.Logger) *Tabulator {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tabulator{producers: producers, configs: configs, publisher: publisher, emitter: emitter, log: log}
}

// Run executes one tabulation pass: it walks the by-votes index from the
// highest total_votes toward the lowest, skips inactive producers, collects
// up to MaxActiveProducers entries in that descending-vote order, computes
// the median-position preference vector over the collected sequence, and
// publishes the result to the host.
func (t *Tabulator) Run() error {
	var collected []*types.Producer

	err := t.producers.IterateByVotesDescending(func(p *types.Producer) (bool, error) {
		cfg, found, err := t.configs.Find(p.Owner)
		if err != nil {
			return false, err
		}
		if !found || !cfg.Active() {
			return true, nil
		}
		collected = append(collected, p)
		return len(collected) < MaxActiveProducers, nil
	})
	if err != nil {
		return err
	}

	ids := make([]uint64, len(collected))
	for i, p := range collected {
		ids[i] = p.Owner
	}

	medians := medianPreferences(collected)

	t.log.Debug("election tabulator ran", "elected", len(ids))
	t.emitter.Emit(events.ActiveSetPublished{Producers: append([]uint64(nil), ids...)})
	t.publisher.PublishActive(ids, medians)
	metrics.Election().ObserveTabulation()
	metrics.Election().SetProducersActive(len(ids))
	return nil
}

// medianPreferences computes, for each of the nine preference fields, the
// value at position floor(n/2) of collected (descending-vote order), the
// "median-position" spec.md §4.6 defines. With zero collected producers it
// returns the zero value.
func medianPreferences(collected []*types.Producer) types.ProducerPreferences {
	n := len(collected)
	if n == 0 {
		return types.ProducerPreferences{}
	}
	pos := n / 2
	return collected[pos].Preferences
}
