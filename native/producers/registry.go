// Package producers implements the producer registry: registration,
// preference updates, and the active-flag derivation spec.md §4.1
// describes.
package producers

import (
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"dposchain/core/errors"
	"dposchain/core/events"
	"dposchain/core/host"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/crypto"
)

// Registry implements register_producer and change_producer_preferences.
type Registry struct {
	producers store.ProducerStore
	configs   store.ProducerConfigStore
	authority host.AuthorityChecker
	emitter   events.Emitter
	log       *slog.Logger
}

// New constructs a Registry. A nil emitter defaults to a no-op emitter and a
// nil logger defaults to slog.Default().
func New(producers store.ProducerStore, configs store.ProducerConfigStore, authority host.AuthorityChecker, emitter events.Emitter, log *slog.Logger) *Registry {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{producers: producers, configs: configs, authority: authority, emitter: emitter, log: log}
}

// Register handles register_producer(producer, key, prefs). It requires the
// producer's authority and fails with ErrAlreadyRegistered if a producer
// record already exists for the owner.
func (r *Registry) Register(owner uint64, key []byte, prefs types.ProducerPreferences) error {
	if !r.authority.HasAuthority(owner) {
		return fmt.Errorf("%w: register_producer requires producer authority", errors.ErrAuth)
	}
	if _, found, err := r.producers.Find(owner); err != nil {
		return err
	} else if found {
		r.log.Warn("register_producer rejected", "owner", crypto.NewAddress(owner).String(), "reason", "already_registered")
		return fmt.Errorf("%w: producer %d", errors.ErrAlreadyRegistered, owner)
	}

	producer := &types.Producer{Owner: owner, TotalVotes: uint256.NewInt(0), Preferences: prefs}
	if err := r.producers.Put(producer); err != nil {
		return err
	}
	packed := append([]byte(nil), key...)
	if err := r.configs.Put(&types.ProducerConfig{Owner: owner, PackedKey: packed}); err != nil {
		return err
	}

	r.log.Debug("register_producer applied", "owner", crypto.NewAddress(owner).String())
	r.emitter.Emit(events.ProducerRegistered{Owner: owner})
	return nil
}

// ChangePreferences handles change_producer_preferences(producer, key,
// prefs) per spec.md §4.1 and §6's action 2. The preferences are replaced
// in place; votes are untouched. When key is non-empty the signing key on
// file is replaced too (via SetKey), so a producer can rotate its key and
// adjust preferences in a single action; a nil/empty key leaves the
// existing signing key — and therefore Active's derived status —
// untouched.
func (r *Registry) ChangePreferences(owner uint64, key []byte, prefs types.ProducerPreferences) error {
	if !r.authority.HasAuthority(owner) {
		return fmt.Errorf("%w: change_producer_preferences requires producer authority", errors.ErrAuth)
	}
	producer, found, err := r.producers.Find(owner)
	if err != nil {
		return err
	}
	if !found {
		r.log.Warn("change_producer_preferences rejected", "owner", crypto.NewAddress(owner).String(), "reason", "not_registered")
		return fmt.Errorf("%w: producer %d", errors.ErrNotRegistered, owner)
	}
	producer.Preferences = prefs
	if err := r.producers.Put(producer); err != nil {
		return err
	}
	if len(key) > 0 {
		if err := r.SetKey(owner, key); err != nil {
			return err
		}
	}

	r.log.Debug("change_producer_preferences applied", "owner", crypto.NewAddress(owner).String(), "keyRotated", len(key) > 0)
	r.emitter.Emit(events.ProducerPreferencesChanged{Owner: owner})
	return nil
}

// Active reports whether the given producer currently has a non-empty
// signing key on file, the derived predicate spec.md §3/§4.1 define.
func (r *Registry) Active(owner uint64) (bool, error) {
	cfg, found, err := r.configs.Find(owner)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return cfg.Active(), nil
}

// SetKey updates (or clears) a producer's signing key, independent of
// Register, so operators can deactivate a producer without losing its
// accumulated votes (spec.md §4.1's rationale for keeping Active derived).
// ChangePreferences calls this when a non-empty key accompanies a
// preference update; it is also exported for callers that only need to
// rotate or clear a key.
func (r *Registry) SetKey(owner uint64, key []byte) error {
	if !r.authority.HasAuthority(owner) {
		return fmt.Errorf("%w: producer key update requires producer authority", errors.ErrAuth)
	}
	if _, found, err := r.producers.Find(owner); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("%w: producer %d", errors.ErrNotRegistered, owner)
	}
	packed := append([]byte(nil), key...)
	return r.configs.Put(&types.ProducerConfig{Owner: owner, PackedKey: packed})
}
