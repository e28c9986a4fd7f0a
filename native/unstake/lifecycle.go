// Package unstake implements the unstake refund lifecycle (spec.md §4.4):
// unstake_vote, cancel_unstake_vote_request, and the per-block
// process_unstake_requests sweep.
package unstake

import (
	"fmt"
	"log/slog"

	"dposchain/core/errors"
	"dposchain/core/events"
	"dposchain/core/host"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/crypto"
	"dposchain/native/voting"
	"dposchain/observability/metrics"
)

// MaxOpenRequests is the hard per-account cap on outstanding unstake
// requests (spec.md §5).
const MaxOpenRequests = 10

// RefundWeeks is the number of weekly payments an unstake request's
// weekly_refund_amount is sized for.
const RefundWeeks = 26

// RefundPeriodSeconds is the interval between refund payments (one week).
const RefundPeriodSeconds = 604800

// Engine implements the unstake lifecycle on top of the voting Engine it
// reverses and re-applies vote propagation through.
type Engine struct {
	requests   store.UnstakeStore
	counts     store.UnstakeCountStore
	voters     store.VoterStore
	authority  host.AuthorityChecker
	clock      host.Clock
	transferer host.TokenTransferer
	voting     *voting.Engine
	emitter    events.Emitter
	log        *slog.Logger

	systemAccount uint64
}

// New constructs an unstake Engine. A nil emitter defaults to a no-op
// emitter and a nil logger defaults to slog.Default().
func New(
	requests store.UnstakeStore,
	counts store.UnstakeCountStore,
	voters store.VoterStore,
	authority host.AuthorityChecker,
	clock host.Clock,
	transferer host.TokenTransferer,
	votingEngine *voting.Engine,
	emitter events.Emitter,
	log *slog.Logger,
	systemAccount uint64,
) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		requests: requests, counts: counts, voters: voters,
		authority: authority, clock: clock, transferer: transferer,
		voting: votingEngine, emitter: emitter, log: log,
		systemAccount: systemAccount,
	}
}

// UnstakeVote handles unstake_vote(voter, amount) per spec.md §4.4.
func (e *Engine) UnstakeVote(voter uint64, amount uint64) error {
	if !e.authority.HasAuthority(voter) {
		return fmt.Errorf("%w: unstake_vote requires voter authority", errors.ErrAuth)
	}
	if amount == 0 {
		return fmt.Errorf("%w: unstake_vote amount must be positive", errors.ErrBadAmount)
	}

	count, err := e.counts.Count(voter)
	if err != nil {
		return err
	}
	if count >= MaxOpenRequests {
		return fmt.Errorf("%w: account %d", errors.ErrQuotaExceeded, voter)
	}

	acv, found, err := e.voters.Find(voter)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: account %d", errors.ErrNoStake, voter)
	}
	// The inherited predicate errors when available stake is insufficient,
	// i.e. staked < amount (spec.md §9's documented correction of the
	// source's inverted check).
	if acv.Staked < amount {
		return fmt.Errorf("%w: account %d staked %d, requested %d", errors.ErrOverstake, voter, acv.Staked, amount)
	}

	if err := e.voting.DecreaseVotingPower(voter, amount); err != nil {
		return err
	}

	acv, found, err = e.voters.Find(voter)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: account %d", errors.ErrCorruption, voter)
	}
	acv.Staked -= amount
	now := e.clock.Now().Unix()
	acv.LastUpdate = now
	if err := e.voters.Put(acv); err != nil {
		return err
	}

	id, err := e.requests.NextID()
	if err != nil {
		return err
	}
	weeklyRefund := amount/RefundWeeks + amount%RefundWeeks
	req := &types.UnstakeRequest{
		ID:                 id,
		Account:            voter,
		CurrentAmount:      amount,
		WeeklyRefundAmount: weeklyRefund,
		NextRefundTime:     now + RefundPeriodSeconds,
	}
	if err := e.requests.Put(req); err != nil {
		return err
	}
	if err := e.counts.Increment(voter); err != nil {
		return err
	}

	e.log.Debug("unstake_vote applied", "voter", crypto.NewAddress(voter).String(), "amount", amount, "requestId", id)
	e.emitter.Emit(events.UnstakeRequested{
		RequestID: id, Account: voter, Amount: amount,
		WeeklyRefundAmount: weeklyRefund, NextRefundTime: req.NextRefundTime,
	})
	return nil
}

// CancelUnstakeVoteRequest handles cancel_unstake_vote_request(request_id)
// per spec.md §4.4: the remaining current_amount is re-applied as stake via
// increase_voting_power, the request is removed, and the voter's open
// request count is decremented (spec.md §9's resolution of the source's
// ambiguity, required to preserve the quota invariant).
func (e *Engine) CancelUnstakeVoteRequest(requestID uint64) error {
	req, found, err := e.requests.Find(requestID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: unstake request %d", errors.ErrRequestNotFound, requestID)
	}
	if !e.authority.HasAuthority(req.Account) {
		return fmt.Errorf("%w: cancel_unstake_vote_request requires account authority", errors.ErrAuth)
	}

	restored := req.CurrentAmount
	// IncreaseVotingPower already adds restored to the voter's staked
	// balance and re-propagates votes along the proxy/direct path; no
	// further bookkeeping is needed here.
	if err := e.voting.IncreaseVotingPower(req.Account, restored); err != nil {
		return err
	}

	if err := e.requests.Delete(requestID); err != nil {
		return err
	}
	if err := e.counts.Decrement(req.Account); err != nil {
		return err
	}

	e.log.Debug("cancel_unstake_vote_request applied", "requestId", requestID, "account", crypto.NewAddress(req.Account).String(), "restored", restored)
	e.emitter.Emit(events.UnstakeCancelled{RequestID: requestID, Account: req.Account, Restored: restored})
	return nil
}

// ProcessRequests implements process_unstake_requests() per spec.md §4.4:
// invoked on every block boundary, it walks the by-next-refund-time index
// ascending and pays every request whose time has elapsed.
func (e *Engine) ProcessRequests() error {
	now := e.clock.Now().Unix()

	var due []uint64
	total := 0
	err := e.requests.IterateByNextRefundAscending(func(req *types.UnstakeRequest) (bool, error) {
		total++
		if req.NextRefundTime <= now {
			due = append(due, req.ID)
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	metrics.Election().SetUnstakeOpen(total)

	for _, id := range due {
		if err := e.processOne(id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) processOne(id uint64) error {
	req, found, err := e.requests.Find(id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	pay := req.WeeklyRefundAmount
	if pay > req.CurrentAmount {
		pay = req.CurrentAmount
	}
	if pay > 0 {
		if err := e.transferer.Transfer(e.systemAccount, req.Account, pay, "unstake refund"); err != nil {
			return err
		}
	}
	req.CurrentAmount -= pay
	req.NextRefundTime = req.NextRefundTime + RefundPeriodSeconds

	if req.CurrentAmount == 0 {
		if err := e.requests.Delete(id); err != nil {
			return err
		}
		if err := e.counts.Decrement(req.Account); err != nil {
			return err
		}
		e.log.Debug("process_unstake_requests completed request", "requestId", id, "account", crypto.NewAddress(req.Account).String())
		e.emitter.Emit(events.UnstakeCompleted{RequestID: id, Account: req.Account})
		metrics.Election().ObserveRefundPaid("completed")
		return nil
	}

	if err := e.requests.Put(req); err != nil {
		return err
	}
	e.log.Debug("process_unstake_requests paid refund", "requestId", id, "account", crypto.NewAddress(req.Account).String(), "paid", pay, "remaining", req.CurrentAmount)
	e.emitter.Emit(events.UnstakeRefunded{
		RequestID: id, Account: req.Account, Paid: pay,
		Remaining: req.CurrentAmount, NextRefundTime: req.NextRefundTime,
	})
	metrics.Election().ObserveRefundPaid("paid")
	return nil
}
