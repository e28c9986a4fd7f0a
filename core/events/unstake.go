package events

import "strconv"

const (
	// TypeUnstakeRequested is emitted when unstake_vote creates a new
	// refund request.
	TypeUnstakeRequested = "unstake.requested"
	// TypeUnstakeCancelled is emitted when a refund request is cancelled
	// and its remaining amount is re-staked.
	TypeUnstakeCancelled = "unstake.cancelled"
	// TypeUnstakeRefunded is emitted once per weekly refund payment.
	TypeUnstakeRefunded = "unstake.refunded"
	// TypeUnstakeCompleted is emitted when a request's current_amount
	// reaches zero and the request is removed.
	TypeUnstakeCompleted = "unstake.completed"
)

// UnstakeRequested captures a successful unstake_vote action.
type UnstakeRequested struct {
	RequestID          uint64
	Account            uint64
	Amount             uint64
	WeeklyRefundAmount uint64
	NextRefundTime     int64
}

// EventType implements Event.
func (UnstakeRequested) EventType() string { return TypeUnstakeRequested }

// Attributes renders the event as a flat attribute map.
func (e UnstakeRequested) Attributes() map[string]string {
	return map[string]string{
		"requestId":          strconv.FormatUint(e.RequestID, 10),
		"account":            strconv.FormatUint(e.Account, 10),
		"amount":             strconv.FormatUint(e.Amount, 10),
		"weeklyRefundAmount": strconv.FormatUint(e.WeeklyRefundAmount, 10),
		"nextRefundTime":     strconv.FormatInt(e.NextRefundTime, 10),
	}
}

// UnstakeCancelled captures a successful cancel_unstake_vote_request action.
type UnstakeCancelled struct {
	RequestID uint64
	Account   uint64
	Restored  uint64
}

// EventType implements Event.
func (UnstakeCancelled) EventType() string { return TypeUnstakeCancelled }

// Attributes renders the event as a flat attribute map.
func (e UnstakeCancelled) Attributes() map[string]string {
	return map[string]string{
		"requestId": strconv.FormatUint(e.RequestID, 10),
		"account":   strconv.FormatUint(e.Account, 10),
		"restored":  strconv.FormatUint(e.Restored, 10),
	}
}

// UnstakeRefunded captures a single weekly refund payment.
type UnstakeRefunded struct {
	RequestID      uint64
	Account        uint64
	Paid           uint64
	Remaining      uint64
	NextRefundTime int64
}

// EventType implements Event.
func (UnstakeRefunded) EventType() string { return TypeUnstakeRefunded }

// Attributes renders the event as a flat attribute map.
func (e UnstakeRefunded) Attributes() map[string]string {
	return map[string]string{
		"requestId":      strconv.FormatUint(e.RequestID, 10),
		"account":        strconv.FormatUint(e.Account, 10),
		"paid":           strconv.FormatUint(e.Paid, 10),
		"remaining":      strconv.FormatUint(e.Remaining, 10),
		"nextRefundTime": strconv.FormatInt(e.NextRefundTime, 10),
	}
}

// UnstakeCompleted captures the removal of a fully-refunded request.
type UnstakeCompleted struct {
	RequestID uint64
	Account   uint64
}

// EventType implements Event.
func (UnstakeCompleted) EventType() string { return TypeUnstakeCompleted }

// Attributes renders the event as a flat attribute map.
func (e UnstakeCompleted) Attributes() map[string]string {
	return map[string]string{
		"requestId": strconv.FormatUint(e.RequestID, 10),
		"account":   strconv.FormatUint(e.Account, 10),
	}
}
