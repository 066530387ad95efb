package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCreatorAccount OutboxAggregateType = "creator_account"
	AggregateLedgerEntry    OutboxAggregateType = "ledger_entry"
	AggregatePayoutRequest  OutboxAggregateType = "payout_request"
	AggregateTierState      OutboxAggregateType = "tier_state"
	AggregateFraudFlag      OutboxAggregateType = "fraud_flag"
	AggregateNotification   OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCreatorAccount,
	AggregateLedgerEntry,
	AggregatePayoutRequest,
	AggregateTierState,
	AggregateFraudFlag,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPayoutRequested       OutboxEventType = "payout_requested"
	EventPayoutApproved        OutboxEventType = "payout_approved"
	EventPayoutCompleted       OutboxEventType = "payout_completed"
	EventPayoutRejected        OutboxEventType = "payout_rejected"
	EventFlagRaised            OutboxEventType = "flag_raised"
	EventFlagConfirmed         OutboxEventType = "flag_confirmed"
	EventFlagResolved          OutboxEventType = "flag_resolved"
	EventTierApproved          OutboxEventType = "tier_approved"
	EventTierDenied            OutboxEventType = "tier_denied"
	EventEarningRecorded       OutboxEventType = "earning_recorded"
	EventCreatorSuspended      OutboxEventType = "creator_suspended"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPayoutRequested,
	EventPayoutApproved,
	EventPayoutCompleted,
	EventPayoutRejected,
	EventFlagRaised,
	EventFlagConfirmed,
	EventFlagResolved,
	EventTierApproved,
	EventTierDenied,
	EventEarningRecorded,
	EventCreatorSuspended,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
