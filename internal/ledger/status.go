package ledger

import (
	"errors"
	"fmt"
)

var ErrUnknownStatus = errors.New("unknown transaction status")

// Status is the position of a transaction in the status lattice. Values only move forward:
// WaitingDissemination -> DataProposalCreated -> Sequenced -> {Success | Failure | TimedOut}.
type Status int

const (
	StatusWaitingDissemination Status = iota + 1
	StatusDataProposalCreated
	StatusSequenced
	StatusSuccess
	StatusFailure
	StatusTimedOut
)

var statusNames = map[Status]string{
	StatusWaitingDissemination: "waiting_dissemination",
	StatusDataProposalCreated:  "data_proposal_created",
	StatusSequenced:            "sequenced",
	StatusSuccess:              "success",
	StatusFailure:              "failure",
	StatusTimedOut:             "timed_out",
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return fmt.Sprintf("status(%d)", int(s))
	}

	return name
}

func ParseStatus(value string) (Status, error) {
	for status, name := range statusNames {
		if name == value {
			return status, nil
		}
	}

	return 0, errors.Join(ErrUnknownStatus, fmt.Errorf("status: %s", value))
}

// rank of terminal values is shared, none of them may replace another.
func (s Status) rank() int {
	if s.IsTerminal() {
		return int(StatusSuccess)
	}
	return int(s)
}

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusTimedOut
}

// IsPending reports whether the transaction has not been sequenced in a block yet.
func (s Status) IsPending() bool {
	return s == StatusWaitingDissemination || s == StatusDataProposalCreated
}

// CanTransitionTo reports whether a persisted status s may be replaced by next.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}

	return next.rank() > s.rank()
}

// TerminalStatuses lists the lattice values that are never overwritten.
func TerminalStatuses() []Status {
	return []Status{StatusSuccess, StatusFailure, StatusTimedOut}
}
