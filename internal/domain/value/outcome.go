package value

// Outcome is the result of one settlement attempt.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeSettled
	OutcomeRejected
	// OutcomeFaulted means funds were sufficient but at least one line could
	// not be handed over. The deal stays open.
	OutcomeFaulted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSettled:
		return "settled"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Signal is what the counterparty's behavior coordinator receives once a
// settlement attempt ends.
type Signal uint8

const (
	SignalNone Signal = iota
	SignalFulfilled
	SignalUnfulfilled
)

func (s Signal) String() string {
	switch s {
	case SignalFulfilled:
		return "fulfilled"
	case SignalUnfulfilled:
		return "unfulfilled"
	default:
		return "none"
	}
}

// SignalFor maps an outcome to the signal the coordinator gets.
func SignalFor(o Outcome) Signal {
	switch o {
	case OutcomeSettled:
		return SignalFulfilled
	case OutcomeRejected, OutcomeFaulted:
		return SignalUnfulfilled
	default:
		return SignalNone
	}
}
