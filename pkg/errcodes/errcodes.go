package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	InvalidPlayerID     failure.ErrorCode = "InvalidPlayerID"

	// Negotiation and settlement.
	InvalidRequestLine      failure.ErrorCode = "InvalidRequestLine"      // quantity <= 0, negative price or no item kind
	DealClosed              failure.ErrorCode = "DealClosed"              // line added to a settled or cancelled deal
	NegotiationNotOpen      failure.ErrorCode = "NegotiationNotOpen"      // no open deal with the counterparty
	CounterpartyNotFound    failure.ErrorCode = "CounterpartyNotFound"    // roster has no such faction/trader
	CounterpartyCannotTrade failure.ErrorCode = "CounterpartyCannotTrade" // counterparty is not a trader
	RegistryConsistency     failure.ErrorCode = "RegistryConsistency"     // two live deals for one counterparty
	DeliveryFault           failure.ErrorCode = "DeliveryFault"           // trader failed to hand over a line
	FundsUnavailable        failure.ErrorCode = "FundsUnavailable"        // stockpile balance could not be read
	PaymentFailed           failure.ErrorCode = "PaymentFailed"           // trader accounting refused the debit
	OutOfStock              failure.ErrorCode = "OutOfStock"
	InsufficientSilver      failure.ErrorCode = "InsufficientSilver"
)
