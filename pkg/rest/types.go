package rest

import "time"

// RequestLine is a line the player wants to add to the deal. UnitPrice is a
// decimal string, e.g. "2.50".
type RequestLine struct {
	Item      string `json:"item" validate:"required"`
	Material  string `json:"material,omitempty"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	UnitPrice string `json:"unitPrice" validate:"required,numeric"`
}

// DealLine is a requested line as shown for review. Money is rendered with
// two fraction digits.
type DealLine struct {
	Item      string `json:"item"`
	Material  string `json:"material,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type Deal struct {
	ID             string     `json:"id"`
	CounterpartyID string     `json:"counterpartyId"`
	OpenedAt       time.Time  `json:"openedAt"`
	Lines          []DealLine `json:"lines"`
	Total          string     `json:"total"`
}

// Fault is a line the trader failed to hand over.
type Fault struct {
	Index    int    `json:"index"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

// Receipt is the result of confirming a deal.
type Receipt struct {
	DealID         string     `json:"dealId"`
	CounterpartyID string     `json:"counterpartyId"`
	Outcome        string     `json:"outcome"`
	Signal         string     `json:"signal"`
	Total          string     `json:"total"`
	Funds          string     `json:"funds"`
	Delivered      []DealLine `json:"delivered"`
	Faults         []Fault    `json:"faults,omitempty"`
	// Trade lists what was paid for; absent when nothing was.
	Trade *Trade `json:"trade,omitempty"`
	Error *Error `json:"error,omitempty"`
}

type Trade struct {
	DealID         string     `json:"dealId"`
	CounterpartyID string     `json:"counterpartyId"`
	PlayerID       string     `json:"playerId"`
	Total          string     `json:"total"`
	Lines          []DealLine `json:"lines"`
	CompletedAt    time.Time  `json:"completedAt"`
}

type Standing struct {
	PlayerID string `json:"playerId"`
	Traded   string `json:"traded"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string
