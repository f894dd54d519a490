package logx

const (
	FieldAppName         = "app-name"
	FieldAppVersion      = "app-version"
	FieldCounterpartyID  = "counterparty-id"
	FieldDealID          = "deal-id"
	FieldDurationMs      = "duration-ms"
	FieldError           = "error"
	FieldFunds           = "funds"
	FieldHTTPMethod      = "http-method"
	FieldHTTPRequest     = "http-request"
	FieldHTTPResponse    = "http-response"
	FieldIP              = "ip"
	FieldItem            = "item"
	FieldLines           = "lines"
	FieldMaterial        = "material"
	FieldOutcome         = "outcome"
	FieldPlayerID        = "player-id"
	FieldQuantity        = "quantity"
	FieldRequestBody     = "request-body"
	FieldRequestID       = "request-id"
	FieldResponseBody    = "response-body"
	FieldResponseHeaders = "response-headers"
	FieldResponseStatus  = "response-status"
	FieldStack           = "stack"
	FieldTaskID          = "task-id"
	FieldTotal           = "total"
	FieldTraceID         = "trace-id"
	FieldURL             = "url"
)
