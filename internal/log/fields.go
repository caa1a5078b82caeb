package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"

	FieldUserID        = "user_id"
	FieldLedgerID      = "ledger_id"
	FieldTransactionID = "transaction_id"
	FieldItemID        = "item_id"
	FieldAllocationID  = "allocation_id"
	FieldMessageID     = "message_id"
	FieldAmount        = "amount"
	FieldCategory      = "category"
	FieldDirection     = "direction"
	FieldYearMonth     = "year_month"
	FieldRangeFrom     = "range_from"
	FieldRangeTo       = "range_to"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
