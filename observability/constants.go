package observability

// Metric name prefix
const MetricPrefix = "diamondpay"

// Metric names
const (
	LedgerOperationsTotal      = MetricPrefix + ".ledger.operations_total"
	WalletOperationsTotal      = MetricPrefix + ".wallet.operations_total"
	WithdrawalTransitionsTotal = MetricPrefix + ".withdrawals.transitions_total"
	EventsPublishedTotal       = MetricPrefix + ".events.published_total"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelType      = "type"
	LabelAction    = "action"
	LabelEventType = "event_type"
)
