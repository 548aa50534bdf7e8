package constants

// InvoiceStatus is the canonical processing status for an uploaded invoice.
type InvoiceStatus string

// Stable values (store these exact strings in DB). Completed and Failed are
// terminal: no transition ever leaves them; reprocessing re-derives results
// but the status moves Processing -> Completed/Failed again from the top.
const (
	StatusPending    InvoiceStatus = "pending"
	StatusProcessing InvoiceStatus = "processing"
	StatusCompleted  InvoiceStatus = "completed"
	StatusFailed     InvoiceStatus = "failed"
)

// ParseMethod records which parsing strategy produced a ParsedInvoice.
type ParseMethod string

const (
	ParseMethodModel    ParseMethod = "model"
	ParseMethodFallback ParseMethod = "fallback"
)

// Scope is a greenhouse-gas accounting scope.
type Scope int

const (
	Scope1 Scope = 1 // direct emissions
	Scope2 Scope = 2 // purchased energy
	Scope3 Scope = 3 // upstream/downstream supply chain
)

// Priority ranks a recommendation by its share of total emissions.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ImpactLevel buckets an emission factor's intensity.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)
