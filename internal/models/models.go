package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Canonical status labels for a service order. Imported statuses may carry
// other values when the pass-through policy is active; the form CRUD path
// only accepts these.
const (
	StatusOpen       = "Aberto"
	StatusPending    = "Pendente"
	StatusInProgress = "Em Andamento"
	StatusReleased   = "Liberado"
	StatusApproved   = "Aprovado"
	StatusDone       = "Concluído"
)

// CanonicalStatuses lists the fixed status vocabulary in workflow order.
var CanonicalStatuses = []string{
	StatusOpen, StatusPending, StatusInProgress,
	StatusReleased, StatusApproved, StatusDone,
}

// Order is one service-order record. Text fields default to the empty
// string; CreatedOn is the only nullable field and uses YYYY-MM-DD.
type Order struct {
	ID                  int64   `json:"id"`
	Operation           string  `json:"operation"`
	OpportunityNumber   string  `json:"opportunity_number"`
	VTANumber           string  `json:"vta_number"`
	QuoteNumber         string  `json:"quote_number"`
	CircuitNumber       string  `json:"circuit_number"`
	QuoteStatus         string  `json:"quote_status"`
	Product             string  `json:"product"`
	Quantity            int     `json:"quantity"`
	Status              string  `json:"status"`
	GrossValue          float64 `json:"gross_value"`
	CreatedOn           *string `json:"created_on"`
	OrderIssuer         string  `json:"order_issuer"`
	IssuerName          string  `json:"issuer_name"`
	AccountManager      string  `json:"account_manager"`
	SalesOrg            string  `json:"sales_org"`
	DistributionChannel string  `json:"distribution_channel"`
	ActivitySector      string  `json:"activity_sector"`
	SDItem              string  `json:"sd_item"`
	ProductID           string  `json:"product_id"`
	ContractDuration    string  `json:"contract_duration"`
	ImportedAt          string  `json:"imported_at"`
	UpdatedAt           string  `json:"updated_at"`
}
