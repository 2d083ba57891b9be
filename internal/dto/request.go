package dto

import "github.com/shopspring/decimal"

// CreateRequestPayload holds the fields accepted when opening a request.
// Status, priority, impact, classe and categoria fall back to the catalog
// defaults when omitted; monetary values are never inferred from one another.
type CreateRequestPayload struct {
	Title          string           `json:"title" validate:"required,min=5,max=200"`
	Description    string           `json:"description" validate:"required,min=10,max=1000"`
	Status         string           `json:"status"`
	Priority       string           `json:"priority"`
	Impact         string           `json:"impact"`
	Classe         string           `json:"classe"`
	Categoria      string           `json:"categoria"`
	Observations   string           `json:"observations" validate:"max=500"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	FinalValue     *decimal.Decimal `json:"final_value"`
	RequestDate    string           `json:"request_date"`
	DeliveryDate   string           `json:"delivery_date"`
	ResponsibleID  string           `json:"responsible_id"`
}

// UpdateRequestPayload mirrors the create payload plus the comment recorded
// on the ledger entry when the status changes.
type UpdateRequestPayload struct {
	Title          string           `json:"title" validate:"required,min=5,max=200"`
	Description    string           `json:"description" validate:"required,min=10,max=1000"`
	Status         string           `json:"status" validate:"required"`
	Priority       string           `json:"priority"`
	Impact         string           `json:"impact"`
	Classe         string           `json:"classe"`
	Categoria      string           `json:"categoria"`
	Observations   string           `json:"observations" validate:"max=500"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	FinalValue     *decimal.Decimal `json:"final_value"`
	RequestDate    string           `json:"request_date"`
	DeliveryDate   string           `json:"delivery_date"`
	ResponsibleID  string           `json:"responsible_id"`
	ChangeComments string           `json:"change_comments" validate:"max=500"`
}

// ReassignPayload sets or clears the responsible party.
type ReassignPayload struct {
	ResponsibleID *string `json:"responsible_id"`
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	Search        string `form:"search"`
	Status        string `form:"status"`
	Classe        string `form:"classe"`
	Categoria     string `form:"categoria"`
	ResponsibleID string `form:"responsible_id"`
	DateFrom      string `form:"date_from"`
	DateTo        string `form:"date_to"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}
