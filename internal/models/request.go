package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AcquisitionRequest tracks one purchase request through the
// quotation → purchase → shipping → completion workflow. The id is assigned
// once and never changes; status history lives in the status change ledger
// and every status mutation must be written together with its ledger entry.
type AcquisitionRequest struct {
	ID             string              `db:"id" json:"id"`
	Title          string              `db:"title" json:"title"`
	Description    string              `db:"description" json:"description"`
	Status         string              `db:"status" json:"status"`
	Priority       string              `db:"priority" json:"priority"`
	Impact         string              `db:"impact" json:"impact"`
	Classe         string              `db:"classe" json:"classe"`
	Categoria      string              `db:"categoria" json:"categoria"`
	Observations   *string             `db:"observations" json:"observations,omitempty"`
	EstimatedValue decimal.NullDecimal `db:"estimated_value" json:"estimated_value"`
	FinalValue     decimal.NullDecimal `db:"final_value" json:"final_value"`
	RequestDate    time.Time           `db:"request_date" json:"request_date"`
	DeliveryDate   *time.Time          `db:"delivery_date" json:"delivery_date,omitempty"`
	CreatedByID    string              `db:"created_by_id" json:"created_by_id"`
	ResponsibleID  *string             `db:"responsible_id" json:"responsible_id,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// RequestFilter constrains listing queries. Search matches title and
// description, dates bound the business request_date.
type RequestFilter struct {
	Search        string
	Status        string
	Classe        string
	Categoria     string
	ResponsibleID string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	PageSize      int
}

// StatusCount aggregates requests per status for the dashboard summary.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// RequestSummary is the cached dashboard projection.
type RequestSummary struct {
	TotalRequests  int             `json:"total_requests"`
	StatusCounts   []StatusCount   `json:"status_counts"`
	TotalEstimated decimal.Decimal `json:"total_estimated"`
	TotalFinal     decimal.Decimal `json:"total_final"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
