package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/senai-mf/aquisicoes-api/internal/models"
)

const requestColumns = `id, title, description, status, priority, impact, classe, categoria,
       observations, estimated_value, final_value, request_date, delivery_date,
       created_by_id, responsible_id, created_at, updated_at`

// RequestRepository persists acquisition requests together with their status
// change ledger. Every mutation that touches the status writes the entity
// and its ledger entry inside one transaction; a request whose status lags
// its own ledger must never be observable.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request plus its initial ledger entry atomically.
// The initial entry always carries a nil old status.
func (r *RequestRepository) Create(ctx context.Context, request *models.AcquisitionRequest, comments *string) (err error) {
	now := time.Now().UTC()
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRequest = `INSERT INTO acquisition_requests
	(id, title, description, status, priority, impact, classe, categoria, observations,
	 estimated_value, final_value, request_date, delivery_date, created_by_id, responsible_id,
	 created_at, updated_at)
	VALUES (:id, :title, :description, :status, :priority, :impact, :classe, :categoria, :observations,
	 :estimated_value, :final_value, :request_date, :delivery_date, :created_by_id, :responsible_id,
	 :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	entry := &models.StatusChange{
		ID:          uuid.NewString(),
		RequestID:   request.ID,
		OldStatus:   nil,
		NewStatus:   request.Status,
		ChangedByID: request.CreatedByID,
		Comments:    comments,
		ChangeDate:  now,
	}
	if err = insertStatusChange(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.AcquisitionRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM acquisition_requests WHERE id = $1`, requestColumns)
	var request models.AcquisitionRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter ordered by last update, plus the
// total count for pagination.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.AcquisitionRequest, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Classe != "" {
		args = append(args, filter.Classe)
		conditions = append(conditions, fmt.Sprintf("classe = $%d", len(args)))
	}
	if filter.Categoria != "" {
		args = append(args, filter.Categoria)
		conditions = append(conditions, fmt.Sprintf("categoria = $%d", len(args)))
	}
	if filter.ResponsibleID != "" {
		args = append(args, filter.ResponsibleID)
		conditions = append(conditions, fmt.Sprintf("responsible_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("request_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("request_date <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM acquisition_requests" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf("SELECT %s FROM acquisition_requests%s ORDER BY updated_at DESC LIMIT %d OFFSET %d",
		requestColumns, where, pageSize, (page-1)*pageSize)

	var requests []models.AcquisitionRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	return requests, total, nil
}

// Update persists field changes and, when the status differs from the stored
// one, appends exactly one ledger entry within the same transaction. The
// stored status is read under FOR UPDATE so concurrent writers still produce
// a gapless chain. Returns whether a ledger entry was written.
func (r *RequestRepository) Update(ctx context.Context, request *models.AcquisitionRequest, actorID string, comments *string) (statusChanged bool, err error) {
	now := time.Now().UTC()
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin update request: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var oldStatus string
	if err = tx.GetContext(ctx, &oldStatus, `SELECT status FROM acquisition_requests WHERE id = $1 FOR UPDATE`, request.ID); err != nil {
		return false, err
	}

	const updateRequest = `UPDATE acquisition_requests SET
	 title = :title, description = :description, status = :status, priority = :priority,
	 impact = :impact, classe = :classe, categoria = :categoria, observations = :observations,
	 estimated_value = :estimated_value, final_value = :final_value, request_date = :request_date,
	 delivery_date = :delivery_date, responsible_id = :responsible_id, updated_at = :updated_at
	WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateRequest, request); err != nil {
		return false, fmt.Errorf("update request: %w", err)
	}

	if oldStatus != request.Status {
		entry := &models.StatusChange{
			ID:          uuid.NewString(),
			RequestID:   request.ID,
			OldStatus:   &oldStatus,
			NewStatus:   request.Status,
			ChangedByID: actorID,
			Comments:    comments,
			ChangeDate:  now,
		}
		if err = insertStatusChange(ctx, tx, entry); err != nil {
			return false, err
		}
		statusChanged = true
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update request: %w", err)
	}
	return statusChanged, nil
}

// UpdateResponsible reassigns the responsible party without touching the
// ledger; responsibility changes are not part of the status audit trail.
func (r *RequestRepository) UpdateResponsible(ctx context.Context, id string, responsibleID *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE acquisition_requests SET responsible_id = $2, updated_at = $3 WHERE id = $1`,
		id, responsibleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update responsible: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check responsible update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the request cascading to its ledger entries and
// attachments, all inside one transaction.
func (r *RequestRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete request: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attachments WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("delete request attachments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM status_changes WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("delete request status changes: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM acquisition_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete request rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete request: %w", err)
	}
	return nil
}

// History returns the ledger entries of a request in chronological order.
func (r *RequestRepository) History(ctx context.Context, requestID string) ([]models.StatusChange, error) {
	const query = `SELECT id, request_id, old_status, new_status, changed_by_id, comments, change_date
	FROM status_changes WHERE request_id = $1 ORDER BY change_date ASC, id ASC`
	var entries []models.StatusChange
	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	return entries, nil
}

// CountByStatus aggregates requests per status.
func (r *RequestRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM acquisition_requests GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	return counts, nil
}

// Totals sums the estimated and final values across all requests.
func (r *RequestRepository) Totals(ctx context.Context) (estimated, final string, err error) {
	const query = `SELECT COALESCE(SUM(estimated_value), 0) AS estimated, COALESCE(SUM(final_value), 0) AS final
	FROM acquisition_requests`
	row := struct {
		Estimated string `db:"estimated"`
		Final     string `db:"final"`
	}{}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return "", "", fmt.Errorf("sum request values: %w", err)
	}
	return row.Estimated, row.Final, nil
}

func insertStatusChange(ctx context.Context, tx *sqlx.Tx, entry *models.StatusChange) error {
	const query = `INSERT INTO status_changes
	(id, request_id, old_status, new_status, changed_by_id, comments, change_date)
	VALUES (:id, :request_id, :old_status, :new_status, :changed_by_id, :comments, :change_date)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}
