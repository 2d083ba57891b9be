package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleRequest() *models.AcquisitionRequest {
	return &models.AcquisitionRequest{
		Title:       "Compra de material de escritório",
		Description: "Canetas, papéis e materiais básicos para a secretaria",
		Status:      catalog.StatusOrcamento,
		Priority:    catalog.DefaultPriority,
		Impact:      catalog.DefaultImpact,
		Classe:      catalog.ClasseEnsino,
		Categoria:   catalog.CategoriaMaterial,
		RequestDate: time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC),
		CreatedByID: "user-1",
	}
}

func TestRequestRepositoryCreateWritesLedgerEntryInSameTx(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO acquisition_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_changes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	comments := "Pedido criado"
	request := sampleRequest()
	require.NoError(t, repo.Create(context.Background(), request, &comments))
	require.NotEmpty(t, request.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCreateRollsBackWhenLedgerInsertFails(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO acquisition_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_changes")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleRequest(), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateAppendsEntryOnlyWhenStatusChanges(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	request := sampleRequest()
	request.ID = "req-1"
	request.Status = catalog.StatusFaseCompra

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM acquisition_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(catalog.StatusOrcamento))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE acquisition_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_changes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	changed, err := repo.Update(context.Background(), request, "user-2", nil)
	require.NoError(t, err)
	require.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateSkipsLedgerWhenStatusUnchanged(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	request := sampleRequest()
	request.ID = "req-1"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM acquisition_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(request.Status))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE acquisition_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.Update(context.Background(), request, "user-2", nil)
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateUnknownID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	request := sampleRequest()
	request.ID = "missing"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM acquisition_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), request, "user-2", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attachments WHERE request_id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM status_changes WHERE request_id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM acquisition_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "req-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDeleteUnknownID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attachments WHERE request_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM status_changes WHERE request_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM acquisition_requests WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryHistoryOrder(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	old := catalog.StatusOrcamento
	rows := sqlmock.NewRows([]string{"id", "request_id", "old_status", "new_status", "changed_by_id", "comments", "change_date"}).
		AddRow("sc-1", "req-1", nil, catalog.StatusOrcamento, "user-1", "Pedido criado", time.Now().Add(-time.Hour)).
		AddRow("sc-2", "req-1", old, catalog.StatusFaseCompra, "user-1", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, old_status, new_status, changed_by_id, comments, change_date")).
		WithArgs("req-1").
		WillReturnRows(rows)

	entries, err := repo.History(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Nil(t, entries[0].OldStatus)
	require.Equal(t, entries[0].NewStatus, *entries[1].OldStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}
