package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
)

func TestAuditLog_ScopedToOrganization(t *testing.T) {
	h := newHarness(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h.env.Audit = audit.NewRecorder(db, h.env.Logger)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "session_id", "org_id", "center_id", "user_id",
		"entity", "action", "target_id", "success", "message", "created_at",
	}).AddRow("e-1", "s-1", "org-1", "center-1", "u-1", "panel", "reorder", "p-3", false, "Panels order kept locally", now)
	mock.ExpectQuery("SELECT (.+) FROM dashboard_audit_events WHERE org_id = \\$1 AND entity = \\$2 AND action = \\$3 ORDER BY created_at DESC LIMIT 5 OFFSET 5").
		WithArgs("org-1", "panel", "reorder").
		WillReturnRows(rows)

	sess := h.adminSession()
	rec := h.serve(http.MethodGet, "/audit", h.env.AuditLog, "/audit?entity=panel&action=Reorder&pageNumber=2&pageSize=5", nil, &sess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var events []audit.Event
	require.NoError(t, json.Unmarshal(decode(t, rec).Items, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "p-3", events[0].TargetID)
	assert.False(t, events[0].Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_Disabled(t *testing.T) {
	h := newHarness(t)
	sess := h.adminSession()
	rec := h.serve(http.MethodGet, "/audit", h.env.AuditLog, "/audit", nil, &sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestAuditLog_QueryFailure(t *testing.T) {
	h := newHarness(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	h.env.Audit = audit.NewRecorder(db, h.env.Logger)
	mock.ExpectQuery("SELECT (.+) FROM dashboard_audit_events").WillReturnError(errors.New("connection reset"))

	sess := h.adminSession()
	rec := h.serve(http.MethodGet, "/audit", h.env.AuditLog, "/audit", nil, &sess)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
