package clinical

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/audit/audittest"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/types"
)

func TestReportEndpointEntersAuditChain(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "batch.csv", reportHeader+
		"2020-04-07,RT-PCR,Positive,52,TRUE,TRUE,101.3,96,TRUE,Severe,TRUE,TRUE,Mild,94,Normal\n"+
		"2020-04-07,RT-PCR,Negative,33,FALSE,FALSE,98.6,72,FALSE,,FALSE,FALSE,,99,Normal\n")

	trail := &audittest.Log{}
	h := NewHandler(newTestAssembler(t, dir), trail)

	user := &auth.User{ID: types.NewID(), LoginID: "dreyes", Role: auth.RoleUser}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, user))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := trail.List(context.Background(), audit.ListFilter{Action: audit.ActionReportBuilt})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, user.ID, entry.ActorID)
	assert.Equal(t, "report", entry.Resource)
	assert.Equal(t, 2, entry.Details["rows"])

	broken, err := trail.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(-1), broken)
}

func TestReportEndpointWithoutAuditLog(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "batch.csv", reportHeader+
		"2020-04-07,RT-PCR,Positive,52,TRUE,TRUE,101.3,96,TRUE,Severe,TRUE,TRUE,Mild,94,Normal\n")

	h := NewHandler(newTestAssembler(t, dir), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
