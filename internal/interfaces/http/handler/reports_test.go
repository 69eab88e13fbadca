package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReports(t *testing.T) {
	// submit and approve one payment so every export has a row
	seed := func(t *testing.T, app *testApp) {
		t.Helper()
		_, studentCookie := app.loginAsStudent(t, "20230001")
		app.allocate(t, "20230001", "fee_tuition", 1000)
		rec := app.doJSON(t, http.MethodPost, "/api/v1/payments", submitBody("20230001", 600), studentCookie)
		require.Equal(t, http.StatusCreated, rec.Code)
		var payment struct {
			ID string `json:"id"`
		}
		decodeData(t, rec, &payment)

		_, officeCookie := app.loginAs(t, "approver@college.edu", "office")
		require.Equal(t, http.StatusOK,
			app.doJSON(t, http.MethodPost, "/api/v1/payments/"+payment.ID+"/approve", nil, officeCookie).Code)
	}

	t.Run("approved export lists receipts", func(t *testing.T) {
		app := newTestApp(t)
		seed(t, app)
		_, cookie := app.loginAs(t, "faculty@college.edu", "faculty")

		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/approved.csv", nil, cookie)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "approved-payments.csv")

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "Receipt")
		assert.Contains(t, lines[1], "PMC-")
	})

	t.Run("rejected export is header-only when nothing was rejected", func(t *testing.T) {
		app := newTestApp(t)
		seed(t, app)
		_, cookie := app.loginAs(t, "faculty@college.edu", "faculty")

		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/rejected.csv", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 1)
	})

	t.Run("outstanding export shows the remaining balance", func(t *testing.T) {
		app := newTestApp(t)
		seed(t, app)
		_, cookie := app.loginAs(t, "principal@college.edu", "principal")

		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/outstanding.csv", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "₹ 400.00")
	})

	t.Run("outstanding export can be scoped to a department", func(t *testing.T) {
		app := newTestApp(t)
		seed(t, app)
		_, cookie := app.loginAs(t, "principal@college.edu", "principal")

		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/outstanding.csv?department=CSE", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "20230001")

		rec = app.doJSON(t, http.MethodGet, "/api/v1/reports/outstanding.csv?department=ECE", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, strings.Split(strings.TrimSpace(rec.Body.String()), "\n"), 1)
	})

	t.Run("students cannot export reports", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginAsStudent(t, "20230001")

		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/approved.csv", nil, cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous export is unauthorized", func(t *testing.T) {
		app := newTestApp(t)
		rec := app.doJSON(t, http.MethodGet, "/api/v1/reports/approved.csv", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
