package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpload(t *testing.T) {
	csvGood := "roll,name,email,department,year\n" +
		"20230001,Jane Doe,jane@college.edu,CSE,2\n" +
		"20230002,Ravi Kumar,ravi@college.edu,ECE,1\n"

	t.Run("admin uploads a clean file", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginAs(t, "admin@college.edu", "admin")

		rec := app.doUpload(t, "/api/v1/students/bulk-upload", "students.csv", []byte(csvGood), cookie)

		require.Equal(t, http.StatusOK, rec.Code)
		var result struct {
			Added  int      `json:"added"`
			Errors []string `json:"errors"`
		}
		decodeData(t, rec, &result)
		assert.Equal(t, 2, result.Added)
		assert.Empty(t, result.Errors)
		assert.Len(t, app.states.doc.Students, 2)
	})

	t.Run("partially bad file commits good rows as multi-status", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginAs(t, "admin@college.edu", "admin")

		csvMixed := "roll,name,email,department,year\n" +
			"20230001,Jane Doe,jane@college.edu,CSE,2\n" +
			"20230002,Bad Email,not-an-email,ECE,1\n"

		rec := app.doUpload(t, "/api/v1/students/bulk-upload", "students.csv", []byte(csvMixed), cookie)

		require.Equal(t, http.StatusMultiStatus, rec.Code)

		// even a multi-status body uses the standard response envelope
		var envelope struct {
			Success bool `json:"success"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.True(t, envelope.Success)

		var result struct {
			Added  int      `json:"added"`
			Errors []string `json:"errors"`
		}
		decodeData(t, rec, &result)
		assert.Equal(t, 1, result.Added)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "row 3")
	})

	t.Run("missing required column fails the whole upload", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginAs(t, "admin@college.edu", "admin")

		rec := app.doUpload(t, "/api/v1/students/bulk-upload", "students.csv",
			[]byte("roll,name\n1,x\n"), cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, app.states.doc.Students)
	})

	t.Run("missing file part is a 400", func(t *testing.T) {
		app := newTestApp(t)
		_, cookie := app.loginAs(t, "admin@college.edu", "admin")

		rec := app.doJSON(t, http.MethodPost, "/api/v1/students/bulk-upload", map[string]any{}, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("office can upload but students cannot", func(t *testing.T) {
		app := newTestApp(t)
		_, officeCookie := app.loginAs(t, "office@college.edu", "office")
		rec := app.doUpload(t, "/api/v1/students/bulk-upload", "students.csv", []byte(csvGood), officeCookie)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, studentCookie := app.loginAsStudent(t, "20230099")
		rec = app.doUpload(t, "/api/v1/students/bulk-upload", "students.csv", []byte(csvGood), studentCookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSampleCSV(t *testing.T) {
	app := newTestApp(t)

	// the template is public
	rec := app.doJSON(t, http.MethodGet, "/api/v1/students/sample-csv", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "students-sample.csv")
	assert.Contains(t, rec.Body.String(), "roll,name,email,department,year")
}
