package hazardlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func newTestSheetsStore(t *testing.T, handler http.HandlerFunc) *SheetsStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewSheetsStore(context.Background(),
		SheetsConfig{SpreadsheetID: "sheet-123"},
		testLogger(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return store
}

func TestSheetsStore_AppendRows(t *testing.T) {
	store := newTestSheetsStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-123/values/"), r.URL.Path)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Contains(t, r.URL.Path, "Sheet1!A:H")
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))

		var body struct {
			Values [][]any `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Values, 1)
		require.Len(t, body.Values[0], NumColumns)
		assert.Equal(t, "Demo Worker", body.Values[0][ColWorker])
		assert.Equal(t, float64(85), body.Values[0][ColSeverity])
		assert.Equal(t, "Open", body.Values[0][ColStatus])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRange":"Sheet1!A2:H2","updatedRows":1,"updatedColumns":8,"updatedCells":8}}`))
	})

	row := BuildRow(testReport(), time.Date(2026, 1, 15, 17, 5, 0, 0, time.UTC), time.UTC)
	n, err := store.AppendRows(context.Background(), []Row{row})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSheetsStore_MissingUpdatesIsAnError(t *testing.T) {
	for name, body := range map[string]string{
		"no updates block": `{"spreadsheetId":"sheet-123"}`,
		"zero rows":        `{"spreadsheetId":"sheet-123","updates":{"updatedRows":0}}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := newTestSheetsStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			row := BuildRow(testReport(), time.Now(), time.UTC)
			n, err := store.AppendRows(context.Background(), []Row{row})
			require.Error(t, err)
			assert.Zero(t, n)
			assert.True(t, errors.Is(err, ErrUnconfirmed))

			var se *StoreError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "sheets", se.Store)
		})
	}
}

func TestSheetsStore_PermissionDenied(t *testing.T) {
	store := newTestSheetsStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`))
	})

	row := BuildRow(testReport(), time.Now(), time.UTC)
	_, err := store.AppendRows(context.Background(), []Row{row})
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
	assert.Contains(t, err.Error(), "does not have permission")
}

func TestNewSheetsStore_RequiresSpreadsheetID(t *testing.T) {
	_, err := NewSheetsStore(context.Background(), SheetsConfig{}, testLogger(), option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestWrapSheetsError(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrAccessDenied},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		err := wrapSheetsError(&googleapi.Error{Code: tt.code, Message: "upstream"})
		assert.ErrorIs(t, err, tt.want)
	}

	assert.True(t, IsRateLimited(wrapSheetsError(&googleapi.Error{Code: http.StatusTooManyRequests})))

	err := wrapSheetsError(&googleapi.Error{Code: http.StatusInternalServerError, Message: "backend"})
	assert.Contains(t, err.Error(), "status 500")
}
