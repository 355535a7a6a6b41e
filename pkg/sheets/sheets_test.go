package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"muster/pkg/grid"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   string
}

func newTestClient(t *testing.T, sheetName string, handler func(w http.ResponseWriter, r *http.Request)) (*SheetClient, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: q, Body: string(body)})
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	service, err := NewService(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return NewSheetClient(service, "sheet-1", sheetName, nil), &reqs
}

func TestReadColumn(t *testing.T) {
	client, reqs := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"range":"Sheet1!A2:A1000","majorDimension":"COLUMNS","values":[["alice.smith1","bob.jones2"]]}`)
	})

	vals, err := client.ReadColumn(context.Background(), grid.IdentityRange)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"alice.smith1", "bob.jones2"}, vals)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/A2:A1000", req.Path)
	assert.Equal(t, "COLUMNS", req.Query["majorDimension"])
}

func TestReadRowEmpty(t *testing.T) {
	client, reqs := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"range":"Sheet1!B1:Z1","majorDimension":"ROWS"}`)
	})

	vals, err := client.ReadRow(context.Background(), grid.DateRange)
	require.NoError(t, err)
	assert.Empty(t, vals)
	assert.Equal(t, "ROWS", (*reqs)[0].Query["majorDimension"])
}

func TestWriteCell(t *testing.T) {
	client, reqs := newTestClient(t, "Roster", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"updatedRange":"Roster!B2","updatedCells":1}`)
	})

	err := client.WriteCell(context.Background(), "B2", "09:30:00 AM")
	require.NoError(t, err)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/v4/spreadsheets/sheet-1/values/'Roster'!B2", req.Path)
	assert.Equal(t, "RAW", req.Query["valueInputOption"])

	var body struct {
		Values [][]interface{} `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, [][]interface{}{{"09:30:00 AM"}}, body.Values)
}

func TestAppendRowReportsRow(t *testing.T) {
	client, reqs := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Sheet1!A4","updatedRows":1}}`)
	})

	row, err := client.AppendRow(context.Background(), "carol.white3")
	require.NoError(t, err)
	assert.Equal(t, 4, row)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.True(t, strings.HasSuffix(req.Path, "/values/A:A:append"), req.Path)
	assert.Equal(t, "OVERWRITE", req.Query["insertDataOption"])
}

func TestRemoteErrorsWrapUnavailable(t *testing.T) {
	client, _ := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"code":503,"message":"backend error"}}`)
	})

	_, err := client.ReadRow(context.Background(), grid.HeaderCell)
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrRemoteUnavailable)

	var gErr *googleapi.Error
	require.True(t, errors.As(err, &gErr))
	assert.Equal(t, http.StatusServiceUnavailable, gErr.Code)
}

func TestEnsureSheetExistsAddsMissingTab(t *testing.T) {
	client, reqs := newTestClient(t, "Roster", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Sheet1"}}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
	})

	require.NoError(t, client.EnsureSheetExists(context.Background()))
	require.Len(t, *reqs, 2)
	assert.Equal(t, "/v4/spreadsheets/sheet-1:batchUpdate", (*reqs)[1].Path)
	assert.Contains(t, (*reqs)[1].Body, `"title":"Roster"`)
}

func TestEnsureSheetExistsKeepsPresentTab(t *testing.T) {
	client, reqs := newTestClient(t, "Roster", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"title":"Roster"}}]}`)
	})

	require.NoError(t, client.EnsureSheetExists(context.Background()))
	assert.Len(t, *reqs, 1)
}

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"Sheet1!A7", 7, false},
		{"'Sign in'!A12:A12", 12, false},
		{"A3", 3, false},
		{"Sheet1!A", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := rowFromRange(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
