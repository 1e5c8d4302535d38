package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
)

func newTestServer(t *testing.T, maxBytes int64) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(Config{Analysis: analysis.DefaultOptions(), MaxUploadBytes: maxBytes}, logger)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, ts *httptest.Server, body io.Reader, contentType string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestUpload_CSV(t *testing.T) {
	ts := newTestServer(t, 0)
	csv := "客户等级名称,理财师,\"客户正行产品存量(人民币,不含雪球)\"\nA,张,\"1,000\"\nB,李,200\nA,,x\n"
	body, ct := multipartBody(t, "file", "tiers.csv", []byte(csv))

	resp, out := postUpload(t, ts, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, out["id"])
	assert.Equal(t, out["id"], resp.Header.Get(RequestIDHeader))

	rep := out["report"].(map[string]any)
	assert.Equal(t, "tiers.csv", rep["filename"])
	assert.EqualValues(t, 3, rep["num_rows"])
	assert.EqualValues(t, 3, rep["num_cols"])
	dims := rep["dimensions"].(map[string]any)
	assert.Contains(t, dims, "customer_tier")
	assert.Contains(t, dims, "advisor:理财师")
	tier := dims["customer_tier"].([]any)
	require.Len(t, tier, 2)
	assert.EqualValues(t, 2, tier[0].(map[string]any)["count"])
}

func TestUpload_OverflowingAmountsStillRender(t *testing.T) {
	ts := newTestServer(t, 0)
	csv := "客户等级名称,认申购金额人民币\nA,1e308\nA,1e308\n"
	body, ct := multipartBody(t, "file", "big.csv", []byte(csv))

	resp, out := postUpload(t, ts, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := out["report"].(map[string]any)
	assert.NotContains(t, rep, "totals")
	warnings := rep["warnings"].([]any)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], analysis.ErrOverflow.Error())
}

func TestUpload_Workbook(t *testing.T) {
	ts := newTestServer(t, 0)
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"未来会员等级", "认申购金额人民币"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"金卡", 1500}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	body, ct := multipartBody(t, "file", "Members.XLSX", buf.Bytes())
	resp, out := postUpload(t, ts, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := out["report"].(map[string]any)
	assert.Contains(t, rep["dimensions"].(map[string]any), "membership_tier")
	totals := rep["totals"].([]any)
	require.Len(t, totals, 1)
	assert.EqualValues(t, 1500, totals[0].(map[string]any)["sum"])
}

func TestUpload_NoKnownColumns(t *testing.T) {
	ts := newTestServer(t, 0)
	body, ct := multipartBody(t, "file", "misc.csv", []byte("a,b\n1,2\n"))
	resp, out := postUpload(t, ts, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := out["report"].(map[string]any)
	assert.Empty(t, rep["dimensions"])
	assert.NotNil(t, rep["dimensions"])
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		maxBytes int64
		status   int
		code     string
	}{
		{"wrong field", "upload", "a.csv", []byte("x\n1\n"), 0, http.StatusBadRequest, "MISSING_FILE"},
		{"unsupported extension", "file", "a.xls", []byte("x\n1\n"), 0, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{"empty file", "file", "a.csv", nil, 0, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"corrupt workbook", "file", "a.xlsx", []byte("not a zip"), 0, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"too large", "file", "a.csv", bytes.Repeat([]byte("x,"), 4096), 1024, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.maxBytes)
			body, ct := multipartBody(t, tt.field, tt.filename, tt.content)
			resp, out := postUpload(t, ts, body, ct)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, out["error_code"])
			assert.NotEmpty(t, out["id"])
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	ts := newTestServer(t, 0)
	resp, out := postUpload(t, ts, strings.NewReader("a,b"), "text/csv")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_FILE", out["error_code"])
}

func TestRulesAndHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "fixed-id", health["id"])

	resp, err = http.Get(ts.URL + "/api/rules")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rules struct {
		ID    string          `json:"id"`
		Rules []analysis.Rule `json:"rules"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rules))
	assert.NotEmpty(t, rules.ID)
	assert.Len(t, rules.Rules, len(analysis.DefaultRules().Rules))
}
