package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/config"
)

const sampleNAI = `01,BNZA,AUSTCORP,250301,1200,1/
02,AUSTCORP,BNZA,1,250301,1330/
03,123456789,AUD,015,10000,100,5000,102,100,400,0,402,0/
16,195,5000,1,REF1,TRANSFER FROM CUSTOMER A/
49,20100,20100/
98,20100,1,20100/
99,20100,1,9,20100/
`

func newTestServer() *Server {
	codes := codetable.New(map[string]string{"195": "CR"}, nil, nil)
	return New(&config.Config{}, log.Default(), codes)
}

func uploadStatement(t *testing.T, s *Server, name, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("statement", name)
	if err != nil {
		t.Fatalf("Failed to build the multipart body: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write the statement part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close the multipart body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleProcess(t *testing.T) {
	s := newTestServer()

	rec := uploadStatement(t, s, "statement.nai", sampleNAI)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status       string `json:"status"`
		File         string `json:"file"`
		Groups       int    `json:"groups"`
		Accounts     int    `json:"accounts"`
		Transactions int    `json:"transactions"`
		Summary      struct {
			Pass    int `json:"pass"`
			Fail    int `json:"fail"`
			Missing int `json:"missing"`
			Unknown int `json:"unknown"`
		} `json:"summary"`
		Checks []CheckRow `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode the response: %v", err)
	}

	if body.Status != "success" {
		t.Errorf("Expected a success status, got %q", body.Status)
	}
	if body.File != "statement-checks.csv" {
		t.Errorf("Expected the report named after the upload, got %q", body.File)
	}
	if body.Groups != 1 || body.Accounts != 1 || body.Transactions != 1 {
		t.Errorf("Unexpected table counts: %d/%d/%d", body.Groups, body.Accounts, body.Transactions)
	}
	if body.Summary.Pass != 11 || body.Summary.Fail != 0 || body.Summary.Unknown != 1 {
		t.Errorf("Unexpected summary: %+v", body.Summary)
	}
	if len(body.Checks) != 12 {
		t.Fatalf("Expected 12 check rows, got %d", len(body.Checks))
	}
	if body.Checks[0].Control == "" || body.Checks[0].Status != "PASS" {
		t.Errorf("Unexpected first check row: %+v", body.Checks[0])
	}
}

func TestHandleProcessRejectsGet(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/process", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestHandleProcessUnparseableUpload(t *testing.T) {
	s := newTestServer()

	// Two file headers cannot be structured into one report.
	rec := uploadStatement(t, s, "double.nai",
		"01,BNZA,AUSTCORP,250301,1200,1/\n01,BNZA,AUSTCORP,250301,1200,2/\n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleFiles(t *testing.T) {
	s := newTestServer()
	uploadStatement(t, s, "statement.nai", sampleNAI)

	req := httptest.NewRequest(http.MethodGet, "/api/files/statement-checks.csv", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected a csv content type, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 13 {
		t.Errorf("Expected a header and 12 rows, got %d lines", len(lines))
	}
}

func TestHandleFilesStatusFilter(t *testing.T) {
	s := newTestServer()
	uploadStatement(t, s, "statement.nai", sampleNAI)

	req := httptest.NewRequest(http.MethodGet, "/api/files/statement-checks.csv?status=unknown", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected a header and the one unknown row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "UNKNOWN") {
		t.Errorf("Expected the unknown check, got %q", lines[1])
	}
}

func TestHandleFilesNotFound(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/files/never-uploaded.csv", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHandleHome(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<form") {
		t.Error("Expected the upload form on the home page")
	}
}
