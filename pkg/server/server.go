package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/config"
	"github.com/tyefraser/nab-nai-files/pkg/csv"
	"github.com/tyefraser/nab-nai-files/pkg/service"
)

// Server exposes the NAI pipeline over HTTP: a statement is uploaded,
// parsed and checked in one request, and the checks report can then be
// fetched back as CSV.
type Server struct {
	config    *config.Config
	logger    *log.Logger
	mux       *http.ServeMux
	template  *template.Template
	processor *service.Processor
	reports   sync.Map
}

// New creates a new HTTP server around one processor.
func New(cfg *config.Config, logger *log.Logger, codes codetable.Lookup) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		template:  template.Must(template.New("index").Parse(indexHTML)),
		processor: service.NewProcessor(cfg, logger, codes),
	}
	s.setupRoutes()
	return s
}

// Handler returns the route table, so callers and tests can mount the
// server without opening a listener.
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	// homepage
	s.mux.HandleFunc("/", s.withLogging(s.handleHome))

	// upload + checks endpoint, report download
	s.mux.HandleFunc("/api/process", s.withLogging(s.handleProcess))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := s.template.ExecuteTemplate(w, "index", nil); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to render page", err)
	}
}

// CheckRow is a simplified check result for JSON responses. Absent
// control and calculated values serialize as empty strings.
type CheckRow struct {
	FileName      string `json:"file_name"`
	GroupID       string `json:"group_id"`
	AccountNumber string `json:"account_number"`
	CheckName     string `json:"check_name"`
	Control       string `json:"control_value"`
	Calculated    string `json:"calculated_value"`
	Difference    string `json:"difference"`
	Status        string `json:"status"`
}

// ---------------- consolidated handler ----------------
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	// read file
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read file", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return
	}

	result, err := s.processor.ProcessBytes(data, header.Filename)
	if err != nil {
		s.respondError(w, r, http.StatusUnprocessableEntity, "failed to process file", err)
		return
	}

	// keep the checks around for the download endpoint
	reportName := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)) + "-checks.csv"
	s.reports.Store(reportName, result.Checks)

	rows := make([]CheckRow, len(result.Checks))
	for i, c := range result.Checks {
		rows[i] = CheckRow{
			FileName:      c.FileName,
			GroupID:       c.GroupID,
			AccountNumber: c.AccountNumber,
			CheckName:     c.CheckName,
			Control:       csv.Decimal(c.Control),
			Calculated:    csv.Decimal(c.Calculated),
			Difference:    c.Difference.String(),
			Status:        string(c.Status),
		}
	}

	report := checks.NewReport(result.Checks)
	s.logger.Info("processed statement", "file", header.Filename,
		"checks", len(result.Checks), "fail", report.Count(checks.Fail))

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"file":         reportName,
		"groups":       len(result.Tables.Groups),
		"accounts":     len(result.Tables.Accounts),
		"transactions": len(result.Tables.Transactions),
		"summary": map[string]int{
			"pass":    report.Count(checks.Pass),
			"fail":    report.Count(checks.Fail),
			"missing": report.Count(checks.Missing),
			"unknown": report.Count(checks.Unknown),
		},
		"checks": rows,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// ---------------- report download handler ----------------

// handleFiles serves the checks CSV for a previously processed statement.
// A status query parameter narrows the download to one status, e.g.
// /api/files/name-checks.csv?status=FAIL.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	value, ok := s.reports.Load(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}
	results, ok := value.([]checks.Result)
	if !ok {
		s.respondError(w, r, http.StatusInternalServerError, "internal type assertion error", nil)
		return
	}

	var filter csv.FilterFunc
	if status := r.URL.Query().Get("status"); status != "" {
		filter = csv.ByStatus(checks.Status(strings.ToUpper(status)))
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(csv.Checks(results, filter)); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}

// indexHTML is the one page the server ships: an upload form posting a
// statement to /api/process and a table for the returned checks.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>NAI statement checks</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; margin-top: 1em; }
    td, th { border: 1px solid #ccc; padding: 4px 8px; }
    .FAIL { color: #b00; }
    .PASS { color: #080; }
  </style>
</head>
<body>
  <h1>NAI statement checks</h1>
  <form id="upload" enctype="multipart/form-data">
    <input type="file" name="statement" required>
    <button type="submit">Process</button>
  </form>
  <p id="summary"></p>
  <table id="results"></table>
  <script>
  document.getElementById("upload").addEventListener("submit", async function (e) {
    e.preventDefault();
    const resp = await fetch("/api/process", { method: "POST", body: new FormData(e.target) });
    const body = await resp.json();
    const summary = document.getElementById("summary");
    if (body.status !== "success") {
      summary.textContent = "error: " + body.error;
      return;
    }
    const s = body.summary;
    summary.innerHTML = "pass " + s.pass + " / fail " + s.fail +
      " / missing " + s.missing + " / unknown " + s.unknown +
      ' &middot; <a href="/api/files/' + body.file + '">download csv</a>';
    const table = document.getElementById("results");
    table.innerHTML = "<tr><th>Group</th><th>Account</th><th>Check</th>" +
      "<th>Control</th><th>Calculated</th><th>Difference</th><th>Status</th></tr>";
    for (const row of body.checks) {
      const tr = table.insertRow();
      const cells = [row.group_id, row.account_number, row.check_name,
        row.control_value, row.calculated_value, row.difference, row.status];
      for (const cell of cells) {
        tr.insertCell().textContent = cell;
      }
      tr.className = row.status;
    }
  });
  </script>
</body>
</html>
`
