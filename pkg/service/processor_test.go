package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/config"
)

// sampleNAI reconciles fully: one credit of 50.00 against an account
// declaring a closing balance of 100.00, credits of 50.00 and a credit
// count of 1.00, giving control totals of 201.00 at every level.
const sampleNAI = `01,BNZA,AUSTCORP,250301,1200,1/
02,AUSTCORP,BNZA,1,250301,1330/
03,123456789,AUD,015,10000,100,5000,102,100,400,0,402,0/
16,195,5000,1,REF1,TRANSFER FROM CUSTOMER A/
49,20100,20100/
98,20100,1,20100/
99,20100,1,9,20100/
`

func testProcessor(cfg *config.Config) *Processor {
	codes := codetable.New(map[string]string{"195": "CR"}, nil, nil)
	return NewProcessor(cfg, log.Default(), codes)
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.nai")
	if err := os.WriteFile(path, []byte(sampleNAI), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	result, err := testProcessor(&config.Config{}).ProcessFile(path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if result.FileName != "statement.nai" {
		t.Errorf("Expected file name statement.nai, got %s", result.FileName)
	}
	if len(result.Files) != 1 {
		t.Fatalf("Expected 1 logical file, got %d", len(result.Files))
	}
	if result.Structured == nil || len(result.Structured.Accounts) != 1 {
		t.Fatalf("Expected 1 structured account, got %+v", result.Structured)
	}
	if len(result.Checks) != 12 {
		t.Fatalf("Expected 12 check results, got %d", len(result.Checks))
	}

	report := checks.NewReport(result.Checks)
	if report.Count(checks.Fail) != 0 {
		t.Errorf("Expected no failed checks, got %d: %+v", report.Count(checks.Fail), report.Failures())
	}
	if report.Count(checks.Pass) != 11 || report.Count(checks.Unknown) != 1 {
		t.Errorf("Expected 11 passing and 1 unknown check, got %d and %d",
			report.Count(checks.Pass), report.Count(checks.Unknown))
	}
}

func TestProcessFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.nai")

	result, err := testProcessor(&config.Config{}).ProcessFile(path)
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}

	var missing *MissingFileError
	if !errors.As(err, &missing) {
		t.Errorf("Expected a MissingFileError, got %T", err)
	} else if missing.Path != path {
		t.Errorf("Expected the path on the error, got %q", missing.Path)
	}
	if result == nil || result.Err == nil {
		t.Error("Expected the result to carry the error as well")
	}
}

func TestProcessBytesStructuringFailure(t *testing.T) {
	// Two file headers in one physical file cannot be structured.
	data := []byte("01,BNZA,AUSTCORP,250301,1200,1/\n01,BNZA,AUSTCORP,250301,1200,2/\n")

	result, err := testProcessor(&config.Config{}).ProcessBytes(data, "double.nai")
	if err == nil {
		t.Fatal("Expected a structuring error")
	}
	if result.Err == nil {
		t.Error("Expected the result to carry the error")
	}
	if len(result.Files) != 2 {
		t.Errorf("Expected the parsed trees kept on failure, got %d", len(result.Files))
	}
	if result.Checks != nil {
		t.Errorf("Expected no checks after a structuring failure, got %d", len(result.Checks))
	}
}

func TestProcessFolder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "good.nai"), []byte(sampleNAI), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.nai"),
		[]byte("01,BNZA,AUSTCORP,250301,1200,1/\n01,BNZA,AUSTCORP,250301,1200,2/\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	batch, err := testProcessor(&config.Config{Workers: 2}).ProcessFolder(dir)
	if err != nil {
		t.Fatalf("ProcessFolder failed: %v", err)
	}

	if batch.RunID == "" {
		t.Error("Expected a run id on the batch")
	}
	if len(batch.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(batch.Results))
	}
	if batch.Failed() != 1 {
		t.Errorf("Expected 1 failed file, got %d", batch.Failed())
	}
	if batch.Results["bad.nai"].Err == nil {
		t.Error("Expected the bad file to fail on its own")
	}
	if batch.Results["good.nai"].Err != nil {
		t.Errorf("Expected the good file unaffected, got %v", batch.Results["good.nai"].Err)
	}
	if len(batch.Checks) != 12 {
		t.Errorf("Expected only the good file's checks merged, got %d", len(batch.Checks))
	}

	names := batch.FileNames()
	if len(names) != 2 || names[0] != "bad.nai" || names[1] != "good.nai" {
		t.Errorf("Expected sorted file names, got %v", names)
	}
}

func TestProcessFolderMissingDir(t *testing.T) {
	if _, err := testProcessor(&config.Config{}).ProcessFolder(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("Expected an error for a missing folder")
	}
}
