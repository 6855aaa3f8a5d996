package outputs

import (
	stdcsv "encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/models"
)

func nd(s string) decimal.NullDecimal {
	d, _ := decimal.NewFromString(s)
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func TestWriterHonorsEnabledOutputs(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(log.Default(), dir, []string{OutChecks})

	if !w.Enabled(OutChecks) || w.Enabled(OutRawText) {
		t.Fatalf("Unexpected enabled outputs: %+v", w.enabled)
	}

	if err := w.WriteText("statement.nai", "raw", []string{"01,A"}); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "statement.nai.raw.txt")); !os.IsNotExist(err) {
		t.Error("Expected no raw dump when raw_text is disabled")
	}

	if err := w.WriteTables("statement.nai", &models.Tables{}, nil); err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "statement.nai.accounts.csv")); !os.IsNotExist(err) {
		t.Error("Expected no tables when the output is disabled")
	}
}

func TestWriteChecks(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(log.Default(), dir, []string{OutChecks})

	results := []checks.Result{{
		FileName:   "statement.nai",
		GroupID:    checks.NA,
		CheckName:  checks.CheckFileControlTotalA,
		Control:    nd("201"),
		Calculated: nd("201"),
		Status:     checks.Pass,
	}}
	if err := w.WriteChecks(results); err != nil {
		t.Fatalf("WriteChecks failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "checks.csv"))
	if err != nil {
		t.Fatalf("Failed to open checks.csv: %v", err)
	}
	defer f.Close()

	records, err := stdcsv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read checks.csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected a header and 1 row, got %d records", len(records))
	}
	if records[1][3] != checks.CheckFileControlTotalA || records[1][7] != "PASS" {
		t.Errorf("Unexpected checks row: %v", records[1])
	}
}

func TestWriteText(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(log.Default(), dir, []string{OutRawText, OutCleanText})

	if err := w.WriteText("statement.nai", "raw content\n", []string{"01,A", "02,B"}); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "statement.nai.raw.txt"))
	if err != nil {
		t.Fatalf("Failed to read the raw dump: %v", err)
	}
	if string(raw) != "raw content\n" {
		t.Errorf("Expected the raw content byte for byte, got %q", raw)
	}

	clean, err := os.ReadFile(filepath.Join(dir, "statement.nai.clean.txt"))
	if err != nil {
		t.Fatalf("Failed to read the clean dump: %v", err)
	}
	if string(clean) != "01,A\n02,B" {
		t.Errorf("Expected one record per line, got %q", clean)
	}
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(log.Default(), dir, []string{OutTables})

	tables := &models.Tables{
		FileMetadata: []models.FileMetadataRow{{
			FileMetadataID:    "F1",
			FileControlTotalA: nd("201"),
			NumberOfGroups:    models.Int64From(1),
		}},
	}
	if err := w.WriteTables("statement.nai", tables, nil); err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "statement.nai.file_metadata.csv"))
	if err != nil {
		t.Fatalf("Failed to open the file metadata table: %v", err)
	}
	defer f.Close()

	records, err := stdcsv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read the file metadata table: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected a header and 1 row, got %d records", len(records))
	}

	row := records[1]
	if row[0] != "F1" || row[6] != "201" || row[7] != "1" {
		t.Errorf("Unexpected file metadata row: %v", row)
	}
	// number_of_records never arrived, so its cell stays empty.
	if row[8] != "" {
		t.Errorf("Expected an empty cell for the absent count, got %q", row[8])
	}

	// Without a structured view only the four flat tables appear.
	if _, err := os.Stat(filepath.Join(dir, "statement.nai.accounts_structured.csv")); !os.IsNotExist(err) {
		t.Error("Expected no structured table without a structured view")
	}
}
