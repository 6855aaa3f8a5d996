package outputs

import (
	stdcsv "encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/csv"
	"github.com/tyefraser/nab-nai-files/pkg/models"
)

// Output names accepted in the outputs config list.
const (
	OutChecks    = "checks"
	OutRawText   = "raw_text"
	OutCleanText = "clean_text"
	OutTables    = "tables"
)

// Writer materializes processing results under one output folder. Every
// Write method is a no-op unless its output name was enabled, so callers
// can invoke all of them unconditionally.
type Writer struct {
	logger  *log.Logger
	dir     string
	enabled map[string]bool
}

func NewWriter(logger *log.Logger, dir string, outputs []string) *Writer {
	enabled := make(map[string]bool, len(outputs))
	for _, name := range outputs {
		enabled[strings.TrimSpace(name)] = true
	}
	return &Writer{
		logger:  logger,
		dir:     dir,
		enabled: enabled,
	}
}

// Enabled reports whether an output name was requested.
func (w *Writer) Enabled(name string) bool { return w.enabled[name] }

// WriteChecks writes the merged checks report to checks.csv.
func (w *Writer) WriteChecks(results []checks.Result) error {
	if !w.enabled[OutChecks] {
		return nil
	}
	return w.writeFile("checks.csv", csv.Checks(results, nil))
}

// WriteText writes the raw and cleaned content dumps for one input file,
// whichever of the two are enabled. The raw dump is byte for byte what
// was read.
func (w *Writer) WriteText(fileName, raw string, cleaned []string) error {
	if w.enabled[OutRawText] {
		if err := w.writeFile(fileName+".raw.txt", []byte(raw)); err != nil {
			return err
		}
	}
	if w.enabled[OutCleanText] {
		if err := w.writeFile(fileName+".clean.txt", []byte(strings.Join(cleaned, "\n"))); err != nil {
			return err
		}
	}
	return nil
}

// WriteTables writes the flat tables of one input file, plus the
// structured views when available.
func (w *Writer) WriteTables(fileName string, t *models.Tables, s *models.Structured) error {
	if !w.enabled[OutTables] || t == nil {
		return nil
	}

	if err := w.writeCSV(fileName+".file_metadata.csv", fileMetadataRows(t.FileMetadata)); err != nil {
		return err
	}
	if err := w.writeCSV(fileName+".groups.csv", groupRows(t.Groups)); err != nil {
		return err
	}
	if err := w.writeCSV(fileName+".accounts.csv", accountRows(t.Accounts)); err != nil {
		return err
	}
	if err := w.writeCSV(fileName+".transactions.csv", transactionRows(t.Transactions)); err != nil {
		return err
	}

	if s == nil {
		return nil
	}
	if err := w.writeCSV(fileName+".accounts_structured.csv", structuredAccountRows(s.Accounts)); err != nil {
		return err
	}
	return w.writeCSV(fileName+".transactions_structured.csv", transactionRows(s.Transactions))
}

func (w *Writer) create(name string) (*os.File, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}
	return os.Create(filepath.Join(w.dir, name))
}

func (w *Writer) writeFile(name string, data []byte) error {
	f, err := w.create(name)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	w.logger.Debug("wrote output", "file", name, "bytes", len(data))
	return nil
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	f, err := w.create(name)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := stdcsv.NewWriter(f).WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	w.logger.Debug("wrote output", "file", name, "rows", len(rows)-1)
	return nil
}

func renderCount(n models.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

func fileMetadataRows(rows []models.FileMetadataRow) [][]string {
	out := [][]string{{
		"file_metadata_id", "sender_identification", "receiver_identification",
		"creation_date", "creation_time", "sequence_number",
		"file_control_total_a", "number_of_groups", "number_of_records",
		"file_control_total_b",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.FileMetadataID, r.SenderIdentification, r.ReceiverIdentification,
			r.CreationDate, r.CreationTime, r.SequenceNumber,
			csv.Decimal(r.FileControlTotalA), renderCount(r.NumberOfGroups),
			renderCount(r.NumberOfRecords), csv.Decimal(r.FileControlTotalB),
		})
	}
	return out
}

func groupRows(rows []models.GroupRow) [][]string {
	out := [][]string{{
		"file_metadata_id", "group_id", "ultimate_receiver_id", "originator_id",
		"group_status", "as_of_date", "as_of_time",
		"group_control_total_a", "group_control_total_b",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.FileMetadataID, r.GroupID, r.UltimateReceiverID, r.OriginatorID,
			r.GroupStatus, r.AsOfDate, r.AsOfTime,
			csv.Decimal(r.GroupControlTotalA), csv.Decimal(r.GroupControlTotalB),
		})
	}
	return out
}

func accountRows(rows []models.AccountRow) [][]string {
	out := [][]string{{
		"file_metadata_id", "group_id", "commercial_account_number", "currency_code",
		"closing_balance", "total_credits", "number_of_credit_transactions",
		"total_debits", "number_of_debit_transactions",
		"account_control_total_a", "account_control_total_b",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.FileMetadataID, r.GroupID, r.CommercialAccountNumber, r.CurrencyCode,
			csv.Decimal(r.ClosingBalance), csv.Decimal(r.TotalCredits),
			csv.Decimal(r.NumberOfCreditTransactions), csv.Decimal(r.TotalDebits),
			csv.Decimal(r.NumberOfDebitTransactions),
			csv.Decimal(r.AccountControlTotalA), csv.Decimal(r.AccountControlTotalB),
		})
	}
	return out
}

func transactionRows(rows []models.TransactionRow) [][]string {
	out := [][]string{{
		"file_metadata_id", "group_id", "commercial_account_number",
		"transaction_code", "amount", "funds_type", "reference_number", "text",
		"dr_cr", "transaction_description", "statement_particulars",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.FileMetadataID, r.GroupID, r.CommercialAccountNumber,
			r.TransactionCode, csv.Decimal(r.Amount), r.FundsType,
			r.ReferenceNumber, r.Text,
			r.DrCr, r.TransactionDescription, r.StatementParticulars,
		})
	}
	return out
}

func structuredAccountRows(rows []models.StructuredAccount) [][]string {
	out := [][]string{{
		"file_metadata_id", "file_control_total_a", "number_of_groups",
		"number_of_records", "file_control_total_b", "group_id",
		"group_control_total_a", "group_control_total_b",
		"commercial_account_number", "currency_code", "closing_balance",
		"total_credits", "number_of_credit_transactions", "total_debits",
		"number_of_debit_transactions", "account_control_total_a",
		"account_control_total_b",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.FileMetadataID, csv.Decimal(r.FileControlTotalA),
			renderCount(r.NumberOfGroups), renderCount(r.NumberOfRecords),
			csv.Decimal(r.FileControlTotalB), r.GroupID,
			csv.Decimal(r.GroupControlTotalA), csv.Decimal(r.GroupControlTotalB),
			r.CommercialAccountNumber, r.CurrencyCode, csv.Decimal(r.ClosingBalance),
			csv.Decimal(r.TotalCredits), csv.Decimal(r.NumberOfCreditTransactions),
			csv.Decimal(r.TotalDebits), csv.Decimal(r.NumberOfDebitTransactions),
			csv.Decimal(r.AccountControlTotalA), csv.Decimal(r.AccountControlTotalB),
		})
	}
	return out
}
