package checks

// Package checks recomputes the control totals an NAI file declares about
// itself and compares them with what the parsed data actually adds up to.
// It is intentionally isolated from parsing and IO so that the CLI, the
// batch processor and a future frontend can reuse the same results.

import (
	"github.com/shopspring/decimal"

	"github.com/tyefraser/nab-nai-files/pkg/models"
)

// Status classifies the outcome of a single check.
//
//   - Pass:    control and calculated values agree.
//   - Fail:    they do not.
//   - Missing: the file never supplied the control value.
//   - Unknown: nothing can be recomputed for this control.
type Status string

const (
	Pass    Status = "PASS"
	Fail    Status = "FAIL"
	Missing Status = "MISSING"
	Unknown Status = "UNKNOWN"
)

// Check names as they appear in the report, numbered in the order the
// file format lists the control fields.
const (
	CheckFileControlTotalA    = "CHECK 01: file_control_total_a"
	CheckNumberOfGroups       = "CHECK 02: number_of_groups"
	CheckNumberOfRecords      = "CHECK 03: number_of_records"
	CheckFileControlTotalB    = "CHECK 04: file_control_total_b"
	CheckGroupControlTotalA   = "CHECK 05: group_control_total_a"
	CheckGroupControlTotalB   = "CHECK 06: group_control_total_b"
	CheckTotalCredits         = "CHECK 07: total credits"
	CheckCreditCount          = "CHECK 08: Count of credit transactions"
	CheckTotalDebits          = "CHECK 09: total debits"
	CheckDebitCount           = "CHECK 10: Count of debit transactions"
	CheckAccountControlTotalA = "CHECK 11: account_control_total_a"
	CheckAccountControlTotalB = "CHECK 12: account_control_total_b"
)

// NA fills the scope columns of checks that sit above group or account
// level.
const NA = "NA"

// Result is one row of the checks report. Difference is always calculated
// minus control, with absent values counting as zero.
type Result struct {
	FileName      string
	GroupID       string
	AccountNumber string
	CheckName     string
	Control       decimal.NullDecimal
	Calculated    decimal.NullDecimal
	Difference    decimal.Decimal
	Status        Status
}

// Run recomputes every check for the tables of one logical file. Results
// come out file checks first, then per group and per account in the order
// their rows were projected.
func Run(fileName string, t *models.Tables) []Result {
	var results []Result

	if len(t.FileMetadata) > 0 {
		meta := t.FileMetadata[0]

		var groupTotalA, groupTotalB decimal.Decimal
		for _, g := range t.Groups {
			groupTotalA = groupTotalA.Add(g.GroupControlTotalA.Decimal)
			groupTotalB = groupTotalB.Add(g.GroupControlTotalB.Decimal)
		}

		groupCount := decimal.NewFromInt(int64(len(t.Groups)))
		results = append(results,
			newResult(fileName, NA, NA, CheckFileControlTotalA, meta.FileControlTotalA, present(groupTotalA)),
			newResult(fileName, NA, NA, CheckNumberOfGroups, countControl(meta.NumberOfGroups), present(groupCount)),
			unknownResult(fileName, NA, NA, CheckNumberOfRecords, countControl(meta.NumberOfRecords)),
			newResult(fileName, NA, NA, CheckFileControlTotalB, meta.FileControlTotalB, present(groupTotalB)),
		)
	}

	for _, g := range t.Groups {
		var acctTotalA, acctTotalB decimal.Decimal
		for _, a := range t.Accounts {
			if a.GroupID != g.GroupID {
				continue
			}
			acctTotalA = acctTotalA.Add(a.AccountControlTotalA.Decimal)
			acctTotalB = acctTotalB.Add(a.AccountControlTotalB.Decimal)
		}

		results = append(results,
			newResult(fileName, g.GroupID, NA, CheckGroupControlTotalA, g.GroupControlTotalA, present(acctTotalA)),
			newResult(fileName, g.GroupID, NA, CheckGroupControlTotalB, g.GroupControlTotalB, present(acctTotalB)),
		)

		for _, a := range t.Accounts {
			if a.GroupID != g.GroupID {
				continue
			}
			results = append(results, accountChecks(fileName, g.GroupID, a, t.Transactions)...)
		}
	}

	return results
}

// counted reports whether a transaction code takes part in recomputed
// totals. Codes 910 and 915 mark informational entries that appear on the
// statement without moving money.
func counted(code string) bool {
	return code != "910" && code != "915"
}

func accountChecks(fileName, groupID string, a models.AccountRow, transactions []models.TransactionRow) []Result {
	var (
		credits     decimal.Decimal
		creditCount int64
		debits      decimal.Decimal
		debitCount  int64
		amounts     decimal.Decimal
	)

	for _, tx := range transactions {
		if tx.GroupID != groupID || tx.CommercialAccountNumber != a.CommercialAccountNumber {
			continue
		}
		if tx.DrCr == "CR" && counted(tx.TransactionCode) {
			credits = credits.Add(tx.Amount.Decimal)
			creditCount++
		}
		if tx.DrCr == "DR" {
			debits = debits.Add(tx.Amount.Decimal)
			debitCount++
		}
		if counted(tx.TransactionCode) {
			amounts = amounts.Add(tx.Amount.Decimal)
		}
	}

	// Checks 11 and 12 recompute one and the same formula; the file
	// format just carries two control fields for it.
	controlTotal := a.ClosingBalance.Decimal.
		Add(a.TotalCredits.Decimal).
		Add(a.NumberOfCreditTransactions.Decimal).
		Add(a.TotalDebits.Decimal).
		Add(a.NumberOfDebitTransactions.Decimal).
		Add(amounts)

	account := a.CommercialAccountNumber
	return []Result{
		newResult(fileName, groupID, account, CheckTotalCredits, a.TotalCredits, present(credits)),
		newResult(fileName, groupID, account, CheckCreditCount, a.NumberOfCreditTransactions, present(decimal.NewFromInt(creditCount))),
		newResult(fileName, groupID, account, CheckTotalDebits, a.TotalDebits, present(debits)),
		newResult(fileName, groupID, account, CheckDebitCount, a.NumberOfDebitTransactions, present(decimal.NewFromInt(debitCount))),
		newResult(fileName, groupID, account, CheckAccountControlTotalA, a.AccountControlTotalA, present(controlTotal)),
		newResult(fileName, groupID, account, CheckAccountControlTotalB, a.AccountControlTotalB, present(controlTotal)),
	}
}

func present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func countControl(n models.NullInt64) decimal.NullDecimal {
	if !n.Valid {
		return decimal.NullDecimal{}
	}
	return present(decimal.NewFromInt(n.Int64))
}

// newResult fills in the difference and status. Absent values count as
// zero in the difference but not in the status: a control the file never
// supplied is flagged Missing no matter what the difference says.
func newResult(fileName, groupID, accountNumber, checkName string, control, calculated decimal.NullDecimal) Result {
	difference := calculated.Decimal.Sub(control.Decimal)

	status := Fail
	switch {
	case !control.Valid:
		status = Missing
	case difference.IsZero():
		status = Pass
	}

	return Result{
		FileName:      fileName,
		GroupID:       groupID,
		AccountNumber: accountNumber,
		CheckName:     checkName,
		Control:       control,
		Calculated:    calculated,
		Difference:    difference,
		Status:        status,
	}
}

func unknownResult(fileName, groupID, accountNumber, checkName string, control decimal.NullDecimal) Result {
	r := newResult(fileName, groupID, accountNumber, checkName, control, decimal.NullDecimal{})
	r.Status = Unknown
	return r
}

// Report wraps the results of one processing run with the tallies callers
// display, so they do not re-walk the rows.
type Report struct {
	Items []Result
}

func NewReport(items []Result) *Report {
	return &Report{Items: items}
}

// Count returns how many results carry the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the rows that did not reconcile.
func (r *Report) Failures() []Result {
	var out []Result
	for _, item := range r.Items {
		if item.Status == Fail {
			out = append(out, item)
		}
	}
	return out
}
