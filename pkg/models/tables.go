package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StructuringError reports a file table that cannot be denormalized into
// the structured accounts view.
type StructuringError struct {
	Rows int
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structuring requires exactly one file metadata row, got %d", e.Rows)
}

// FileMetadataRow is one row of the file_metadata table.
type FileMetadataRow struct {
	FileMetadataID         string
	SenderIdentification   string
	ReceiverIdentification string
	CreationDate           string
	CreationTime           string
	SequenceNumber         string
	FileControlTotalA      decimal.NullDecimal
	NumberOfGroups         NullInt64
	NumberOfRecords        NullInt64
	FileControlTotalB      decimal.NullDecimal
}

// GroupRow is one row of the groups table. It deliberately omits
// number_of_accounts, which lives only on the tree.
type GroupRow struct {
	FileMetadataID     string
	GroupID            string
	UltimateReceiverID string
	OriginatorID       string
	GroupStatus        string
	AsOfDate           string
	AsOfTime           string
	GroupControlTotalA decimal.NullDecimal
	GroupControlTotalB decimal.NullDecimal
}

// AccountRow is one row of the accounts table, restricted to the columns
// the reconciliation checks read.
type AccountRow struct {
	FileMetadataID             string
	GroupID                    string
	CommercialAccountNumber    string
	CurrencyCode               string
	ClosingBalance             decimal.NullDecimal
	TotalCredits               decimal.NullDecimal
	NumberOfCreditTransactions decimal.NullDecimal
	TotalDebits                decimal.NullDecimal
	NumberOfDebitTransactions  decimal.NullDecimal
	AccountControlTotalA       decimal.NullDecimal
	AccountControlTotalB       decimal.NullDecimal
}

// TransactionRow is one row of the transactions table.
type TransactionRow struct {
	FileMetadataID          string
	GroupID                 string
	CommercialAccountNumber string
	TransactionCode         string
	Amount                  decimal.NullDecimal
	FundsType               string
	ReferenceNumber         string
	Text                    string
	DrCr                    string
	TransactionDescription  string
	StatementParticulars    string
}

// Tables holds the four flat tables projected from a parsed tree. Rows are
// linked by FileMetadataID, GroupID and CommercialAccountNumber.
type Tables struct {
	FileMetadata []FileMetadataRow
	Groups       []GroupRow
	Accounts     []AccountRow
	Transactions []TransactionRow
}

// StructuredAccount is one account row denormalized with its file and
// group control totals.
type StructuredAccount struct {
	FileMetadataID             string
	FileControlTotalA          decimal.NullDecimal
	NumberOfGroups             NullInt64
	NumberOfRecords            NullInt64
	FileControlTotalB          decimal.NullDecimal
	GroupID                    string
	GroupControlTotalA         decimal.NullDecimal
	GroupControlTotalB         decimal.NullDecimal
	CommercialAccountNumber    string
	CurrencyCode               string
	ClosingBalance             decimal.NullDecimal
	TotalCredits               decimal.NullDecimal
	NumberOfCreditTransactions decimal.NullDecimal
	TotalDebits                decimal.NullDecimal
	NumberOfDebitTransactions  decimal.NullDecimal
	AccountControlTotalA       decimal.NullDecimal
	AccountControlTotalB       decimal.NullDecimal
}

// Structured is the denormalized view of a single logical file.
type Structured struct {
	Accounts     []StructuredAccount
	Transactions []TransactionRow
}

// Tabulate walks the parsed trees depth first and projects them into flat
// tables. It never fails: an incomplete tree simply yields rows with
// absent values.
func Tabulate(files []*File) *Tables {
	t := &Tables{}

	for _, f := range files {
		t.FileMetadata = append(t.FileMetadata, FileMetadataRow{
			FileMetadataID:         f.FileID,
			SenderIdentification:   f.SenderIdentification,
			ReceiverIdentification: f.ReceiverIdentification,
			CreationDate:           f.CreationDate,
			CreationTime:           f.CreationTime,
			SequenceNumber:         f.SequenceNumber,
			FileControlTotalA:      f.FileControlTotalA,
			NumberOfGroups:         f.NumberOfGroups,
			NumberOfRecords:        f.NumberOfRecords,
			FileControlTotalB:      f.FileControlTotalB,
		})

		for _, g := range f.Groups {
			t.Groups = append(t.Groups, GroupRow{
				FileMetadataID:     g.FileID,
				GroupID:            g.GroupID,
				UltimateReceiverID: g.UltimateReceiverID,
				OriginatorID:       g.OriginatorID,
				GroupStatus:        g.GroupStatus,
				AsOfDate:           g.AsOfDate,
				AsOfTime:           g.AsOfTime,
				GroupControlTotalA: g.GroupControlTotalA,
				GroupControlTotalB: g.GroupControlTotalB,
			})

			for _, a := range g.Accounts {
				t.Accounts = append(t.Accounts, AccountRow{
					FileMetadataID:             a.FileID,
					GroupID:                    a.GroupID,
					CommercialAccountNumber:    a.CommercialAccountNumber,
					CurrencyCode:               a.CurrencyCode,
					ClosingBalance:             a.ClosingBalance,
					TotalCredits:               a.TotalCredits,
					NumberOfCreditTransactions: a.NumberOfCreditTransactions,
					TotalDebits:                a.TotalDebits,
					NumberOfDebitTransactions:  a.NumberOfDebitTransactions,
					AccountControlTotalA:       a.AccountControlTotalA,
					AccountControlTotalB:       a.AccountControlTotalB,
				})

				for _, tx := range a.Transactions {
					t.Transactions = append(t.Transactions, TransactionRow{
						FileMetadataID:          tx.FileID,
						GroupID:                 tx.GroupID,
						CommercialAccountNumber: tx.CommercialAccountNumber,
						TransactionCode:         tx.TransactionCode,
						Amount:                  tx.Amount,
						FundsType:               tx.FundsType,
						ReferenceNumber:         tx.ReferenceNumber,
						Text:                    tx.Text,
						DrCr:                    tx.DrCr,
						TransactionDescription:  tx.TransactionDescription,
						StatementParticulars:    tx.StatementParticulars,
					})
				}
			}
		}
	}

	return t
}

// Structure denormalizes the tables of one logical file into the
// structured accounts view. The file table must hold exactly one row,
// otherwise the file-level totals would be ambiguous.
func (t *Tables) Structure() (*Structured, error) {
	if len(t.FileMetadata) != 1 {
		return nil, &StructuringError{Rows: len(t.FileMetadata)}
	}
	meta := t.FileMetadata[0]

	groupTotals := make(map[string]GroupRow, len(t.Groups))
	for _, g := range t.Groups {
		groupTotals[g.GroupID] = g
	}

	s := &Structured{
		Accounts:     make([]StructuredAccount, 0, len(t.Accounts)),
		Transactions: append([]TransactionRow(nil), t.Transactions...),
	}

	for _, a := range t.Accounts {
		row := StructuredAccount{
			FileMetadataID:             a.FileMetadataID,
			FileControlTotalA:          meta.FileControlTotalA,
			NumberOfGroups:             meta.NumberOfGroups,
			NumberOfRecords:            meta.NumberOfRecords,
			FileControlTotalB:          meta.FileControlTotalB,
			GroupID:                    a.GroupID,
			CommercialAccountNumber:    a.CommercialAccountNumber,
			CurrencyCode:               a.CurrencyCode,
			ClosingBalance:             a.ClosingBalance,
			TotalCredits:               a.TotalCredits,
			NumberOfCreditTransactions: a.NumberOfCreditTransactions,
			TotalDebits:                a.TotalDebits,
			NumberOfDebitTransactions:  a.NumberOfDebitTransactions,
			AccountControlTotalA:       a.AccountControlTotalA,
			AccountControlTotalB:       a.AccountControlTotalB,
		}
		if g, ok := groupTotals[a.GroupID]; ok {
			row.GroupControlTotalA = g.GroupControlTotalA
			row.GroupControlTotalB = g.GroupControlTotalB
		}
		s.Accounts = append(s.Accounts, row)
	}

	return s, nil
}
