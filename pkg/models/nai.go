package models

import "github.com/shopspring/decimal"

// NullInt64 is an int64 that knows whether it was present in the input.
// Trailer counts use it so that a record that never arrived reads as
// absent rather than as zero.
type NullInt64 struct {
	Int64 int64
	Valid bool
}

// Int64From returns a valid NullInt64 holding v.
func Int64From(v int64) NullInt64 {
	return NullInt64{Int64: v, Valid: true}
}

// File is one logical NAI file: a 01 header, the groups under it, and the
// control totals filled in by the 99 trailer. A single physical file may
// carry several logical files back to back.
type File struct {
	FileID                 string
	SenderIdentification   string
	ReceiverIdentification string
	CreationDate           string
	CreationTime           string
	SequenceNumber         string

	FileControlTotalA decimal.NullDecimal
	NumberOfGroups    NullInt64
	NumberOfRecords   NullInt64
	FileControlTotalB decimal.NullDecimal

	Groups []*Group
}

// Group is a 02 header and its accounts, with totals from the 98 trailer.
type Group struct {
	FileID             string
	GroupID            string
	UltimateReceiverID string
	OriginatorID       string
	GroupStatus        string
	AsOfDate           string
	AsOfTime           string

	GroupControlTotalA decimal.NullDecimal
	NumberOfAccounts   NullInt64
	GroupControlTotalB decimal.NullDecimal

	Accounts []*Account
}

// Account is a 03 identifier and its transactions, with totals from the 49
// trailer. The 03 record carries code/amount summary pairs; the codes the
// bank documents are broken out into named fields, everything else stays
// in Summaries.
type Account struct {
	FileID                  string
	GroupID                 string
	CommercialAccountNumber string
	CurrencyCode            string

	ClosingBalance             decimal.NullDecimal
	TotalCredits               decimal.NullDecimal
	NumberOfCreditTransactions decimal.NullDecimal
	TotalDebits                decimal.NullDecimal
	NumberOfDebitTransactions  decimal.NullDecimal

	AccruedCreditInterest       decimal.NullDecimal
	AccruedDebitInterest        decimal.NullDecimal
	AccountLimit                decimal.NullDecimal
	AvailableLimit              decimal.NullDecimal
	EffectiveDebitInterestRate  decimal.NullDecimal
	EffectiveCreditInterestRate decimal.NullDecimal
	AccruedStateGovernmentDuty  decimal.NullDecimal
	AccruedGovernmentCreditTax  decimal.NullDecimal
	AccruedGovernmentDebitTax   decimal.NullDecimal

	// Summaries holds every code/amount pair from the 03 record, named
	// codes included.
	Summaries map[string]decimal.NullDecimal

	AccountControlTotalA decimal.NullDecimal
	AccountControlTotalB decimal.NullDecimal

	Transactions []*Transaction
}

// Transaction is one 16 detail record. DrCr, TransactionDescription and
// StatementParticulars come from the transaction code table; a code the
// table does not know leaves them empty.
type Transaction struct {
	FileID                  string
	GroupID                 string
	CommercialAccountNumber string

	TransactionCode        string
	Amount                 decimal.NullDecimal
	FundsType              string
	ReferenceNumber        string
	Text                   string
	DrCr                   string
	TransactionDescription string
	StatementParticulars   string
}
