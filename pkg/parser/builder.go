package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/models"
)

// Builder assembles logical records into file trees. Records arrive in
// file order: 01/02/03 headers move the file, group and account cursors
// down the hierarchy, 16 details attach to the current account and the
// 49/98/99 trailers fill in control totals on whatever the cursors point
// at.
type Builder struct {
	logger      *log.Logger
	codes       codetable.Lookup
	processedAt string

	files   []*models.File
	file    *models.File
	group   *models.Group
	account *models.Account
}

// NewBuilder returns a Builder stamped with the current processing time,
// which becomes part of every FileID it mints. codes may be nil, in which
// case every transaction code lookup misses.
func NewBuilder(logger *log.Logger, codes codetable.Lookup) *Builder {
	return &Builder{
		logger:      logger,
		codes:       codes,
		processedAt: time.Now().Format("20060102-150405"),
	}
}

// Files returns every file assembled so far.
func (b *Builder) Files() []*models.File { return b.files }

// Add consumes one logical record. Record types other than the seven NAI
// ones are ignored. A malformed record returns an error and leaves the
// tree exactly as it was; the caller decides whether to keep going.
func (b *Builder) Add(line string) error {
	fields := strings.Split(line, ",")

	switch fields[0] {
	case "01":
		return b.addFileHeader(fields)
	case "02":
		return b.addGroupHeader(fields)
	case "03":
		return b.addAccountIdentifier(fields)
	case "16":
		return b.addTransactionDetail(fields)
	case "49":
		return b.addAccountTrailer(fields)
	case "98":
		return b.addGroupTrailer(fields)
	case "99":
		return b.addFileTrailer(fields)
	}
	return nil
}

func (b *Builder) addFileHeader(fields []string) error {
	if len(fields) < 6 {
		return fmt.Errorf("file header has %d fields, need 6", len(fields))
	}

	creationDate, err := reformatDate(fields[3])
	if err != nil {
		return err
	}

	file := &models.File{
		FileID:                 creationDate + "_" + fields[4] + "_" + fields[5] + "_" + b.processedAt,
		SenderIdentification:   fields[1],
		ReceiverIdentification: fields[2],
		CreationDate:           creationDate,
		CreationTime:           fields[4],
		SequenceNumber:         fields[5],
	}

	b.files = append(b.files, file)
	b.file = file
	b.group = nil
	b.account = nil
	return nil
}

func (b *Builder) addGroupHeader(fields []string) error {
	if len(fields) < 6 {
		return fmt.Errorf("group header has %d fields, need 6", len(fields))
	}
	if b.file == nil {
		return fmt.Errorf("group header before any file header")
	}

	asOfDate, err := reformatDate(fields[4])
	if err != nil {
		return err
	}

	group := &models.Group{
		FileID:             b.file.FileID,
		GroupID:            fields[1] + "_" + fields[2] + "_" + fields[3] + "_" + asOfDate + "_" + fields[5],
		UltimateReceiverID: fields[1],
		OriginatorID:       fields[2],
		GroupStatus:        fields[3],
		AsOfDate:           asOfDate,
		AsOfTime:           fields[5],
	}

	b.file.Groups = append(b.file.Groups, group)
	b.group = group
	b.account = nil
	return nil
}

func (b *Builder) addAccountIdentifier(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("account identifier has %d fields, need 3", len(fields))
	}
	if b.group == nil {
		return fmt.Errorf("account identifier before any group header")
	}

	summaries, err := b.parseSummaryPairs(fields)
	if err != nil {
		return err
	}

	account := &models.Account{
		FileID:                  b.file.FileID,
		GroupID:                 b.group.GroupID,
		CommercialAccountNumber: fields[1],
		CurrencyCode:            fields[2],
		Summaries:               summaries,

		ClosingBalance:             summaries["015"],
		TotalCredits:               summaries["100"],
		NumberOfCreditTransactions: summaries["102"],
		TotalDebits:                summaries["400"],
		NumberOfDebitTransactions:  summaries["402"],

		AccruedCreditInterest:       summaries["500"],
		AccruedDebitInterest:        summaries["501"],
		AccountLimit:                summaries["502"],
		AvailableLimit:              summaries["503"],
		EffectiveDebitInterestRate:  summaries["965"],
		EffectiveCreditInterestRate: summaries["966"],
		AccruedStateGovernmentDuty:  summaries["967"],
		AccruedGovernmentCreditTax:  summaries["968"],
		AccruedGovernmentDebitTax:   summaries["969"],
	}

	b.group.Accounts = append(b.group.Accounts, account)
	b.account = account
	return nil
}

// parseSummaryPairs decodes the code/amount pairs that follow the account
// number and currency on a 03 record. An odd tail is padded with a zero
// amount so the dangling code still lands in the map.
func (b *Builder) parseSummaryPairs(fields []string) (map[string]decimal.NullDecimal, error) {
	pairs := fields[3:]
	if len(pairs)%2 != 0 {
		b.logger.Warn("uneven code/amount pairs on account identifier", "account", fields[1])
		pairs = append(pairs, "000")
	}

	summaries := make(map[string]decimal.NullDecimal, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		amount, err := ParseImpliedDecimal(pairs[i+1])
		if err != nil {
			return nil, err
		}
		summaries[pairs[i]] = amount
	}
	return summaries, nil
}

func (b *Builder) addTransactionDetail(fields []string) error {
	if len(fields) < 4 {
		return fmt.Errorf("transaction detail has %d fields, need 4", len(fields))
	}
	if b.account == nil {
		return fmt.Errorf("transaction detail before any account identifier")
	}

	amount, err := ParseImpliedDecimal(fields[2])
	if err != nil {
		return err
	}

	code := fields[1]
	tx := &models.Transaction{
		FileID:                  b.file.FileID,
		GroupID:                 b.group.GroupID,
		CommercialAccountNumber: b.account.CommercialAccountNumber,
		TransactionCode:         code,
		Amount:                  amount,
		FundsType:               fields[3],
	}
	if len(fields) > 4 {
		tx.ReferenceNumber = fields[4]
	}
	if len(fields) > 5 {
		// The free-text tail may itself contain commas, so the record
		// format simply concatenates whatever is left.
		tx.Text = strings.Join(fields[5:], "")
	}
	if b.codes != nil {
		tx.DrCr, _ = b.codes.Direction(code)
		tx.TransactionDescription, _ = b.codes.Description(code)
		tx.StatementParticulars, _ = b.codes.Particulars(code)
	}

	b.account.Transactions = append(b.account.Transactions, tx)
	return nil
}

func (b *Builder) addAccountTrailer(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("account trailer has %d fields, need 3", len(fields))
	}
	if b.account == nil {
		return fmt.Errorf("account trailer before any account identifier")
	}

	totalA, err := ParseImpliedDecimal(fields[1])
	if err != nil {
		return err
	}
	totalB, err := ParseImpliedDecimal(fields[2])
	if err != nil {
		return err
	}

	b.account.AccountControlTotalA = totalA
	b.account.AccountControlTotalB = totalB
	return nil
}

func (b *Builder) addGroupTrailer(fields []string) error {
	if len(fields) < 4 {
		return fmt.Errorf("group trailer has %d fields, need 4", len(fields))
	}
	if b.group == nil {
		return fmt.Errorf("group trailer before any group header")
	}

	totalA, err := ParseImpliedDecimal(fields[1])
	if err != nil {
		return err
	}
	accounts, err := parseCount(fields[2])
	if err != nil {
		return err
	}
	totalB, err := ParseImpliedDecimal(fields[3])
	if err != nil {
		return err
	}

	b.group.GroupControlTotalA = totalA
	b.group.NumberOfAccounts = accounts
	b.group.GroupControlTotalB = totalB
	return nil
}

func (b *Builder) addFileTrailer(fields []string) error {
	if len(fields) < 5 {
		return fmt.Errorf("file trailer has %d fields, need 5", len(fields))
	}
	if b.file == nil {
		return fmt.Errorf("file trailer before any file header")
	}

	totalA, err := ParseImpliedDecimal(fields[1])
	if err != nil {
		return err
	}
	groups, err := parseCount(fields[2])
	if err != nil {
		return err
	}
	records, err := parseCount(fields[3])
	if err != nil {
		return err
	}
	totalB, err := ParseImpliedDecimal(fields[4])
	if err != nil {
		return err
	}

	b.file.FileControlTotalA = totalA
	b.file.NumberOfGroups = groups
	b.file.NumberOfRecords = records
	b.file.FileControlTotalB = totalB
	return nil
}

// parseCount reads a whole-number trailer field. Like amounts, an empty
// field is absent rather than zero.
func parseCount(token string) (models.NullInt64, error) {
	if token == "" {
		return models.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return models.NullInt64{}, &FormatError{Token: token, Err: err}
	}
	return models.Int64From(n), nil
}

// reformatDate converts the six digit YYMMDD dates on header records to
// YYYYMMDD.
func reformatDate(token string) (string, error) {
	t, err := time.Parse("060102", token)
	if err != nil {
		return "", &FormatError{Token: token, Err: err}
	}
	return t.Format("20060102"), nil
}
