package csv

import (
	"bytes"
	stdcsv "encoding/csv"

	"github.com/shopspring/decimal"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
)

// FilterFunc decides which check results make it into a rendering. A nil
// filter keeps everything.
type FilterFunc func(checks.Result) bool

// ByStatus keeps only results with the given status.
func ByStatus(status checks.Status) FilterFunc {
	return func(r checks.Result) bool {
		return r.Status == status
	}
}

// Header is the column layout of the checks report, in the order the
// report has always been published.
var Header = []string{
	"File Name", "Group Name", "Account Name", "Check Name",
	"Control Value", "Calculated Value", "Difference", "Status",
}

// Row renders one check result in Header order. Absent values render as
// empty cells, never as zero.
func Row(r checks.Result) []string {
	return []string{
		r.FileName,
		r.GroupID,
		r.AccountNumber,
		r.CheckName,
		Decimal(r.Control),
		Decimal(r.Calculated),
		r.Difference.String(),
		string(r.Status),
	}
}

// Decimal renders an optional amount, empty when absent.
func Decimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// Checks renders check results as CSV bytes, applying filter when one is
// given. The header row is always present, even for an empty report.
func Checks(results []checks.Result, filter FilterFunc) []byte {
	var buf bytes.Buffer
	w := stdcsv.NewWriter(&buf)

	_ = w.Write(Header)
	for _, r := range results {
		if filter == nil || filter(r) {
			_ = w.Write(Row(r))
		}
	}
	w.Flush()

	return buf.Bytes()
}
