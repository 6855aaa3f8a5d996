package codetable

import (
	"fmt"
	"os"
	"strings"

	"github.com/extrame/xls"
	"gopkg.in/yaml.v3"
)

// Lookup resolves NAI transaction detail codes to the attributes the
// bank publishes for them: debit/credit direction, a statement
// description and the statement particulars. Every method reports
// whether the code is known; a miss is not an error.
type Lookup interface {
	Direction(code string) (string, bool)
	Description(code string) (string, bool)
	Particulars(code string) (string, bool)
}

// CodeTable is an immutable in-memory Lookup.
type CodeTable struct {
	directions   map[string]string
	descriptions map[string]string
	particulars  map[string]string
}

// New builds a CodeTable from the three code maps. The maps are copied,
// so the caller may keep mutating its own.
func New(directions, descriptions, particulars map[string]string) *CodeTable {
	return &CodeTable{
		directions:   copyMap(directions),
		descriptions: copyMap(descriptions),
		particulars:  copyMap(particulars),
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *CodeTable) Direction(code string) (string, bool) {
	v, ok := t.directions[code]
	return v, ok
}

func (t *CodeTable) Description(code string) (string, bool) {
	v, ok := t.descriptions[code]
	return v, ok
}

func (t *CodeTable) Particulars(code string) (string, bool) {
	v, ok := t.particulars[code]
	return v, ok
}

// yamlCodes mirrors the transaction_detail_codes block of the config
// file.
type yamlCodes struct {
	DrCr                   map[string]string `yaml:"dr_cr"`
	TransactionDescription map[string]string `yaml:"transaction_description"`
	StatementParticulars   map[string]string `yaml:"statement_particulars"`
}

// FromYAML loads a code table from a YAML file holding dr_cr,
// transaction_description and statement_particulars maps keyed by code.
func FromYAML(path string) (*CodeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading code table: %w", err)
	}

	var codes yamlCodes
	if err := yaml.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("parsing code table %s: %w", path, err)
	}

	return New(codes.DrCr, codes.TransactionDescription, codes.StatementParticulars), nil
}

// FromXLS loads a code table from the spreadsheet the bank distributes:
// one row per code with columns code, dr_cr, transaction_description and
// statement_particulars. A header row is skipped when present.
func FromXLS(path string) (*CodeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening code table: %w", err)
	}
	defer f.Close()

	workbook, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("reading code table %s: %w", path, err)
	}

	directions := make(map[string]string)
	descriptions := make(map[string]string)
	particulars := make(map[string]string)

	for i, row := range workbook.ReadAllCells(10000) {
		if len(row) < 2 {
			continue
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		if i == 0 && !isCode(code) {
			continue
		}
		if v := strings.TrimSpace(row[1]); v != "" {
			directions[code] = v
		}
		if len(row) > 2 {
			if v := strings.TrimSpace(row[2]); v != "" {
				descriptions[code] = v
			}
		}
		if len(row) > 3 {
			if v := strings.TrimSpace(row[3]); v != "" {
				particulars[code] = v
			}
		}
	}

	return New(directions, descriptions, particulars), nil
}

func isCode(cell string) bool {
	for _, r := range cell {
		if r < '0' || r > '9' {
			return false
		}
	}
	return cell != ""
}
