package main

import (
	"strings"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/csv"
)

type filters struct {
	status  string
	group   string
	account string
	check   string
}

// toFilterFunc turns the flag values into one predicate over check
// results. Empty flags match everything; group, account and check match
// on substring so ids do not have to be pasted in full.
func (f *filters) toFilterFunc() csv.FilterFunc {
	return func(r checks.Result) bool {
		if f.status != "" && !strings.EqualFold(string(r.Status), f.status) {
			return false
		}
		if f.group != "" && !strings.Contains(r.GroupID, f.group) {
			return false
		}
		if f.account != "" && !strings.Contains(r.AccountNumber, f.account) {
			return false
		}
		if f.check != "" && !strings.Contains(strings.ToLower(r.CheckName), strings.ToLower(f.check)) {
			return false
		}
		return true
	}
}
