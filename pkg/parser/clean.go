package parser

import "strings"

// apostropheReplacer normalizes the curly apostrophe to a straight quote,
// both in its proper UTF-8 form and in the cp1252 mojibake form it takes
// when a file has been re-encoded along the way.
var apostropheReplacer = strings.NewReplacer("’", "'", "â€™", "'")

// Clean turns the physical lines of an NAI file into logical records.
// Each line is whitespace trimmed, apostrophe normalized and stripped of
// one trailing "/" terminator; continuation lines starting with "88," are
// folded into the record before them. The raw content is returned
// untouched for audit output.
func Clean(data []byte) (raw string, lines []string) {
	raw = string(data)

	var cleaned []string
	previous := ""
	for _, physical := range strings.Split(raw, "\n") {
		line := apostropheReplacer.Replace(strings.TrimSpace(physical))
		line = strings.TrimSuffix(line, "/")

		if strings.HasPrefix(line, "88,") {
			previous += "," + line[3:]
			continue
		}
		if previous != "" {
			cleaned = append(cleaned, previous)
		}
		previous = line
	}
	if previous != "" {
		cleaned = append(cleaned, previous)
	}

	return raw, cleaned
}
