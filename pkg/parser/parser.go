package parser

import (
	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/models"
)

// Output is everything produced from one physical NAI file: the untouched
// raw content, the cleaned logical records and the file trees assembled
// from them.
type Output struct {
	FileName string
	Raw      string
	Cleaned  []string
	Files    []*models.File
}

type Parser struct {
	logger *log.Logger
	codes  codetable.Lookup
}

func New(logger *log.Logger, codes codetable.Lookup) *Parser {
	return &Parser{
		logger: logger,
		codes:  codes,
	}
}

// ProcessBytes cleans the raw bytes of an NAI file and assembles its
// logical records into file trees. A record that cannot be parsed is
// logged and skipped; the rest of the file still goes through.
func (p *Parser) ProcessBytes(data []byte, filename string) *Output {
	raw, lines := Clean(data)

	builder := NewBuilder(p.logger, p.codes)
	for _, line := range lines {
		if err := builder.Add(line); err != nil {
			p.logger.Warn("skipping record", "file", filename, "record", line, "error", err)
		}
	}

	files := builder.Files()
	p.logger.Debug("parsed file", "file", filename, "logical_files", len(files), "records", len(lines))

	return &Output{
		FileName: filename,
		Raw:      raw,
		Cleaned:  lines,
		Files:    files,
	}
}
