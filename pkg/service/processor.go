package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tyefraser/nab-nai-files/pkg/checks"
	"github.com/tyefraser/nab-nai-files/pkg/codetable"
	"github.com/tyefraser/nab-nai-files/pkg/config"
	"github.com/tyefraser/nab-nai-files/pkg/models"
	"github.com/tyefraser/nab-nai-files/pkg/parser"
)

// MissingFileError reports an input file that could not be read at all.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// Result is everything produced for one physical input file. Err is set
// when the pipeline aborted for this file; the other fields then hold
// whatever had been produced up to that point.
type Result struct {
	FileName   string
	Raw        string
	Cleaned    []string
	Files      []*models.File
	Tables     *models.Tables
	Structured *models.Structured
	Checks     []checks.Result
	Err        error
}

// BatchResult is the outcome of one folder run. Results is keyed by file
// name; Checks concatenates the check rows of every file that made it
// through, in file name order.
type BatchResult struct {
	RunID   string
	Results map[string]*Result
	Checks  []checks.Result
}

// FileNames returns the processed file names in sorted order.
func (b *BatchResult) FileNames() []string {
	names := make([]string, 0, len(b.Results))
	for name := range b.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed returns how many files ended in an error.
func (b *BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type Processor struct {
	config *config.Config
	logger *log.Logger
	parser *parser.Parser
}

func NewProcessor(cfg *config.Config, logger *log.Logger, codes codetable.Lookup) *Processor {
	return &Processor{
		config: cfg,
		logger: logger,
		parser: parser.New(logger, codes),
	}
}

// ProcessFile runs the full pipeline for one input file: clean, parse,
// tabulate, structure, check. The returned Result always carries the file
// name; on failure its Err field matches the returned error.
func (p *Processor) ProcessFile(path string) (*Result, error) {
	fileName := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = &MissingFileError{Path: path, Err: err}
		}
		return &Result{FileName: fileName, Err: err}, err
	}

	return p.ProcessBytes(data, fileName)
}

// ProcessBytes runs the pipeline on content already in memory, as handed
// over by an upload or a test. Failures past parsing still return the
// partial Result so callers can show what was readable.
func (p *Processor) ProcessBytes(data []byte, fileName string) (*Result, error) {
	result := &Result{FileName: fileName}

	out := p.parser.ProcessBytes(data, fileName)
	result.Raw = out.Raw
	result.Cleaned = out.Cleaned
	result.Files = out.Files
	result.Tables = models.Tabulate(out.Files)

	structured, err := result.Tables.Structure()
	if err != nil {
		result.Err = fmt.Errorf("structuring %s: %w", fileName, err)
		return result, result.Err
	}
	result.Structured = structured

	result.Checks = checks.Run(fileName, result.Tables)
	return result, nil
}

// ProcessFolder processes every regular file in dir. Files fail
// individually: a bad file is recorded in its own Result and the batch
// keeps going.
func (p *Processor) ProcessFolder(dir string) (*BatchResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	batch := &BatchResult{
		RunID:   uuid.NewString(),
		Results: make(map[string]*Result, len(names)),
	}
	p.logger.Info("processing folder", "dir", dir, "files", len(names), "run_id", batch.RunID)

	results := make([]*Result, len(names))

	workers := p.config.Workers
	if workers < 1 {
		workers = 1
	}

	if workers == 1 {
		for i, name := range names {
			results[i] = p.processEntry(filepath.Join(dir, name))
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i] = p.processEntry(path)
			}(i, filepath.Join(dir, name))
		}
		wg.Wait()
	}

	for _, result := range results {
		batch.Results[result.FileName] = result
		if result.Err != nil {
			p.logger.Error("file failed", "file", result.FileName, "error", result.Err)
			continue
		}
		batch.Checks = append(batch.Checks, result.Checks...)
	}

	return batch, nil
}

func (p *Processor) processEntry(path string) *Result {
	result, err := p.ProcessFile(path)
	if err != nil {
		return result
	}
	p.logger.Info("processed file", "file", result.FileName, "checks", len(result.Checks))
	return result
}
