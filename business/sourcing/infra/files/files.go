// Package files reads candidate lists and writes run reports as delimited
// tables in a directory.
package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	allocationDomain "github.com/fd1az/fba-sourcing/business/allocation/domain"
	catalogDomain "github.com/fd1az/fba-sourcing/business/catalog/domain"
	demandDomain "github.com/fd1az/fba-sourcing/business/demand/domain"
	profitDomain "github.com/fd1az/fba-sourcing/business/profitability/domain"
	"github.com/fd1az/fba-sourcing/business/sourcing/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/logger"
	"github.com/fd1az/fba-sourcing/internal/tabular"
)

// Output file names.
const (
	ProductsFile      = "products.csv"
	ProfitabilityFile = "profitability.csv"
	DiscardsFile      = "discards.csv"
	DemandFile        = "demand.csv"
	AllocationFile    = "allocation.csv"
	InventoryFile     = "inventory.csv"
	SummaryFile       = "summary.csv"
	CountersFile      = "counters.csv"
)

func optionsFor(path string) tabular.Options {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return tabular.Options{Delimiter: '\t'}
	}
	return tabular.Options{}
}

// LoadCandidates reads a candidate list. Rows are kept as-is; invalid rows are
// reported by the resolver, not here.
func LoadCandidates(path string) ([]catalogDomain.CandidateRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeTabularReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}
	defer f.Close()

	rows, err := tabular.Read(f, optionsFor(path))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTabularReadFailed, path)
	}

	out := make([]catalogDomain.CandidateRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, catalogDomain.CandidateFromRow(row))
	}
	return out, nil
}

// Writer implements app.Reporter by writing one table per stage into dir.
type Writer struct {
	dir    string
	logger logger.LoggerInterface
}

func NewWriter(dir string, log logger.LoggerInterface) *Writer {
	return &Writer{dir: dir, logger: log}
}

// Dir is the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Report writes every table the run produced. Stages that did not run get no
// file.
func (w *Writer) Report(ctx context.Context, report *domain.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return apperror.New(apperror.CodeTabularWriteFailed,
			apperror.WithCause(err),
			apperror.WithContext(w.dir))
	}

	var written []string
	write := func(name string, fn func(f *os.File) error) error {
		path := filepath.Join(w.dir, name)
		f, err := os.Create(path)
		if err != nil {
			return apperror.New(apperror.CodeTabularWriteFailed, apperror.WithCause(err), apperror.WithContext(path))
		}
		if err := fn(f); err != nil {
			f.Close()
			return apperror.Wrap(err, apperror.CodeTabularWriteFailed, path)
		}
		if err := f.Close(); err != nil {
			return apperror.New(apperror.CodeTabularWriteFailed, apperror.WithCause(err), apperror.WithContext(path))
		}
		written = append(written, name)
		return nil
	}

	if b := report.Enrichment; b != nil {
		if err := write(ProductsFile, func(f *os.File) error {
			return tabular.Write(f, catalogDomain.ProductRecordHeader, b.Records, tabular.Options{})
		}); err != nil {
			return err
		}
	}
	if b := report.Profitability; b != nil {
		if err := write(ProfitabilityFile, func(f *os.File) error {
			return tabular.Write(f, profitDomain.Header, b.Viable, tabular.Options{})
		}); err != nil {
			return err
		}
		if err := write(DiscardsFile, func(f *os.File) error {
			return tabular.Write(f, profitDomain.DiscardHeader, b.Discards, tabular.Options{})
		}); err != nil {
			return err
		}
	}
	if report.Demand != nil {
		if err := write(DemandFile, func(f *os.File) error {
			return tabular.Write(f, demandDomain.Header, report.Demand, tabular.Options{})
		}); err != nil {
			return err
		}
	}
	if p := report.Plan; p != nil {
		if err := write(AllocationFile, func(f *os.File) error {
			return tabular.Write(f, allocationDomain.LineHeader, p.Lines, tabular.Options{})
		}); err != nil {
			return err
		}
		if err := write(InventoryFile, func(f *os.File) error {
			return tabular.Write(f, allocationDomain.InventoryHeader, report.Inventory, tabular.Options{})
		}); err != nil {
			return err
		}
		if err := write(SummaryFile, func(f *os.File) error {
			return tabular.Write(f, allocationDomain.SummaryHeader, []allocationDomain.PortfolioSummary{p.Summary}, tabular.Options{})
		}); err != nil {
			return err
		}
	}
	if err := write(CountersFile, func(f *os.File) error {
		return tabular.Write(f, domain.CounterHeader, report.Counters(), tabular.Options{})
	}); err != nil {
		return err
	}

	w.logger.Info(ctx, "run tables written",
		"run_id", report.RunID,
		"dir", w.dir,
		"files", written)
	return nil
}
