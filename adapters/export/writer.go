package export

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"assesstime/domain/run"
	"assesstime/internal/errors"
	"assesstime/internal/logging"
	"assesstime/ports"
)

// Output file names
const (
	SummaryFile    = "summary.csv"
	SampleFile     = "sample.csv"
	FunnelFile     = "funnel.csv"
	ExclusionsFile = "exclusions.csv"
	HistogramFile  = "histogram.csv"
	OverallFile    = "overall.csv"
	WorkbookFile   = "report.xlsx"
	ManifestFile   = "manifest.json"
)

// Options configures a Writer
type Options struct {
	Dir      string
	Workbook bool
	Logger   ports.Logger
}

// Writer persists a run result into a directory
type Writer struct {
	dir      string
	workbook bool
	logger   ports.Logger
}

var _ ports.ResultWriterPort = (*Writer)(nil)

// NewWriter creates a result writer. The directory is created on first write.
func NewWriter(opts Options) *Writer {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Writer{dir: opts.Dir, workbook: opts.Workbook, logger: opts.Logger}
}

// WriteResult writes every output file and returns their paths in write order.
func (w *Writer) WriteResult(ctx context.Context, res *run.Result) ([]string, error) {
	if res == nil {
		return nil, errors.InvalidInput("nil result")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", w.dir)
	}

	files := []output{
		{SummaryFile, SummaryTable(res.Summary)},
		{SampleFile, SampleTable(res.Sample)},
		{FunnelFile, FunnelTable(res.Funnel)},
		{ExclusionsFile, ExclusionsTable(res.Exclusions)},
		{HistogramFile, HistogramTable(res.Summary)},
	}
	if res.Summary.Overall != nil {
		files = append(files, output{OverallFile, OverallTable(res.Summary)})
	}

	var written []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(w.dir, f.name)
		if err := WriteCSV(path, f.table); err != nil {
			return written, errors.Wrapf(err, "write %s", path)
		}
		written = append(written, path)
	}

	if w.workbook {
		path := filepath.Join(w.dir, WorkbookFile)
		sheets := []Table{files[0].table, files[1].table, files[2].table}
		if res.Summary.Overall != nil {
			sheets = append(sheets, OverallTable(res.Summary))
		}
		if err := WriteXLSX(path, sheets...); err != nil {
			return written, errors.Wrapf(err, "write %s", path)
		}
		written = append(written, path)
	}

	if res.Manifest != nil {
		path := filepath.Join(w.dir, ManifestFile)
		if err := WriteJSON(path, res.Manifest); err != nil {
			return written, errors.Wrapf(err, "write %s", path)
		}
		written = append(written, path)
	}

	w.logger.Infof("[Export] wrote %d files to %s", len(written), w.dir)
	return written, nil
}

type output struct {
	name  string
	table Table
}

// cellValue stores numeric cells as numbers so spreadsheet formulas work.
func cellValue(v string) interface{} {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
