package excel

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"assesstime/domain/actionlog"
	"assesstime/domain/core"
	"assesstime/internal/errors"
	"assesstime/internal/logging"
	"assesstime/ports"
)

const utf8BOM = "\ufeff"

// ReaderOptions configures a DataReader
type ReaderOptions struct {
	Sheet  string // xlsx sheet; empty selects the first sheet
	Comma  rune   // csv delimiter; zero means ','
	Logger ports.Logger
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	opts ReaderOptions
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(opts ReaderOptions) *DataReader {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &DataReader{opts: opts}
}

var (
	_ ports.TableReaderPort      = (*DataReader)(nil)
	_ ports.InputFingerprintPort = (*DataReader)(nil)
)

// fileType maps an extension onto the reader to use
func fileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return "csv"
	case ".xlsx", ".xlsm", ".xltx":
		return "xlsx"
	default:
		return ""
	}
}

// ReadTable reads a CSV or spreadsheet file into a table
func (r *DataReader) ReadTable(ctx context.Context, path string) (*actionlog.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := fileType(path)
	r.opts.Logger.Debugf("[DataReader] Starting to read %s file: %s", kind, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("input file not found: %s", path))
	}

	switch kind {
	case "csv":
		return r.readCSVData(path)
	case "xlsx":
		return r.readExcelData(path)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", path))
	}
}

// readExcelData reads the configured sheet into a table
func (r *DataReader) readExcelData(path string) (*actionlog.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open Excel file %s", path)
	}
	defer f.Close()

	sheet := r.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: workbook has no sheets", path))
		}
		sheet = sheets[0]
	}

	// Raw values keep typed date and time cells as serial numbers instead of
	// the display text of their number format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q of %s", sheet, path)
	}
	r.opts.Logger.Debugf("[DataReader] sheet %q read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	table := r.processRows(path, rows, nil)
	table.Spreadsheet = true
	return table, nil
}

// readCSVData reads CSV data into a table
func (r *DataReader) readCSVData(path string) (*actionlog.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	readStart := time.Now()
	rows, lines, err := ReadCSV(file, r.opts.Comma)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CSV file %s", path)
	}
	r.opts.Logger.Debugf("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return r.processRows(path, rows, lines), nil
}

// ReadCSV reads all records from rd along with the 1-based line each record
// starts on. Exported logs are often ragged and carry stray quotes, so field
// counts and quoting are not enforced.
func ReadCSV(rd io.Reader, comma rune) ([][]string, []int, error) {
	reader := csv.NewReader(rd)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, lines, nil
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
}

// processRows converts raw string rows into a table. lines holds the source
// row number of each entry in rows; nil means rows[i] is row i+1. A missing
// or empty header row yields a table without headers; schema checks happen
// later.
func (r *DataReader) processRows(source string, rows [][]string, lines []int) *actionlog.Table {
	table := &actionlog.Table{Source: source}
	if len(rows) == 0 {
		return table
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		headers[i] = strings.TrimSpace(header)
	}
	table.Headers = headers

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(actionlog.RawRow, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		line := i + 1
		if lines != nil {
			line = lines[i]
		}
		table.Rows = append(table.Rows, rowData)
		table.Lines = append(table.Lines, line)
	}

	r.opts.Logger.Infof("[DataReader] %s processed (%d columns, %d rows)", source, len(headers), len(table.Rows))
	return table
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// FingerprintFile hashes a file's content for the run manifest
func FingerprintFile(path string) (core.InputHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return core.InputHash(hex.EncodeToString(h.Sum(nil))), nil
}

// Fingerprint implements ports.InputFingerprintPort.
func (r *DataReader) Fingerprint(ctx context.Context, path string) (core.InputHash, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return FingerprintFile(path)
}
