package course

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
)

// Options controls how a dataset file is read.
type Options struct {
	// HeaderRows is the number of leading rows skipped before data.
	// The last skipped row is the header and must have ColumnCount columns.
	HeaderRows int
	// TableName is the SQLite table holding the rows.
	TableName string
	// Normalize derives NormalizedDocument from Document. Nil keeps it raw.
	Normalize func(string) string
	// Logger receives warnings about skipped rows. Nil discards them.
	Logger *logger.Logger
}

// DefaultTableName is the SQLite table read when Options.TableName is empty.
const DefaultTableName = "courses"

// DefaultHeaderRows fits the registrar export: a title row, then the column
// header, then data.
const DefaultHeaderRows = 2

// Load reads the dataset at path, dispatching on the file extension.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domerrors.ErrDatasetMissing, path)
		}
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	var (
		rows [][]string
		err  error
	)
	headerRows := opts.HeaderRows

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	case ".db", ".sqlite", ".sqlite3":
		table := opts.TableName
		if table == "" {
			table = DefaultTableName
		}
		rows, err = readSQLite(ctx, path, table)
		headerRows = 1 // first row carries the column names
	default:
		return nil, &domerrors.DatasetError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported file type %q", ext),
			Err:    domerrors.ErrMalformedDataset,
		}
	}
	if err != nil {
		return nil, &domerrors.DatasetError{Path: path, Reason: "read", Err: fmt.Errorf("%w: %w", domerrors.ErrMalformedDataset, err)}
	}

	records, err := parseRows(path, rows, headerRows, opts.Logger)
	if err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.WithModule("course").
			WithField("path", path).
			WithField("records", len(records)).
			Info("Dataset loaded")
	}
	return NewTable(records, opts.Normalize), nil
}

// parseRows turns raw positional rows into records.
func parseRows(path string, rows [][]string, headerRows int, log *logger.Logger) ([]Record, error) {
	if headerRows > len(rows) {
		headerRows = len(rows)
	}
	if headerRows > 0 {
		if n := width(rows[headerRows-1]); n != ColumnCount {
			return nil, domerrors.NewDatasetError(path, headerRows,
				fmt.Sprintf("header has %d columns, expected %d", n, ColumnCount))
		}
	}

	records := make([]Record, 0, len(rows)-headerRows)
	for i, cells := range rows[headerRows:] {
		rowNum := headerRows + i + 1

		n := width(cells)
		if n == 0 {
			continue
		}
		if n > ColumnCount {
			return nil, domerrors.NewDatasetError(path, rowNum,
				fmt.Sprintf("row has %d columns, expected %d", n, ColumnCount))
		}

		var f [ColumnCount]string
		for c := 0; c < n; c++ {
			f[c] = strings.TrimSpace(cells[c])
		}

		if f[1] == "" {
			if log != nil {
				log.WithModule("course").
					WithField("path", path).
					WithField("row", rowNum).
					Warn("Skipping row with blank course name")
			}
			continue
		}

		year, ok := parseClassYear(f[0])
		if !ok {
			return nil, domerrors.NewDatasetError(path, rowNum, fmt.Sprintf("invalid class year %q", f[0]))
		}

		records = append(records, Record{
			Row:        rowNum,
			ClassYear:  year,
			Name:       f[1],
			Instructor: f[2],
			Slots: [2]Slot{
				{Weekday: f[3], Time: f[4], Room: f[5]},
				{Weekday: f[6], Time: f[7], Room: f[8]},
			},
			Midterm: Exam{Date: f[9], Time: f[10]},
			Final:   Exam{Date: f[11], Time: f[12]},
			Makeup:  Exam{Date: f[13], Time: f[14]},
		})
	}

	return records, nil
}

// width is the number of cells up to and including the last non-blank one.
func width(cells []string) int {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return n
}

// parseClassYear accepts "2" and spreadsheet-style "2.0".
func parseClassYear(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f <= 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
