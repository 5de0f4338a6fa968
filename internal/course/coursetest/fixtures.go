// Package coursetest provides a small course table and dataset writers for tests.
package coursetest

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/garyellow/ders-bilgi-bot/internal/course"
)

// Header is the dataset header row.
var Header = []string{
	"sınıf", "ders_adı", "hoca-adı", "gün1", "saat1", "derslik1",
	"gün2", "saat2", "derslik2", "vizetarihi", "saat.1",
	"finaltarihi", "saat.2", "butunlemetarihi", "saat.3",
}

// Rows are the positional data rows behind Records.
var Rows = [][]string{
	{"1", "Matematik I", "Ahmet Yılmaz", "Pazartesi", "09:00", "A101", "Çarşamba", "13:00", "A102", "10.04.2025", "10:00", "15.06.2025", "10:00", "01.07.2025", "10:00"},
	{"2", "Veri Yapıları", "Ayşe Demir", "Pazartesi", "13:00", "B201", "Perşembe", "09:00", "B202", "11.04.2025", "13:00", "16.06.2025", "13:00", "02.07.2025", "13:00"},
	{"2", "Algoritmalar", "Ahmet Yılmaz", "Salı", "10:00", "B203", "", "", "", "12.04.2025", "10:00", "17.06.2025", "10:00", "03.07.2025", "10:00"},
	{"3", "İşletim Sistemleri", "Mehmet Kaya", "Pazartesi", "15:00", "C301", "Cuma", "10:00", "C302", "14.04.2025", "15:00", "15.06.2025", "14:00", "04.07.2025", "15:00"},
	{"2", "Veri Yapıları", "Ayşe Demir", "Cuma", "15:00", "B204", "", "", "", "11.04.2025", "13:00", "16.06.2025", "13:00", "02.07.2025", "13:00"},
}

// Records returns fresh records matching Rows.
func Records() []course.Record {
	out := make([]course.Record, len(Rows))
	for i, f := range Rows {
		year := int(f[0][0] - '0')
		out[i] = course.Record{
			Row:        i + 2,
			ClassYear:  year,
			Name:       f[1],
			Instructor: f[2],
			Slots: [2]course.Slot{
				{Weekday: f[3], Time: f[4], Room: f[5]},
				{Weekday: f[6], Time: f[7], Room: f[8]},
			},
			Midterm: course.Exam{Date: f[9], Time: f[10]},
			Final:   course.Exam{Date: f[11], Time: f[12]},
			Makeup:  course.Exam{Date: f[13], Time: f[14]},
		}
	}
	return out
}

// Table returns the fixture table with documents normalized by normalize.
func Table(normalize func(string) string) *course.Table {
	return course.NewTable(Records(), normalize)
}

// WriteCSV writes header plus rows to dir/name.csv and returns its path.
func WriteCSV(tb testing.TB, dir, name string, rows [][]string) string {
	tb.Helper()
	path := filepath.Join(dir, name+".csv")

	f, err := os.Create(path)
	if err != nil {
		tb.Fatal(err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		tb.Fatal(err)
	}
	if err := f.Close(); err != nil {
		tb.Fatal(err)
	}
	return path
}

// WriteXLSX writes rows to the first sheet of dir/name.xlsx and returns its path.
func WriteXLSX(tb testing.TB, dir, name string, rows [][]string) string {
	tb.Helper()
	path := filepath.Join(dir, name+".xlsx")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			tb.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			tb.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		tb.Fatal(err)
	}
	return path
}

// WriteSQLite creates dir/name.db with table holding rows (without header).
func WriteSQLite(tb testing.TB, dir, name, table string, rows [][]string) string {
	tb.Helper()
	path := filepath.Join(dir, name+".db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		tb.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	cols := make([]string, len(Header))
	marks := make([]string, len(Header))
	for i, h := range Header {
		cols[i] = `"` + h + `" TEXT`
		marks[i] = "?"
	}
	if _, err := db.Exec(`CREATE TABLE "` + table + `" (` + strings.Join(cols, ", ") + `)`); err != nil {
		tb.Fatal(err)
	}

	stmt := `INSERT INTO "` + table + `" VALUES (` + strings.Join(marks, ", ") + `)`
	for _, row := range rows {
		args := make([]any, len(row))
		for i, v := range row {
			if v == "" {
				args[i] = nil
			} else {
				args[i] = v
			}
		}
		if _, err := db.Exec(stmt, args...); err != nil {
			tb.Fatal(err)
		}
	}
	return path
}

// WithHeader prepends Header to rows.
func WithHeader(rows [][]string) [][]string {
	return append([][]string{Header}, rows...)
}
