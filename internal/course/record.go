// Package course holds the course schedule records, the fixed-order
// document built from each record, and the tabular loaders.
package course

import (
	"strconv"
	"strings"
)

// Placeholder is the textual form of a blank field inside a document.
const Placeholder = "nan"

// ColumnCount is the fixed number of positional columns in a dataset row.
const ColumnCount = 15

// Slot is one weekly meeting. All fields may be blank.
type Slot struct {
	Weekday string
	Time    string
	Room    string
}

// Exam is one exam sitting. Date is a DD.MM.YYYY literal, compared as a string.
type Exam struct {
	Date string
	Time string
}

// ExamKind identifies one of the three exam sittings.
type ExamKind int

const (
	Midterm ExamKind = iota
	Final
	Makeup
)

// Label returns the Turkish label shown in replies.
func (k ExamKind) Label() string {
	switch k {
	case Midterm:
		return "Vize"
	case Final:
		return "Final"
	case Makeup:
		return "Bütünleme"
	default:
		return ""
	}
}

// Record is one course offering. Immutable after load.
type Record struct {
	Row        int // 1-based row in the source, for diagnostics
	ClassYear  int
	Name       string
	Instructor string
	Slots      [2]Slot
	Midterm    Exam
	Final      Exam
	Makeup     Exam

	// Document is the raw concatenation of all fields in column order.
	Document string
	// NormalizedDocument is Document after normalization.
	NormalizedDocument string
}

// Exam returns the sitting of the given kind.
func (r *Record) Exam(kind ExamKind) Exam {
	switch kind {
	case Midterm:
		return r.Midterm
	case Final:
		return r.Final
	default:
		return r.Makeup
	}
}

// Fields returns the 15 positional values in dataset column order.
func (r *Record) Fields() [ColumnCount]string {
	return [ColumnCount]string{
		strconv.Itoa(r.ClassYear),
		r.Name,
		r.Instructor,
		r.Slots[0].Weekday, r.Slots[0].Time, r.Slots[0].Room,
		r.Slots[1].Weekday, r.Slots[1].Time, r.Slots[1].Room,
		r.Midterm.Date, r.Midterm.Time,
		r.Final.Date, r.Final.Time,
		r.Makeup.Date, r.Makeup.Time,
	}
}

// BuildDocument joins the record's fields with spaces in column order.
// Blank fields render as Placeholder so every document has the same shape.
func BuildDocument(r *Record) string {
	fields := r.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			f = Placeholder
		}
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}
