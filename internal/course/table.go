package course

import (
	"strings"

	"github.com/garyellow/ders-bilgi-bot/internal/sliceutil"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

// Table is the ordered, read-only set of records from one load.
type Table struct {
	records []Record
}

// ExamMatch is one exam sitting scheduled on a queried date.
type ExamMatch struct {
	Record *Record
	Kind   ExamKind
}

// NewTable builds the derived documents of every record.
// normalize may be nil, leaving NormalizedDocument equal to Document.
func NewTable(records []Record, normalize func(string) string) *Table {
	for i := range records {
		records[i].Document = BuildDocument(&records[i])
		if normalize != nil {
			records[i].NormalizedDocument = normalize(records[i].Document)
		} else {
			records[i].NormalizedDocument = records[i].Document
		}
	}
	return &Table{records: records}
}

// Renormalized returns a copy of t whose normalized documents are derived
// with normalize. t is left untouched.
func (t *Table) Renormalized(normalize func(string) string) *Table {
	records := make([]Record, t.Len())
	if t != nil {
		copy(records, t.records)
	}
	return NewTable(records, normalize)
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the record at index i, or nil when out of range.
func (t *Table) At(i int) *Record {
	if t == nil || i < 0 || i >= len(t.records) {
		return nil
	}
	return &t.records[i]
}

// All returns every record in table order.
func (t *Table) All() []*Record {
	return t.filter(func(*Record) bool { return true })
}

// NormalizedDocuments returns the corpus the similarity index is fit on.
func (t *Table) NormalizedDocuments() []string {
	docs := make([]string, t.Len())
	for i := range docs {
		docs[i] = t.records[i].NormalizedDocument
	}
	return docs
}

// ByClassYear returns records of the given class year.
func (t *Table) ByClassYear(year int) []*Record {
	return t.filter(func(r *Record) bool { return r.ClassYear == year })
}

// ByWeekday returns records meeting on day in either slot.
// day must already be lowercased.
func (t *Table) ByWeekday(day string) []*Record {
	if day == "" {
		return nil
	}
	return t.filter(func(r *Record) bool {
		return textnorm.Lower(r.Slots[0].Weekday) == day || textnorm.Lower(r.Slots[1].Weekday) == day
	})
}

// ByInstructor returns records whose lowercased instructor contains sub.
func (t *Table) ByInstructor(sub string) []*Record {
	return t.filter(func(r *Record) bool {
		return strings.Contains(textnorm.Lower(r.Instructor), sub)
	})
}

// Instructors returns the distinct non-blank instructor names in table order.
func (t *Table) Instructors() []string {
	names := make([]string, 0, t.Len())
	for i := range t.Len() {
		if name := t.records[i].Instructor; name != "" {
			names = append(names, name)
		}
	}
	return sliceutil.Distinct(names)
}

// ExamsOn returns every sitting dated exactly date, in table order and
// midterm, final, makeup order within a record.
func (t *Table) ExamsOn(date string) []ExamMatch {
	if date == "" {
		return nil
	}
	var out []ExamMatch
	for i := range t.Len() {
		r := &t.records[i]
		for _, kind := range []ExamKind{Midterm, Final, Makeup} {
			if r.Exam(kind).Date == date {
				out = append(out, ExamMatch{Record: r, Kind: kind})
			}
		}
	}
	return out
}

func (t *Table) filter(keep func(*Record) bool) []*Record {
	var out []*Record
	for i := range t.Len() {
		if r := &t.records[i]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// CourseNames returns the distinct course names of recs, in order.
func CourseNames(recs []*Record) []string {
	return sliceutil.Distinct(sliceutil.Map(recs, func(r *Record) string { return r.Name }))
}
