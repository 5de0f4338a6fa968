package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDocument(t *testing.T) {
	r := &Record{
		ClassYear:  2,
		Name:       "Algoritmalar",
		Instructor: "Ahmet Yılmaz",
		Slots: [2]Slot{
			{Weekday: "Salı", Time: "10:00", Room: "B203"},
		},
		Midterm: Exam{Date: "12.04.2025", Time: "10:00"},
		Final:   Exam{Date: "17.06.2025"},
	}

	want := "2 Algoritmalar Ahmet Yılmaz Salı 10:00 B203 nan nan nan 12.04.2025 10:00 17.06.2025 nan nan nan"
	assert.Equal(t, want, BuildDocument(r))
}

func TestBuildDocument_FieldOrder(t *testing.T) {
	r := &Record{
		ClassYear:  1,
		Name:       "n",
		Instructor: "i",
		Slots:      [2]Slot{{"d1", "t1", "r1"}, {"d2", "t2", "r2"}},
		Midterm:    Exam{"md", "mt"},
		Final:      Exam{"fd", "ft"},
		Makeup:     Exam{"bd", "bt"},
	}

	assert.Equal(t, "1 n i d1 t1 r1 d2 t2 r2 md mt fd ft bd bt", BuildDocument(r))
}

func TestExamKind(t *testing.T) {
	r := &Record{
		Midterm: Exam{Date: "a"},
		Final:   Exam{Date: "b"},
		Makeup:  Exam{Date: "c"},
	}

	assert.Equal(t, "a", r.Exam(Midterm).Date)
	assert.Equal(t, "b", r.Exam(Final).Date)
	assert.Equal(t, "c", r.Exam(Makeup).Date)
	assert.Equal(t, "Vize", Midterm.Label())
	assert.Equal(t, "Final", Final.Label())
	assert.Equal(t, "Bütünleme", Makeup.Label())
}

func TestParseClassYear(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"1", 1, true},
		{"4", 4, true},
		{"2.0", 2, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"2.5", 0, false},
		{"birinci", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseClassYear(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 0, width(nil))
	assert.Equal(t, 0, width([]string{"", " "}))
	assert.Equal(t, 2, width([]string{"a", "b", "", ""}))
	assert.Equal(t, 3, width([]string{"a", "", "c"}))
}
