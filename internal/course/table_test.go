package course_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/course/coursetest"
)

func TestNewTable_DerivesDocuments(t *testing.T) {
	table := coursetest.Table(strings.ToUpper)

	require.Equal(t, len(coursetest.Rows), table.Len())
	first := table.At(0)
	assert.Equal(t, course.BuildDocument(first), first.Document)
	assert.Equal(t, strings.ToUpper(first.Document), first.NormalizedDocument)
	assert.Len(t, table.NormalizedDocuments(), table.Len())
}

func TestTable_At(t *testing.T) {
	table := coursetest.Table(nil)

	assert.Nil(t, table.At(-1))
	assert.Nil(t, table.At(table.Len()))
	assert.Equal(t, "Matematik I", table.At(0).Name)

	var empty *course.Table
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.At(0))
}

func TestTable_Lookups(t *testing.T) {
	table := coursetest.Table(nil)

	assert.Equal(t,
		[]string{"Veri Yapıları", "Algoritmalar"},
		course.CourseNames(table.ByClassYear(2)))

	assert.Equal(t,
		[]string{"Matematik I", "Veri Yapıları", "İşletim Sistemleri"},
		course.CourseNames(table.ByWeekday("pazartesi")))

	assert.Equal(t,
		[]string{"İşletim Sistemleri", "Veri Yapıları"},
		course.CourseNames(table.ByWeekday("cuma")))

	assert.Empty(t, table.ByWeekday(""))

	assert.Equal(t,
		[]string{"Matematik I", "Algoritmalar"},
		course.CourseNames(table.ByInstructor("ahmet")))

	assert.Equal(t,
		[]string{"Ahmet Yılmaz", "Ayşe Demir", "Mehmet Kaya"},
		table.Instructors())
}

func TestTable_ExamsOn(t *testing.T) {
	table := coursetest.Table(nil)

	hits := table.ExamsOn("15.06.2025")
	require.Len(t, hits, 2)
	assert.Equal(t, "Matematik I", hits[0].Record.Name)
	assert.Equal(t, course.Final, hits[0].Kind)
	assert.Equal(t, "İşletim Sistemleri", hits[1].Record.Name)

	assert.Empty(t, table.ExamsOn("31.12.2030"))
	assert.Empty(t, table.ExamsOn(""))
}
