// Package extractor turns a question plus its best-matching course record
// into a reply, using an ordered table of rules where the first match wins.
package extractor

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/garyellow/ders-bilgi-bot/internal/course"
	"github.com/garyellow/ders-bilgi-bot/internal/textnorm"
)

// Rule names, also used as the metrics label.
const (
	RuleGreeting   = "greeting"
	RuleFinal      = "final"
	RuleMidterm    = "midterm"
	RuleMakeup     = "makeup"
	RuleClassYear  = "class_year"
	RuleWeekday    = "weekday"
	RuleToday      = "today"
	RuleRoom       = "room"
	RuleInstructor = "instructor"
	RuleExamDate   = "exam_date"
	RuleFallback   = "fallback"
)

// Rule priorities (lower = higher).
const (
	PriorityGreeting = iota + 1
	PriorityFinal
	PriorityMidterm
	PriorityMakeup
	PriorityClassYear
	PriorityWeekday
	PriorityToday
	PriorityRoom
	PriorityInstructor
	PriorityExamDate
	PriorityFallback
)

// Fixed replies.
const (
	GreetingReply = "Merhaba! Size nasıl yardımcı olabilirim? 😊"
	NoRecordReply = "Eşleşen ders bulunamadı."
	blank         = "-"
)

const saturday = "cumartesi"

// Weekdays in the order they are searched for in a question.
var Weekdays = []string{"pazartesi", "salı", "çarşamba", "perşembe", "cuma"}

var (
	greetingRegex  = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(selam|merhaba|günaydın|iyi akşamlar|nasılsın)(?:$|[^\p{L}\p{N}_])`)
	classYearRegex = regexp.MustCompile(`(\p{Nd})\.?[\s\p{Z}\x{85}]*sınıf`)
	dateRegex      = regexp.MustCompile(`\p{Nd}{2}\.\p{Nd}{2}\.\p{Nd}{4}`)

	whichYearPhrases = []string{"hangi sınıf", "kaçıncı sınıf"}
	roomKeywords     = []string{"derslik", "nerede"}
)

// Reply is the answer text together with the rule that produced it.
type Reply struct {
	Rule string
	Text string
}

// Query is one question being answered.
type Query struct {
	Raw   string // question as typed
	Lower string // Turkish-lowercased Raw
	Table *course.Table

	matched func() *course.Record
	record  *course.Record
	looked  bool
}

// Record returns the best-matching record, resolving it on first use.
func (q *Query) Record() *course.Record {
	if !q.looked {
		q.looked = true
		if q.matched != nil {
			q.record = q.matched()
		}
	}
	return q.record
}

// RuleMatcher reports whether a rule applies. A nil result means no match;
// otherwise the slice carries the values the handler needs (matches[0] is the trigger).
type RuleMatcher func(q *Query) []string

// RuleHandler formats the reply for a matched rule. Must return a non-empty string.
type RuleHandler func(q *Query, matches []string) string

// Rule is a matcher-handler pair sorted by priority.
type Rule struct {
	name     string
	priority int
	match    RuleMatcher
	handler  RuleHandler
}

// Name returns the rule name.
func (r Rule) Name() string { return r.name }

// Extractor applies the rule table. Safe for concurrent use.
type Extractor struct {
	clock Clock
	loc   *time.Location
	rules []Rule
}

// New creates an Extractor. The default clock is time.Now in the local zone.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		clock: time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.initializeRules()
	return e
}

// initializeRules sets up the rule table, sorted by priority.
func (e *Extractor) initializeRules() {
	e.rules = []Rule{
		{name: RuleGreeting, priority: PriorityGreeting, match: matchGreeting, handler: handleGreeting},
		{name: RuleFinal, priority: PriorityFinal, match: matchSubstring("final"), handler: examHandler(course.Final)},
		{name: RuleMidterm, priority: PriorityMidterm, match: matchSubstring("vize"), handler: examHandler(course.Midterm)},
		{name: RuleMakeup, priority: PriorityMakeup, match: matchSubstring("büt", "bütünleme"), handler: examHandler(course.Makeup)},
		{name: RuleClassYear, priority: PriorityClassYear, match: matchClassYear, handler: handleClassYear},
		{name: RuleWeekday, priority: PriorityWeekday, match: matchWeekday, handler: handleWeekday},
		{name: RuleToday, priority: PriorityToday, match: matchSubstring("bugün"), handler: e.handleToday},
		{name: RuleRoom, priority: PriorityRoom, match: matchSubstring(roomKeywords...), handler: handleRoom},
		{name: RuleInstructor, priority: PriorityInstructor, match: matchInstructor, handler: handleInstructor},
		{name: RuleExamDate, priority: PriorityExamDate, match: matchExamDate, handler: handleExamDate},
		{name: RuleFallback, priority: PriorityFallback, match: matchAlways, handler: handleFallback},
	}

	slices.SortFunc(e.rules, func(a, b Rule) int {
		return a.priority - b.priority
	})
}

// Rules returns the rule table in evaluation order.
func (e *Extractor) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Extract returns the reply text for question.
func (e *Extractor) Extract(question string, matched *course.Record, table *course.Table) string {
	return e.Resolve(question, matched, table).Text
}

// Resolve returns the reply and the rule that produced it.
func (e *Extractor) Resolve(question string, matched *course.Record, table *course.Table) Reply {
	return e.ResolveWith(question, func() *course.Record { return matched }, table)
}

// ResolveWith is Resolve with a lazily computed matched record. matched is
// called at most once, and only by rules that read the record.
func (e *Extractor) ResolveWith(question string, matched func() *course.Record, table *course.Table) Reply {
	q := &Query{
		Raw:     question,
		Lower:   textnorm.Lower(question),
		Table:   table,
		matched: matched,
	}

	for _, rule := range e.rules {
		matches := rule.match(q)
		if matches == nil {
			continue
		}
		return Reply{Rule: rule.name, Text: rule.handler(q, matches)}
	}

	// Unreachable: the fallback rule always matches.
	return Reply{Rule: RuleFallback, Text: NoRecordReply}
}

// IsGreeting reports whether question is answered by the greeting rule.
func IsGreeting(question string) bool {
	return greetingRegex.MatchString(textnorm.Lower(question))
}

func matchAlways(*Query) []string { return []string{""} }

func matchGreeting(q *Query) []string {
	m := greetingRegex.FindStringSubmatch(q.Lower)
	if m == nil {
		return nil
	}
	return m[1:]
}

func matchSubstring(keywords ...string) RuleMatcher {
	return func(q *Query) []string {
		for _, kw := range keywords {
			if strings.Contains(q.Lower, kw) {
				return []string{kw}
			}
		}
		return nil
	}
}

// matchClassYear yields ["which"] for a which-year phrase, or [match, digit]
// for an explicit year when no weekday is named (the weekday rule then
// combines both filters).
func matchClassYear(q *Query) []string {
	for _, phrase := range whichYearPhrases {
		if strings.Contains(q.Lower, phrase) {
			return []string{phrase}
		}
	}
	if findWeekday(q.Lower) != "" {
		return nil
	}
	return classYearRegex.FindStringSubmatch(q.Lower)
}

func matchWeekday(q *Query) []string {
	if day := findWeekday(q.Lower); day != "" {
		return []string{day}
	}
	return nil
}

// findWeekday returns the first weekday named in lower. "cumartesi" is
// removed first so Saturday does not read as "cuma".
func findWeekday(lower string) string {
	lower = strings.ReplaceAll(lower, saturday, "")
	for _, day := range Weekdays {
		if strings.Contains(lower, day) {
			return day
		}
	}
	return ""
}

// matchInstructor yields [instructor, firstName] for the first instructor,
// in table order, whose lowercased first name appears in the question.
func matchInstructor(q *Query) []string {
	for _, name := range q.Table.Instructors() {
		fields := strings.Fields(name)
		if len(fields) == 0 {
			continue
		}
		first := textnorm.Lower(fields[0])
		if strings.Contains(q.Lower, first) {
			return []string{name, first}
		}
	}
	return nil
}

func matchExamDate(q *Query) []string {
	if date := dateRegex.FindString(q.Raw); date != "" {
		return []string{date}
	}
	return nil
}

func handleGreeting(*Query, []string) string {
	return GreetingReply
}

func examHandler(kind course.ExamKind) RuleHandler {
	var suffix string
	switch kind {
	case course.Final:
		suffix = "finali"
	case course.Midterm:
		suffix = "vizesi"
	default:
		suffix = "bütünlemesi"
	}

	return func(q *Query, _ []string) string {
		r := q.Record()
		if r == nil {
			return NoRecordReply
		}
		exam := r.Exam(kind)
		return r.Name + " dersi " + suffix + ": " + orBlank(exam.Date) + " Saat: " + orBlank(exam.Time)
	}
}

func handleClassYear(q *Query, matches []string) string {
	if len(matches) == 1 {
		r := q.Record()
		if r == nil {
			return NoRecordReply
		}
		return r.Name + " dersi " + strconv.Itoa(r.ClassYear) + ". sınıf dersidir."
	}

	year := digitValue(matches[1])
	names := course.CourseNames(q.Table.ByClassYear(year))
	if len(names) == 0 {
		return matches[1] + ". sınıf için ders bulunamadı."
	}
	return list(matches[1]+". sınıf dersleri:", names)
}

// digitValue returns the value of a single decimal digit in any script.
// Unicode lays each script's digits out as a contiguous run from zero.
func digitValue(d string) int {
	r, _ := utf8.DecodeRuneInString(d)
	zero := r
	for unicode.IsDigit(zero - 1) {
		zero--
	}
	return int(r-zero) % 10
}

func handleWeekday(q *Query, matches []string) string {
	day := matches[0]
	recs := q.Table.ByWeekday(day)

	if m := classYearRegex.FindStringSubmatch(q.Lower); m != nil {
		year := digitValue(m[1])
		recs = slices.DeleteFunc(recs, func(r *course.Record) bool { return r.ClassYear != year })
	}

	title := textnorm.Capitalize(day)
	names := course.CourseNames(recs)
	if len(names) == 0 {
		return title + " günü için ders bulunamadı."
	}
	return list(title+" günü dersler:", names)
}

func (e *Extractor) handleToday(q *Query, _ []string) string {
	day := WeekdayName(e.clock().In(e.loc).Weekday())
	names := course.CourseNames(q.Table.ByWeekday(day))
	if len(names) == 0 {
		return "Bugün ders yok."
	}
	return list("Bugün ("+day+") olan dersler:", names)
}

func handleRoom(q *Query, _ []string) string {
	r := q.Record()
	if r == nil {
		return NoRecordReply
	}
	return r.Name + " dersi:\n" +
		"- " + orBlank(r.Slots[0].Weekday) + ": " + orBlank(r.Slots[0].Room) + "\n" +
		"- " + orBlank(r.Slots[1].Weekday) + ": " + orBlank(r.Slots[1].Room)
}

func handleInstructor(q *Query, matches []string) string {
	names := course.CourseNames(q.Table.ByInstructor(matches[1]))
	return list(matches[0]+" hocanın verdiği dersler:", names)
}

func handleExamDate(q *Query, matches []string) string {
	date := matches[0]
	hits := q.Table.ExamsOn(date)
	if len(hits) == 0 {
		return date + " tarihinde herhangi bir sınav bulunamadı."
	}

	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = h.Record.Name + " (" + h.Kind.Label() + ")"
	}
	return list(date+" tarihinde yapılan sınav(lar):", lines)
}

func handleFallback(q *Query, _ []string) string {
	r := q.Record()
	if r == nil {
		return NoRecordReply
	}
	return r.Name + " dersi hakkında bilgi: " + strconv.Itoa(r.ClassYear) + ". sınıf, Vize: " +
		orBlank(r.Midterm.Date) + ", Final: " + orBlank(r.Final.Date)
}

// WeekdayName maps a weekday to its Turkish name. Weekend days map to "".
func WeekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "pazartesi"
	case time.Tuesday:
		return "salı"
	case time.Wednesday:
		return "çarşamba"
	case time.Thursday:
		return "perşembe"
	case time.Friday:
		return "cuma"
	default:
		return ""
	}
}

func list(title string, items []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

func orBlank(s string) string {
	if s == "" {
		return blank
	}
	return s
}
