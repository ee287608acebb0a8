// Package grading turns raw scores into grades and rolls grades up into GPA values.
package grading

import (
	"math"
	"sort"
)

// Letter grades on the half-step scale.
const (
	APlus  = "A+"
	A      = "A"
	AMinus = "A-"
	BPlus  = "B+"
	B      = "B"
	BMinus = "B-"
	CPlus  = "C+"
	C      = "C"
	CMinus = "C-"
	DPlus  = "D+"
	D      = "D"
	DMinus = "D-"
	F      = "F"
)

type band struct {
	min    float64
	letter string
	points float64
}

// bands is ordered from the highest threshold down; F catches everything below 40.
var bands = []band{
	{95, APlus, 4.0},
	{90, A, 4.0},
	{85, AMinus, 3.7},
	{80, BPlus, 3.3},
	{75, B, 3.0},
	{70, BMinus, 2.7},
	{65, CPlus, 2.3},
	{60, C, 2.0},
	{55, CMinus, 1.7},
	{50, DPlus, 1.3},
	{45, D, 1.0},
	{40, DMinus, 0.7},
}

var gradePoints = func() map[string]float64 {
	m := make(map[string]float64, len(bands)+1)
	for _, b := range bands {
		m[b.letter] = b.points
	}
	m[F] = 0
	return m
}()

// Result is the outcome of grading one enrollment.
type Result struct {
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
	NumericGrade float64 `json:"numeric_grade"`
	LetterGrade  string  `json:"letter_grade"`
	GradePoints  float64 `json:"grade_points"`
}

// Calculate grades coursework and exam scores against their maxima. When both
// maxima are zero the percentage is 0 and the grade is F.
func Calculate(coursework, courseworkMax, exam, examMax int) Result {
	total := coursework + exam
	maxTotal := courseworkMax + examMax

	var percentage float64
	if maxTotal > 0 {
		percentage = float64(total*100) / float64(maxTotal)
	}

	letter := LetterFor(percentage)
	return Result{
		Total:        total,
		Percentage:   percentage,
		NumericGrade: Round2(percentage),
		LetterGrade:  letter,
		GradePoints:  gradePoints[letter],
	}
}

// LetterFor maps a percentage to its letter band.
func LetterFor(percentage float64) string {
	for _, b := range bands {
		if percentage >= b.min {
			return b.letter
		}
	}
	return F
}

// GradePoints returns the 4.0-scale value of letter and whether it is recognised.
func GradePoints(letter string) (float64, bool) {
	p, ok := gradePoints[letter]
	return p, ok
}

// IsPassing reports whether letter counts as a passed course: a recognised
// grade other than F.
func IsPassing(letter string) bool {
	_, ok := gradePoints[letter]
	return ok && letter != F
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Course is one graded enrollment contributing to a GPA.
type Course struct {
	EnrollmentID string
	CreditHours  int
	LetterGrade  string
}

// Term groups the graded courses of one term in chronological position.
type Term struct {
	ID      string
	Year    string
	Order   int
	GPA     float64
	Courses []Course
}

// weighted accumulates credit-weighted grade points. Ungraded courses are
// ignored and unrecognised letters are reported to diag.
func weighted(courses []Course, diag *Diagnostics) (points float64, credits int) {
	for _, c := range courses {
		if c.LetterGrade == "" {
			continue
		}
		p, ok := gradePoints[c.LetterGrade]
		if !ok {
			diag.add(c.EnrollmentID, c.LetterGrade)
			continue
		}
		points += p * float64(c.CreditHours)
		credits += c.CreditHours
	}
	return points, credits
}

// TermGPA is the credit-weighted grade point average of courses, 0 when
// nothing is graded.
func TermGPA(courses []Course, diag *Diagnostics) float64 {
	points, credits := weighted(courses, diag)
	if credits == 0 {
		return 0
	}
	return Round2(points / float64(credits))
}

// CumulativeGPA re-derives the cumulative average over every term with a
// positive GPA. It is a pure function of history so repeated runs agree.
func CumulativeGPA(terms []Term, diag *Diagnostics) float64 {
	ordered := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.GPA > 0 {
			ordered = append(ordered, t)
		}
	}
	SortTerms(ordered)

	var points float64
	var credits int
	for _, t := range ordered {
		p, c := weighted(t.Courses, diag)
		points += p
		credits += c
	}
	if credits == 0 {
		return 0
	}
	return Round2(points / float64(credits))
}

// SortTerms orders terms by academic year name then position in the year.
func SortTerms(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Year != terms[j].Year {
			return terms[i].Year < terms[j].Year
		}
		return terms[i].Order < terms[j].Order
	})
}
