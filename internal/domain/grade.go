package domain

import "fmt"

// QualityGrade is the learner's self-assessed recall quality for one review.
type QualityGrade int

// Recognized quality grades, ordered from worst to best recall.
const (
	GradeAgain QualityGrade = 0
	GradeHard  QualityGrade = 1
	GradeGood  QualityGrade = 2
	GradeEasy  QualityGrade = 3
)

// MaxGrade is the highest valid quality grade.
const MaxGrade = GradeEasy

// Valid reports whether g is one of the four recognized grades.
func (g QualityGrade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

// IsCorrect reports whether the grade counts as a successful recall.
func (g QualityGrade) IsCorrect() bool {
	return g > GradeAgain
}

// String returns the lowercase name of the grade.
func (g QualityGrade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	default:
		return fmt.Sprintf("grade(%d)", int(g))
	}
}

// ParseGrade converts either a grade name ("again", "hard", "good", "easy")
// or its ordinal ("0".."3") into a QualityGrade.
func ParseGrade(s string) (QualityGrade, error) {
	switch s {
	case "again", "0":
		return GradeAgain, nil
	case "hard", "1":
		return GradeHard, nil
	case "good", "2":
		return GradeGood, nil
	case "easy", "3":
		return GradeEasy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}
