package domain

// LearningStage is a label derived from repetitions and easiness. It is never
// stored; StageOf recomputes it whenever it is needed.
type LearningStage string

// Learning stages in order of progression. A lapse returns any item to StageNew.
const (
	StageNew           LearningStage = "new"
	StageLearning      LearningStage = "learning"
	StageFamiliar      LearningStage = "familiar"
	StageStrengthening LearningStage = "strengthening"
	StageMastered      LearningStage = "mastered"
)

// StageOf maps scheduling state to a stage. Mastered requires both the
// repetition and the easiness thresholds.
func StageOf(repetitions int, easiness float64) LearningStage {
	switch {
	case repetitions <= 0:
		return StageNew
	case repetitions == 1:
		return StageLearning
	case repetitions == 2:
		return StageFamiliar
	case repetitions >= MasteryRepetitions && easiness >= MasteryEasiness:
		return StageMastered
	default:
		return StageStrengthening
	}
}
