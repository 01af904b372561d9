package models

// QualityScore is the learner's self-assessed recall quality on the 0-5 scale
// used by spaced repetition scheduling
type QualityScore int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityScore = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityScore = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityScore = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityScore = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityScore = 4
	// Perfect response with no hesitation
	QualityPerfect QualityScore = 5
)

// Valid reports whether the score is inside the closed range [0,5]
func (q QualityScore) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}
