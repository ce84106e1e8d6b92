package domain

import "fmt"

// Quality is a single review's recall outcome, from total forgetting (0) to
// instantaneous perfect recall (5).
type Quality int

// Named quality scores.
const (
	QualityBlackout          Quality = 0 // complete blackout
	QualityIncorrect         Quality = 1 // wrong, remembered on seeing the answer
	QualityIncorrectFamiliar Quality = 2 // wrong, but the answer felt familiar
	QualityCorrectDifficult  Quality = 3 // correct with serious effort
	QualityCorrectHesitation Quality = 4 // correct after hesitation
	QualityPerfect           Quality = 5 // perfect recall

	MinQuality = QualityBlackout
	MaxQuality = QualityPerfect
)

// ParseQuality converts a raw integer into a Quality.
// Returns ErrInvalidQuality if the value is outside [0,5].
func ParseQuality(v int) (Quality, error) {
	q := Quality(v)
	if !q.Valid() {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidQuality, v)
	}
	return q, nil
}

// Valid reports whether q is within [0,5].
func (q Quality) Valid() bool {
	return q >= MinQuality && q <= MaxQuality
}

// RepeatsSameDay reports whether the item must be presented again today.
func (q Quality) RepeatsSameDay() bool {
	return q < QualityIncorrectFamiliar
}

// IsCorrect reports whether the answer counts as correct.
func (q Quality) IsCorrect() bool {
	return q >= QualityCorrectDifficult
}
