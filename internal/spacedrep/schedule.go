package spacedrep

import "time"

// BaseIntervals is the review spacing in days for a correct answer, indexed
// by score/20. A score of 100 maps to the last entry.
var BaseIntervals = []int{1, 2, 4, 7, 15, 30}

// MaxScore is the ceiling for mastery and strength.
const MaxScore = 100

// Policy holds the tunable scoring and spacing constants. The curve is
// deterministic for a given Policy and state.
type Policy struct {
	Intervals    []int
	CorrectDelta int // added on a correct answer
	WrongDelta   int // subtracted on a wrong answer
	WeakScore    int // below this a wrong answer is due again immediately

	// OverdueAfter separates overdue items from merely due ones.
	OverdueAfter time.Duration

	// WrongWindow is the span of the rolling vocab wrong-count.
	WrongWindow time.Duration
}

// DefaultPolicy returns the shipped policy.
func DefaultPolicy() Policy {
	return Policy{
		Intervals:    BaseIntervals,
		CorrectDelta: 10,
		WrongDelta:   15,
		WeakScore:    40,
		OverdueAfter: 72 * time.Hour,
		WrongWindow:  7 * 24 * time.Hour,
	}
}

// Clamp bounds a score to [0, MaxScore].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	}
	return score
}

// Adjust returns the score after one attempt.
func (p Policy) Adjust(score int, correct bool) int {
	if correct {
		return Clamp(score + p.CorrectDelta)
	}
	return Clamp(score - p.WrongDelta)
}

// NextInterval returns the days until the next review for an item at score.
// Correct answers never return 0; wrong answers return 0 or 1.
func (p Policy) NextInterval(score int, correct bool) int {
	if !correct {
		if score < p.WeakScore {
			return 0
		}
		return 1
	}
	intervals := p.Intervals
	if len(intervals) == 0 {
		intervals = BaseIntervals
	}
	i := Clamp(score) * (len(intervals) - 1) / MaxScore
	if d := intervals[i]; d > 0 {
		return d
	}
	return 1
}

// NextReview returns the timestamp of the next review after an attempt
// that left the item at score.
func (p Policy) NextReview(score int, correct bool, now time.Time) time.Time {
	return now.AddDate(0, 0, p.NextInterval(score, correct))
}
