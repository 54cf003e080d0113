package mastery

const (
	// DefaultTargetMs is the response time at which a recall still counts
	// as fluent.
	DefaultTargetMs = 4000

	// DefaultStreakCap is the streak at which consistency is maxed out.
	DefaultStreakCap = 8
)

// SpeedScore rates an average response time against targetMs: 1.0 up to
// half the target, falling linearly to 0.5 at the target and to 0 at twice
// the target.
func SpeedScore(responseMs, targetMs int) float64 {
	if targetMs <= 0 || responseMs <= 0 {
		return 0.5 // neutral
	}
	ratio := float64(responseMs) / float64(targetMs)
	switch {
	case ratio <= 0.5:
		return 1.0
	case ratio <= 1.0:
		return 1.0 - (ratio - 0.5)
	default:
		return max(0.0, 0.5-0.5*(ratio-1.0))
	}
}

// ConsistencyScore computes the consistency component from a streak.
func ConsistencyScore(streak, cap int) float64 {
	if cap <= 0 {
		return 0.0
	}
	if streak >= cap {
		return 1.0
	}
	return float64(streak) / float64(cap)
}

// FluencyScore combines accuracy, speed and consistency into 0..1.
func FluencyScore(accuracy, speed, consistency float64) float64 {
	score := 0.6*clamp(accuracy, 0, 1) + 0.2*clamp(speed, 0, 1) + 0.2*clamp(consistency, 0, 1)
	return clamp(score, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
