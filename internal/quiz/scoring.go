package quiz

import (
	"fmt"
	"math"

	"github.com/eredeticsakra/csakra-api/internal/models"
)

// Chakras lists the seven chakras in question order. Answers map onto
// them in consecutive blocks of four: answers[0..3] score the first
// chakra, answers[4..7] the second, and so on.
var Chakras = []string{"root", "sacral", "solar", "heart", "throat", "third_eye", "crown"}

// Interpretation levels for a single chakra score.
const (
	LevelBlocked    = "blocked"
	LevelImbalanced = "imbalanced"
	LevelBalanced   = "balanced"
)

// Health statuses across all seven scores.
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

const questionsPerChakra = 4

// Score computes per-chakra sums from the 28 quiz answers. Each answer
// is on a 1-4 scale, so every chakra lands in [4,16].
func Score(answers []int) (map[string]int, error) {
	if len(answers) != models.QuizAnswerCount {
		return nil, fmt.Errorf("expected %d answers, got %d", models.QuizAnswerCount, len(answers))
	}
	for i, a := range answers {
		if a < 1 || a > 4 {
			return nil, fmt.Errorf("answer %d out of range: %d", i, a)
		}
	}

	scores := make(map[string]int, len(Chakras))
	for i, chakra := range Chakras {
		sum := 0
		for _, a := range answers[i*questionsPerChakra : (i+1)*questionsPerChakra] {
			sum += a
		}
		scores[chakra] = sum
	}
	return scores, nil
}

// Level maps a chakra score to its interpretation level.
func Level(score int) (string, error) {
	switch {
	case score >= 4 && score <= 7:
		return LevelBlocked, nil
	case score >= 8 && score <= 12:
		return LevelImbalanced, nil
	case score >= 13 && score <= 16:
		return LevelBalanced, nil
	default:
		return "", fmt.Errorf("chakra score %d outside [4,16]", score)
	}
}

// PrimaryBlock returns the chakra with the lowest score. Ties resolve
// to the earlier chakra in question order.
func PrimaryBlock(scores map[string]int) string {
	primary := ""
	min := math.MaxInt
	for _, chakra := range Chakras {
		if s, ok := scores[chakra]; ok && s < min {
			min = s
			primary = chakra
		}
	}
	return primary
}

// WellnessPercent maps the total score onto 0-100. The floor is 28
// (all answers 1) and the ceiling 112 (all answers 4).
func WellnessPercent(scores map[string]int) int {
	total := 0
	for _, s := range scores {
		total += s
	}
	const minTotal, maxTotal = 28, 112
	pct := float64(total-minTotal) / float64(maxTotal-minTotal) * 100
	return int(math.Round(pct))
}

// Health classifies a score set by how many chakras fall below 12:
// none is healthy, up to two is a warning, more is critical.
func Health(scores map[string]int) string {
	low := 0
	for _, s := range scores {
		if s < 12 {
			low++
		}
	}
	switch {
	case low == 0:
		return HealthHealthy
	case low <= 2:
		return HealthWarning
	default:
		return HealthCritical
	}
}
