package learner

import (
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING-STYLE CLASSIFIER
// Pure functions over the engagement counters. Classification never mutates
// the counters; writing the AnalyzedStyle snapshot is the caller's job.
// ══════════════════════════════════════════════════════════════════════════════

// Classify returns the dominant learning style: the argmax over the four
// engagement counters. Ties resolve to the first style in shared.StyleOrder,
// so with equal counters the result is always "visual". The reduction walks
// the pinned enumeration order and only a strictly greater counter replaces
// the current winner - map iteration order plays no part.
func Classify(e Engagement) shared.LearningStyle {
	dominant := shared.StyleOrder[0]
	best := e.For(dominant)

	for _, style := range shared.StyleOrder[1:] {
		if v := e.For(style); v > best {
			dominant = style
			best = v
		}
	}

	return dominant
}

// Breakdown returns the per-dimension engagement share as percentages
// (counter / sum * 100). This is the profile-display projection; it is
// derived on read and never stored. Returns nil when no engagement has
// been accumulated, mirroring Classify's precondition-free counterpart.
func Breakdown(e Engagement) map[shared.LearningStyle]float64 {
	total := e.Sum()
	if total == 0 {
		return nil
	}

	out := make(map[shared.LearningStyle]float64, len(shared.StyleOrder))
	for _, style := range shared.StyleOrder {
		out[style] = float64(e.For(style)) / float64(total) * 100
	}
	return out
}
