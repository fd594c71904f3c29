package memory

import "strings"

// Importance scoring is a pure function of the text and kind so that
// results are reproducible across runs and testable without fixtures.

// priorityCues signal that a fragment carries decisions, goals or
// deadlines worth remembering.
var priorityCues = []string{
	"important", "urgent", "goal", "objective", "decision", "decide",
	"problem", "solution", "project", "plan", "deadline", "commit",
	"promise", "remember", "always", "never",
}

// emotionCues map emotional registers to their keyword markers.
var emotionCues = map[string][]string{
	"positive":   {"happy", "excited", "motivated", "great", "love", "thrilled", "proud"},
	"negative":   {"sad", "frustrated", "worried", "anxious", "difficult", "disappointed", "hate"},
	"determined": {"determined", "ready", "focused", "committed", "will do"},
}

// topicCues map coarse topics to their keyword markers. Detected topics
// enrich the synthesis prompt.
var topicCues = map[string][]string{
	"business":   {"business", "startup", "marketing", "sales", "customer"},
	"growth":     {"habit", "mindset", "growth", "improve", "learning"},
	"health":     {"health", "fitness", "sleep", "nutrition", "exercise"},
	"education":  {"study", "course", "training", "skill", "learn"},
	"technology": {"code", "programming", "software", "tech", "app"},
	"creative":   {"design", "writing", "music", "art", "creative"},
	"finance":    {"money", "budget", "invest", "savings", "finance"},
}

const (
	cueWeight        = 0.15
	cueCap           = 0.5
	emotionWeight    = 0.05
	emotionCap       = 0.15
	lengthBonusCap   = 0.15
	lengthBonusScale = 2000.0
)

// ScoreImportance rates a fragment in [0,1] from keyword cues, emotional
// register, length and kind. Deterministic: same input, same score.
func ScoreImportance(text string, kind Kind) float64 {
	lower := strings.ToLower(text)

	var cueHits int
	for _, cue := range priorityCues {
		if strings.Contains(lower, cue) {
			cueHits++
		}
	}
	score := float64(cueHits) * cueWeight
	if score > cueCap {
		score = cueCap
	}

	var emotionHits int
	for _, cues := range emotionCues {
		for _, cue := range cues {
			if strings.Contains(lower, cue) {
				emotionHits++
			}
		}
	}
	emotion := float64(emotionHits) * emotionWeight
	if emotion > emotionCap {
		emotion = emotionCap
	}
	score += emotion

	length := float64(len(lower)) / lengthBonusScale * lengthBonusCap
	if length > lengthBonusCap {
		length = lengthBonusCap
	}
	score += length

	switch kind {
	case KindSummary:
		score += 0.1
	case KindInsight:
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	if score < 0.05 {
		score = 0.05
	}
	return score
}

// Topics returns the coarse topics detected in a fragment, in stable
// (alphabetical-by-construction) order.
func Topics(text string) []string {
	return detectCues(text, topicCues, topicOrder)
}

// Emotions returns the emotional registers detected in a fragment.
// Fragments with no markers report "neutral".
func Emotions(text string) []string {
	found := detectCues(text, emotionCues, emotionOrder)
	if len(found) == 0 {
		return []string{"neutral"}
	}
	return found
}

// Fixed iteration orders keep detection output deterministic.
var (
	topicOrder   = []string{"business", "creative", "education", "finance", "growth", "health", "technology"}
	emotionOrder = []string{"determined", "negative", "positive"}
)

func detectCues(text string, cues map[string][]string, order []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, name := range order {
		for _, cue := range cues[name] {
			if strings.Contains(lower, cue) {
				found = append(found, name)
				break
			}
		}
	}
	return found
}
