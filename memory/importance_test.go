package memory

import (
	"testing"
)

func TestScoreImportance_Cues(t *testing.T) {
	plain := ScoreImportance("the weather is fine today", KindRaw)
	cued := ScoreImportance("my most important goal is the project deadline", KindRaw)
	if cued <= plain {
		t.Errorf("Cued text scored %v, plain %v; want cued higher", cued, plain)
	}
}

func TestScoreImportance_KindOffsets(t *testing.T) {
	text := "user tends to plan in the morning"
	raw := ScoreImportance(text, KindRaw)
	summary := ScoreImportance(text, KindSummary)
	insight := ScoreImportance(text, KindInsight)
	if !(raw < summary && summary < insight) {
		t.Errorf("Kind ordering raw=%v summary=%v insight=%v, want strictly increasing", raw, summary, insight)
	}
}

func TestScoreImportance_Bounds(t *testing.T) {
	if got := ScoreImportance("x", KindRaw); got != 0.05 {
		t.Errorf("Minimal text scored %v, want floor 0.05", got)
	}

	// Stack every cue category and an insight offset; the score must
	// still clamp at 1.
	loaded := "important urgent goal decision deadline problem solution " +
		"happy excited determined focused "
	for len(loaded) < 4000 {
		loaded += loaded
	}
	if got := ScoreImportance(loaded, KindInsight); got > 1 {
		t.Errorf("Loaded text scored %v, want <= 1", got)
	}
}

func TestScoreImportance_Deterministic(t *testing.T) {
	text := "I committed to a fitness plan"
	first := ScoreImportance(text, KindRaw)
	for i := 0; i < 10; i++ {
		if got := ScoreImportance(text, KindRaw); got != first {
			t.Fatalf("Score changed between runs: %v then %v", first, got)
		}
	}
}

func TestTopics(t *testing.T) {
	got := Topics("my startup needs better code and a marketing budget")
	want := []string{"business", "finance", "technology"}
	if len(got) != len(want) {
		t.Fatalf("Topics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Topics[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := Topics("nothing notable here"); len(got) != 0 {
		t.Errorf("Topics of plain text = %v, want empty", got)
	}
}

func TestEmotions(t *testing.T) {
	got := Emotions("I am excited but a bit worried")
	want := []string{"negative", "positive"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Emotions = %v, want %v", got, want)
	}

	if got := Emotions("the sky is blue"); len(got) != 1 || got[0] != "neutral" {
		t.Errorf("Emotions of plain text = %v, want [neutral]", got)
	}
}
