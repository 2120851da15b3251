package retrieval

import "testing"

func TestClip01Bounds(t *testing.T) {
	if clip01(-0.5) != 0 {
		t.Fatalf("expected negative clipped to 0")
	}
	if clip01(1.5) != 1 {
		t.Fatalf("expected overflow clipped to 1")
	}
	if clip01(0.42) != 0.42 {
		t.Fatalf("expected in-range value unchanged")
	}
}

func TestPhraseAdjacentDetectsNearbyKeywords(t *testing.T) {
	text := "the early withdrawal fee applies after thirty days"
	if !phraseAdjacent(text, []string{"withdrawal", "fee"}) {
		t.Fatalf("expected adjacent keywords to be detected")
	}
}

func TestPhraseAdjacentFalseWhenFar(t *testing.T) {
	text := "fee schedules vary by account type and region and eligibility and finally withdrawal rules apply"
	if phraseAdjacent(text, []string{"fee", "withdrawal"}) {
		t.Fatalf("expected distant keywords not to count as adjacent")
	}
}

func TestPhraseAdjacentRequiresTwoKeywords(t *testing.T) {
	if phraseAdjacent("fee fee fee", []string{"fee"}) {
		t.Fatalf("expected single keyword never to count as adjacent")
	}
}
