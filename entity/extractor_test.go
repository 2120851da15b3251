package entity

import "testing"

func TestExtractDeduplicatesAliasesToCanonicalForm(t *testing.T) {
	text := "The client may use an FX Forward or a Foreign Exchange Forward to hedge the exposure."
	e := New()
	cands := e.Extract(text)

	var matches int
	for _, c := range cands {
		if c.Normalized == "fx_forward" {
			matches++
			if c.Type != TypeProduct {
				t.Fatalf("expected fx_forward classified as PRODUCT, got %s", c.Type)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one deduplicated fx_forward candidate, got %d", matches)
	}
}

func TestExtractNumericAmountsAndPercentages(t *testing.T) {
	text := "The facility caps exposure at $5,000,000 with a margin of 2.5%."
	e := New()
	cands := e.Extract(text)

	var sawAmount, sawPercent bool
	for _, c := range cands {
		if c.Type == TypeAmount {
			sawAmount = true
			if c.Confidence != ConfidenceNumeric {
				t.Fatalf("expected numeric confidence for amount, got %f", c.Confidence)
			}
		}
		if c.Type == TypePercent {
			sawPercent = true
			if c.Confidence != ConfidenceNumeric {
				t.Fatalf("expected numeric confidence for percent, got %f", c.Confidence)
			}
		}
	}
	if !sawAmount || !sawPercent {
		t.Fatalf("expected both an amount and a percent candidate, got %+v", cands)
	}
}

func TestNormalizeCasefoldsAndCollapsesWhitespace(t *testing.T) {
	got := normalize("  FX   Forward, Inc.  ")
	want := "fx forward inc"
	if got != want {
		t.Fatalf("normalize() = %q, want %q", got, want)
	}
}

func TestNormalizeKeepsSlashAndHyphen(t *testing.T) {
	got := normalize("Cross-Currency / Basis Swap")
	if got != "cross-currency / basis swap" {
		t.Fatalf("normalize() = %q", got)
	}
}

func TestCuratedPatternMinimums(t *testing.T) {
	if n := curatedPatternCount(TypeProduct); n < 150 {
		t.Fatalf("expected at least 150 curated product patterns, got %d", n)
	}
	if n := curatedPatternCount(TypeTerm); n < 200 {
		t.Fatalf("expected at least 200 curated term patterns, got %d", n)
	}
}

func TestExtractCuratedTermMatch(t *testing.T) {
	text := "Neither party shall be liable under the Force Majeure Clause for delays beyond its control."
	cands := extractCurated(text)
	var found bool
	for _, c := range cands {
		if c.Type == TypeTerm && c.Normalized == "force majeure clause" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected to find Force Majeure Clause, got %+v", cands)
	}
}
