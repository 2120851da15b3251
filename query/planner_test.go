package query

import "testing"

func TestClassifyFeeQuery(t *testing.T) {
	p := Build("what is the maximum fee for early withdrawal", "", DefaultOptions())
	if p.Class != ClassFee {
		t.Fatalf("expected fee classification, got %s", p.Class)
	}
}

func TestClassifyGeneralFallback(t *testing.T) {
	p := Build("tell me about the quarterly report", "", DefaultOptions())
	if p.Class != ClassGeneral {
		t.Fatalf("expected general classification, got %s", p.Class)
	}
}

func TestExtractKeywordsDropsGenericStopwords(t *testing.T) {
	kws := extractKeywords("what is the definition of a fee", nil)
	for _, w := range kws {
		if w == "the" || w == "is" || w == "a" || w == "of" {
			t.Fatalf("expected stopword %q to be filtered, got %+v", w, kws)
		}
	}
}

func TestKeywordsKeepNumbersVerbatim(t *testing.T) {
	kws := extractKeywords("what is the fee for transfers over 10000", nil)
	var found bool
	for _, w := range kws {
		if w == "10000" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected numeric token 10000 preserved, got %+v", kws)
	}
}

func TestBankingStopwordDroppedWhenStandalone(t *testing.T) {
	kws := extractKeywords("how do I close my account", nil)
	for _, w := range kws {
		if w == "account" {
			t.Fatalf("expected standalone 'account' filtered, got %+v", kws)
		}
	}
}

func TestBankingStopwordKeptInNounPhrase(t *testing.T) {
	kws := extractKeywords("what is the savings account limit", nil)
	var found bool
	for _, w := range kws {
		if w == "account" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'account' preceded by 'savings' to survive, got %+v", kws)
	}
}

func TestFeeClassPromotesRequiredKeyword(t *testing.T) {
	_, pattern := classify("what does this charge cost me")
	kws := extractKeywords("what does this charge cost me", pattern)
	var hasCharge, hasCost bool
	for _, w := range kws {
		if w == "charge" {
			hasCharge = true
		}
		if w == "cost" {
			hasCost = true
		}
	}
	if !hasCharge || !hasCost {
		t.Fatalf("expected fee-class keywords promoted, got %+v", kws)
	}
}

func TestBuildDefaultsToHybridFanOut(t *testing.T) {
	p := Build("how does the approval process work", "", DefaultOptions())
	if len(p.Retrievers) < 3 {
		t.Fatalf("expected multiple retrievers in the default fan-out, got %+v", p.Retrievers)
	}
}

func TestBuildRespectsStrategyHint(t *testing.T) {
	p := Build("refund policy", "vector", DefaultOptions())
	if len(p.Retrievers) != 1 || p.Retrievers[0] != RetrieverVector {
		t.Fatalf("expected pinned vector retriever, got %+v", p.Retrievers)
	}
}
