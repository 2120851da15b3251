package query

// genericStopwords are filtered out of every query regardless of class.
var genericStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"shall": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "what": true, "which": true, "who": true, "whom": true,
	"where": true, "when": true, "how": true, "why": true, "not": true,
	"no": true, "nor": true, "if": true, "then": true, "than": true,
	"so": true, "as": true, "about": true, "into": true, "between": true,
}

// bankingGenericStopwords are dropped only when they appear as a standalone
// token rather than the second half of a noun phrase (§4.8: "account",
// "bank" when not part of a noun phrase).
var bankingGenericStopwords = map[string]bool{
	"account": true,
	"bank":    true,
}

// nounPhraseBreakers are words that cannot themselves head a noun phrase
// modifying a following banking-generic noun (pronouns, articles): "my
// account" is still generic noise, while "savings account" is a specific
// product reference.
var nounPhraseBreakers = map[string]bool{
	"my": true, "your": true, "our": true, "his": true, "her": true,
	"their": true, "its": true, "i": true, "you": true, "we": true,
	"they": true, "me": true, "him": true, "them": true,
}

func isGenericStopword(w string) bool {
	return genericStopwords[w]
}

func breaksNounPhrase(w string) bool {
	return isGenericStopword(w) || nounPhraseBreakers[w]
}

func isBankingGenericStopword(w string) bool {
	return bankingGenericStopwords[w]
}
