package entity

// canonicalAliases maps a normalized surface form to the canonical
// normalized form product aliases should collapse to (§4.4 example:
// {fx forward, foreign exchange forward, currency forward contract} ->
// fx_forward).
var canonicalAliases = map[string]string{
	"fx forward":                  "fx_forward",
	"foreign exchange forward":    "fx_forward",
	"currency forward contract":   "fx_forward",
	"interest rate swap":          "interest_rate_swap",
	"irs":                         "interest_rate_swap",
	"credit default swap":         "credit_default_swap",
	"cds":                         "credit_default_swap",
	"letter of credit":            "letter_of_credit",
	"lc":                          "letter_of_credit",
	"know your customer":          "kyc",
	"anti-money laundering":       "aml",
	"material adverse change":     "mac_clause",
	"most favored nation":         "mfn_clause",
	"representations and warranties": "reps_and_warranties",
}

// canonicalize maps a normalized surface to its canonical normalized form,
// or returns it unchanged if no alias is registered.
func canonicalize(normalized string) string {
	if canon, ok := canonicalAliases[normalized]; ok {
		return canon
	}
	return normalized
}
