// Package ingredient normalizes ingredient and product names so that shopping
// consolidation and nutrition matching operate on comparable strings.
package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseTokens are packaging/marketing words stripped from product names before
// matching. They carry no nutritional identity.
var noiseTokens = map[string]bool{
	"organic":     true,
	"fresh":       true,
	"natural":     true,
	"premium":     true,
	"select":      true,
	"original":    true,
	"classic":     true,
	"brand":       true,
	"value":       true,
	"family":      true,
	"size":        true,
	"pack":        true,
	"bag":         true,
	"box":         true,
	"bottle":      true,
	"can":         true,
	"jar":         true,
	"frozen":      true,
	"raw":         true,
	"whole":       true,
	"boneless":    true,
	"skinless":    true,
	"unsalted":    true,
	"salted":      true,
	"unsweetened": true,
	"sweetened":   true,
}

// irregularPlurals that naive singularization must not mangle.
var irregularPlurals = map[string]string{
	"tomatoes": "tomato",
	"potatoes": "potato",
	"leaves":   "leaf",
	"loaves":   "loaf",
	"halves":   "half",
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Clean normalizes a raw ingredient or product name: case folding, diacritic
// stripping, trademark/marketing noise removal, size removal, whitespace
// collapse. Descriptors after the first comma are dropped ("flour, sifted").
func Clean(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}

	if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[:idx]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '/':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	s = b.String()

	tokens := strings.Fields(s)
	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if noiseTokens[tok] {
			continue
		}
		// Drop size fragments like "12 oz" / "500 g".
		if isNumeric(tok) && i+1 < len(tokens) && isSizeUnit(tokens[i+1]) {
			continue
		}
		if isSizeUnit(tok) && i > 0 && isNumeric(tokens[i-1]) {
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) > 0 {
		kept[len(kept)-1] = singularize(kept[len(kept)-1])
	}

	return strings.Join(kept, " ")
}

// singularize applies naive English singularization to a single token.
func singularize(tok string) string {
	if s, ok := irregularPlurals[tok]; ok {
		return s
	}
	switch {
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "ses") || strings.HasSuffix(tok, "shes") || strings.HasSuffix(tok, "ches"):
		return tok[:len(tok)-2]
	case strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && len(tok) > 3:
		return tok[:len(tok)-1]
	}
	return tok
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != '/' {
			return false
		}
	}
	return len(s) > 0
}

func isSizeUnit(s string) bool {
	switch s {
	case "oz", "ounce", "ounces", "lb", "lbs", "g", "gram", "grams", "kg", "ml", "l", "ct", "count", "fl":
		return true
	}
	return false
}

// MatchesKeywords reports whether a candidate description is an acceptable
// match for the cleaned query: at least one meaningful query token must appear
// in the candidate. Used as the validation gate in the resolution fallback
// chain.
func MatchesKeywords(query, candidate string) bool {
	queryTokens := strings.Fields(Clean(query))
	if len(queryTokens) == 0 {
		return false
	}

	cand := Clean(candidate)
	meaningful := 0
	for _, tok := range queryTokens {
		if len(tok) < 3 {
			continue
		}
		meaningful++
		if strings.Contains(cand, tok) {
			return true
		}
	}
	// Queries made only of short tokens fall back to exact comparison.
	if meaningful == 0 {
		return cand == strings.Join(queryTokens, " ")
	}
	return false
}
