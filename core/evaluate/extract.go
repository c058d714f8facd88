package evaluate

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/siherrmann/geobench/core/graph"
)

// numberPattern accepts thousands groups only when a non-digit or the end
// follows them. The trailing character is part of the match.
var numberPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?(?:[^\d]|$)|\d+(?:\.\d+)?`)

var abstentions = map[string]bool{
	"":              true,
	"none":          true,
	"null":          true,
	"nil":           true,
	"n/a":           true,
	"unknown":       true,
	"i don't know":  true,
	"i do not know": true,
}

// ExtractNumeric returns the distance contained in a raw answer or nil when
// the answer abstains. Strings yield their first number (thousands separators
// allowed), lists their first element.
func ExtractNumeric(raw any) *float64 {
	var v float64
	switch a := raw.(type) {
	case nil:
		return nil
	case float64:
		v = a
	case float32:
		v = float64(a)
	case int:
		v = float64(a)
	case int64:
		v = float64(a)
	case json.Number:
		f, err := a.Float64()
		if err != nil {
			return nil
		}
		v = f
	case string:
		match := strings.TrimRightFunc(numberPattern.FindString(a), func(r rune) bool {
			return !unicode.IsDigit(r)
		})
		if match == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil {
			return nil
		}
		v = f
	case []any:
		if len(a) == 0 {
			return nil
		}
		return ExtractNumeric(a[0])
	case []string:
		if len(a) == 0 {
			return nil
		}
		return ExtractNumeric(a[0])
	case []float64:
		if len(a) == 0 {
			return nil
		}
		return ExtractNumeric(a[0])
	default:
		return nil
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ExtractCityName returns the city named in a raw answer or nil when the
// answer abstains. Strings, lists (first element) and RDF IRIs are accepted.
// The name is normalised to one of known when it matches exactly, contains a
// known name or is within a small edit distance of one; otherwise the cleaned
// text is returned as is.
func ExtractCityName(raw any, known []string) *string {
	var text string
	switch a := raw.(type) {
	case string:
		text = a
	case []any:
		if len(a) == 0 {
			return nil
		}
		return ExtractCityName(a[0], known)
	case []string:
		if len(a) == 0 {
			return nil
		}
		return ExtractCityName(a[0], known)
	default:
		return nil
	}

	text = strings.Trim(strings.TrimSpace(text), "\"'`.!?")
	if strings.Contains(text, "#") || strings.HasPrefix(text, "ns1:") {
		text = graph.NameFromIRI(text)
	}
	text = strings.TrimSpace(text)
	if abstentions[strings.ToLower(text)] {
		return nil
	}

	name := matchKnown(text, known)
	return &name
}

func matchKnown(text string, known []string) string {
	lower := strings.ToLower(text)

	for _, k := range known {
		if strings.EqualFold(k, text) {
			return k
		}
	}

	contained := ""
	for _, k := range known {
		if containsWord(lower, strings.ToLower(k)) && len(k) > len(contained) {
			contained = k
		}
	}
	if contained != "" {
		return contained
	}

	best := ""
	bestDistance := math.MaxInt
	for _, k := range known {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(k))
		if d < bestDistance {
			best = k
			bestDistance = d
		}
	}
	if best != "" && bestDistance <= max(1, len(best)/4) {
		return best
	}

	return text
}

// containsWord reports whether word occurs in text delimited by non-letters
func containsWord(text string, word string) bool {
	for offset := 0; offset <= len(text)-len(word); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
