package analyzer

import "strings"

// isTyposquat compares a domain's primary label against the brand corpus.
// An exact match is the brand itself, not a squat; the heuristics fire only
// on near-misses.
func isTyposquat(domain string, popular []string) bool {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return false
	}
	label := parts[0]

	for _, p := range popular {
		brand := strings.Split(p, ".")[0]

		if d := levenshteinDistance(label, brand); d > 0 && d <= 2 {
			return true
		}
		if hasCharacterSwap(label, brand) {
			return true
		}
		if hasExtraCharacter(label, brand) {
			return true
		}
	}
	return false
}

// hasCharacterSwap reports whether two equal-length strings differ in
// exactly two positions.
func hasCharacterSwap(label, brand string) bool {
	if len(label) != len(brand) {
		return false
	}
	differences := 0
	for i := 0; i < len(label); i++ {
		if label[i] != brand[i] {
			differences++
		}
	}
	return differences == 2
}

// hasExtraCharacter reports whether one string is the other plus or minus a
// single character, with the shorter a strict substring of the longer.
func hasExtraCharacter(label, brand string) bool {
	switch len(label) - len(brand) {
	case 1:
		return strings.Contains(label, brand)
	case -1:
		return strings.Contains(brand, label)
	default:
		return false
	}
}

// hasMixedScripts flags a domain whose lowercase form mixes Latin and
// Cyrillic letters, the classic IDN homograph construction.
func hasMixedScripts(domain string) bool {
	hasLatin := false
	hasCyrillic := false
	for _, r := range strings.ToLower(domain) {
		switch {
		case r >= 'a' && r <= 'z':
			hasLatin = true
		case (r >= 'а' && r <= 'я') || r == 'ё':
			hasCyrillic = true
		}
	}
	return hasLatin && hasCyrillic
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}
