package services

import "strings"

// deckKeyDelimiter separates the normalized key fields. A pipe is not expected
// to occur in topics, grade levels, or locale tags.
const deckKeyDelimiter = "|"

// ComputeDeckKey derives the canonical cache key for a deck request. Fields
// are trimmed, nil-safe and lower-cased so requests differing only in case or
// incidental whitespace resolve to the same deck.
func ComputeDeckKey(topic, gradeLevel, locale string) string {
	joined := strings.Join([]string{
		normalizeField(topic),
		normalizeField(gradeLevel),
		normalizeField(locale),
	}, deckKeyDelimiter)

	return strings.ToLower(joined)
}

func normalizeField(value string) string {
	return strings.TrimSpace(value)
}

// NormalizeOptional trims a free-text field and maps blank input to absent,
// so empty strings are never persisted for optional columns.
func NormalizeOptional(value string) *string {
	normalized := normalizeField(value)
	if normalized == "" {
		return nil
	}
	return &normalized
}
