package estimate

import (
	"fmt"
	"strings"

	"pmcestimator/domain/core"
)

// ConfidenceTag captures how sure the user is about their slider settings
type ConfidenceTag string

const (
	NotConfident  ConfidenceTag = "not_confident"
	Confident     ConfidenceTag = "confident"
	VeryConfident ConfidenceTag = "very_confident"
)

// ParseConfidenceTag accepts both the canonical form and the loose UI
// spellings ("not confident", "Very Confident")
func ParseConfidenceTag(s string) (ConfidenceTag, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch ConfidenceTag(normalized) {
	case NotConfident, Confident, VeryConfident:
		return ConfidenceTag(normalized), nil
	case "":
		// Absent tag defaults to the cautious reading
		return NotConfident, nil
	default:
		return "", fmt.Errorf("%w: unknown confidence tag %q", core.ErrInvalidConfidence, s)
	}
}

// AtLeastConfident reports whether the tag is confident or very_confident
func (c ConfidenceTag) AtLeastConfident() bool {
	return c == Confident || c == VeryConfident
}
