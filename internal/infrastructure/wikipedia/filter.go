package wikipedia

import "regexp"

// Business rules over upstream naming conventions: titles matching these
// patterns are meta/navigation pages that pollute a topical random-article
// experience, not readable articles.
var metaTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(Lists? of|Index of|Indices of|Outline of|Glossary of|Timelines? of)\b`),
	regexp.MustCompile(`(?i)chronolog`),
	regexp.MustCompile(`^\d{1,4}$`),
	regexp.MustCompile(`^(AD ?\d{1,4}|\d{1,4} ?(BC|BCE|AD|CE))$`),
	regexp.MustCompile(`(?i)^\d{1,2}(st|nd|rd|th)[ -](century|millennium)`),
	regexp.MustCompile(`^[A-Z][a-z]+(?: [a-z]+)* in (?:the )?[A-Z][A-Za-z]+(?: [A-Z][A-Za-z]+)*$`),
}

// IsMetaTitle reports whether a title names a list/index/timeline page, a
// year or century article, or a generic "topic in country" roundup.
func IsMetaTitle(title string) bool {
	for _, pattern := range metaTitlePatterns {
		if pattern.MatchString(title) {
			return true
		}
	}
	return false
}
