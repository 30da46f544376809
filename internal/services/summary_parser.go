package services

import "strings"

// SummaryFields holds the four sections of a summary reply. A nil field means
// its delimiter did not occur in the text.
type SummaryFields struct {
	Title          *string
	Abstract       *string
	OriginalDream  *string
	RewrittenDream *string
}

// Complete reports whether all four fields are present and non-empty.
func (f SummaryFields) Complete() bool {
	for _, v := range []*string{f.Title, f.Abstract, f.OriginalDream, f.RewrittenDream} {
		if v == nil || *v == "" {
			return false
		}
	}
	return true
}

type scanState int

const (
	seekTitle scanState = iota
	seekAbstract
	seekOriginalDream
	seekRewrittenDream
	scanDone
)

var summaryDelimiters = [scanDone]string{
	seekTitle:          "Title:",
	seekAbstract:       "Abstract:",
	seekOriginalDream:  "Original Dream:",
	seekRewrittenDream: "Rewritten Dream:",
}

// ParseSummaryFields scans text for the four delimiters in their fixed order.
// A field starts after the first occurrence of its delimiter and ends at the
// first following occurrence of the next delimiter, of its own delimiter, or
// at the end of the text. Matching is exact and case sensitive.
func ParseSummaryFields(text string) SummaryFields {
	var values [scanDone]*string

	for state := seekTitle; state < scanDone; state++ {
		delim := summaryDelimiters[state]
		start := strings.Index(text, delim)
		if start < 0 {
			continue
		}
		rest := text[start+len(delim):]

		end := len(rest)
		if i := strings.Index(rest, delim); i >= 0 {
			end = i
		}
		if next := state + 1; next < scanDone {
			if i := strings.Index(rest, summaryDelimiters[next]); i >= 0 && i < end {
				end = i
			}
		}

		v := strings.TrimSpace(rest[:end])
		values[state] = &v
	}

	return SummaryFields{
		Title:          values[seekTitle],
		Abstract:       values[seekAbstract],
		OriginalDream:  values[seekOriginalDream],
		RewrittenDream: values[seekRewrittenDream],
	}
}

// IsTerminal reports whether a reply ends the conversation.
func IsTerminal(text string, finished bool) bool {
	if finished {
		return true
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "goodbye") || strings.Contains(lower, "bye")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
