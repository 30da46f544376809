package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummaryFields_AllFour(t *testing.T) {
	f := ParseSummaryFields("Title: A\nAbstract: B\nOriginal Dream: C\nRewritten Dream: D")
	require.True(t, f.Complete())
	assert.Equal(t, "A", *f.Title)
	assert.Equal(t, "B", *f.Abstract)
	assert.Equal(t, "C", *f.OriginalDream)
	assert.Equal(t, "D", *f.RewrittenDream)
}

func TestParseSummaryFields_Table(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		complete bool
		title    *string
		rewrite  *string
	}{
		{
			name:     "missing delimiter suppresses summary",
			text:     "Title: A\nAbstract: B\nRewritten Dream: D",
			complete: false,
			title:    strPtr("A"),
			rewrite:  strPtr("D"),
		},
		{
			name:     "lowercase delimiter is not matched",
			text:     "title: A\nAbstract: B\nOriginal Dream: C\nRewritten Dream: D",
			complete: false,
			rewrite:  strPtr("D"),
		},
		{
			name:     "empty field is present but incomplete",
			text:     "Title:   \nAbstract: B\nOriginal Dream: C\nRewritten Dream: D",
			complete: false,
			title:    strPtr(""),
			rewrite:  strPtr("D"),
		},
		{
			name:     "preamble and trailing text",
			text:     "Here is your summary.\nTitle: The Lake\nAbstract: Calm water\nOriginal Dream: Drowning\nRewritten Dream: Swimming to shore\n" + "Are you happy?",
			complete: true,
			title:    strPtr("The Lake"),
			rewrite:  strPtr("Swimming to shore\nAre you happy?"),
		},
		{
			name:     "no delimiters",
			text:     "Tell me more about the dream.",
			complete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseSummaryFields(tt.text)
			assert.Equal(t, tt.complete, f.Complete())
			assert.Equal(t, tt.title, f.Title)
			assert.Equal(t, tt.rewrite, f.RewrittenDream)
		})
	}
}

func TestParseSummaryFields_DelimiterInsideValueTruncates(t *testing.T) {
	f := ParseSummaryFields("Title: My Abstract: idea\nAbstract: B\nOriginal Dream: C\nRewritten Dream: D")
	require.NotNil(t, f.Title)
	assert.Equal(t, "My", *f.Title)
	// first occurrence wins for the abstract too
	assert.Equal(t, "idea", *f.Abstract)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal("Take care. Goodbye!", false))
	assert.True(t, IsTerminal("BYE for now", false))
	assert.True(t, IsTerminal("anything", true))
	assert.False(t, IsTerminal("How did the dream end?", false))
}

func strPtr(s string) *string { return &s }
