package llm

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/dreammend/internal/core"
)

func TestParseReply(t *testing.T) {
	r := parseReply("Thank you for sharing. Goodbye! " + finishMarker + "\n")
	assert.True(t, r.IsFinished)
	assert.Equal(t, "Thank you for sharing. Goodbye!", r.Text)

	r = parseReply("  Tell me more about the dream.  ")
	assert.False(t, r.IsFinished)
	assert.Equal(t, "Tell me more about the dream.", r.Text)
}

func TestToHistory_Roles(t *testing.T) {
	h, input := toHistory([]core.Turn{{FromUser: true, Text: "I keep falling"}, {FromUser: false, Text: "Where are you?"}}, "A tower")
	assert.Len(t, h, 2)
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "model", h[1].Role)
	assert.Equal(t, "A tower", input)
}

func TestToHistory_UnansweredTurnsStayAlternating(t *testing.T) {
	turns := []core.Turn{
		{FromUser: true, Text: "I keep falling"},
		{FromUser: false, Text: "Where are you?"},
		{FromUser: false, Text: "Take your time."},
		{FromUser: true, Text: "On a tower"},
		{FromUser: true, Text: "It is night"},
	}
	h, input := toHistory(turns, "And it is cold")

	require.Len(t, h, 2)
	for i := 1; i < len(h); i++ {
		assert.NotEqual(t, h[i-1].Role, h[i].Role)
	}
	assert.Equal(t, "model", h[1].Role)
	assert.Equal(t, genai.Text("Where are you?\n\nTake your time."), h[1].Parts[0])
	assert.Equal(t, "On a tower\n\nIt is night\n\nAnd it is cold", input)

	h, input = toHistory(nil, "Hello")
	assert.Empty(t, h)
	assert.Equal(t, "Hello", input)
}

func TestSystemPrompt_ListsDelimitersInOrder(t *testing.T) {
	idx := func(s string) int { return strings.Index(systemPrompt, s) }
	assert.Less(t, idx("Title:"), idx("Abstract:"))
	assert.Less(t, idx("Abstract:"), idx("Original Dream:"))
	assert.Less(t, idx("Original Dream:"), idx("Rewritten Dream:"))
	assert.Contains(t, systemPrompt, finishMarker)
	assert.Contains(t, systemPrompt, core.SummaryFollowUp)
}
