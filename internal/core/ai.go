package core

import "context"

// Turn is one prior message handed to the responder as history.
type Turn struct {
	FromUser bool
	Text     string
}

// Invocation is a single responder call for one conversation turn.
type Invocation struct {
	Input          string
	ConversationID string
	SessionID      string
	UserID         int64
	History        []Turn
}

type Response struct {
	Text       string
	IsFinished bool
}

// Responder is the conversational AI that guides the user through a dream.
type Responder interface {
	Invoke(ctx context.Context, in Invocation) (Response, error)
}

// DreamDocument is a dream entry shaped for embedding.
type DreamDocument struct {
	Title string
	Body  string
}

type EmbeddingProvider interface {
	EmbedDreams(ctx context.Context, docs []DreamDocument) ([][]float32, error)
}

// SummaryFollowUp is the closing line the responder appends after a summary.
// It is stripped from rewritten dreams before they are shown.
const SummaryFollowUp = "Are you happy with the generated summary? In this version of the application, you cannot modify the summary. The generated summary will be available to you on the IRT page. :)"
