package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/markdave123-py/dreammend/internal/core"
	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/models"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 20
)

type DreamEntryService struct {
	db      db.DbClient
	indexer Indexer
	logger  *slog.Logger
}

func NewDreamEntryService(dbc db.DbClient, indexer Indexer, logger *slog.Logger) *DreamEntryService {
	return &DreamEntryService{db: dbc, indexer: indexer, logger: logger}
}

// DreamEntryInput is the editable part of a dream entry.
type DreamEntryInput struct {
	Title          string     `json:"title"`
	Abstract       string     `json:"abstract"`
	OriginalDream  string     `json:"original_dream"`
	RewrittenDream string     `json:"rewritten_dream"`
	Times          int        `json:"times"`
	CreatedDate    *time.Time `json:"created_date,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
}

func (s *DreamEntryService) Create(ctx context.Context, userID int64, in DreamEntryInput) (*models.DreamEntry, error) {
	e := &models.DreamEntry{
		UserID:         userID,
		Title:          in.Title,
		Abstract:       in.Abstract,
		OriginalDream:  in.OriginalDream,
		RewrittenDream: in.RewrittenDream,
		Times:          in.Times,
		SessionID:      in.SessionID,
	}
	if in.CreatedDate != nil {
		e.CreatedDate = *in.CreatedDate
	}

	created, err := s.db.InsertDreamEntry(ctx, e)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, newError(ErrConflict, "A dream entry already exists for this session")
		}
		return nil, err
	}
	s.enqueue(*created)
	return created, nil
}

// List returns the user's entries with the responder's closing prompt removed
// from the rewritten dream.
func (s *DreamEntryService) List(ctx context.Context, userID int64) ([]models.DreamEntry, error) {
	entries, err := s.db.ListDreamEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.DreamEntry{}
	}
	for i := range entries {
		entries[i].RewrittenDream = stripFollowUp(entries[i].RewrittenDream)
	}
	return entries, nil
}

func (s *DreamEntryService) Update(ctx context.Context, userID, id int64, in DreamEntryInput) (*models.DreamEntry, error) {
	updated, err := s.db.UpdateDreamEntry(ctx, &models.DreamEntry{
		ID:             id,
		UserID:         userID,
		Title:          in.Title,
		Abstract:       in.Abstract,
		OriginalDream:  in.OriginalDream,
		RewrittenDream: in.RewrittenDream,
		Times:          in.Times,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "Dream entry not found")
		}
		return nil, err
	}
	s.enqueue(*updated)
	return updated, nil
}

func (s *DreamEntryService) Delete(ctx context.Context, userID, id int64) (*models.DreamEntry, error) {
	deleted, err := s.db.DeleteDreamEntry(ctx, userID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "Dream entry not found")
		}
		return nil, err
	}
	return deleted, nil
}

// Similar returns the user's entries closest to entry id. limit <= 0 means the
// default and is capped at maxSimilarLimit.
func (s *DreamEntryService) Similar(ctx context.Context, userID, id int64, limit int) ([]models.DreamEntry, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	entry, err := s.db.GetDreamEntry(ctx, userID, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, "Dream entry not found")
		}
		return nil, err
	}
	if !entry.Indexed {
		return nil, newError(ErrNotFound, "Dream entry has not been indexed yet")
	}

	similar, err := s.db.SimilarDreamEntries(ctx, userID, id, limit)
	if err != nil {
		return nil, err
	}
	if similar == nil {
		similar = []models.DreamEntry{}
	}
	for i := range similar {
		similar[i].RewrittenDream = stripFollowUp(similar[i].RewrittenDream)
	}
	return similar, nil
}

func (s *DreamEntryService) enqueue(e models.DreamEntry) {
	if s.indexer != nil {
		s.indexer.Enqueue(e)
	}
}

func stripFollowUp(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, core.SummaryFollowUp, ""))
}
