package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	db "github.com/markdave123-py/dreammend/internal/core/database"
	"github.com/markdave123-py/dreammend/internal/metrics"
	"github.com/markdave123-py/dreammend/internal/models"
)

const selectAttempts = 3

type SummaryService struct {
	db       db.DbClient
	migrator *MigrationService
	logger   *slog.Logger
}

func NewSummaryService(dbc db.DbClient, migrator *MigrationService, logger *slog.Logger) *SummaryService {
	return &SummaryService{db: dbc, migrator: migrator, logger: logger}
}

type SummaryInput struct {
	UserID         int64
	ConversationID string
	SessionID      string
	Fields         SummaryFields
}

// CreateSummary stores a complete summary as the selected candidate of its
// conversation, unselecting any earlier one.
func (s *SummaryService) CreateSummary(ctx context.Context, in SummaryInput) (*models.Summary, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, ErrMissingSession
	}
	if !in.Fields.Complete() {
		return nil, ErrIncompleteData
	}

	var out *models.Summary
	err := s.db.WithTx(ctx, func(ctx context.Context, tx db.Store) error {
		if err := tx.UnselectSummaries(ctx, in.ConversationID); err != nil {
			return err
		}
		created, err := tx.InsertSummary(ctx, &models.Summary{
			UserID:         in.UserID,
			ConversationID: in.ConversationID,
			SessionID:      in.SessionID,
			Title:          deref(in.Fields.Title),
			Abstract:       deref(in.Fields.Abstract),
			OriginalDream:  deref(in.Fields.OriginalDream),
			RewrittenDream: deref(in.Fields.RewrittenDream),
			Selected:       true,
		})
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SummariesCreatedTotal.Inc()
	s.logger.Info("summary created",
		slog.Int64("summary_id", out.ID),
		slog.String("conversation_id", out.ConversationID),
	)
	return out, nil
}

// SelectSummary makes id the only selected summary of its conversation and
// migrates the owner's selected summaries.
func (s *SummaryService) SelectSummary(ctx context.Context, id int64) (*models.Summary, *MigrationResult, error) {
	target, err := s.db.GetSummary(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, newError(ErrNotFound, "Summary not found")
		}
		return nil, nil, err
	}

	var selected *models.Summary
	for attempt := 1; ; attempt++ {
		err = s.db.WithTx(ctx, func(ctx context.Context, tx db.Store) error {
			if err := tx.UnselectSummaries(ctx, target.ConversationID); err != nil {
				return err
			}
			sel, err := tx.MarkSummarySelected(ctx, id)
			if err != nil {
				return err
			}
			selected = sel
			return nil
		})
		if err == nil || !errors.Is(err, db.ErrDuplicate) || attempt == selectAttempts {
			break
		}
		s.logger.Warn("concurrent summary select, retrying",
			slog.Int64("summary_id", id),
			slog.Int("attempt", attempt),
		)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, newError(ErrNotFound, "Summary not found")
		}
		return nil, nil, err
	}

	migration, err := s.migrator.Migrate(ctx, selected.UserID)
	if err != nil {
		return selected, nil, err
	}
	return selected, migration, nil
}
