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

// Skip reasons reported by Migrate.
const (
	SkipAlreadyMigrated = "already_migrated"
	SkipIncomplete      = "incomplete"
)

type SkippedSummary struct {
	SummaryID int64  `json:"summary_id"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// MigrationResult is the outcome of one migration pass.
type MigrationResult struct {
	Migrated []models.DreamEntry `json:"migrated"`
	Skipped  []SkippedSummary    `json:"skipped"`
}

type MigrationService struct {
	db      db.DbClient
	indexer Indexer
	logger  *slog.Logger
}

func NewMigrationService(dbc db.DbClient, indexer Indexer, logger *slog.Logger) *MigrationService {
	return &MigrationService{db: dbc, indexer: indexer, logger: logger}
}

// Migrate copies the user's selected summaries into dream entries, at most one
// per session. The batch commits or rolls back as a whole. Running it again
// only reports skips.
func (m *MigrationService) Migrate(ctx context.Context, userID int64) (*MigrationResult, error) {
	var result *MigrationResult
	err := m.db.WithTx(ctx, func(ctx context.Context, tx db.Store) error {
		summaries, err := tx.ListSelectedSummaries(ctx, userID)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return ErrNoEligibleSummaries
		}

		res := &MigrationResult{Migrated: []models.DreamEntry{}, Skipped: []SkippedSummary{}}
		for _, s := range summaries {
			skip := func(reason string) {
				res.Skipped = append(res.Skipped, SkippedSummary{SummaryID: s.ID, SessionID: s.SessionID, Reason: reason})
				metrics.MigrationSkippedTotal.WithLabelValues(reason).Inc()
			}

			// entries without a session cannot be deduplicated
			if strings.TrimSpace(s.SessionID) == "" {
				m.logger.Warn("skipping summary without session",
					slog.Int64("summary_id", s.ID),
				)
				skip(SkipIncomplete)
				continue
			}

			exists, err := tx.DreamEntryExistsForSession(ctx, s.SessionID)
			if err != nil {
				return err
			}
			if exists {
				skip(SkipAlreadyMigrated)
				continue
			}
			if s.Title == "" || s.Abstract == "" || s.OriginalDream == "" || s.RewrittenDream == "" {
				m.logger.Warn("skipping incomplete summary",
					slog.Int64("summary_id", s.ID),
					slog.String("session_id", s.SessionID),
				)
				skip(SkipIncomplete)
				continue
			}

			entry, err := tx.InsertDreamEntry(ctx, &models.DreamEntry{
				UserID:         s.UserID,
				Title:          s.Title,
				Abstract:       s.Abstract,
				OriginalDream:  s.OriginalDream,
				RewrittenDream: s.RewrittenDream,
				CreatedDate:    s.Timestamp,
				SessionID:      s.SessionID,
			})
			if errors.Is(err, db.ErrDuplicate) {
				skip(SkipAlreadyMigrated)
				continue
			}
			if err != nil {
				return err
			}
			res.Migrated = append(res.Migrated, *entry)
		}
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoEligibleSummaries) {
			return nil, err
		}
		metrics.MigrationFailuresTotal.Inc()
		m.logger.Error("migration rolled back", slog.Int64("user_id", userID), slog.Any("err", err))
		return nil, wrapError(ErrMigrationFailed, "Error during migration", err)
	}

	metrics.MigratedEntriesTotal.Add(float64(len(result.Migrated)))
	m.logger.Info("migration finished",
		slog.Int64("user_id", userID),
		slog.Int("migrated", len(result.Migrated)),
		slog.Int("skipped", len(result.Skipped)),
	)

	if m.indexer != nil {
		for _, e := range result.Migrated {
			m.indexer.Enqueue(e)
		}
	}
	return result, nil
}
