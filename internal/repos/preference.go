package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/types"
)

type PreferenceRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceRecord, error)
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.PreferenceRecord) error
}

type preferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	repoLog := baseLog.With("repo", "PreferenceRepo")
	return &preferenceRepo{db: db, log: repoLog}
}

// GetByUserID returns (nil, nil) when no record exists for the identity;
// callers substitute defaults rather than treating absence as an error.
func (pr *preferenceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PreferenceRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var rec types.PreferenceRecord
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Upsert writes the full record keyed on user_id, last write wins. No
// optimistic concurrency: concurrent sessions for the same identity
// resolve by whichever save lands last.
func (pr *preferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.PreferenceRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if rec == nil || rec.UserID == uuid.Nil {
		return errors.New("preference record requires a user id")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"high_contrast", "dyslexia_font", "focus_highlight",
				"text_scale", "text_scale_login", "dark_mode",
				"color_vision_mode", "concentration_mode",
				"letter_spacing", "word_spacing", "line_spacing",
				"tts_enabled", "tts_rate", "tts_voice_locale", "hover_narration",
				"updated_at",
			}),
		}).
		Create(rec).Error
}
