package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/repos"
)

// PreferenceService moves preferences between the session cache and the
// durable store. Anonymous identities (uuid.Nil) never touch the store.
type PreferenceService interface {
	// LoadForIdentity hydrates the session cache from the store. The
	// cache is marked loaded even when the store fails or has no row, so
	// a broken store never causes a reload loop. Returns the store error
	// for logging; the session is usable either way.
	LoadForIdentity(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) error

	// PersistIfChanged writes the full record when the given field
	// differs from its last persisted value, then advances only that
	// field's shadow. Reports whether a write happened.
	PersistIfChanged(ctx context.Context, sp *SessionPrefs, identity uuid.UUID, field PrefField) (bool, error)
}

type preferenceService struct {
	repo repos.PreferenceRepo
	log  *logger.Logger
}

func NewPreferenceService(repo repos.PreferenceRepo, log *logger.Logger) PreferenceService {
	return &preferenceService{
		repo: repo,
		log:  log.With("service", "preference"),
	}
}

func (s *preferenceService) LoadForIdentity(ctx context.Context, sp *SessionPrefs, identity uuid.UUID) error {
	if sp.IsLoaded() && sp.LastIdentity() == identity {
		return nil
	}
	if sp.IsLoaded() && sp.LastIdentity() != identity {
		// A different account took over this session: stored values for
		// the old identity must not leak into the new one.
		sp.ResetToDefaults(FieldSpeaking, FieldLastSpoken)
	}
	if identity == uuid.Nil {
		sp.markLoaded(identity)
		return nil
	}
	rec, err := s.repo.GetByUserID(ctx, nil, identity)
	if err != nil {
		s.log.Warn("preference load failed, continuing with defaults",
			"identity", identity.String(), "error", err.Error())
		sp.markLoaded(identity)
		return apierr.New(503, "STORE_UNAVAILABLE", errors.Join(apierr.ErrStoreUnavailable, err))
	}
	if rec != nil {
		sp.hydrate(rec)
	}
	sp.markLoaded(identity)
	return nil
}

func (s *preferenceService) PersistIfChanged(ctx context.Context, sp *SessionPrefs, identity uuid.UUID, field PrefField) (bool, error) {
	if !sp.changedSince(field) {
		return false, nil
	}
	if identity == uuid.Nil {
		// Anonymous sessions keep their in-memory state only. The shadow
		// still advances so the same value is not re-detected as dirty.
		sp.advanceShadow(field)
		return false, nil
	}
	rec := sp.Snapshot()
	rec.UserID = identity
	if err := s.repo.Upsert(ctx, nil, &rec); err != nil {
		s.log.Error("preference upsert failed",
			"identity", identity.String(), "field", string(field), "error", err.Error())
		return false, apierr.New(503, "STORE_UNAVAILABLE", errors.Join(apierr.ErrStoreUnavailable, err))
	}
	sp.advanceShadow(field)
	return true, nil
}
