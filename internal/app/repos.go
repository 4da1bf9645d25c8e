package app

import (
	"gorm.io/gorm"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
	"github.com/edupulse/a11y-backend/internal/repos"
)

type Repos struct {
	Preference repos.PreferenceRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Preference: repos.NewPreferenceRepo(db, log),
	}
}
