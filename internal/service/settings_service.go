package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/cache"
	"trimsdesk/internal/docstore"
	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
)

const (
	settingsCacheKey = "settings:" + model.SettingsDocID
	settingsCacheTTL = 5 * time.Minute
)

// SettingsService reads and writes the single system settings document.
type SettingsService interface {
	// Get returns the settings, writing the defaults on first read.
	Get(ctx context.Context) (*model.SystemSettings, error)
	Save(ctx context.Context, who *identity.Identity, settings model.SystemSettings) (*model.SystemSettings, error)
}

type settingsService struct {
	store docstore.Store
	cache *cache.Client
	log   logrus.FieldLogger
}

// NewSettingsService creates a settings service. cache may be nil.
func NewSettingsService(store docstore.Store, cache *cache.Client, log logrus.FieldLogger) SettingsService {
	return &settingsService{store: store, cache: cache, log: log.WithField("component", "settings")}
}

func (s *settingsService) Get(ctx context.Context) (*model.SystemSettings, error) {
	if data, _ := s.cache.Get(ctx, settingsCacheKey); data != nil {
		var cached model.SystemSettings
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	d, err := s.store.Get(ctx, module.SettingsCollection, model.SettingsDocID)
	var settings *model.SystemSettings
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		defaults := model.DefaultSettings()
		if err := s.write(ctx, defaults); err != nil {
			return nil, err
		}
		s.log.Info("default settings created")
		settings = &defaults
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	default:
		if settings, err = decode[model.SystemSettings](d); err != nil {
			return nil, err
		}
	}

	s.remember(ctx, settings)
	return settings, nil
}

func (s *settingsService) Save(ctx context.Context, who *identity.Identity, settings model.SystemSettings) (*model.SystemSettings, error) {
	if !who.IsAdmin() {
		return nil, apperrors.ErrAccessDenied
	}
	if err := s.write(ctx, settings); err != nil {
		return nil, err
	}
	s.remember(ctx, &settings)
	s.log.WithField("username", who.Username).Info("settings saved")
	return &settings, nil
}

func (s *settingsService) write(ctx context.Context, settings model.SystemSettings) error {
	data, err := docstore.Encode(settings)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, module.SettingsCollection, model.SettingsDocID, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *settingsService) remember(ctx context.Context, settings *model.SystemSettings) {
	if payload, err := json.Marshal(settings); err == nil {
		_ = s.cache.Set(ctx, settingsCacheKey, payload, settingsCacheTTL)
	}
}
