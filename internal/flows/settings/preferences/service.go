// Package preferences keeps the device-local settings: theme, language,
// avatar and the notification sound.
package preferences

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"banking-client/internal/common/errors"
	"banking-client/internal/common/kvstore"
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/common/validation"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	session   *session.Manager
	store     kvstore.Store
	navigator router.Navigator
	notifier  notice.Notifier
	errors    *errors.ErrorHandler
	obs       *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if deps.Session == nil || deps.Navigator == nil {
		return nil, fmt.Errorf("session and navigator are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences config: %w", err)
	}
	log := logger.OrDefault(deps.Logger)
	notifier := notice.OrDiscard(deps.Notifier)
	return &Service{
		config:    config,
		logger:    log,
		session:   deps.Session,
		store:     deps.Session.Store(),
		navigator: deps.Navigator,
		notifier:  notifier,
		errors:    errors.NewErrorHandler(log, notifier),
		obs:       deps.Observability,
	}, nil
}

// Load reads the stored settings, falling back to the defaults.
func (s *Service) Load(ctx context.Context) Settings {
	return Settings{
		Theme:             kvstore.GetOr(ctx, s.store, kvstore.KeyTheme, s.config.DefaultTheme),
		Language:          kvstore.GetOr(ctx, s.store, kvstore.KeyLanguage, s.config.DefaultLanguage),
		NotificationSound: s.SoundEnabled(ctx),
		HasAvatar:         s.Avatar(ctx) != "",
	}
}

// SoundEnabled reports the notification sound toggle. It is on until
// switched off.
func (s *Service) SoundEnabled(ctx context.Context) bool {
	v, err := strconv.ParseBool(kvstore.GetOr(ctx, s.store, kvstore.KeyNotificationSound, "true"))
	if err != nil {
		return true
	}
	return v
}

// Avatar returns the stored avatar data URI, or "".
func (s *Service) Avatar(ctx context.Context) string {
	return kvstore.GetOr(ctx, s.store, kvstore.KeyAvatar, "")
}

// Execute validates and stores the changed settings.
func (s *Service) Execute(ctx context.Context, input *Input) (out *Output, err error) {
	done := s.obs.Track(ctx, "preferences")
	defer func() { done(err) }()

	if input == nil {
		input = &Input{}
	}
	input.Theme = strings.ToLower(strings.TrimSpace(input.Theme))
	input.Language = strings.ToLower(strings.TrimSpace(input.Language))

	result, vErr := validation.ValidateStruct(input, GetInputSchema())
	if vErr != nil {
		return nil, errors.NewValidationError("Invalid settings", vErr.Error())
	}
	if !result.Valid {
		err := errors.NewValidationError(result.FirstError(), strings.Join(result.GetErrorMessages(), "; "))
		s.errors.Handle("preferences.validate", err)
		return nil, err
	}

	if err := s.save(ctx, input); err != nil {
		s.errors.Handle("preferences", err)
		return nil, err
	}

	settings := s.Load(ctx)
	s.logger.Info("Preferences saved", map[string]interface{}{
		"theme":             settings.Theme,
		"language":          settings.Language,
		"notificationSound": settings.NotificationSound,
	})
	s.notifier.Notify(notice.Success("Settings saved"))
	return &Output{Settings: settings}, nil
}

func (s *Service) save(ctx context.Context, input *Input) error {
	if input.Theme != "" {
		if err := s.store.Set(ctx, kvstore.KeyTheme, input.Theme); err != nil {
			return errors.NewInternalError(err)
		}
	}
	if input.Language != "" {
		if err := s.store.Set(ctx, kvstore.KeyLanguage, input.Language); err != nil {
			return errors.NewInternalError(err)
		}
	}
	if input.NotificationSound != nil {
		if err := s.store.Set(ctx, kvstore.KeyNotificationSound, strconv.FormatBool(*input.NotificationSound)); err != nil {
			return errors.NewInternalError(err)
		}
	}
	return nil
}

// SetAvatar reads an image file and stores it as a data URI.
func (s *Service) SetAvatar(ctx context.Context, path string) (string, error) {
	uri, err := s.readAvatar(path)
	if err != nil {
		s.errors.Handle("preferences.avatar", err)
		return "", err
	}
	if err := s.store.Set(ctx, kvstore.KeyAvatar, uri); err != nil {
		err := errors.NewInternalError(err)
		s.errors.Handle("preferences.avatar", err)
		return "", err
	}
	s.logger.Info("Avatar updated", map[string]interface{}{"path": path, "size": len(uri)})
	s.notifier.Notify(notice.Success("Avatar updated"))
	return uri, nil
}

func (s *Service) readAvatar(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewValidationError("Please choose an image", "")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.NewValidationError("Could not read the image file", err.Error())
	}
	if info.Size() > s.config.MaxAvatarBytes {
		return "", errors.NewValidationError("Image is too large", fmt.Sprintf("%d bytes", info.Size()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewValidationError("Could not read the image file", err.Error())
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.NewValidationError("File is not an image", contentType)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ==========================
// Security toggles
// ==========================

// The security toggles only acknowledge the change; nothing is enrolled.

func (s *Service) SetBiometric(enabled bool) {
	s.toggle("Biometric login", enabled)
}

func (s *Service) SetFingerprint(enabled bool) {
	s.toggle("Fingerprint login", enabled)
}

func (s *Service) toggle(name string, enabled bool) {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	s.logger.Debug("Security toggle changed", map[string]interface{}{"setting": name, "enabled": enabled})
	s.notifier.Notify(notice.Success(name + " " + state))
}

// Logout ends the session and returns to the login view.
func (s *Service) Logout(ctx context.Context) {
	if err := s.session.Logout(ctx); err != nil {
		s.logger.Warn("Logout incomplete", map[string]interface{}{"error": err.Error()})
	}
	s.navigator.Navigate(ctx, router.Login, router.State{})
}
