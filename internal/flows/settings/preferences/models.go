package preferences

import (
	"banking-client/internal/common/logger"
	"banking-client/internal/common/observability"
	"banking-client/internal/notice"
	"banking-client/internal/router"
	"banking-client/internal/session"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	LanguageVietnamese = "vi"
	LanguageEnglish    = "en"
	LanguageJapanese   = "jp"
)

var (
	Themes    = []string{ThemeLight, ThemeDark}
	Languages = []string{LanguageVietnamese, LanguageEnglish, LanguageJapanese}
)

// Input holds the settings to change. Empty fields and a nil
// NotificationSound are left as they are.
type Input struct {
	Theme             string `json:"theme,omitempty"`
	Language          string `json:"language,omitempty"`
	NotificationSound *bool  `json:"notificationSound,omitempty"`
}

type Settings struct {
	Theme             string `json:"theme"`
	Language          string `json:"language"`
	NotificationSound bool   `json:"notificationSound"`
	HasAvatar         bool   `json:"hasAvatar"`
}

type Output struct {
	Settings Settings `json:"settings"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Session       *session.Manager
	Navigator     router.Navigator
	Notifier      notice.Notifier
	Observability *observability.Observability
}
