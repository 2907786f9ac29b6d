package core

import (
	"net/mail"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	English Locale = "en"
	Chinese Locale = "zh"
	Spanish Locale = "es"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	// Locale is one of the supported UI languages.
	Locale string

	Theme string

	Preferences struct {
		Currency CurrencyCode
		Locale   Locale
		Theme    Theme
	}

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		Preferences  Preferences
		CreatedAt    time.Time
	}
)

var supportedLocales = []Locale{English, Chinese, Spanish}

var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Chinese,
	language.Spanish,
})

// MatchLocale picks the closest supported locale for a BCP 47 tag or an
// Accept-Language header value. Anything unmatched resolves to English.
func MatchLocale(s string) Locale {
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return English
	}
	return supportedLocales[idx]
}

// ParseLocale accepts only the exact supported codes.
func ParseLocale(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	for _, sl := range supportedLocales {
		if l == sl {
			return l, nil
		}
	}
	return "", ErrUnknownLocale
}

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", ErrInvalidTheme
	}
}

// DefaultPreferences returns USD, English and the light theme.
func DefaultPreferences() Preferences {
	return Preferences{Currency: USD, Locale: English, Theme: ThemeLight}
}

func (p Preferences) Validate() error {
	if !p.Currency.Valid() {
		return ErrUnknownCurrency
	}
	if _, err := ParseLocale(string(p.Locale)); err != nil {
		return err
	}
	if _, err := ParseTheme(string(p.Theme)); err != nil {
		return err
	}
	return nil
}

// Validate checks the registration fields of a user.
func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyName
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(pw string) error {
	if len(pw) < 6 {
		return ErrPasswordTooShort
	}
	return nil
}
