package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/storage"
	"golang.org/x/text/language"
)

const (
	English = "en"
	Arabic  = "ar"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

var (
	supported = []string{English, Arabic}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Arabic})
)

// Preference is the stored UI language sent as Accept-Language.
type Preference struct {
	storage  storage.Store
	bus      *events.Bus
	fallback string
}

func NewPreference(st storage.Store, bus *events.Bus, fallback string) *Preference {
	lang, ok := Normalize(fallback)
	if !ok {
		lang = English
	}
	return &Preference{storage: st, bus: bus, fallback: lang}
}

// Normalize maps a BCP 47 tag such as "ar-KW" or "en_US" onto a supported
// language.
func Normalize(lang string) (string, bool) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if err != nil {
		return "", false
	}
	_, index, confidence := matcher.Match(tag)
	if confidence < language.High {
		return "", false
	}
	return supported[index], true
}

func Supported(lang string) bool {
	_, ok := Normalize(lang)
	return ok
}

// Language never fails; storage problems fall back to the default language.
func (p *Preference) Language(ctx context.Context) string {
	stored, err := p.storage.Get(ctx, storage.KeyPreferredLanguage)
	if err != nil {
		return p.fallback
	}
	lang, ok := Normalize(stored)
	if !ok {
		return p.fallback
	}
	return lang
}

func (p *Preference) SetLanguage(ctx context.Context, tag string) error {
	lang, ok := Normalize(tag)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, tag)
	}
	if err := p.storage.Set(ctx, storage.KeyPreferredLanguage, lang); err != nil {
		return fmt.Errorf("store language: %w", err)
	}
	if p.bus != nil {
		p.bus.LanguageChange.Publish(events.LanguageChange{Language: lang})
	}
	return nil
}

// Direction is the text direction for lang.
func Direction(lang string) string {
	if lang == Arabic {
		return "rtl"
	}
	return "ltr"
}
