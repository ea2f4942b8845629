// Package i18n resolves message keys into localized text.  Catalogs are
// flat JSON files embedded at build time, one per supported language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"

	"github.com/iliyamo/api-client-manager/internal/result"
)

//go:embed locales/*.json
var locales embed.FS

// Fallback is the language used when nothing better matches.
const Fallback = "en"

// Bundle holds the catalogs of every supported language.
type Bundle struct {
	catalogs map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Load reads the embedded catalogs.  The fallback language is always
// listed first so the matcher prefers it on ties.
func Load() (*Bundle, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	b := &Bundle{catalogs: map[string]map[string]string{}}
	b.tags = append(b.tags, language.Make(Fallback))
	for _, e := range entries {
		raw, err := locales.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		var catalog map[string]string
		if err := json.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("i18n: %s: %w", e.Name(), err)
		}
		lang := strings.TrimSuffix(e.Name(), ".json")
		b.catalogs[lang] = catalog
		if lang != Fallback {
			b.tags = append(b.tags, language.Make(lang))
		}
	}
	if _, ok := b.catalogs[Fallback]; !ok {
		return nil, fmt.Errorf("i18n: missing %s catalog", Fallback)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// MustLoad is Load for process start-up.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

// Supported reports whether lang has a catalog.
func (b *Bundle) Supported(lang string) bool {
	_, ok := b.catalogs[lang]
	return ok
}

// Match picks the supported language closest to an Accept-Language style
// value.  ok is false when the value is empty, malformed or matches none
// of the catalogs.
func (b *Bundle) Match(value string) (lang string, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Fallback, false
	}
	wanted, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(wanted) == 0 {
		return Fallback, false
	}
	_, idx, conf := b.matcher.Match(wanted...)
	if conf == language.No {
		return Fallback, false
	}
	base, _ := b.tags[idx].Base()
	return base.String(), true
}

// Resolve returns the text of key in lang, falling back to the default
// language and then to the key itself.  {name} placeholders are replaced
// with args.
func (b *Bundle) Resolve(lang, key string, args result.Args) string {
	msg, ok := b.lookup(lang, key)
	if !ok && strings.HasPrefix(key, "validation.") {
		msg, ok = b.lookup(lang, "validation.default")
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	if msg, ok := b.catalogs[lang][key]; ok {
		return msg, true
	}
	msg, ok := b.catalogs[Fallback][key]
	return msg, ok
}
