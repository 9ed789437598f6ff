// Package i18n holds the bot's user-visible strings and registers them with
// golang.org/x/text/message. Keys are the English source strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const BaseLocale = "en"

//go:embed locales/*.yaml
var localesFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog maps locale -> key -> translation.
type Catalog map[string]map[string]string

var (
	registerOnce sync.Once
	registerErr  error
	supported    []language.Tag
)

// Load parses every locales/*.yaml file in fsys.
func Load(fsys fs.FS) (Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	cat := Catalog{}
	for _, p := range paths {
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		locale := strings.TrimSpace(f.Locale)
		if locale == "" {
			return nil, fmt.Errorf("%s: locale is required", p)
		}
		if _, dup := cat[locale]; dup {
			return nil, fmt.Errorf("%s: locale %q defined twice", p, locale)
		}
		cat[locale] = f.Messages
	}
	if _, ok := cat[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s missing", BaseLocale)
	}
	return cat, nil
}

// Missing lists base-locale keys that locale does not translate.
func (c Catalog) Missing(locale string) []string {
	var out []string
	for key := range c[BaseLocale] {
		if _, ok := c[locale][key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Register adds every translation to the default x/text catalog.
func (c Catalog) Register() ([]language.Tag, error) {
	locales := make([]string, 0, len(c))
	for l := range c {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	// Base locale first so the matcher falls back to it.
	sort.SliceStable(locales, func(i, j int) bool { return locales[i] == BaseLocale })

	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", l, err)
		}
		for key, msg := range c[l] {
			if err := message.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("register %s %q: %w", l, key, err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func registerEmbedded() error {
	registerOnce.Do(func() {
		cat, err := Load(localesFS)
		if err != nil {
			registerErr = err
			return
		}
		supported, registerErr = cat.Register()
	})
	return registerErr
}

// Printer returns a printer for the closest supported locale. Unknown or
// unparsable locales fall back to English.
func Printer(locale string) (*message.Printer, error) {
	if err := registerEmbedded(); err != nil {
		return nil, err
	}
	want, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		want = language.English
	}
	_, idx, _ := language.NewMatcher(supported).Match(want)
	return message.NewPrinter(supported[idx]), nil
}
