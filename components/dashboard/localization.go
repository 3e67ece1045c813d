package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// TranslationService resolves user-facing strings (widget titles, option
// labels, counterpart names) for a locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ErrMissingTranslation is returned by CatalogTranslator for unknown keys.
var ErrMissingTranslation = errors.New("dashboard: missing translation")

// CatalogTranslator is a TranslationService over an in-memory catalog of
// locale -> key -> template. Templates interpolate args written as {name}.
type CatalogTranslator struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string
}

// NewCatalogTranslator creates an empty catalog.
func NewCatalogTranslator() *CatalogTranslator {
	return &CatalogTranslator{catalogs: map[string]map[string]string{}}
}

// Add merges entries into the catalog of locale.
func (c *CatalogTranslator) Add(locale string, entries map[string]string) {
	locale = normalizeLocale(locale)
	if locale == "" {
		locale = "default"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	catalog, ok := c.catalogs[locale]
	if !ok {
		catalog = make(map[string]string, len(entries))
		c.catalogs[locale] = catalog
	}
	for key, value := range entries {
		catalog[key] = value
	}
}

// LoadYAML reads a document of the form `locale: {key: template}`.
func (c *CatalogTranslator) LoadYAML(r io.Reader) error {
	var doc map[string]map[string]string
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("dashboard: parse translations: %w", err)
	}
	for locale, entries := range doc {
		c.Add(locale, entries)
	}
	return nil
}

// Translate implements TranslationService. Regional locales fall back to
// their base language, then to the default catalog.
func (c *CatalogTranslator) Translate(_ context.Context, key, locale string, args map[string]any) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, candidate := range localeCandidates(locale) {
		if value, ok := c.catalogs[candidate][key]; ok && value != "" {
			return interpolate(value, args), nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

func interpolate(template string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ResolveLocalizedValue picks the entry of values best matching locale.
// Keys match case-insensitively and `es-mx` falls back to `es`, then to a
// "default" entry, then to fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale returns the display name for locale.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

// DescriptionForLocale returns the localized description if available.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

// localizeFilters translates filter and option labels under
// dashboard.filter.<key> and dashboard.filter.<key>.<value>.
func localizeFilters(ctx context.Context, svc TranslationService, locale string, views []FilterView) {
	if svc == nil {
		return
	}
	for i := range views {
		key := "dashboard.filter." + views[i].Key
		views[i].Label = translateOrFallback(ctx, svc, key, locale, views[i].Label, nil)
		options := make([]FilterOption, len(views[i].Options))
		for j, opt := range views[i].Options {
			opt.Label = translateOrFallback(ctx, svc, key+"."+opt.Value, locale, opt.Label, nil)
			options[j] = opt
		}
		views[i].Options = options
	}
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok && base != "" {
		candidates = append(candidates, base)
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(locale)), "_", "-")
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
