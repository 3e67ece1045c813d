package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ErrInvalidManifest wraps every manifest decoding or validation failure.
var ErrInvalidManifest = errors.New("dashboard: invalid widget manifest")

// WidgetManifestDocument is a widget pack: extra widget variants built on the
// built-in providers, where to place them, and the translations they need.
type WidgetManifestDocument struct {
	Version      string                       `json:"version" yaml:"version"`
	Name         string                       `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets      []ManifestWidget             `json:"widgets" yaml:"widgets"`
	Translations map[string]map[string]string `json:"translations,omitempty" yaml:"translations,omitempty"`
	Source       string                       `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget entry within a manifest.
type ManifestWidget struct {
	Definition WidgetDefinition   `json:"definition" yaml:"definition"`
	Provider   ManifestProvider   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Placement  *ManifestPlacement `json:"placement,omitempty" yaml:"placement,omitempty"`
	Tags       []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider names the built-in widget whose provider serves the entry.
type ManifestProvider struct {
	Base         string   `json:"base,omitempty" yaml:"base,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// ManifestPlacement seeds an instance of the widget into an area.
type ManifestPlacement struct {
	Area          string         `json:"area" yaml:"area"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers each widget and binds it to its base
// provider. Definitions without a schema get one derived from their filters.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidManifest)
	}
	for _, widget := range doc.Widgets {
		def := widget.Definition
		if def.Schema == nil && len(def.Filters) > 0 {
			def.Schema = filterSchema(def.Filters)
		}
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", def.Code, doc.Source, err)
		}
		if base := widget.Provider.Base; base != "" {
			provider, ok := r.Provider(base)
			if !ok {
				return fmt.Errorf("%w: widget %s extends unknown provider %s", ErrInvalidManifest, def.Code, base)
			}
			if err := r.RegisterProvider(def.Code, provider); err != nil {
				return err
			}
		}
		r.recordProviderMetadata(def.Code, widget.Provider)
	}
	return nil
}

// SeedRequests lists the placements declared by the manifest.
func (doc *WidgetManifestDocument) SeedRequests() []AddWidgetRequest {
	var out []AddWidgetRequest
	for _, widget := range doc.Widgets {
		if widget.Placement == nil || widget.Placement.Area == "" {
			continue
		}
		out = append(out, AddWidgetRequest{
			DefinitionID:  widget.Definition.Code,
			AreaCode:      widget.Placement.Area,
			Configuration: cloneAnyMap(widget.Placement.Configuration),
		})
	}
	return out
}

// ApplyTranslations adds the manifest's catalog entries to catalog.
func (doc *WidgetManifestDocument) ApplyTranslations(catalog *CatalogTranslator) {
	if catalog == nil {
		return
	}
	for locale, entries := range doc.Translations {
		catalog.Add(locale, entries)
	}
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader. Unknown keys are rejected.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: manifest is empty", ErrInvalidManifest)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks codes, names, placements and filter declarations.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidManifest, doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		code := widget.Definition.Code
		switch {
		case code == "":
			return fmt.Errorf("%w: widget at index %d is missing definition.code", ErrInvalidManifest, idx)
		case widget.Definition.Name == "":
			return fmt.Errorf("%w: widget %s missing definition.name", ErrInvalidManifest, code)
		case widget.Placement != nil && widget.Placement.Area == "":
			return fmt.Errorf("%w: widget %s placement is missing area", ErrInvalidManifest, code)
		}
		if _, exists := seen[code]; exists {
			return fmt.Errorf("%w: duplicates widget code %s", ErrInvalidManifest, code)
		}
		seen[code] = struct{}{}
		if err := validateFilterSpecs(widget.Definition); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
	}
	return nil
}

func (p ManifestProvider) isZero() bool {
	return p.Base == "" &&
		p.Summary == "" &&
		len(p.Capabilities) == 0 &&
		p.Channel == ""
}
