package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

type cli struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a widget variant built on a built-in RMG widget to a widget pack."`
	Bases    basesCmd    `cmd:"" help:"List the built-in widgets a pack entry can extend."`
}

type scaffoldCmd struct {
	Code         string            `required:"" help:"Fully-qualified widget code (e.g. apac.widget.bench_watch)."`
	Base         string            `required:"" help:"Built-in widget whose provider and filters the variant reuses."`
	ManifestPath string            `required:"" name:"manifest" type:"path" help:"Widget pack YAML file to create or update."`
	Name         string            `help:"Display name (defaults to the title-cased code suffix)."`
	Description  string            `help:"One-line description (defaults to the base widget's)."`
	Area         string            `help:"Seed an instance into this dashboard area."`
	Set          map[string]string `help:"Placement filter values (filter=option)."`
	Default      map[string]string `help:"Override filter defaults in the definition (filter=option)."`
	Tag          []string          `help:"Tags to record in the pack (use multiple --tag flags)."`
	PackName     string            `name:"pack-name" help:"Pack name recorded when the file is created."`
	Overwrite    bool              `help:"Replace an existing entry with the same code."`

	out io.Writer `kong:"-"`
}

type basesCmd struct {
	out io.Writer `kong:"-"`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Widget pack scaffolding for the RMG dashboard."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	base, err := cmd.validate()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath, cmd.PackName)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(doc.Widgets, func(w dashboard.ManifestWidget) bool {
		return w.Definition.Code == cmd.Code
	})
	if idx >= 0 && !cmd.Overwrite {
		return fmt.Errorf("widgetctl: pack already defines widget %s (use --overwrite to replace)", cmd.Code)
	}

	entry, err := cmd.entry(base)
	if err != nil {
		return err
	}
	if idx >= 0 {
		doc.Widgets[idx] = entry
	} else {
		doc.Widgets = append(doc.Widgets, entry)
	}
	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Code < doc.Widgets[j].Definition.Code
	})
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("widgetctl: %w", err)
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "✓ Added %s (extends %s) to %s\n", cmd.Code, base.Code, manifestPath)
	return nil
}

func (cmd *scaffoldCmd) validate() (dashboard.WidgetDefinition, error) {
	if !strings.Contains(cmd.Code, ".") {
		return dashboard.WidgetDefinition{}, fmt.Errorf("widgetctl: widget code %s must contain at least one '.' segment", cmd.Code)
	}
	base, ok := builtIn(cmd.Base)
	if !ok {
		return dashboard.WidgetDefinition{}, fmt.Errorf("widgetctl: unknown base widget %s (see widgetctl bases)", cmd.Base)
	}
	if cmd.Code == base.Code {
		return dashboard.WidgetDefinition{}, fmt.Errorf("widgetctl: widget code %s collides with the built-in widget", cmd.Code)
	}
	if cmd.Area != "" && !slices.Contains(dashboard.DefaultAreaCodes(), cmd.Area) {
		return dashboard.WidgetDefinition{}, fmt.Errorf("widgetctl: unknown area %s", cmd.Area)
	}
	if len(cmd.Set) > 0 && cmd.Area == "" {
		return dashboard.WidgetDefinition{}, errors.New("widgetctl: --set requires --area")
	}
	return base, nil
}

// entry builds the pack entry. Filters are copied from base so the provider
// keeps receiving the keys it understands.
func (cmd *scaffoldCmd) entry(base dashboard.WidgetDefinition) (dashboard.ManifestWidget, error) {
	filters := make([]dashboard.FilterSpec, len(base.Filters))
	for i, spec := range base.Filters {
		spec.Options = slices.Clone(spec.Options)
		if value, ok := cmd.Default[spec.Key]; ok {
			if !spec.Allows(value) {
				return dashboard.ManifestWidget{}, optionError(base, spec.Key, value)
			}
			spec.Default = value
		}
		filters[i] = spec
	}
	for key := range cmd.Default {
		if _, ok := base.Filter(key); !ok {
			return dashboard.ManifestWidget{}, fmt.Errorf("widgetctl: %s has no filter %s", base.Code, key)
		}
	}

	name := cmd.Name
	if name == "" {
		name = deriveName(cmd.Code)
	}
	description := cmd.Description
	if description == "" {
		description = base.Description
	}
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:        cmd.Code,
			Name:        name,
			Description: description,
			Category:    base.Category,
			Filters:     filters,
		},
		Provider: dashboard.ManifestProvider{
			Base:    base.Code,
			Summary: fmt.Sprintf("%s variant of %s", name, base.Name),
		},
		Tags: cmd.Tag,
	}
	if cmd.Area == "" {
		return entry, nil
	}

	placement := &dashboard.ManifestPlacement{Area: cmd.Area}
	if len(cmd.Set) > 0 {
		placement.Configuration = make(map[string]any, len(cmd.Set))
		for key, value := range cmd.Set {
			spec, ok := base.Filter(key)
			if !ok {
				return dashboard.ManifestWidget{}, fmt.Errorf("widgetctl: %s has no filter %s", base.Code, key)
			}
			if !spec.Allows(value) {
				return dashboard.ManifestWidget{}, optionError(base, key, value)
			}
			placement.Configuration[key] = value
		}
	}
	entry.Placement = placement
	return entry, nil
}

func (cmd *basesCmd) Run(_ context.Context) error {
	out := cmd.out
	if out == nil {
		out = os.Stdout
	}
	for _, def := range dashboard.DefaultWidgetDefinitions() {
		keys := make([]string, len(def.Filters))
		for i, spec := range def.Filters {
			keys[i] = spec.Key
		}
		fmt.Fprintf(out, "%-32s %-28s filters: %s\n", def.Code, def.Name, strings.Join(keys, ", "))
	}
	return nil
}

func builtIn(code string) (dashboard.WidgetDefinition, bool) {
	for _, def := range dashboard.DefaultWidgetDefinitions() {
		if def.Code == code {
			return def, true
		}
	}
	return dashboard.WidgetDefinition{}, false
}

func optionError(base dashboard.WidgetDefinition, key, value string) error {
	spec, _ := base.Filter(key)
	allowed := make([]string, len(spec.Options))
	for i, opt := range spec.Options {
		allowed[i] = opt.Value
	}
	return fmt.Errorf("widgetctl: %s filter %s does not allow %q (choose from %s)",
		base.Code, key, value, strings.Join(allowed, ", "))
}

func loadOrInitManifest(path, name string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Name:    name,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}

func deriveName(code string) string {
	parts := strings.Split(code, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = code
	}
	return strcase.ToCase(slug, strcase.TitleCase, ' ')
}
