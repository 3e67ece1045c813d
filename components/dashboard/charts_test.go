package dashboard

import (
	"context"
	"testing"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	keys  []string
	store map[string]string
}

func (c *countingCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	c.keys = append(c.keys, key)
	if html, ok := c.store[key]; ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.store[key] = html
	return html, nil
}

type echoTranslator map[string]string

func (e echoTranslator) Translate(_ context.Context, key, _ string, _ map[string]any) (string, error) {
	if v, ok := e[key]; ok {
		return v, nil
	}
	return "", ErrMissingTranslation
}

func sampleSpec() ChartSpec {
	return ChartSpec{
		Type:   ChartBar,
		Title:  "Skill Gap",
		XAxis:  []string{"Go", "Java"},
		Series: []ChartSeries{{Name: "Demand", Points: []ChartPoint{{Label: "Go", Value: 5}, {Label: "Java", Value: 3}}}},
	}
}

func TestChartRendererRendersEveryType(t *testing.T) {
	renderer := NewChartRenderer(WithChartCache(nil), WithChartAssetsHost("https://cdn.example.com/"))
	meta := WidgetContext{Instance: WidgetInstance{ID: "w1", DefinitionID: WidgetSkillGap}}
	for _, kind := range []string{ChartBar, ChartLine, ChartPie, ChartFunnel, ChartGauge} {
		spec := sampleSpec()
		spec.Type = kind
		data, err := renderer.Chart(context.Background(), meta, spec)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, data["chart_type"])
		assert.Contains(t, data["chart_html"], "https://cdn.example.com/", kind)
	}

	spec := sampleSpec()
	spec.Type = "radar"
	_, err := renderer.Chart(context.Background(), meta, spec)
	assert.Error(t, err)
	_, err = renderer.Chart(context.Background(), meta, ChartSpec{Type: ChartBar})
	assert.Error(t, err)
}

func TestChartRendererThemeSelection(t *testing.T) {
	renderer := NewChartRenderer(
		WithChartCache(nil),
		WithChartThemeResolver(func(v ViewerContext) string {
			if v.UserID == "night-owl" {
				return types.ThemeChalk
			}
			return ""
		}),
	)
	ctx := context.Background()

	data, err := renderer.Chart(ctx, WidgetContext{Viewer: ViewerContext{UserID: "night-owl"}}, sampleSpec())
	require.NoError(t, err)
	assert.Equal(t, types.ThemeChalk, data["theme"])

	data, err = renderer.Chart(ctx, WidgetContext{}, sampleSpec())
	require.NoError(t, err)
	assert.Equal(t, types.ThemeWesteros, data["theme"])

	configured := WidgetContext{Instance: WidgetInstance{Configuration: map[string]any{"theme": types.ThemeVintage}}}
	data, err = renderer.Chart(ctx, configured, sampleSpec())
	require.NoError(t, err)
	assert.Equal(t, types.ThemeVintage, data["theme"])
}

func TestChartRendererCachesPerSeries(t *testing.T) {
	cache := &countingCache{store: map[string]string{}}
	renderer := NewChartRenderer(WithChartCache(cache))
	meta := WidgetContext{Instance: WidgetInstance{ID: "w1", DefinitionID: WidgetSkillGap}}
	ctx := context.Background()

	_, err := renderer.Chart(ctx, meta, sampleSpec())
	require.NoError(t, err)
	_, err = renderer.Chart(ctx, meta, sampleSpec())
	require.NoError(t, err)
	changed := sampleSpec()
	changed.Series[0].Points[0].Value = 6
	_, err = renderer.Chart(ctx, meta, changed)
	require.NoError(t, err)

	require.Len(t, cache.keys, 3)
	assert.Equal(t, cache.keys[0], cache.keys[1])
	assert.NotEqual(t, cache.keys[0], cache.keys[2], "a filter change yields new series and a new key")
	assert.Len(t, cache.store, 2)
}

func TestChartRendererTranslatesLabels(t *testing.T) {
	meta := WidgetContext{Translator: echoTranslator{"Demand": "Demanda"}}
	labels := translateLabels(context.Background(), meta, []string{"Go"})
	assert.Equal(t, []string{"Go"}, labels)
	series := translateSeries(context.Background(), meta, sampleSpec().Series)
	assert.Equal(t, "Demanda", series[0].Name)
}
