package dashboard

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

const (
	// DefaultStaticPath is where the embedded stylesheet is served.
	DefaultStaticPath = "/dashboard/static/"
	// DefaultEChartsCDN hosts the ECharts runtime and themes.
	DefaultEChartsCDN = "https://go-echarts.github.io/go-echarts-assets/assets/"
	// envEChartsCDN overrides the ECharts host, e.g. for a self-hosted bucket.
	envEChartsCDN = "RMG_DASHBOARD_ECHARTS_CDN"
)

//go:embed assets/static/*
var embeddedStatic embed.FS

// StaticAssets exposes the embedded dashboard stylesheet.
func StaticAssets() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "assets/static")
	if err != nil {
		// unreachable: the directory is embedded at build time
		panic(fmt.Errorf("dashboard: prepare embedded assets: %w", err))
	}
	return sub
}

// StaticHandler serves the embedded assets below prefix.
func StaticHandler(prefix string) http.Handler {
	if prefix == "" {
		prefix = DefaultStaticPath
	}
	prefix = ensureTrailingSlash(prefix)
	return http.StripPrefix(prefix, http.FileServer(http.FS(StaticAssets())))
}

// DefaultEChartsAssetsHost returns the ECharts host, honoring
// RMG_DASHBOARD_ECHARTS_CDN when set.
func DefaultEChartsAssetsHost() string {
	if host := strings.TrimSpace(os.Getenv(envEChartsCDN)); host != "" {
		return ensureTrailingSlash(host)
	}
	return DefaultEChartsCDN
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
