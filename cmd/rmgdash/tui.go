package main

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
	"github.com/goliatone/go-rmg-dashboard/internal/tui"
)

type tuiCmd struct {
	User   string `default:"rm-desk" help:"Viewer user ID whose view-state the session drives."`
	Locale string `default:"en" help:"Viewer locale."`
}

// Run opens the terminal dashboard. Logging is disabled while the alternate
// screen is active.
func (cmd *tuiCmd) Run(rt *runtime) error {
	rt.logger = zap.NewNop()
	app, err := rt.buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	viewer := dashboard.ViewerContext{UserID: cmd.User, Locale: cmd.Locale}
	defer func() { _ = app.Service.ResetViewer(rt.ctx, viewer) }()
	return tui.Run(rt.ctx, app.Service, viewer)
}
