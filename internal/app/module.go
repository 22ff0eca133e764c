package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/adminauth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.adminauth.enabled") {
		if err := adminauth.New(adminauth.Dependency{
			Context:    a.ctx,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Mail:       a.mail,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Token:      a.token,
			HMAC:       a.hmac,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module adminauth", "error", err)
			os.Exit(1)
		}
	}
}
