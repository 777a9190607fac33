package app

import (
	"log/slog"
	"os"

	"github.com/gramconnect/gramconnect/internal/auth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if _, err := auth.New(a.ctx, auth.Dependency{
			Database:   a.database,
			Goroutine:  a.goroutine,
			Messaging:  a.messaging,
			Mailer:     a.mail,
			Config:     a.config,
			Instrument: a.ins,
			OID:        a.oid,
			Codes:      a.codes,
			Clock:      a.clock,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}
}
