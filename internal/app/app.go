// Package app wires dependencies and manages the service lifecycle.
package app

import (
	"context"

	"github.com/gramconnect/gramconnect/internal/pkg/clock"
	"github.com/gramconnect/gramconnect/internal/pkg/config"
	"github.com/gramconnect/gramconnect/internal/pkg/goroutine"
	"github.com/gramconnect/gramconnect/internal/pkg/instrument"
	"github.com/gramconnect/gramconnect/internal/pkg/jwt"
	"github.com/gramconnect/gramconnect/internal/pkg/mail"
	"github.com/gramconnect/gramconnect/internal/pkg/messaging"
	"github.com/gramconnect/gramconnect/internal/pkg/otp"
	"github.com/gramconnect/gramconnect/internal/pkg/uid"
	"github.com/gramconnect/gramconnect/internal/pkg/validator"
	"go.mongodb.org/mongo-driver/mongo"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID
	oid       uid.StringID
	codes     otp.Generator
	jwt       jwt.JWT

	// resources
	mongoClient *mongo.Client
	database    *mongo.Database
	mail        mail.Mail
	messaging   messaging.Messaging

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initMail()
	app.initMessaging()
	app.initModules()
	app.initClosers()

	return app
}
