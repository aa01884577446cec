package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/moneylegal/identity/internal/identity/http"
	"github.com/moneylegal/identity/internal/identity/notify"
	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/internal/identity/store/drivers/sqlite"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/jwtx"
	"github.com/moneylegal/identity/pkg/otpx"
	"github.com/moneylegal/identity/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the identity service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.HS512

	registrationService  *service.RegistrationService
	sessionService       *service.SessionService
	passwordResetService *service.PasswordResetService
	tenantService        *service.TenantService
	memberService        *service.MemberService
	accessRequestService *service.AccessRequestService
	housekeepingService  *service.HousekeepingService

	dispatcher *notify.Dispatcher
	server     *http.Server
	router     *httpapi.Router
}

// New creates the application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initNotify()
	app.initServices()
	app.initHTTP()

	return app, nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initSigner() error {
	key := app.cfg.SigningKey
	if key == "" {
		// Ephemeral key: every restart invalidates outstanding access
		// tokens. Fine for dev, never for prod.
		key = cryptox.MustGenerateToken(cryptox.TokenSize512)
		app.logger.Warn("IDENTITY_SIGNING_KEY not set, using an ephemeral signing key")
	}

	signer, err := jwtx.NewHS512(key, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initNotify() {
	var mailer notify.Mailer = notify.NopMailer{}
	if app.cfg.MailGatewayURL != "" {
		mailer = notify.NewGatewayMailer(notify.GatewayConfig{
			BaseURL: app.cfg.MailGatewayURL,
			APIKey:  app.cfg.MailGatewayKey,
			Timeout: app.cfg.MailTimeout,
		})
	} else {
		app.logger.Warn("MAIL_GATEWAY_URL not set, outbound mail is discarded")
	}

	app.dispatcher = notify.NewDispatcher(mailer, app.logger, app.cfg.MailQueueSize)
}

func (app *Application) initServices() {
	tokens := &service.TokenService{
		Signer:     app.signer,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}
	otp := &service.OTPService{
		Generator: otpx.New(),
		TTL:       app.cfg.OTPTTL,
	}

	app.registrationService = &service.RegistrationService{
		Store:  app.db,
		Tokens: tokens,
		OTP:    otp,
		Notify: app.dispatcher,
	}
	app.sessionService = &service.SessionService{
		Store:  app.db,
		Tokens: tokens,
	}
	app.passwordResetService = &service.PasswordResetService{
		Store:  app.db,
		OTP:    otp,
		Tokens: tokens,
		Notify: app.dispatcher,
	}
	app.tenantService = &service.TenantService{Store: app.db}
	app.memberService = &service.MemberService{
		Store:     app.db,
		Generator: otpx.New(),
		Notify:    app.dispatcher,
		TTL:       app.cfg.InvitationTTL,
	}
	app.accessRequestService = &service.AccessRequestService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, BuildVersion, app.db, app.logger)

	router.Registration = app.registrationService
	router.Sessions = app.sessionService
	router.PasswordReset = app.passwordResetService
	router.Tenants = app.tenantService
	router.Members = app.memberService
	router.AccessRequests = app.accessRequestService
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.dispatcher.Start()
	app.housekeepingService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains outstanding requests, stops the background workers and
// closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	app.dispatcher.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}
