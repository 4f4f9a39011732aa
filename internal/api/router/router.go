package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/http/handlers"
	httpmiddleware "github.com/vxplore/Clinik-pe-sub000/internal/http/middleware"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger
	Env    *handlers.Env

	Redis    *redis.Client
	Sessions *session.Store
	Tokens   *session.Tokens
	Sidebar  *session.SidebarStore
	Boards   *session.BoardCache

	// Email sends invoices; nil disables invoice e-mail.
	Email notify.EmailSender
	// Stream serves the live notification WebSocket (optional).
	Stream http.Handler
	// OTPLimiter throttles the public OTP endpoints per client IP (optional).
	OTPLimiter *httpmiddleware.RateLimiter

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	DefaultCountryCode string
	CookieSecure       bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	env := cfg.Env
	if env.Logger == nil {
		env.Logger = cfg.Logger
	}
	api := env.API

	auth := handlers.NewAuthHandler(env, handlers.AuthConfig{
		Sessions:           cfg.Sessions,
		Tokens:             cfg.Tokens,
		Redis:              cfg.Redis,
		Boards:             cfg.Boards,
		DefaultCountryCode: cfg.DefaultCountryCode,
		CookieSecure:       cfg.CookieSecure,
	})
	sidebar := handlers.NewSidebarHandler(env, cfg.Sidebar)
	doctor := handlers.NewDoctorHandler(env)

	organizations := handlers.NewResourceHandler(env, handlers.Organizations(api, cfg.DefaultCountryCode))
	centers := handlers.NewResourceHandler(env, handlers.Centers(api))
	providers := handlers.NewResourceHandler(env, handlers.Providers(api))
	providerPhotos := handlers.NewProvidersHandler(env, providers)
	availability := handlers.NewResourceHandler(env, handlers.Availability(api))
	patients := handlers.NewResourceHandler(env, handlers.Patients(api))
	labTests := handlers.NewResourceHandler(env, handlers.LabTests(api))
	packages := handlers.NewResourceHandler(env, handlers.Packages(api))
	units := handlers.NewResourceHandler(env, handlers.Units(api))
	categories := handlers.NewBoardHandler(env, cfg.Boards, "categories", handlers.Categories(api),
		func(c clinikpe.TestCategory) string { return c.Key() },
		func(ctx context.Context, ref handlers.Ref, m clinikpe.Reorder) error {
			return api.ReorderCategory(ctx, ref.Session.Scope(), m)
		})
	panels := handlers.NewBoardHandler(env, cfg.Boards, "panels", handlers.Panels(api),
		func(p clinikpe.TestPanel) string { return p.Key() },
		func(ctx context.Context, ref handlers.Ref, m clinikpe.Reorder) error {
			return api.ReorderPanel(ctx, ref.Session.Scope(), m)
		})
	roles := handlers.NewResourceHandler(env, handlers.Roles(api))
	permissions := handlers.NewRolesHandler(env, roles)
	bookings := handlers.NewResourceHandler(env, handlers.Bookings(api))
	billing := handlers.NewBillingHandler(env, bookings, cfg.Email)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health(healthChecks(cfg)))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(routes chi.Router) {
		// Public OTP endpoints
		routes.Group(func(otp chi.Router) {
			otp.Use(middleware.Compress(5))
			if cfg.OTPLimiter != nil {
				otp.Use(cfg.OTPLimiter.Middleware)
			}
			otp.Post("/onboarding/organization", auth.RegisterOrganization)
			otp.Post("/auth/login", auth.Login)
			otp.Post("/auth/verify", auth.Verify)
			otp.Post("/auth/resend", auth.Resend)
			otp.Post("/doctor/login", auth.DoctorLogin)
			otp.Post("/doctor/verify", auth.DoctorVerify)
		})

		// Dashboard endpoints (session cookie or bearer token)
		routes.Group(func(private chi.Router) {
			private.Use(httpmiddleware.RequireSession(cfg.Tokens, cfg.Sessions, cfg.Logger))

			// The WebSocket upgrade must not go through the compressor.
			if cfg.Stream != nil {
				private.Handle("/notifications/stream", cfg.Stream)
			}

			private.Group(func(r chi.Router) {
				r.Use(middleware.Compress(5))

				r.Get("/auth/me", auth.Me)
				r.Post("/auth/logout", auth.Logout)
				r.Put("/auth/context", auth.SwitchContext)

				r.Get("/ui/sidebar", sidebar.Get)
				r.Put("/ui/sidebar", sidebar.Put)

				r.Get("/notifications", env.Notifications)

				r.Group(func(doc chi.Router) {
					doc.Use(httpmiddleware.RequireKind(session.KindDoctor))
					doc.Get("/doctor/dashboard", doctor.Dashboard)
					doc.Get("/doctor/appointments", doctor.Appointments)
					doc.Patch("/doctor/appointments/{id}/status", doctor.UpdateStatus)
				})

				r.Group(func(admin chi.Router) {
					admin.Use(httpmiddleware.RequireKind(session.KindAdmin))

					admin.Get("/audit", env.AuditLog)
					admin.Route("/organizations", crud(organizations))
					admin.Route("/centers", crud(centers))
					admin.Route("/patients", crud(patients))
					admin.Route("/providers", func(r chi.Router) {
						r.Get("/", providers.List)
						r.Post("/", providers.Create)
						r.Route("/{providerID}", func(r chi.Router) {
							r.Put("/", providers.Update)
							r.Delete("/", providers.Delete)
							r.Post("/photo", providerPhotos.UploadPhoto)
							r.Route("/availability", crud(availability))
						})
					})

					admin.Route("/lab", func(r chi.Router) {
						r.Route("/tests", crud(labTests))
						r.Route("/packages", crud(packages))
						r.Route("/units", crud(units))
						r.Route("/categories", board(categories))
						r.Route("/panels", board(panels))
					})

					admin.Route("/roles", func(r chi.Router) {
						r.Get("/permissions", permissions.Permissions)
						r.Put("/{id}/permissions", permissions.SetPermissions)
						crud(roles)(r)
					})

					admin.Route("/billing/bookings", func(r chi.Router) {
						crud(bookings)(r)
						r.Patch("/{id}/status", billing.UpdateStatus)
						r.Get("/{id}/invoice", billing.Invoice)
						r.Post("/{id}/invoice/email", billing.EmailInvoice)
					})
				})
			})
		})
	})

	return r
}

// crud mounts list, create, update and delete of a resource page.
func crud[T any, In any](h *handlers.ResourceHandler[T, In]) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	}
}

// board mounts a reorderable resource page.
func board[T any, In any](h *handlers.BoardHandler[T, In]) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.Resource().List)
		r.Post("/", h.Resource().Create)
		r.Post("/reorder", h.Reorder)
		r.Put("/{id}", h.Resource().Update)
		r.Delete("/{id}", h.Delete)
	}
}

func healthChecks(cfg *Config) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if cfg.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return cfg.Redis.Ping(ctx).Err() }
	}
	if cfg.Env != nil && cfg.Env.Audit.Enabled() {
		checks["postgres"] = cfg.Env.Audit.Ping
	}
	return checks
}
