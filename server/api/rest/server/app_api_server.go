package server

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/devboard/devboard/common/logger"
	devmiddleware "github.com/devboard/devboard/server/api/rest/middleware"
)

// CORSAllowedOrigins lists the origins browsers may call the API from.
type CORSAllowedOrigins []string

type AppAPIServerConfig struct {
	HTTPServerConfig
}

type AppAPIServer struct {
	APIServer
}

func NewAppAPIServer(router *AppAPIRouter, config AppAPIServerConfig, httpServerFactory HTTPServerFactory, logFactory logger.LogFactory) (*AppAPIServer, error) {
	httpServer, err := httpServerFactory(router, config.HTTPServerConfig, logFactory("AppAPIServer"))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP server: %w", err)
	}
	return &AppAPIServer{
		APIServer: httpServer,
	}, nil
}

type AppAPIRouter struct {
	chi.Router
}

func NewAppAPIRouter(
	factory *FactoryAPI,
	scm *SCMAPI,
	health *HealthAPI,
	verifier devmiddleware.IdentityVerifier,
	allowedOrigins CORSAllowedOrigins,
	logFactory logger.LogFactory) *AppAPIRouter {

	logger := logFactory("AppAPIRouter")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", health.Get)

	r.Route("/api", func(r chi.Router) {
		if len(allowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   allowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
				ExposedHeaders:   []string{"Content-Disposition"},
				AllowCredentials: true,
				MaxAge:           300, // Maximum value not ignored by any of major browsers
			}))
		}
		r.Use(devmiddleware.MakeJWTAuthenticator(logger, verifier))

		// Anonymous callers may resolve public repositories
		r.Post("/factory/resolver", factory.Resolve)
		r.Get("/scm/resolve", scm.ResolveFile)

		// Tokens and rejections are held per user
		r.Group(func(r chi.Router) {
			r.Use(devmiddleware.MakeMustAuthenticate(factory.Error))
			r.Post("/factory/token/refresh", factory.RefreshToken)
			r.Post("/factory/token/reject", factory.RejectAuthorisation)
			r.Delete("/factory/token/reject", factory.ClearRejection)
		})
	})

	return &AppAPIRouter{Router: r}
}
