package main

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskflow-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/realtime"
)

// setupRouter registers every HTTP and websocket route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwords, app.passwords, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService, app.userStore)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	attachmentHandler := api.NewAttachmentHandler(app.attachmentService, app.config.Uploads.MaxSizeBytes, app.logger)
	quoteHandler := api.NewQuoteHandler(app.quoteService, quoteAPISource(app.config.Quote.URL))
	realtimeHandler := api.NewRealtimeHandler(app.registry, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Get("/stats/count", taskHandler.CountTasks)
				r.Get("/{id}", taskHandler.GetTask)
				r.Put("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)

				r.Post("/{id}/attachment", attachmentHandler.Upload)
				r.Get("/{id}/attachment", attachmentHandler.Download)
				r.Delete("/{id}/attachment", attachmentHandler.Delete)
			})

			r.Route("/external/quote", func(r chi.Router) {
				r.Get("/", quoteHandler.GetQuote)
				r.Get("/detailed", quoteHandler.GetQuoteDetailed)
				r.Get("/health", quoteHandler.QuoteHealth)
			})

			r.Route("/ws", func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin)
				r.Get("/stats", realtimeHandler.Stats)
				r.Get("/connections", realtimeHandler.Connections)
				r.Post("/broadcast", realtimeHandler.Broadcast)
				r.Delete("/connections/{id}", realtimeHandler.Disconnect)
			})
		})
	})

	// Websocket endpoints authenticate inside the protocol, not via middleware.
	r.Handle("/ws", realtime.EchoHandler(app.transport, app.logger))
	r.Handle("/ws/tasks", realtime.NewHandler(app.authenticator, app.registry, app.transport, app.logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// quoteAPISource reduces the quote URL to its host for health reports.
func quoteAPISource(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
