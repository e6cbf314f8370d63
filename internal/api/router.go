package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(apiHandler *APIHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(AccessLog(logger))
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/widget-loader.js", apiHandler.WidgetLoaderHandler)

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/ready", apiHandler.ReadyHandler)

		// Embedded widget surface, callable from any origin
		r.Group(func(r chi.Router) {
			r.Use(OpenCORS)

			r.Post("/chat", apiHandler.ChatHandler)
			r.Options("/chat", preflight)
			r.Get("/bots/{botID}", apiHandler.PublicBotHandler)
			r.Options("/bots/{botID}", preflight)
		})

		r.Post("/webhooks/telegram", apiHandler.TelegramWebhookHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", apiHandler.SignupHandler)
			r.Post("/login", apiHandler.LoginHandler)
			r.Post("/logout", apiHandler.LogoutHandler)
			r.With(apiHandler.SessionAuthMiddleware).Get("/me", apiHandler.MeHandler)
		})

		// Owner-scoped dashboard
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)

			r.Get("/bots", apiHandler.ListBotsHandler)
			r.Post("/bots", apiHandler.CreateBotHandler)
			r.Route("/bots/{botID}", func(r chi.Router) {
				r.Get("/", apiHandler.GetBotHandler)
				r.Put("/", apiHandler.UpdateBotHandler)
				r.Delete("/", apiHandler.DeleteBotHandler)

				r.Get("/knowledge", apiHandler.ListKnowledgeHandler)
				r.Post("/knowledge", apiHandler.AddKnowledgeHandler)
				r.Put("/knowledge/{snippetID}", apiHandler.UpdateKnowledgeHandler)
				r.Delete("/knowledge/{snippetID}", apiHandler.DeleteKnowledgeHandler)

				r.Post("/documents", apiHandler.UploadDocumentHandler)
			})

			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Get("/conversations/{conversationID}", apiHandler.GetConversationHandler)
		})

		// Admin panel
		r.Route("/admin", func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)
			r.Use(RequireAdmin)

			r.Get("/stats", apiHandler.AdminStatsHandler)
			r.Get("/bots", apiHandler.AdminBotsHandler)
			r.Get("/conversations", apiHandler.AdminConversationsHandler)
			r.Get("/failures", apiHandler.AdminFailuresHandler)

			r.Get("/users", apiHandler.AdminListUsersHandler)
			r.Post("/users", apiHandler.AdminCreateUserHandler)
			r.Get("/users/{userID}", apiHandler.AdminGetUserHandler)
			r.Put("/users/{userID}", apiHandler.AdminUpdateUserHandler)
			r.Delete("/users/{userID}", apiHandler.AdminDeleteUserHandler)
		})
	})

	return r
}
