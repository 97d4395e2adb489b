package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-study/internal/api"
	apiMiddleware "github.com/phrazzld/scry-study/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	deckHandler := api.NewDeckHandler(app.studyService, app.logger)
	sessionHandler := api.NewSessionHandler(app.studyService, app.logger)
	cardHandler := api.NewCardHandler(app.studyService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/decks", deckHandler.CreateDeck)
		r.Get("/decks", deckHandler.ListDecks)
		r.Post("/decks/{id}/cards", deckHandler.AddCards)
		r.Get("/decks/{id}/stats", deckHandler.GetDeckStats)
		r.Get("/decks/{id}/due", deckHandler.GetDueCards)
		r.Post("/decks/{id}/sessions", sessionHandler.StartSession)

		r.Get("/sessions/{id}", sessionHandler.GetProgress)
		r.Get("/sessions/{id}/card", sessionHandler.GetCurrentCard)
		r.Post("/sessions/{id}/reviews", sessionHandler.SubmitReview)
		r.Post("/sessions/{id}/end", sessionHandler.EndSession)

		r.Post("/cards/{id}/postpone", cardHandler.PostponeCard)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
