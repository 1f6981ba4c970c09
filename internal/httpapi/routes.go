package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/duskfall/mafia-backend/internal/ws"
)

func SetupRoutes(a *API) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.Log))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(a.Hub, a.Log))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", a.CreateRoom)
		r.Route("/{roomID}", func(r chi.Router) {
			r.Get("/", a.GetRoom)
			r.Get("/messages", a.Messages)
			r.Post("/start", a.StartGame)
			r.Post("/actions", a.SubmitNightAction)
			r.Post("/votes", a.SubmitVote)
			r.Post("/advance", a.AdvancePhase)
			r.Post("/end", a.EndGame)
			r.Post("/restart", a.RestartGame)
			r.Delete("/players/{playerID}", a.RemovePlayer)
		})
	})

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
