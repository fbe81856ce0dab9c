package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nftbrawl/arena-bot/handlers"
)

// Setup assembles the battle control surface, the spectator endpoints and
// the wallet-link callback.
func Setup(
	battleHandler *handlers.BattleHandler,
	verifyHandler *handlers.VerifyHandler,
	wsHandler *handlers.WebSocketHandler,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/battles", func(r chi.Router) {
		r.Get("/{channelID}", battleHandler.GetState)
		r.Post("/{channelID}/lobby", battleHandler.CreateLobby)
		r.Post("/{channelID}/register", battleHandler.Register)
		r.Post("/{channelID}/start", battleHandler.Start)
		r.Delete("/{channelID}/lobby", battleHandler.Discard)
	})
	router.Post("/verify/wallet", verifyHandler.Redeem)
	router.Get("/ws/battles/{channelID}", wsHandler.ServeWs)

	return router
}
