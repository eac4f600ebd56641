package routes

import (
	"net/http"

	"github.com/arenahq/arena/handlers"
	"github.com/arenahq/arena/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Enrollment *handlers.EnrollmentHandler
	Wallet     *handlers.WalletHandler
	User       *handlers.UserHandler
	Room       *handlers.RoomHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Route("/tournaments", func(r chi.Router) {
		// Public catalog; the optional token only unlocks room
		// credentials for joined viewers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthenticateOptional(jwtSecret))
			r.Get("/", h.Tournament.List)
			r.Get("/{tournamentID}", h.Tournament.Get)
			r.Get("/{tournamentID}/participants", h.Tournament.Roster)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Post("/{tournamentID}/join", h.Enrollment.Join)
			r.Delete("/{tournamentID}/leave", h.Enrollment.Leave)
			r.Get("/{tournamentID}/room", h.Room.ServeWs)
		})
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Get("/", h.User.Me)
		r.Patch("/", h.User.UpdateMe)
		r.Post("/avatar", h.User.UploadAvatar)
		r.Get("/tournaments", h.Enrollment.MyTournaments)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Get("/", h.Wallet.Balance)
		r.Get("/transactions", h.Wallet.History)
		r.Post("/topup", h.Wallet.InitiateTopUp)
		r.Post("/topup/{orderID}/confirm", h.Wallet.ConfirmTopUp)
	})

	router.Route("/admin/tournaments", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.RequireRole("admin"))
		r.Post("/", h.Tournament.Create)
		r.Patch("/{tournamentID}", h.Tournament.Update)
		r.Delete("/{tournamentID}", h.Tournament.Delete)
		r.Post("/{tournamentID}/banner", h.Tournament.UploadBanner)
	})

	return router
}
