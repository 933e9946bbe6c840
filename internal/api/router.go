package api

import (
	"net/http"
	"time"

	"agrimarket/internal/api/handler"
	"agrimarket/internal/app/service"
	"agrimarket/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	cropService *service.CropService,
	orderService *service.OrderService,
	analysisService *service.AnalysisService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies token if present, puts claims in context. Public routes stay
	// reachable without one; Authenticator enforces it further down.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// User routes (authenticated)
		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", userHandler.RegisterRoutes)

		// Crop routes (marketplace public, mutations farmer-only)
		cropHandler := handler.NewCropHandler(cropService, analysisService)
		v1.Route("/crops", cropHandler.RegisterRoutes)

		// Order routes (authenticated, role-split)
		orderHandler := handler.NewOrderHandler(orderService)
		v1.Route("/orders", orderHandler.RegisterRoutes)
	})

	return r
}
