package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shiptrack/internal/auth"
	"shiptrack/internal/commons"
	ordercontroller "shiptrack/internal/order/controller"
	usercontroller "shiptrack/internal/user/controller"
)

func NewRouter(
	userCtrl *usercontroller.UserController,
	orderCtrl *ordercontroller.OrderController,
	tokens *auth.TokenIssuer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		commons.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", userCtrl.Register)
		r.Post("/sessions", userCtrl.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens, logger))
			r.Get("/orders", orderCtrl.List)
			r.Post("/orders", orderCtrl.Create)
			r.Get("/orders/stream", orderCtrl.Stream)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
