package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// New assembles the HTTP surface. Channel-authenticated API routes live
// under /api/v1; the webhook endpoint, health check and metrics endpoint
// stay outside channel auth.
func New(
	transactionController RouteRegistrar,
	paymentController RouteRegistrar,
	webhookController RouteRegistrar,
	authMiddleware func(http.Handler) http.Handler,
) *mux.Router {
	root := mux.NewRouter()

	root.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if webhookController != nil {
		webhookController.RegisterRoutes(root)
	}

	api := root.PathPrefix("/api/v1").Subrouter()
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	if transactionController != nil {
		transactionController.RegisterRoutes(api)
	}
	if paymentController != nil {
		paymentController.RegisterRoutes(api)
	}

	return root
}
