package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/auth"
	"github.com/ukydev/garage-service/internal/middleware"
	"github.com/ukydev/garage-service/internal/workshop"
)

// Login attempts allowed per client IP and window.
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// NewRouter wires every endpoint behind request logging and the session gate.
// trustProxy makes the login limiter key clients on forwarding headers.
func NewRouter(shop *workshop.Workshop, authService *auth.Service, log logrus.FieldLogger, trustProxy bool) http.Handler {
	authHandler := NewAuthHandler(authService, log)
	health := NewHealthHandler(shop.Ping)
	records := NewRecordsHandler(shop)
	services := NewServicesHandler(shop)
	notifications := NewNotificationsHandler(shop, log)
	limiter := middleware.NewRateLimitMiddleware(trustProxy)

	mux := http.NewServeMux()
	mux.Handle("/api/auth/login", limiter.RateLimit(loginRateLimit, loginRateWindow)(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("GET /api/clients", records.ListClients)
	mux.HandleFunc("POST /api/clients", records.CreateClient)
	mux.HandleFunc("GET /api/clients/{id}", records.GetClient)
	mux.HandleFunc("PUT /api/clients/{id}", records.UpdateClient)
	mux.HandleFunc("DELETE /api/clients/{id}", records.DeleteClient)

	mux.HandleFunc("GET /api/vehicles", records.ListVehicles)
	mux.HandleFunc("POST /api/vehicles", records.CreateVehicle)
	mux.HandleFunc("GET /api/vehicles/{id}", records.GetVehicle)
	mux.HandleFunc("PUT /api/vehicles/{id}", records.UpdateVehicle)
	mux.HandleFunc("PUT /api/vehicles/{id}/owner", records.ReassignOwner)
	mux.HandleFunc("DELETE /api/vehicles/{id}", records.DeleteVehicle)

	mux.HandleFunc("GET /api/catalog", services.Catalog)
	mux.HandleFunc("GET /api/stats", services.Stats)
	mux.HandleFunc("GET /api/services", services.ListServices)
	mux.HandleFunc("POST /api/services", services.CreateService)
	mux.HandleFunc("GET /api/services/{id}", services.GetService)
	mux.HandleFunc("PUT /api/services/{id}", services.UpdateService)
	mux.HandleFunc("DELETE /api/services/{id}", services.DeleteService)
	mux.HandleFunc("POST /api/services/{id}/complete", services.CompleteService)

	mux.HandleFunc("GET /api/services/{id}/invoice", notifications.Invoice)
	mux.HandleFunc("GET /api/services/{id}/notification", notifications.Notification)
	mux.HandleFunc("POST /api/services/{id}/notify", notifications.Notify)
	mux.HandleFunc("/notifications/send", notifications.Send)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	return middleware.RequestLogger(log)(authMiddleware.Authenticate(mux))
}
