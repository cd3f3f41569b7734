// Package httpserver is the HTTP adapter: routing, auth middleware and the
// JSON wire format. All marketplace semantics live in the service layer.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/and161185/tokenstall/internal/service"
)

// Server binds the marketplace services to HTTP routes.
type Server struct {
	auth    service.AuthService
	market  service.MarketService
	wallet  service.WalletService
	signKey []byte
	log     *zap.Logger
}

// New constructs the HTTP adapter. signKey verifies access tokens issued by
// the auth service.
func New(auth service.AuthService, market service.MarketService, wallet service.WalletService, signKey []byte, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, market: market, wallet: wallet, signKey: signKey, log: log}
}

// Router registers all routes with the shared middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
	})

	r.Route("/market/v1", func(r chi.Router) {
		// the listing card is public: anyone may follow a paid link later
		r.Get("/items/{id}", s.getItem)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/items", s.sell)
			r.Put("/items/{id}", s.updateItem)
			r.Post("/items/{id}/buy", s.buy)
			r.Get("/items/{id}/purchases", s.itemPurchases)
			r.Get("/my/items", s.myItems)
			r.Get("/my/purchases", s.myPurchases)
			r.Get("/my/income", s.myIncome)
			r.Get("/platform/income", s.platformIncome)
			r.Post("/platform/beneficiary", s.setBeneficiary)
		})
	})

	r.Route("/token/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/balance", s.balance)
		r.Post("/approve", s.approve)
		r.Post("/mint", s.mint)
	})

	return r
}
