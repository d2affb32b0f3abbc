// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zergity/splitter/internal/auth"
	"github.com/Zergity/splitter/internal/eventlog"
	"github.com/Zergity/splitter/internal/middleware"
	"github.com/Zergity/splitter/internal/service"
)

// EventLister reads back the audit trail. The SQLite store implements it.
type EventLister interface {
	ListEvents(ctx context.Context, groupID string) ([]eventlog.Event, error)
}

// Server wires the services to HTTP handlers.
type Server struct {
	groups  *service.GroupService
	ledger  *service.LedgerService
	events  EventLister
	jwt     *auth.JWTManager
	gate    *auth.AccessGate
	groupID string
}

// New creates a Server for the given group.
func New(groups *service.GroupService, ledger *service.LedgerService, events EventLister, jwt *auth.JWTManager, gate *auth.AccessGate, groupID string) *Server {
	return &Server{
		groups:  groups,
		ledger:  ledger,
		events:  events,
		jwt:     jwt,
		gate:    gate,
		groupID: groupID,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Session issuance is the only unauthenticated API route: present
		// the group access code, pick your member, get a token.
		r.Post("/session", s.handleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMember(s.jwt))

			r.Get("/group", s.handleGetGroup)
			r.Put("/group", s.handleUpdateGroup)
			r.Post("/group/members", s.handleAddMember)
			r.Put("/group/members/{memberID}", s.handleUpdateMember)
			r.Delete("/group/members/{memberID}", s.handleRemoveMember)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/{expenseID}", s.handleGetExpense)
			r.Put("/expenses/{expenseID}", s.handleUpdateExpense)
			r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)
			r.Post("/expenses/{expenseID}/accept", s.handleAcceptSplit)
			r.Post("/expenses/{expenseID}/force-accept", s.handleForceAccept)
			r.Post("/expenses/{expenseID}/items/{itemID}/claim", s.handleClaimItem)
			r.Get("/expenses/{expenseID}/values", s.handleDeriveValues)

			r.Post("/receipts", s.handleSeedReceipt)

			r.Get("/balances", s.handleBalances)
			r.Get("/settlements/plan", s.handleSettlementPlan)
			r.Post("/settlements", s.handleRecordSettlement)

			r.Get("/events", s.handleListEvents)
		})
	})

	return r
}
