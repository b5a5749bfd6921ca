//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/engine"
	"github.com/crossbag/backend/internal/repository"
)

// Engine is the lifecycle surface the HTTP layer exposes.
type Engine interface {
	CreateRequest(ctx context.Context, shopperID string, in engine.RequestInput) (*repository.ShopperRequest, error)
	RegisterTrip(ctx context.Context, travelerID string, in engine.TripInput) (*repository.Trip, error)
	PublishRequest(ctx context.Context, shopperID, requestID string) ([]*repository.Match, error)
	ListMatches(ctx context.Context, requestID string) ([]*repository.Match, error)
	ClaimMatch(ctx context.Context, travelerID, matchID string, assignedItemIDs []string) (*repository.Match, error)
	ApproveMatch(ctx context.Context, shopperID, matchID string) (*repository.Match, error)
	CancelDuringCooldown(ctx context.Context, userID, matchID, reason string) error
	CompleteMatch(ctx context.Context, travelerID, matchID string) (*repository.Match, error)
	RejectMatch(ctx context.Context, userID, matchID string) error
	RateMatch(ctx context.Context, shopperID, matchID string, rating float64) error
}

// actorHeader carries the authenticated user id. Authentication itself is an
// upstream concern; this service trusts the header.
const actorHeader = "X-User-ID"

type Server struct {
	engine Engine
	audit  *AuditManager
	logger *zap.Logger
	server *http.Server
}

func New(eng Engine, logger *zap.Logger) *Server {
	return &Server{
		engine: eng,
		audit:  NewAuditManager(2, 5, 500*time.Millisecond, logger),
		logger: logger,
	}
}

func (s *Server) Run(ctx context.Context, port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.audit.Start(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("http server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.audit.Shutdown(ctx)
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(s.auditMiddleware)

	api.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/publish", s.handlePublishRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests/{id}/matches", s.handleListMatches).Methods(http.MethodGet)

	api.HandleFunc("/trips", s.handleRegisterTrip).Methods(http.MethodPost)

	api.HandleFunc("/matches/{id}/claim", s.handleClaimMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/approve", s.handleApproveMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/cancel", s.handleCancelMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/complete", s.handleCompleteMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/reject", s.handleRejectMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/rate", s.handleRateMatch).Methods(http.MethodPost)

	return router
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondEngineError translates the engine error taxonomy into HTTP status
// codes. Anything unrecognized is a 500 with a generic message so internal
// details never leak.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	var invalidState *engine.InvalidStateError
	var capacity *engine.CapacityExceededError

	switch {
	case errors.Is(err, engine.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrUnauthorized):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &invalidState),
		errors.As(err, &capacity),
		errors.Is(err, engine.ErrWindowExpired),
		errors.Is(err, engine.ErrCapabilityMismatch):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("unexpected engine error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(actorHeader)
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing "+actorHeader+" header")
		return "", false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type itemRequest struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	WeightKg        float64 `json:"weight_kg"`
	Quantity        int     `json:"quantity"`
	Fragile         bool    `json:"fragile"`
	SpecialDelivery bool    `json:"special_delivery"`
	SpecialCategory string  `json:"special_category"`
}

type createRequestBody struct {
	OriginCountry string        `json:"origin_country"`
	DestCountry   string        `json:"dest_country"`
	DeliveryFrom  *time.Time    `json:"delivery_from,omitempty"`
	DeliveryTo    *time.Time    `json:"delivery_to,omitempty"`
	Items         []itemRequest `json:"items"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := actorID(w, r)
	if !ok {
		return
	}

	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := engine.RequestInput{
		OriginCountry: body.OriginCountry,
		DestCountry:   body.DestCountry,
		DeliveryFrom:  body.DeliveryFrom,
		DeliveryTo:    body.DeliveryTo,
	}
	for _, it := range body.Items {
		in.Items = append(in.Items, engine.ItemInput{
			Name:            it.Name,
			Price:           it.Price,
			Currency:        it.Currency,
			WeightKg:        it.WeightKg,
			Quantity:        it.Quantity,
			Fragile:         it.Fragile,
			SpecialDelivery: it.SpecialDelivery,
			SpecialCategory: it.SpecialCategory,
		})
	}

	req, err := s.engine.CreateRequest(r.Context(), shopperID, in)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

type registerTripBody struct {
	OriginCountry      string    `json:"origin_country"`
	DestCountry        string    `json:"dest_country"`
	DepartureAt        time.Time `json:"departure_at"`
	ArrivalAt          time.Time `json:"arrival_at"`
	AvailableCarryOnKg float64   `json:"available_carry_on_kg"`
	AvailableCheckedKg float64   `json:"available_checked_kg"`
	FragileOk          bool      `json:"fragile_ok"`
	SpecialDeliveryOk  bool      `json:"special_delivery_ok"`
}

func (s *Server) handleRegisterTrip(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := actorID(w, r)
	if !ok {
		return
	}

	var body registerTripBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := s.engine.RegisterTrip(r.Context(), travelerID, engine.TripInput{
		OriginCountry:      body.OriginCountry,
		DestCountry:        body.DestCountry,
		DepartureAt:        body.DepartureAt,
		ArrivalAt:          body.ArrivalAt,
		AvailableCarryOnKg: body.AvailableCarryOnKg,
		AvailableCheckedKg: body.AvailableCheckedKg,
		FragileOk:          body.FragileOk,
		SpecialDeliveryOk:  body.SpecialDeliveryOk,
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, trip)
}

func (s *Server) handlePublishRequest(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := actorID(w, r)
	if !ok {
		return
	}
	requestID := mux.Vars(r)["id"]

	matches, err := s.engine.PublishRequest(r.Context(), shopperID, requestID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]

	matches, err := s.engine.ListMatches(r.Context(), requestID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

type claimMatchBody struct {
	AssignedItemIDs []string `json:"assigned_item_ids"`
}

func (s *Server) handleClaimMatch(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	var body claimMatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := s.engine.ClaimMatch(r.Context(), travelerID, matchID, body.AssignedItemIDs)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleApproveMatch(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	m, err := s.engine.ApproveMatch(r.Context(), shopperID, matchID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type cancelMatchBody struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancelMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	var body cancelMatchBody
	if r.Body != nil {
		// Reason is optional; a missing or empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := s.engine.CancelDuringCooldown(r.Context(), userID, matchID, body.Reason); err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "match cancelled, request reopened"})
}

func (s *Server) handleCompleteMatch(w http.ResponseWriter, r *http.Request) {
	travelerID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	m, err := s.engine.CompleteMatch(r.Context(), travelerID, matchID)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleRejectMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	if err := s.engine.RejectMatch(r.Context(), userID, matchID); err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "match rejected"})
}

type rateMatchBody struct {
	Rating float64 `json:"rating"`
}

func (s *Server) handleRateMatch(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := actorID(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["id"]

	var body rateMatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.engine.RateMatch(r.Context(), shopperID, matchID, body.Rating); err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "rating recorded"})
}
