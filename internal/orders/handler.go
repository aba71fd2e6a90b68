package orders

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/partners-api/internal/auth"
	"github.com/ayush/partners-api/internal/models"
)

const maxBodyBytes = 1 << 20

// successful is the acknowledgement body of both webhook calls.
var successful = models.Ack{Status: http.StatusCreated, Transaction: "Successful"}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds the order webhook HTTP handlers.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("module", "orders")}
}

// Routes mounts the webhook endpoints. Callers wrap them in RequireAuth.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/webhook/stores/{store_id}/orders/{order_id}", func(r chi.Router) {
		r.Put("/status", h.UpdateStatus)
		r.Post("/status", h.Modify)
		r.Get("/events", h.Events)
	})
}

func pathIDs(r *http.Request) (storeID, orderID int64, ok bool) {
	storeID, err := strconv.ParseInt(chi.URLParam(r, "store_id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	orderID, err = strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return storeID, orderID, true
}

// readRequest parses the path ids and returns the raw body and principal.
// It writes the error response itself when it returns false.
func readRequest(w http.ResponseWriter, r *http.Request) (storeID, orderID int64, body []byte, p *auth.Principal, ok bool) {
	p = auth.PrincipalFromContext(r.Context())
	if p == nil {
		auth.Unauthorized(w, "could not validate credentials")
		return 0, 0, nil, nil, false
	}
	storeID, orderID, ok = pathIDs(r)
	if !ok {
		http.Error(w, `{"error":"store_id and order_id must be integers"}`, http.StatusUnprocessableEntity)
		return 0, 0, nil, nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, `{"error":"request body too large"}`, http.StatusRequestEntityTooLarge)
			return 0, 0, nil, nil, false
		}
		http.Error(w, `{"error":"invalid request body"}`, http.StatusUnprocessableEntity)
		return 0, 0, nil, nil, false
	}
	return storeID, orderID, body, p, true
}

// UpdateStatus handles PUT .../orders/{order_id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, body, p, ok := readRequest(w, r)
	if !ok {
		return
	}

	var req models.StatusUpdate
	if err := json.Unmarshal(body, &req); err != nil || !req.Status.Valid() {
		http.Error(w, `{"error":"status must be one of ACCEPTED, READY_FOR_PICKUP, OUT_FOR_DELIVERY, PICKED_UP_BY_CUSTOMER"}`, http.StatusUnprocessableEntity)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), p, storeID, orderID, req.Status, body); err != nil {
		h.logger.ErrorContext(r.Context(), "status update failed", "error", err)
		http.Error(w, `{"error":"failed to record status update"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, successful)
}

// Modify handles POST .../orders/{order_id}/status. An order can be
// modified only once.
func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	storeID, orderID, body, p, ok := readRequest(w, r)
	if !ok {
		return
	}

	var req models.Modification
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusUnprocessableEntity)
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := h.svc.Modify(r.Context(), p, storeID, orderID, body); err != nil {
		if errors.Is(err, ErrAlreadyModified) {
			http.Error(w, `{"error":"order has already been modified"}`, http.StatusConflict)
			return
		}
		h.logger.ErrorContext(r.Context(), "modification failed", "error", err)
		http.Error(w, `{"error":"failed to record modification"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, successful)
}

// Events lists the recorded webhook events of an order.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) == nil {
		auth.Unauthorized(w, "could not validate credentials")
		return
	}
	storeID, orderID, ok := pathIDs(r)
	if !ok {
		http.Error(w, `{"error":"store_id and order_id must be integers"}`, http.StatusUnprocessableEntity)
		return
	}

	events, err := h.svc.Events(r.Context(), storeID, orderID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list events failed", "error", err)
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
