// Package http is the thin route layer over the validators and the risk
// evaluator. Handlers decode, delegate, and encode; all behavior lives in
// the services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vigil/internal/address"
	"vigil/internal/email"
	"vigil/internal/phone"
	"vigil/internal/risk"
	"vigil/internal/taxid"
	"vigil/pkg/platform/httputil"
	"vigil/pkg/platform/middleware/reqlog"
)

type Handler struct {
	emails    *email.Service
	phones    *phone.Service
	taxIDs    *taxid.Service
	addresses *address.Service
	risks     *risk.Service
	logger    *slog.Logger
}

func NewHandler(
	emails *email.Service,
	phones *phone.Service,
	taxIDs *taxid.Service,
	addresses *address.Service,
	risks *risk.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		emails:    emails,
		phones:    phones,
		taxIDs:    taxIDs,
		addresses: addresses,
		risks:     risks,
		logger:    logger,
	}
}

// Routes mounts all endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(reqlog.Recoverer(h.logger))
	r.Use(reqlog.Logger(h.logger))

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/validate", func(r chi.Router) {
		r.Post("/email", h.validateEmail)
		r.Post("/phone", h.validatePhone)
		r.Post("/phone/verify", h.verifyPhone)
		r.Post("/taxid", h.validateTaxID)
		r.Post("/address", h.validateAddress)
	})

	r.Post("/orders/evaluate", h.evaluateOrder)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[emailRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.emails.Validate(r.Context(), req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) validatePhone(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[phoneRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.phones.Validate(r.Context(), req.Phone, req.Country, req.SendOTP)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) verifyPhone(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[phoneVerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.phones.CheckOTP(r.Context(), req.Handle, req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) validateTaxID(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[taxIDRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.taxIDs.Validate(r.Context(), req.Kind, req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) validateAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[addressRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.addresses.Validate(r.Context(), req.Input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) evaluateOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[evaluateRequest](w, r, h.logger)
	if !ok {
		return
	}

	assessment := h.risks.Evaluate(r.Context(), req.EvaluateRequest)
	httputil.WriteJSON(w, http.StatusOK, assessment)
}
