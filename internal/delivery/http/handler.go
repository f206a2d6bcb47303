package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/openmeet/ticketgate/internal/authority"
	"github.com/openmeet/ticketgate/internal/service"
	"github.com/openmeet/ticketgate/pkg/logger"
)

type HTTPHandler struct {
	checkinService       service.CheckinService
	accessService        service.AccessService
	participationService service.ParticipationService
	checkoutService      service.CheckoutService
	logger               logger.Logger
	validator            *validator.Validate

	defaultSuccessPath string
	defaultCancelPath  string
}

func NewHTTPHandler(
	checkinService service.CheckinService,
	accessService service.AccessService,
	participationService service.ParticipationService,
	checkoutService service.CheckoutService,
	logger logger.Logger,
	defaultSuccessPath string,
	defaultCancelPath string,
) *HTTPHandler {
	return &HTTPHandler{
		checkinService:       checkinService,
		accessService:        accessService,
		participationService: participationService,
		checkoutService:      checkoutService,
		logger:               logger,
		validator:            validator.New(),
		defaultSuccessPath:   defaultSuccessPath,
		defaultCancelPath:    defaultCancelPath,
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "ticketgate",
		"version": "1.0.0",
	}
	h.respondJSON(w, http.StatusOK, response)
}

type scanRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Payload   string `json:"payload" validate:"required"`
}

// Scan handles one ticket scan for the authenticated verifier device.
func (h *HTTPHandler) Scan(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	// A scan always resolves to a definite outcome; outcome-level
	// failures travel in the body, not in the status code.
	result := h.checkinService.Scan(r.Context(), service.ScanInput{
		SessionID:        req.SessionID,
		EventID:          eventID,
		RawPayload:       req.Payload,
		VerifierIdentity: VerifierIdentity(r.Context()),
	})

	h.respondJSON(w, http.StatusOK, result)
}

// ScanHistory handles scan history requests for one scanner session.
func (h *HTTPHandler) ScanHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required", nil)
		return
	}

	history, err := h.checkinService.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Errorf(r.Context(), "http.HTTPHandler.ScanHistory: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load scan history", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
	})
}

// CheckinCount handles live check-in counter requests.
func (h *HTTPHandler) CheckinCount(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	count, err := h.checkinService.CheckedInCount(r.Context(), eventID)
	if err != nil {
		h.respondAuthorityError(w, r, "Failed to load check-in count", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":         eventID,
		"checked_in_count": count,
	})
}

type accessRequest struct {
	SessionID string `json:"session_id"`
	Password  string `json:"password" validate:"required"`
}

// SubmitAccess handles gate password submissions.
func (h *HTTPHandler) SubmitAccess(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	out, err := h.accessService.Submit(r.Context(), service.SubmitAccessInput{
		SessionID:         req.SessionID,
		EventID:           eventID,
		CandidatePassword: req.Password,
	})
	if err != nil {
		h.respondAuthorityError(w, r, "Failed to verify password", err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

type registerRequest struct {
	SessionID   string   `json:"session_id"`
	BuyerID     string   `json:"buyer_id"`
	BuyerEmail  string   `json:"buyer_email" validate:"omitempty,email"`
	GuestEmails []string `json:"guest_emails" validate:"dive,email"`
}

// Register handles free-event registrations. Requests carrying a buyer
// id take the authenticated path; the rest register as guests.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	in := service.RegisterInput{
		SessionID:   req.SessionID,
		EventID:     eventID,
		BuyerID:     req.BuyerID,
		BuyerEmail:  req.BuyerEmail,
		GuestEmails: req.GuestEmails,
	}

	var err error
	if req.BuyerID != "" {
		err = h.participationService.RegisterAuthenticated(r.Context(), in)
	} else {
		err = h.participationService.RegisterGuest(r.Context(), in)
	}
	if err != nil {
		switch err {
		case service.ErrEventStarted:
			h.respondError(w, http.StatusConflict, "Event has already started", err)
		case service.ErrSoldOut:
			h.respondError(w, http.StatusConflict, "Event is sold out", err)
		case service.ErrCapacityExceeded:
			h.respondError(w, http.StatusConflict, "Not enough places left for that many guests", err)
		case service.ErrMissingEmail:
			h.respondError(w, http.StatusBadRequest, "Buyer email is required", err)
		default:
			h.respondAuthorityError(w, r, "Failed to register", err)
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"event_id":    eventID,
		"guest_count": len(req.GuestEmails),
		"registered":  true,
	})
}

type checkoutRequest struct {
	SessionID   string   `json:"session_id"`
	BuyerEmail  string   `json:"buyer_email" validate:"required,email"`
	GuestEmails []string `json:"guest_emails" validate:"dive,email"`
	SuccessPath string   `json:"success_path"`
	CancelPath  string   `json:"cancel_path"`
}

// Checkout handles paid-event checkout assembly.
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	if req.SuccessPath == "" {
		req.SuccessPath = h.defaultSuccessPath
	}
	if req.CancelPath == "" {
		req.CancelPath = h.defaultCancelPath
	}

	out, err := h.checkoutService.Checkout(r.Context(), service.CheckoutInput{
		SessionID:   req.SessionID,
		EventID:     eventID,
		BuyerEmail:  req.BuyerEmail,
		GuestEmails: req.GuestEmails,
		SuccessPath: req.SuccessPath,
		CancelPath:  req.CancelPath,
	})
	if err != nil {
		switch err {
		case service.ErrEventStarted:
			h.respondError(w, http.StatusConflict, "Event has already started", err)
		case service.ErrSoldOut:
			h.respondError(w, http.StatusConflict, "Event is sold out", err)
		case service.ErrCapacityExceeded:
			h.respondError(w, http.StatusConflict, "Not enough places left for that many guests", err)
		case service.ErrMissingEmail:
			h.respondError(w, http.StatusBadRequest, "Buyer email is required", err)
		case service.ErrFreeEvent:
			h.respondError(w, http.StatusBadRequest, "Event is free, use registration instead", err)
		default:
			h.respondAuthorityError(w, r, "Failed to create checkout session", err)
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, out)
}

type gatekeeperRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AddGatekeeper handles roster additions.
func (h *HTTPHandler) AddGatekeeper(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	var req gatekeeperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	roster, err := h.participationService.AddGatekeeper(r.Context(), eventID, req.Email)
	if err != nil {
		h.respondAuthorityError(w, r, "Failed to add gatekeeper", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":    eventID,
		"gatekeepers": roster,
	})
}

// RemoveGatekeeper handles roster removals. The response reflects the
// optimistic roster; the removal itself is debounced.
func (h *HTTPHandler) RemoveGatekeeper(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		h.respondError(w, http.StatusBadRequest, "Event ID is required", nil)
		return
	}

	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		h.respondError(w, http.StatusBadRequest, "Gatekeeper email is required", err)
		return
	}

	roster, err := h.participationService.RemoveGatekeeper(r.Context(), eventID, email)
	if err != nil {
		h.respondAuthorityError(w, r, "Failed to remove gatekeeper", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":    eventID,
		"gatekeepers": roster,
	})
}

// Helper functions

// respondAuthorityError maps errors crossing the authority boundary:
// rejections keep their message verbatim, transport failures become a
// 502 and everything else a 500.
func (h *HTTPHandler) respondAuthorityError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var aErr *authority.Error
	if errors.As(err, &aErr) {
		status := http.StatusConflict
		if aErr.Code == authority.CodeEventNotFound {
			status = http.StatusNotFound
		}
		h.respondJSON(w, status, map[string]interface{}{
			"error":      aErr.Message,
			"error_code": aErr.Code,
			"code":       status,
		})
		return
	}

	var tErr *authority.TransportError
	if errors.As(err, &tErr) {
		h.respondError(w, http.StatusBadGateway, "Upstream service unavailable", err)
		return
	}

	h.logger.Errorf(r.Context(), "http.HTTPHandler: %v", err)
	h.respondError(w, http.StatusInternalServerError, fallback, err)
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(context.Background(), "http.HTTPHandler.respondJSON: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
		"code":  statusCode,
	}

	if err != nil {
		h.logger.Debugf(context.Background(), "Error response: %s: %v", message, err)
	}

	h.respondJSON(w, statusCode, response)
}
