package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	approvalservice "slotgate/internal/approval/service"
	intakeservice "slotgate/internal/intake/service"
	apperrors "slotgate/pkg/errors"
	httputil "slotgate/pkg/http"
	"slotgate/pkg/logger"
)

// actorHeader carries the acting user's identity. The transport front end
// is trusted to set it; there is no further authentication here.
const actorHeader = "X-Actor-ID"

type GatewayHandler struct {
	intake   intakeservice.IntakeService
	approval approvalservice.ApprovalService
	log      *logger.Logger
}

func NewGatewayHandler(
	intake intakeservice.IntakeService,
	approval approvalservice.ApprovalService,
	log *logger.Logger,
) *GatewayHandler {
	return &GatewayHandler{
		intake:   intake,
		approval: approval,
		log:      log,
	}
}

func (h *GatewayHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/intake/start", h.StartIntake)
	router.POST("/api/v1/intake/input", h.SubmitInput)
	router.POST("/api/v1/approvals/decide", h.Decide)
	router.POST("/api/v1/approvals/reason", h.SubmitReason)
	router.GET("/api/v1/bookings", h.ListBookings)
	router.GET("/api/v1/bookings/pending", h.ListPending)
}

type startIntakeRequest struct {
	RequesterName string `json:"requester_name"`
}

func (h *GatewayHandler) StartIntake(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireActor(w, "StartIntake", r)
	if !ok {
		return
	}

	var req startIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "StartIntake")
		return
	}

	result, err := h.intake.Start(r.Context(), actor, req.RequesterName)
	if err != nil {
		h.writeError(w, "StartIntake", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "StartIntake", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GatewayHandler) SubmitInput(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireActor(w, "SubmitInput", r)
	if !ok {
		return
	}

	var input intakeservice.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeBadBody(w, "SubmitInput")
		return
	}

	result, err := h.intake.Submit(r.Context(), actor, input)
	if err != nil {
		h.writeError(w, "SubmitInput", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "SubmitInput", "operation", "WriteSuccess", "error", err)
	}
}

type decideRequest struct {
	BookingID int64  `json:"booking_id"`
	Action    string `json:"action"`
}

func (h *GatewayHandler) Decide(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireActor(w, "Decide", r)
	if !ok {
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "Decide")
		return
	}
	if req.BookingID <= 0 {
		h.writeError(w, "Decide", apperrors.InvalidInput("booking_id must be positive"))
		return
	}

	result, err := h.approval.Decide(r.Context(), actor, req.BookingID, req.Action)
	if err != nil {
		h.writeError(w, "Decide", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Decide", "operation", "WriteSuccess", "error", err)
	}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *GatewayHandler) SubmitReason(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireActor(w, "SubmitReason", r)
	if !ok {
		return
	}

	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "SubmitReason")
		return
	}

	result, err := h.approval.SubmitReason(r.Context(), actor, req.Reason)
	if err != nil {
		h.writeError(w, "SubmitReason", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "SubmitReason", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GatewayHandler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.requireActor(w, "ListBookings", r)
	if !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	summaries, err := h.intake.ListBookings(r.Context(), actor, limit, offset)
	if err != nil {
		h.writeError(w, "ListBookings", err)
		return
	}

	if err := httputil.WriteSuccess(w, summaries); err != nil {
		h.log.Error("failed to write success response", "handler", "ListBookings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GatewayHandler) ListPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, ok := h.requireActor(w, "ListPending", r); !ok {
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}

	bookings, err := h.approval.ListPending(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListPending", "operation", "WriteSuccess", "error", err)
	}
}

func (h *GatewayHandler) requireActor(w http.ResponseWriter, handler string, r *http.Request) (string, bool) {
	actor := r.Header.Get(actorHeader)
	if actor == "" {
		h.writeError(w, handler, apperrors.InvalidInput("X-Actor-ID header is required"))
		return "", false
	}
	return actor, true
}

func (h *GatewayHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *GatewayHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
