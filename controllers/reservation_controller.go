package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hms-backend/middleware"
	"hms-backend/services"
	"hms-backend/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateReservationRequest struct {
	RoomNumber      uint   `json:"room_number" binding:"required"`
	AccompanyNumber int    `json:"accompany_number"`
	ReservationDate string `json:"reservation_date" binding:"required"`

	// PaymentMethodRef selects the direct-charge path; leave empty to get a
	// hosted checkout redirect instead.
	PaymentMethodRef string `json:"payment_method_ref,omitempty"`
}

// ---------------------------
// Controller
// ---------------------------

type ReservationController struct {
	Reservations *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{Reservations: svc}
}

// CreateReservation handles POST /api/reservations. Responds 201 with the
// reservation on synchronous payment success, or 202 with a checkout session
// when the payment continues on the gateway's hosted page.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	clientID, ok := middleware.ClientID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "MISSING_IDENTITY", "client identity required")
		return
	}

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	date, err := parseDate(req.ReservationDate)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid reservation_date format")
		return
	}

	result, err := rc.Reservations.Initiate(c.Request.Context(), services.InitiateInput{
		RoomNumber:       req.RoomNumber,
		ClientID:         clientID,
		AccompanyNumber:  req.AccompanyNumber,
		ReservationDate:  date,
		PaymentMethodRef: req.PaymentMethodRef,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	if result.Reservation != nil {
		utils.JSONSuccess(c, http.StatusCreated, gin.H{"reservation": result.Reservation})
		return
	}
	utils.JSONSuccess(c, http.StatusAccepted, gin.H{
		"session_ref":  result.Session.SessionRef,
		"redirect_url": result.Session.RedirectURL,
		"expires_at":   result.Session.ExpiresAt,
	})
}

// PaymentSuccess handles GET /api/reservations/payment/success?session_ref=.
// Return URL from the gateway: finalizes the reservation and redirects to its
// detail page.
func (rc *ReservationController) PaymentSuccess(c *gin.Context) {
	sessionRef := c.Query("session_ref")
	if sessionRef == "" {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "session_ref is required")
		return
	}

	reservation, err := rc.Reservations.CompleteSession(c.Request.Context(), sessionRef)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/api/reservations/"+strconv.FormatUint(uint64(reservation.ID), 10))
}

// PaymentCancel handles GET /api/reservations/payment/cancel?session_ref=.
// Releases the room and sends the caller back to the room listing.
func (rc *ReservationController) PaymentCancel(c *gin.Context) {
	sessionRef := c.Query("session_ref")
	if sessionRef == "" {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "session_ref is required")
		return
	}

	if err := rc.Reservations.CancelSession(c.Request.Context(), sessionRef); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/api/rooms/available")
}

// GetReservations handles GET /api/reservations. Clients see their own
// reservations; staff see everything.
func (rc *ReservationController) GetReservations(c *gin.Context) {
	var scope *uint
	if clientID, ok := middleware.ClientID(c); ok {
		scope = &clientID
	} else if _, ok := middleware.UserID(c); !ok {
		utils.JSONError(c, http.StatusUnauthorized, "MISSING_IDENTITY", "caller identity required")
		return
	}

	list, err := rc.Reservations.ListReservations(c.Request.Context(), scope)
	if err != nil {
		log.WithError(err).Error("failed to list reservations")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "failed to list reservations")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// GetReservationDetails handles GET /api/reservations/:id.
func (rc *ReservationController) GetReservationDetails(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid reservation id")
		return
	}

	reservation, err := rc.Reservations.GetReservation(c.Request.Context(), uint(id))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "NOT_FOUND", "reservation not found")
		return
	}

	// Clients may only read their own reservations.
	if clientID, ok := middleware.ClientID(c); ok {
		if reservation.ClientID == nil || *reservation.ClientID != clientID {
			utils.JSONError(c, http.StatusForbidden, "FORBIDDEN", "not your reservation")
			return
		}
	}
	utils.JSONSuccess(c, http.StatusOK, reservation)
}

// ---------------------------
// Helpers
// ---------------------------

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// respondWorkflowError maps workflow sentinels onto the public error codes.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		utils.JSONError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "room does not exist")
	case errors.Is(err, services.ErrRoomUnavailable):
		utils.JSONError(c, http.StatusConflict, "ROOM_UNAVAILABLE", "room is not available for reservation")
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.JSONError(c, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED", "guest count exceeds room capacity")
	case errors.Is(err, services.ErrNotApproved), errors.Is(err, services.ErrClientNotFound):
		utils.JSONError(c, http.StatusForbidden, "NOT_APPROVED", "client is not approved for reservations")
	case errors.Is(err, services.ErrPaymentFailed):
		utils.JSONError(c, http.StatusPaymentRequired, "PAYMENT_FAILED", err.Error())
	case errors.Is(err, services.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown checkout session")
	case errors.Is(err, services.ErrSessionExpired):
		utils.JSONError(c, http.StatusGone, "SESSION_EXPIRED", "checkout session expired; start a new reservation")
	case errors.Is(err, services.ErrInconsistentState):
		log.WithError(err).Error("reservation workflow inconsistency")
		utils.JSONError(c, http.StatusInternalServerError, "INCONSISTENT_STATE", "reservation could not be finalized; support has been notified")
	default:
		log.WithError(err).Error("reservation workflow error")
		utils.JSONError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
