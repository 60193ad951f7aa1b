package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"hms-backend/metrics"
	"hms-backend/models"
	"hms-backend/payment"
	"hms-backend/queue"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultHoldWindow is how long a room may sit in being_reserved waiting for
// an asynchronous payment before the sweep takes it back. Matches the
// checkout-session expiry used by the gateway.
const DefaultHoldWindow = 30 * time.Minute

// ReservationService is the booking workflow engine. It owns the sequence
// tryReserve -> charge -> finalize/release and is the only writer of
// reservation rows. The payment call always happens after TryReserve and
// before Confirm/Release, outside any database lock, so one slow gateway
// call never blocks other rooms' bookings.
type ReservationService struct {
	DB        *gorm.DB
	Inventory RoomInventory
	Sessions  SessionStore
	Approvals ApprovalChecker
	Gateway   payment.Gateway
	Events    *queue.Publisher

	// HoldWindow bounds how long a pending attempt may hold a room.
	HoldWindow time.Duration
	Currency   string
	// CallbackBaseURL is the externally reachable prefix for the payment
	// success/cancel callbacks, e.g. "https://hotel.example.com/api".
	CallbackBaseURL string
}

type ReservationConfig struct {
	HoldWindow      time.Duration
	Currency        string
	CallbackBaseURL string
}

func NewReservationService(
	db *gorm.DB,
	inventory RoomInventory,
	sessions SessionStore,
	approvals ApprovalChecker,
	gateway payment.Gateway,
	events *queue.Publisher,
	cfg ReservationConfig,
) *ReservationService {
	if cfg.HoldWindow == 0 {
		cfg.HoldWindow = DefaultHoldWindow
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &ReservationService{
		DB:              db,
		Inventory:       inventory,
		Sessions:        sessions,
		Approvals:       approvals,
		Gateway:         gateway,
		Events:          events,
		HoldWindow:      cfg.HoldWindow,
		Currency:        cfg.Currency,
		CallbackBaseURL: cfg.CallbackBaseURL,
	}
}

type InitiateInput struct {
	RoomNumber      uint
	ClientID        uint
	AccompanyNumber int
	ReservationDate time.Time

	// PaymentMethodRef selects the synchronous charge path when set; when
	// empty the engine opens a hosted checkout session instead.
	PaymentMethodRef string
}

// InitiateResult carries exactly one of Reservation (synchronous success) or
// Session (payment still in flight, caller must follow RedirectURL).
type InitiateResult struct {
	Reservation *models.Reservation
	Session     *models.CheckoutSession
}

// Initiate runs the booking workflow up to (and, on the synchronous path,
// through) payment. On every failure after TryReserve the room is released
// before the error is returned; the caller retries the whole flow from
// scratch or picks another room.
func (s *ReservationService) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.AccompanyNumber < 1 {
		input.AccompanyNumber = 1
	}

	room, err := s.Inventory.GetByNumber(ctx, input.RoomNumber)
	if err != nil {
		return nil, err
	}
	if input.AccompanyNumber > room.Capacity {
		return nil, ErrCapacityExceeded
	}
	if err := s.Approvals.CanReserve(ctx, input.ClientID, input.RoomNumber); err != nil {
		return nil, err
	}

	if err := s.Inventory.TryReserve(ctx, input.RoomNumber); err != nil {
		return nil, err
	}

	// Snapshot taken while we hold the room; later room repricing must not
	// touch this attempt.
	priceCents := room.PriceCents

	metadata := map[string]string{
		"room_number":      strconv.FormatUint(uint64(input.RoomNumber), 10),
		"accompany_number": strconv.Itoa(input.AccompanyNumber),
		"client_id":        strconv.FormatUint(uint64(input.ClientID), 10),
	}

	if input.PaymentMethodRef != "" {
		return s.chargeNow(ctx, input, priceCents, metadata)
	}
	return s.openCheckout(ctx, input, priceCents, metadata)
}

func (s *ReservationService) chargeNow(ctx context.Context, input InitiateInput, priceCents int64, metadata map[string]string) (*InitiateResult, error) {
	result, err := s.Gateway.AuthorizeAndCharge(ctx, payment.ChargeRequest{
		AmountCents:      priceCents,
		Currency:         s.Currency,
		PaymentMethodRef: input.PaymentMethodRef,
		Metadata:         metadata,
	})
	if err != nil {
		s.releaseAfterFailure(ctx, input.RoomNumber)
		metrics.ReservationsTotal.WithLabelValues("payment_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	switch result.Status {
	case payment.StatusSucceeded:
		reservation, err := s.finalize(ctx, input, priceCents, result.Reference)
		if err != nil {
			return nil, err
		}
		return &InitiateResult{Reservation: reservation}, nil

	case payment.StatusRequiresAction:
		// The charge needs a customer step (3DS etc). Keep the room held and
		// hand back a session the caller can resume through the callbacks.
		session, err := s.storeSession(ctx, input, priceCents, result.Reference, result.RedirectURL, metadata)
		if err != nil {
			return nil, err
		}
		return &InitiateResult{Session: session}, nil

	default:
		s.releaseAfterFailure(ctx, input.RoomNumber)
		metrics.ReservationsTotal.WithLabelValues("payment_failed").Inc()
		if result.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, result.Reason)
		}
		return nil, ErrPaymentFailed
	}
}

func (s *ReservationService) openCheckout(ctx context.Context, input InitiateInput, priceCents int64, metadata map[string]string) (*InitiateResult, error) {
	sessionRef := uuid.NewString()
	metadata["session_ref"] = sessionRef

	checkout, err := s.Gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		AmountCents: priceCents,
		Currency:    s.Currency,
		SuccessURL:  fmt.Sprintf("%s/reservations/payment/success?session_ref=%s", s.CallbackBaseURL, sessionRef),
		CancelURL:   fmt.Sprintf("%s/reservations/payment/cancel?session_ref=%s", s.CallbackBaseURL, sessionRef),
		Metadata:    metadata,
	})
	if err != nil {
		s.releaseAfterFailure(ctx, input.RoomNumber)
		metrics.ReservationsTotal.WithLabelValues("payment_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	session, err := s.storeSessionWithRef(ctx, sessionRef, input, priceCents, checkout.Reference, checkout.RedirectURL, metadata)
	if err != nil {
		return nil, err
	}
	return &InitiateResult{Session: session}, nil
}

func (s *ReservationService) storeSession(ctx context.Context, input InitiateInput, priceCents int64, gatewayRef, redirectURL string, metadata map[string]string) (*models.CheckoutSession, error) {
	return s.storeSessionWithRef(ctx, uuid.NewString(), input, priceCents, gatewayRef, redirectURL, metadata)
}

func (s *ReservationService) storeSessionWithRef(ctx context.Context, sessionRef string, input InitiateInput, priceCents int64, gatewayRef, redirectURL string, metadata map[string]string) (*models.CheckoutSession, error) {
	expiresAt := time.Now().UTC().Add(s.HoldWindow)
	session := &models.CheckoutSession{
		SessionRef:      sessionRef,
		GatewayRef:      gatewayRef,
		RedirectURL:     redirectURL,
		RoomNumber:      input.RoomNumber,
		ClientID:        input.ClientID,
		AccompanyNumber: input.AccompanyNumber,
		ReservationDate: input.ReservationDate,
		AmountCents:     priceCents,
		Status:          models.SessionStatusPending,
		ExpiresAt:       &expiresAt,
		Metadata:        marshalMetadata(metadata),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		// Without a session row the callbacks can never land, so the hold
		// would leak until the sweep. Release now instead.
		s.releaseAfterFailure(ctx, input.RoomNumber)
		return nil, err
	}
	metrics.ReservationsTotal.WithLabelValues("pending").Inc()
	return session, nil
}

// CompleteSession finalizes a pending checkout session after the gateway
// confirmed payment. Idempotent: completing an already-completed session
// returns its reservation.
func (s *ReservationService) CompleteSession(ctx context.Context, sessionRef string) (*models.Reservation, error) {
	session, err := s.Sessions.GetByRef(ctx, sessionRef)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.SessionStatusCompleted:
		return s.reservationForSession(ctx, session)
	case models.SessionStatusCancelled, models.SessionStatusExpired:
		return nil, ErrSessionExpired
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		_ = s.Sessions.Close(ctx, sessionRef, models.SessionStatusExpired)
		s.releaseAfterFailure(ctx, session.RoomNumber)
		return nil, ErrSessionExpired
	}

	// Never trust the redirect alone; confirm with the gateway.
	gws, err := s.Gateway.RetrieveSession(ctx, session.GatewayRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	switch gws.Status {
	case payment.SessionComplete:
		// fall through to finalize
	case payment.SessionExpired:
		_ = s.Sessions.Close(ctx, sessionRef, models.SessionStatusExpired)
		s.releaseAfterFailure(ctx, session.RoomNumber)
		return nil, ErrSessionExpired
	default:
		// Caller hit the success URL before paying; the hold stands until
		// the session expires.
		return nil, fmt.Errorf("%w: payment not completed", ErrPaymentFailed)
	}

	paymentRef := gws.PaymentRef
	if paymentRef == "" {
		paymentRef = session.GatewayRef
	}

	input := InitiateInput{
		RoomNumber:      session.RoomNumber,
		ClientID:        session.ClientID,
		AccompanyNumber: session.AccompanyNumber,
		ReservationDate: session.ReservationDate,
	}
	reservation, err := s.finalize(ctx, input, session.AmountCents, paymentRef)
	if err != nil {
		if errors.Is(err, ErrInconsistentState) {
			// A concurrent callback may have finalized first; if so this is
			// an idempotent success.
			if fresh, gerr := s.Sessions.GetByRef(ctx, sessionRef); gerr == nil && fresh.Status == models.SessionStatusCompleted {
				return s.reservationForSession(ctx, fresh)
			}
		}
		return nil, err
	}

	if err := s.Sessions.MarkCompleted(ctx, sessionRef, reservation.ID); err != nil {
		log.WithFields(log.Fields{
			"session_ref":    sessionRef,
			"reservation_id": reservation.ID,
		}).WithError(err).Error("reservation finalized but session not marked completed")
	}
	return reservation, nil
}

// CancelSession releases the room behind a pending session. Cancelling a
// session that already completed or expired is a no-op.
func (s *ReservationService) CancelSession(ctx context.Context, sessionRef string) error {
	session, err := s.Sessions.GetByRef(ctx, sessionRef)
	if err != nil {
		return err
	}
	if session.Status != models.SessionStatusPending {
		return nil
	}
	if err := s.Sessions.Close(ctx, sessionRef, models.SessionStatusCancelled); err != nil {
		return err
	}
	if err := s.Inventory.Release(ctx, session.RoomNumber); err != nil {
		return err
	}
	metrics.ReservationsTotal.WithLabelValues("cancelled").Inc()
	s.Events.Publish(ctx, "reservation.cancelled", queue.ReservationEvent{
		SessionRef: sessionRef,
		RoomNumber: session.RoomNumber,
		ClientID:   session.ClientID,
	})
	return nil
}

// finalize creates the paid reservation and flips the room to occupied in one
// transaction. Guest count is re-checked right before the write: capacity
// could have been edited while the payment was in flight, and an over-capacity
// reservation must never be persisted.
func (s *ReservationService) finalize(ctx context.Context, input InitiateInput, priceCents int64, paymentRef string) (*models.Reservation, error) {
	room, err := s.Inventory.GetByNumber(ctx, input.RoomNumber)
	if err != nil {
		return nil, err
	}
	if input.AccompanyNumber > room.Capacity {
		s.releaseAfterFailure(ctx, input.RoomNumber)
		log.WithFields(log.Fields{
			"room_number": input.RoomNumber,
			"client_id":   input.ClientID,
			"payment_id":  paymentRef,
		}).Error("capacity shrank below guest count between charge and finalize")
		return nil, ErrCapacityExceeded
	}

	clientID := input.ClientID
	reservation := &models.Reservation{
		ReservationDate: input.ReservationDate,
		PriceCents:      priceCents,
		RoomNumber:      input.RoomNumber,
		ClientID:        &clientID,
		AccompanyNumber: input.AccompanyNumber,
		PaymentStatus:   models.PaymentStatusPaid,
		PaymentID:       paymentRef,
	}

	if err := s.Inventory.FinalizeOccupied(ctx, reservation); err != nil {
		if errors.Is(err, ErrInconsistentState) {
			// The room left being_reserved under us. The charge already went
			// through, so this needs manual reconciliation; retrying could
			// double-charge.
			log.WithFields(log.Fields{
				"room_number": input.RoomNumber,
				"client_id":   input.ClientID,
				"payment_id":  paymentRef,
				"amount":      priceCents,
			}).Error("finalize failed: room not in being_reserved; manual reconciliation required")
		}
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("paid").Inc()
	metrics.ReservationAmountCents.Observe(float64(priceCents))
	s.Events.Publish(ctx, "reservation.created", queue.ReservationEvent{
		ReservationID: reservation.ID,
		RoomNumber:    reservation.RoomNumber,
		ClientID:      input.ClientID,
		AmountCents:   priceCents,
		PaymentID:     paymentRef,
	})
	return reservation, nil
}

// SweepExpired is the reconciliation pass: it expires stale checkout sessions
// and releases any room stuck in being_reserved past the hold window.
// Idempotent; safe to run from multiple workers.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	released := 0

	expired, err := s.Sessions.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, session := range expired {
		if err := s.Inventory.Release(ctx, session.RoomNumber); err != nil {
			log.WithFields(log.Fields{
				"session_ref": session.SessionRef,
				"room_number": session.RoomNumber,
			}).WithError(err).Error("failed to release room for expired session")
			continue
		}
		released++
		s.Events.Publish(ctx, "room.released", queue.ReservationEvent{
			SessionRef: session.SessionRef,
			RoomNumber: session.RoomNumber,
			ClientID:   session.ClientID,
		})
	}

	// Rooms held past the window with no live session (crashed worker,
	// session row lost) are caught by the state sweep.
	n, err := s.Inventory.ReleaseExpired(ctx, s.HoldWindow)
	if err != nil {
		return released, err
	}
	released += int(n)
	return released, nil
}

func (s *ReservationService) releaseAfterFailure(ctx context.Context, roomNumber uint) {
	if err := s.Inventory.Release(ctx, roomNumber); err != nil {
		log.WithField("room_number", roomNumber).WithError(err).Error("failed to release room after payment failure")
	}
}

func (s *ReservationService) reservationForSession(ctx context.Context, session *models.CheckoutSession) (*models.Reservation, error) {
	if session.ReservationID == nil {
		return nil, ErrSessionNotFound
	}
	return s.GetReservation(ctx, *session.ReservationID)
}

// GetReservation loads a reservation with its room and client.
func (s *ReservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.DB.WithContext(ctx).Preload("Room").Preload("Client").First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reservation %d not found", id)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return &reservation, nil
}

// ListReservations returns reservations newest first, scoped to a client when
// clientID is non-nil.
func (s *ReservationService) ListReservations(ctx context.Context, clientID *uint) ([]models.Reservation, error) {
	q := s.DB.WithContext(ctx).Preload("Room").Preload("Client").Order("created_at DESC")
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}
	var list []models.Reservation
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}
