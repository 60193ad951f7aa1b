package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hms-backend/middleware"
	"hms-backend/models"
	"hms-backend/payment"
	"hms-backend/services"
)

// Minimal in-memory doubles, just enough to drive the controller through the
// workflow's success and error paths.

type memInventory struct {
	mu   sync.Mutex
	room *models.Room
}

func (m *memInventory) GetByNumber(context.Context, uint) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room == nil {
		return nil, services.ErrRoomNotFound
	}
	copied := *m.room
	return &copied, nil
}

func (m *memInventory) TryReserve(context.Context, uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room.State != models.RoomStateAvailable {
		return services.ErrRoomUnavailable
	}
	m.room.State = models.RoomStateBeingReserved
	return nil
}

func (m *memInventory) Release(context.Context, uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room.State == models.RoomStateBeingReserved {
		m.room.State = models.RoomStateAvailable
	}
	return nil
}

func (m *memInventory) FinalizeOccupied(_ context.Context, res *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.room.State != models.RoomStateBeingReserved {
		return services.ErrInconsistentState
	}
	m.room.State = models.RoomStateOccupied
	res.ID = 1
	return nil
}

func (m *memInventory) ReleaseExpired(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type memSessions struct {
	mu    sync.Mutex
	byRef map[string]*models.CheckoutSession
}

func (m *memSessions) Create(_ context.Context, s *models.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.byRef[s.SessionRef] = &copied
	return nil
}

func (m *memSessions) GetByRef(_ context.Context, ref string) (*models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byRef[ref]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memSessions) MarkCompleted(_ context.Context, ref string, reservationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.byRef[ref]
	s.Status = models.SessionStatusCompleted
	s.ReservationID = &reservationID
	return nil
}

func (m *memSessions) Close(_ context.Context, ref string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byRef[ref]; ok && s.Status == models.SessionStatusPending {
		s.Status = status
	}
	return nil
}

func (m *memSessions) ExpirePending(context.Context, time.Time) ([]models.CheckoutSession, error) {
	return nil, nil
}

type allowAll struct{ err error }

func (a allowAll) CanReserve(context.Context, uint, uint) error { return a.err }

type scriptedGateway struct {
	charge    *payment.ChargeResult
	chargeErr error
	checkout  *payment.CheckoutSession
	retrieved *payment.CheckoutSession
}

func (g *scriptedGateway) AuthorizeAndCharge(context.Context, payment.ChargeRequest) (*payment.ChargeResult, error) {
	return g.charge, g.chargeErr
}

func (g *scriptedGateway) CreateCheckoutSession(context.Context, payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	return g.checkout, nil
}

func (g *scriptedGateway) RetrieveSession(context.Context, string) (*payment.CheckoutSession, error) {
	return g.retrieved, nil
}

type testHarness struct {
	router   *gin.Engine
	inv      *memInventory
	sessions *memSessions
}

func newHarness(t *testing.T, approvalErr error, gw *scriptedGateway) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inv := &memInventory{room: &models.Room{
		Number:     1050,
		Capacity:   2,
		PriceCents: 5000,
		State:      models.RoomStateAvailable,
	}}
	sessions := &memSessions{byRef: make(map[string]*models.CheckoutSession)}

	svc := services.NewReservationService(nil, inv, sessions, allowAll{err: approvalErr}, gw, nil, services.ReservationConfig{
		HoldWindow:      30 * time.Minute,
		CallbackBaseURL: "http://localhost:8080/api",
	})
	rc := NewReservationController(svc)

	r := gin.New()
	r.Use(middleware.Identity())
	r.POST("/api/reservations", rc.CreateReservation)
	r.GET("/api/reservations/payment/success", rc.PaymentSuccess)
	r.GET("/api/reservations/payment/cancel", rc.PaymentCancel)

	return &testHarness{router: r, inv: inv, sessions: sessions}
}

func (h *testHarness) post(t *testing.T, body map[string]interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func validRequest() map[string]interface{} {
	return map[string]interface{}{
		"room_number":        1050,
		"accompany_number":   2,
		"reservation_date":   "2026-09-15",
		"payment_method_ref": "pm_visa",
	}
}

func clientHeaders() map[string]string {
	return map[string]string{"X-Client-ID": "7"}
}

func TestCreateReservationRequiresClientIdentity(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{})

	rec := h.post(t, validRequest(), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_IDENTITY", decodeError(t, rec).Error.Code)
}

func TestCreateReservationRejectsBadDate(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{})

	body := validRequest()
	body["reservation_date"] = "next tuesday"
	rec := h.post(t, body, clientHeaders())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PAYLOAD", decodeError(t, rec).Error.Code)
}

func TestCreateReservationSynchronousSuccess(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{
		charge: &payment.ChargeResult{Status: payment.StatusSucceeded, Reference: "ch_1"},
	})

	rec := h.post(t, validRequest(), clientHeaders())
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Reservation models.Reservation `json:"reservation"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "paid", body.Data.Reservation.PaymentStatus)
	assert.Equal(t, int64(5000), body.Data.Reservation.PriceCents)
	assert.Equal(t, models.RoomStateOccupied, h.inv.room.State)
}

func TestCreateReservationRoomConflict(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{})
	h.inv.room.State = models.RoomStateOccupied

	rec := h.post(t, validRequest(), clientHeaders())
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ROOM_UNAVAILABLE", decodeError(t, rec).Error.Code)
}

func TestCreateReservationCapacityExceeded(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{})

	body := validRequest()
	body["accompany_number"] = 5
	rec := h.post(t, body, clientHeaders())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "CAPACITY_EXCEEDED", decodeError(t, rec).Error.Code)
}

func TestCreateReservationUnapprovedClient(t *testing.T) {
	h := newHarness(t, services.ErrNotApproved, &scriptedGateway{})

	rec := h.post(t, validRequest(), clientHeaders())
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_APPROVED", decodeError(t, rec).Error.Code)
}

func TestCreateReservationPaymentDeclined(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{
		charge: &payment.ChargeResult{Status: payment.StatusFailed, Reason: "card_declined"},
	})

	rec := h.post(t, validRequest(), clientHeaders())
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "PAYMENT_FAILED", decodeError(t, rec).Error.Code)
	assert.Equal(t, models.RoomStateAvailable, h.inv.room.State)
}

func TestCreateReservationHostedCheckoutReturnsAccepted(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{
		checkout: &payment.CheckoutSession{Reference: "cs_1", RedirectURL: "https://pay.example.com/cs_1"},
	})

	body := validRequest()
	delete(body, "payment_method_ref")
	rec := h.post(t, body, clientHeaders())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			SessionRef  string `json:"session_ref"`
			RedirectURL string `json:"redirect_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.SessionRef)
	assert.Equal(t, "https://pay.example.com/cs_1", resp.Data.RedirectURL)
	assert.Equal(t, models.RoomStateBeingReserved, h.inv.room.State)
}

func checkoutSessionRef(t *testing.T, h *testHarness) string {
	t.Helper()
	body := validRequest()
	delete(body, "payment_method_ref")
	rec := h.post(t, body, clientHeaders())
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp struct {
		Data struct {
			SessionRef string `json:"session_ref"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data.SessionRef
}

func TestPaymentCancelCallbackReleasesRoom(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{
		checkout: &payment.CheckoutSession{Reference: "cs_1", RedirectURL: "https://pay.example.com/cs_1"},
	})
	ref := checkoutSessionRef(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/reservations/payment/cancel?session_ref="+ref, nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/rooms/available", rec.Header().Get("Location"))
	assert.Equal(t, models.RoomStateAvailable, h.inv.room.State)
}

func TestPaymentSuccessCallbackFinalizesAndRedirects(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{
		checkout:  &payment.CheckoutSession{Reference: "cs_1", RedirectURL: "https://pay.example.com/cs_1"},
		retrieved: &payment.CheckoutSession{Reference: "cs_1", Status: payment.SessionComplete, PaymentRef: "pi_1"},
	})
	ref := checkoutSessionRef(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/reservations/payment/success?session_ref="+ref, nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/reservations/1", rec.Header().Get("Location"))
	assert.Equal(t, models.RoomStateOccupied, h.inv.room.State)
}

func TestPaymentSuccessUnknownSession(t *testing.T) {
	h := newHarness(t, nil, &scriptedGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/reservations/payment/success?session_ref=nope", nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decodeError(t, rec).Error.Code)
}
