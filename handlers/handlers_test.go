package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	availabilityRepo "bloomify-scheduler/database/repository/availability"
	bookingRepo "bloomify-scheduler/database/repository/booking"
	recurringRepo "bloomify-scheduler/database/repository/recurring"
	"bloomify-scheduler/handlers"
	"bloomify-scheduler/models"
	"bloomify-scheduler/services/availability"
	"bloomify-scheduler/services/recurrence"
	"bloomify-scheduler/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) SubmitAvailability(ctx context.Context, providerID string, req models.SubmitAvailabilityRequest) (*models.ProviderSchedule, error) {
	args := m.Called(ctx, providerID, req)
	s, _ := args.Get(0).(*models.ProviderSchedule)
	return s, args.Error(1)
}

func (m *mockAvailability) GetSchedule(ctx context.Context, providerID string) (*models.ProviderSchedule, error) {
	args := m.Called(ctx, providerID)
	s, _ := args.Get(0).(*models.ProviderSchedule)
	return s, args.Error(1)
}

func (m *mockAvailability) AddOverride(ctx context.Context, override models.Override) (*models.Override, error) {
	args := m.Called(ctx, override)
	o, _ := args.Get(0).(*models.Override)
	return o, args.Error(1)
}

func (m *mockAvailability) RemoveOverride(ctx context.Context, providerID, date string) error {
	return m.Called(ctx, providerID, date).Error(0)
}

func (m *mockAvailability) QueryAvailableSlots(ctx context.Context, providerID string, dates models.DateRange, limit int) ([]models.Slot, error) {
	args := m.Called(ctx, providerID, dates, limit)
	s, _ := args.Get(0).([]models.Slot)
	return s, args.Error(1)
}

type mockCoordinator struct {
	mock.Mock
}

func (m *mockCoordinator) CommitSlot(ctx context.Context, providerID string, req models.SlotRequest) (*models.Booking, error) {
	args := m.Called(ctx, providerID, req)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockCoordinator) CommitOccurrence(ctx context.Context, rule models.RecurringServiceRule, occurrenceAt time.Time) (*models.Booking, error) {
	args := m.Called(ctx, rule, occurrenceAt)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) PersistBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookings) FetchExistingBookings(ctx context.Context, providerID string, from, to time.Time) ([]models.BookingInterval, error) {
	args := m.Called(ctx, providerID, from, to)
	out, _ := args.Get(0).([]models.BookingInterval)
	return out, args.Error(1)
}

func (m *mockBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

type mockRecurring struct {
	mock.Mock
}

func (m *mockRecurring) rule(args mock.Arguments) (*models.RecurringServiceRule, error) {
	r, _ := args.Get(0).(*models.RecurringServiceRule)
	return r, args.Error(1)
}

func (m *mockRecurring) CreateRule(ctx context.Context, req models.CreateRecurringRuleRequest) (*models.RecurringServiceRule, error) {
	return m.rule(m.Called(ctx, req))
}

func (m *mockRecurring) GetRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return m.rule(m.Called(ctx, ruleID))
}

func (m *mockRecurring) PauseRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return m.rule(m.Called(ctx, ruleID))
}

func (m *mockRecurring) ResumeRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return m.rule(m.Called(ctx, ruleID))
}

func (m *mockRecurring) CancelRule(ctx context.Context, ruleID string) (*models.RecurringServiceRule, error) {
	return m.rule(m.Called(ctx, ruleID))
}

func (m *mockRecurring) ListActiveRules(ctx context.Context) ([]models.RecurringServiceRule, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]models.RecurringServiceRule)
	return r, args.Error(1)
}

func (m *mockRecurring) UpcomingOccurrences(ctx context.Context, ruleID string, from, to time.Time, limit int) ([]time.Time, error) {
	args := m.Called(ctx, ruleID, from, to, limit)
	out, _ := args.Get(0).([]time.Time)
	return out, args.Error(1)
}

type testServer struct {
	engine       *gin.Engine
	availability *mockAvailability
	coordinator  *mockCoordinator
	bookings     *mockBookings
	recurring    *mockRecurring
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{
		engine:       gin.New(),
		availability: &mockAvailability{},
		coordinator:  &mockCoordinator{},
		bookings:     &mockBookings{},
		recurring:    &mockRecurring{},
	}
	s.engine.Use(func(c *gin.Context) {
		c.Set("logger", zap.NewNop())
		c.Next()
	})

	a := handlers.NewAvailabilityHandler(s.availability)
	b := handlers.NewBookingHandler(s.coordinator, s.bookings)
	r := handlers.NewRecurringHandler(s.recurring, utils.FixedClock(testNow))

	p := s.engine.Group("/api/providers/:providerID")
	p.PUT("/availability", a.SubmitAvailabilityHandler)
	p.GET("/availability", a.GetAvailabilityHandler)
	p.POST("/overrides", a.AddOverrideHandler)
	p.DELETE("/overrides/:date", a.RemoveOverrideHandler)
	p.GET("/slots", a.QuerySlotsHandler)
	p.POST("/bookings", b.CommitSlotHandler)
	p.GET("/bookings/:bookingID", b.GetBookingHandler)

	rr := s.engine.Group("/api/recurring")
	rr.POST("", r.CreateRuleHandler)
	rr.GET("/:ruleID", r.GetRuleHandler)
	rr.POST("/:ruleID/pause", r.PauseRuleHandler)
	rr.POST("/:ruleID/cancel", r.CancelRuleHandler)
	rr.GET("/:ruleID/occurrences", r.OccurrencesHandler)
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestCommitSlotHandler(t *testing.T) {
	req := models.SlotRequest{Date: "2025-03-11", Start: 540, End: 600, RequesterID: "client-1"}

	t.Run("confirmed", func(t *testing.T) {
		s := newTestServer()
		s.coordinator.On("CommitSlot", mock.Anything, "prov-1", req).
			Return(&models.Booking{ID: "b1", Status: models.BookingStatusConfirmed}, nil).Once()

		w, body := s.do(t, http.MethodPost, "/api/providers/prov-1/bookings", req)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "b1", body["booking"].(map[string]any)["id"])
	})

	t.Run("rejected", func(t *testing.T) {
		s := newTestServer()
		s.coordinator.On("CommitSlot", mock.Anything, "prov-1", req).
			Return(&models.Booking{ID: "b2", Status: models.BookingStatusRejected, Reason: models.RejectionCapacityExceeded}, nil).Once()

		w, body := s.do(t, http.MethodPost, "/api/providers/prov-1/bookings", req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, string(models.RejectionCapacityExceeded), body["reason"])
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer()
		w, _ := s.do(t, http.MethodPost, "/api/providers/prov-1/bookings", map[string]any{"start": 540})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.coordinator.AssertNotCalled(t, "CommitSlot", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetBookingHandler(t *testing.T) {
	s := newTestServer()
	s.bookings.On("GetByID", mock.Anything, "b1").Return(&models.Booking{ID: "b1", ProviderID: "prov-1"}, nil)
	s.bookings.On("GetByID", mock.Anything, "missing").Return(nil, bookingRepo.ErrBookingNotFound)

	w, body := s.do(t, http.MethodGet, "/api/providers/prov-1/bookings/b1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b1", body["booking"].(map[string]any)["id"])

	w, _ = s.do(t, http.MethodGet, "/api/providers/prov-2/bookings/b1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "bookings of other providers are hidden")

	w, _ = s.do(t, http.MethodGet, "/api/providers/prov-1/bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityHandlersMapErrors(t *testing.T) {
	s := newTestServer()
	s.availability.On("GetSchedule", mock.Anything, "nobody").Return(nil, availabilityRepo.ErrScheduleNotFound).Once()
	s.availability.On("QueryAvailableSlots", mock.Anything, "prov-1", models.DateRange{From: "2025-03-10", To: "2025-03-03"}, 0).
		Return(nil, &availability.InvalidRangeError{
			Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		}).Once()
	s.availability.On("RemoveOverride", mock.Anything, "prov-1", "2025-03-03").Return(availabilityRepo.ErrOverrideNotFound).Once()

	w, _ := s.do(t, http.MethodGet, "/api/providers/nobody/availability", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/providers/prov-1/slots?from=2025-03-10&to=2025-03-03", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/providers/prov-1/slots?from=2025-03-03", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "to is required")

	w, _ = s.do(t, http.MethodGet, "/api/providers/prov-1/slots?from=2025-03-03&to=2025-03-04&limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/providers/prov-1/overrides/2025-03-03", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.availability.AssertExpectations(t)
}

func TestQuerySlotsHandler(t *testing.T) {
	s := newTestServer()
	slots := []models.Slot{{Date: "2025-03-03", Start: 540, End: 600, RemainingCapacity: 2}}
	s.availability.On("QueryAvailableSlots", mock.Anything, "prov-1", models.DateRange{From: "2025-03-03", To: "2025-03-09"}, 10).
		Return(slots, nil).Once()

	w, body := s.do(t, http.MethodGet, "/api/providers/prov-1/slots?from=2025-03-03&to=2025-03-09&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestAddOverrideHandlerUsesPathProvider(t *testing.T) {
	s := newTestServer()
	s.availability.On("AddOverride", mock.Anything, mock.MatchedBy(func(o models.Override) bool {
		return o.ProviderID == "prov-1" && o.Date == "2025-12-25"
	})).Return(&models.Override{ProviderID: "prov-1", Date: "2025-12-25"}, nil).Once()

	w, _ := s.do(t, http.MethodPost, "/api/providers/prov-1/overrides",
		models.Override{ProviderID: "someone-else", Date: "2025-12-25", Reason: "holiday"})
	assert.Equal(t, http.StatusCreated, w.Code)
	s.availability.AssertExpectations(t)
}

func TestRecurringHandlers(t *testing.T) {
	s := newTestServer()
	rule := &models.RecurringServiceRule{ID: "rule-1", State: models.RuleStatePaused}
	s.recurring.On("PauseRule", mock.Anything, "rule-1").Return(rule, nil).Once()
	s.recurring.On("CancelRule", mock.Anything, "gone").Return(nil, recurringRepo.ErrRuleNotFound).Once()
	s.recurring.On("PauseRule", mock.Anything, "done").Return(nil, recurrence.ErrRuleCancelled).Once()
	s.recurring.On("CreateRule", mock.Anything, mock.Anything).Return(nil, &recurrence.InvalidFrequencyError{Frequency: "daily"}).Once()

	w, body := s.do(t, http.MethodPost, "/api/recurring/rule-1/pause", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paused", body["rule"].(map[string]any)["state"])

	w, _ = s.do(t, http.MethodPost, "/api/recurring/gone/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/recurring/done/pause", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/recurring", models.CreateRecurringRuleRequest{
		Title: "x", ProviderID: "p", ClientID: "c", Frequency: "daily", DurationMinutes: 60,
		EndDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	s.recurring.AssertExpectations(t)
}

func sameInstant(want time.Time) any {
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
}

// 2025-03-04 is a Tuesday.
var testNow = time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

func TestOccurrencesHandler(t *testing.T) {
	s := newTestServer()
	from := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	s.recurring.On("UpcomingOccurrences", mock.Anything, "rule-1", sameInstant(from), sameInstant(to), 5).
		Return([]time.Time{time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}, nil).Once()

	w, body := s.do(t, http.MethodGet, "/api/recurring/rule-1/occurrences?from=2025-03-04T00:00:00Z&to=2025-04-01T00:00:00Z&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = s.do(t, http.MethodGet, "/api/recurring/rule-1/occurrences?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, limit := range []string{"abc", "-1"} {
		w, _ = s.do(t, http.MethodGet, "/api/recurring/rule-1/occurrences?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
	s.recurring.AssertNumberOfCalls(t, "UpcomingOccurrences", 1)
}

func TestOccurrencesHandlerDefaultsToClock(t *testing.T) {
	s := newTestServer()
	s.recurring.On("UpcomingOccurrences", mock.Anything, "rule-1", sameInstant(testNow), sameInstant(testNow.Add(90*24*time.Hour)), 0).
		Return([]time.Time{}, nil).Once()

	w, body := s.do(t, http.MethodGet, "/api/recurring/rule-1/occurrences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["count"])
	s.recurring.AssertExpectations(t)
}
