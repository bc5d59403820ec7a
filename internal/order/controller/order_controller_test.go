package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiptrack/internal/auth"
	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/order/service"
)

type mockOrderService struct {
	CreateOrderFunc func(ctx context.Context, draft domain.OrderDraft, ownerID int64) (int64, error)
	ListOrdersFunc  func(ctx context.Context, ownerID int64) ([]domain.Order, error)
	WatchFunc       func(ctx context.Context, ownerID int64, fn func(service.Snapshot)) error
}

func (m *mockOrderService) CreateOrder(ctx context.Context, draft domain.OrderDraft, ownerID int64) (int64, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, draft, ownerID)
	}
	return 1, nil
}

func (m *mockOrderService) ListOrders(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx, ownerID)
	}
	return []domain.Order{}, nil
}

func (m *mockOrderService) Watch(ctx context.Context, ownerID int64, fn func(service.Snapshot)) error {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx, ownerID, fn)
	}
	return nil
}

func authedRequest(method, target, body string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

const validBody = `{"company_name":"Acme Trading","pi_number":"PI-001","etd":"2025-03-01","eta":"2025-03-20","payment_terms":"LC","user_id":99}`

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: validBody, wantStatus: http.StatusCreated},
		{name: "invalid json", body: `nope`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{
			name:       "bad payment terms",
			body:       `{"company_name":"Acme","pi_number":"PI","etd":"2025-03-01","eta":"2025-03-20","payment_terms":"CASH"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "storage down",
			body:       validBody,
			createErr:  apperrors.NewStorageError("insert order", errors.New("dial tcp: i/o timeout")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORAGE_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOwner int64
			svc := &mockOrderService{
				CreateOrderFunc: func(ctx context.Context, draft domain.OrderDraft, ownerID int64) (int64, error) {
					gotOwner = ownerID
					if tt.createErr != nil {
						return 0, tt.createErr
					}
					return 12, nil
				},
			}
			ctrl := NewOrderController(svc, zap.NewNop())

			rec := httptest.NewRecorder()
			ctrl.Create(rec, authedRequest(http.MethodPost, "/api/orders", tt.body, 5))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error"])
				assert.NotContains(t, rec.Body.String(), "i/o timeout")
				return
			}
			assert.Equal(t, float64(12), body["id"])
			assert.Equal(t, int64(5), gotOwner, "owner comes from the session, not the body")
		})
	}
}

func TestCreate_RequiresSession(t *testing.T) {
	ctrl := NewOrderController(&mockOrderService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.Create(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestList(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &mockOrderService{
		ListOrdersFunc: func(ctx context.Context, ownerID int64) ([]domain.Order, error) {
			return []domain.Order{{
				ID:           3,
				CompanyName:  "Acme Trading",
				PINumber:     "PI-001",
				ETD:          time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				ETA:          time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
				PaymentTerms: domain.PaymentTermsTT,
				UserID:       ownerID,
				CreatedAt:    created,
			}}, nil
		},
	}
	ctrl := NewOrderController(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.List(rec, authedRequest(http.MethodGet, "/api/orders", "", 5))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orders":[{
		"id":3,
		"company_name":"Acme Trading",
		"pi_number":"PI-001",
		"etd":"2025-03-01",
		"eta":"2025-03-20",
		"payment_terms":"T/T",
		"user_id":5,
		"created_at":"2025-03-01T09:00:00Z"
	}]}`, rec.Body.String())
}

func TestList_EmptyIsArray(t *testing.T) {
	ctrl := NewOrderController(&mockOrderService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.List(rec, authedRequest(http.MethodGet, "/api/orders", "", 5))

	assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
}

func TestStream_WritesEvents(t *testing.T) {
	svc := &mockOrderService{
		WatchFunc: func(ctx context.Context, ownerID int64, fn func(service.Snapshot)) error {
			fn(service.Snapshot{Orders: []domain.Order{{ID: 1, UserID: ownerID}}})
			fn(service.Snapshot{Err: apperrors.NewStorageError("list orders", errors.New("secret detail"))})
			fn(service.Snapshot{Degraded: true})
			return nil
		},
	}
	ctrl := NewOrderController(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.Stream(rec, authedRequest(http.MethodGet, "/api/orders/stream", "", 5))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	events := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, events, 3)
	assert.True(t, strings.HasPrefix(events[0], "event: orders\ndata: {\"orders\":[{\"id\":1,"))
	assert.True(t, strings.HasPrefix(events[1], "event: error\n"))
	assert.True(t, strings.HasPrefix(events[2], "event: degraded\n"))
	assert.NotContains(t, body, "secret detail")
}

func TestStream_FailureBeforeFirstEventIsJSON(t *testing.T) {
	svc := &mockOrderService{
		WatchFunc: func(ctx context.Context, ownerID int64, fn func(service.Snapshot)) error {
			return apperrors.NewSubscriptionError("orders", errors.New("hub is closed"))
		},
	}
	ctrl := NewOrderController(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	ctrl.Stream(rec, authedRequest(http.MethodGet, "/api/orders/stream", "", 5))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
