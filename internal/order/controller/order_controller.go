package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiptrack/internal/auth"
	"shiptrack/internal/commons"
	"shiptrack/internal/domain"
	apperrors "shiptrack/internal/errors"
	"shiptrack/internal/order/service"
	"shiptrack/internal/schema"
	"shiptrack/internal/storage"
)

type OrderService interface {
	CreateOrder(ctx context.Context, draft domain.OrderDraft, ownerID int64) (int64, error)
	ListOrders(ctx context.Context, ownerID int64) ([]domain.Order, error)
	Watch(ctx context.Context, ownerID int64, fn func(service.Snapshot)) error
}

type OrderController struct {
	service OrderService
	logger  *zap.Logger
}

func NewOrderController(service OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{
		service: service,
		logger:  logger,
	}
}

type orderResponse struct {
	ID           int64     `json:"id"`
	CompanyName  string    `json:"company_name"`
	PINumber     string    `json:"pi_number"`
	ETD          string    `json:"etd"`
	ETA          string    `json:"eta"`
	PaymentTerms string    `json:"payment_terms"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type ordersResponse struct {
	Orders []orderResponse `json:"orders"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

func toOrdersResponse(orders []domain.Order) ordersResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = orderResponse{
			ID:           o.ID,
			CompanyName:  o.CompanyName,
			PINumber:     o.PINumber,
			ETD:          storage.FormatDate(o.ETD),
			ETA:          storage.FormatDate(o.ETA),
			PaymentTerms: string(o.PaymentTerms),
			UserID:       o.UserID,
			CreatedAt:    o.CreatedAt,
		}
	}
	return ordersResponse{Orders: out}
}

// Create handles POST /api/orders. The owner is the session user; a
// user_id in the body is ignored.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	ownerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		commons.WriteServiceError(w, traceID, apperrors.NewUnauthorizedError("no authenticated user"), logger)
		return
	}

	record, ok := commons.DecodeRecord(w, r, logger)
	if !ok {
		return
	}

	draft, err := schema.ParseOrder(record)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	id, err := c.service.CreateOrder(r.Context(), draft, ownerID)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, createdResponse{ID: id}, logger)
}

// List handles GET /api/orders.
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	ownerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		commons.WriteServiceError(w, traceID, apperrors.NewUnauthorizedError("no authenticated user"), logger)
		return
	}

	orders, err := c.service.ListOrders(r.Context(), ownerID)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, toOrdersResponse(orders), logger)
}

// Stream handles GET /api/orders/stream as Server-Sent Events. Each
// "orders" event carries the complete list; "degraded" means live updates
// stopped and the client should refresh manually.
func (c *OrderController) Stream(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	ownerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		commons.WriteServiceError(w, traceID, apperrors.NewUnauthorizedError("no authenticated user"), logger)
		return
	}

	rc := http.NewResponseController(w)
	started := false

	start := func() {
		if started {
			return
		}
		started = true
		// The server write timeout would otherwise cut the stream.
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			logger.Debug("write deadline not adjustable", zap.Error(err))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
	}

	send := func(event string, data any) {
		start()
		if err := writeEvent(w, event, data); err != nil {
			logger.Debug("stream write failed", zap.Error(err))
			return
		}
		if err := rc.Flush(); err != nil {
			logger.Debug("stream flush failed", zap.Error(err))
		}
	}

	logger.Info("order stream opened", zap.Int64("userId", ownerID))

	err := c.service.Watch(r.Context(), ownerID, func(s service.Snapshot) {
		switch {
		case s.Degraded:
			send("degraded", commons.ErrorResponse{
				Error:   commons.CodeLiveUpdatesDown,
				Message: "live updates are paused, refresh to see new orders",
			})
		case s.Err != nil:
			send("error", commons.ErrorResponse{
				TraceID: traceID,
				Error:   commons.CodeStorageUnavailable,
				Message: "could not refresh orders, please try again",
			})
		default:
			send("orders", toOrdersResponse(s.Orders))
		}
	})
	if err != nil {
		if !started {
			commons.WriteServiceError(w, traceID, err, logger)
			return
		}
		logger.Error("order stream failed", zap.Error(err))
	}

	logger.Info("order stream closed", zap.Int64("userId", ownerID))
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
