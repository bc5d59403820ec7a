package order

import (
	"go.uber.org/zap"

	"shiptrack/internal/notifier"
	"shiptrack/internal/order/controller"
	"shiptrack/internal/order/repository"
	"shiptrack/internal/order/service"
	"shiptrack/internal/storage"
)

func NewService(db *storage.DB, hub *notifier.Hub, logger *zap.Logger) *service.OrderService {
	repo := repository.NewSQLOrderRepository(db.SQL, db.Dialect)
	return service.NewOrderService(repo, hub, service.Options{
		PublishLocally: !db.Dialect.HasChangeFeed(),
	}, logger)
}

func NewModule(db *storage.DB, hub *notifier.Hub, logger *zap.Logger) *controller.OrderController {
	return controller.NewOrderController(NewService(db, hub, logger), logger)
}
