package user

import (
	"go.uber.org/zap"

	"shiptrack/internal/auth"
	"shiptrack/internal/config"
	"shiptrack/internal/storage"
	"shiptrack/internal/user/controller"
	"shiptrack/internal/user/repository"
	"shiptrack/internal/user/service"
)

func NewService(db *storage.DB, cfg config.AuthConfig, logger *zap.Logger) *service.UserService {
	repo := repository.NewSQLUserRepository(db.SQL, db.Dialect)
	return service.NewUserService(repo, cfg.BcryptCost, logger)
}

func NewModule(db *storage.DB, cfg config.AuthConfig, tokens *auth.TokenIssuer, logger *zap.Logger) *controller.UserController {
	return controller.NewUserController(NewService(db, cfg, logger), tokens, logger)
}
