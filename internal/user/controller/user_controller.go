package controller

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiptrack/internal/commons"
	"shiptrack/internal/domain"
	"shiptrack/internal/schema"
)

type UserService interface {
	CreateUser(ctx context.Context, username, password string) (int64, error)
	VerifyUser(ctx context.Context, username, password string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

type UserController struct {
	service UserService
	tokens  TokenIssuer
	logger  *zap.Logger
}

func NewUserController(service UserService, tokens TokenIssuer, logger *zap.Logger) *UserController {
	return &UserController{
		service: service,
		tokens:  tokens,
		logger:  logger,
	}
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register handles POST /api/users.
func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	record, ok := commons.DecodeRecord(w, r, logger)
	if !ok {
		return
	}

	username, password, err := schema.ParseCredentials(record)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	id, err := c.service.CreateUser(r.Context(), username, password)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, createdResponse{ID: id}, logger)
}

// Login handles POST /api/sessions. Unknown users and wrong passwords get
// the same response.
func (c *UserController) Login(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	record, ok := commons.DecodeRecord(w, r, logger)
	if !ok {
		return
	}

	username, _ := record[schema.FieldUsername].(string)
	password, _ := record[schema.FieldPassword].(string)

	user, err := c.service.VerifyUser(r.Context(), username, password)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}
	if user == nil {
		logger.Info("login rejected")
		commons.WriteError(w, traceID, http.StatusUnauthorized, commons.CodeInvalidCredentials, "invalid username or password", logger)
		return
	}

	token, err := c.tokens.Issue(user.ID)
	if err != nil {
		commons.WriteServiceError(w, traceID, err, logger)
		return
	}

	logger.Info("session created", zap.Int64("userId", user.ID))
	commons.WriteJSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Username: user.Username},
	}, logger)
}
