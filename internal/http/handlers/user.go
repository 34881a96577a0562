package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/homework-backend/internal/http/response"
	"github.com/yungbote/homework-backend/internal/platform/logger"
	"github.com/yungbote/homework-backend/internal/services"
)

type UserHandler struct {
	log   *logger.Logger
	users services.UserService
}

func NewUserHandler(log *logger.Logger, users services.UserService) *UserHandler {
	return &UserHandler{
		log:   log.With("handler", "UserHandler"),
		users: users,
	}
}

// POST /user
// body: { "auth_user_id": "...", "first_name": "...", "last_name": "..." }
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// GET /user/id/:user_id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "user_id")
	if !ok {
		return
	}
	u, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// GET /user/auth/:auth_user_id
func (h *UserHandler) GetUserByAuthUserID(c *gin.Context) {
	u, err := h.users.GetUserByAuthUserID(c.Request.Context(), c.Param("auth_user_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
