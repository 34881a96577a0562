package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/http/response"
	"github.com/yungbote/homework-backend/internal/platform/logger"
	"github.com/yungbote/homework-backend/internal/services"
)

type ServerHandler struct {
	log  *logger.Logger
	game services.GameService
}

func NewServerHandler(log *logger.Logger, game services.GameService) *ServerHandler {
	return &ServerHandler{
		log:  log.With("handler", "ServerHandler"),
		game: game,
	}
}

func serverPayload(s *types.Server) gin.H {
	return gin.H{
		"id":         s.ID,
		"name":       s.Name,
		"started_at": s.StartedAt,
		"ended_at":   s.EndedAt,
	}
}

// POST /server
// body: { "name": "..." }
func (h *ServerHandler) CreateServer(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	server, err := h.game.CreateServer(c.Request.Context(), req.Name)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, serverPayload(server))
}

// DELETE /server/:server_id
func (h *ServerHandler) DeleteServer(c *gin.Context) {
	id, ok := pathUUID(c, "server_id")
	if !ok {
		return
	}
	server, err := h.game.DeleteServer(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, serverPayload(server))
}
