package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/homework-backend/internal/clients/openai"
	"github.com/yungbote/homework-backend/internal/http/response"
	"github.com/yungbote/homework-backend/internal/platform/logger"
	"github.com/yungbote/homework-backend/internal/services"
)

const maxUploadBytes = 32 << 20

type HomeworkHandler struct {
	log      *logger.Logger
	homework services.HomeworkService
}

func NewHomeworkHandler(log *logger.Logger, homework services.HomeworkService) *HomeworkHandler {
	return &HomeworkHandler{
		log:      log.With("handler", "HomeworkHandler"),
		homework: homework,
	}
}

type chatMessageBody struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// POST /homework/run
// body: { "owner_user_id": "...", "file_id": "..."? }
func (h *HomeworkHandler) CreateRun(c *gin.Context) {
	var req struct {
		OwnerUserID uuid.UUID  `json:"owner_user_id" binding:"required"`
		FileID      *uuid.UUID `json:"file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	run, err := h.homework.CreateRun(c.Request.Context(), req.OwnerUserID, req.FileID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if err := h.homework.ScheduleSteps(c.Request.Context(), run); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run_id": run.ID})
}

// GET /homework/run/:run_id
func (h *HomeworkHandler) GetRun(c *gin.Context) {
	runID, ok := pathUUID(c, "run_id")
	if !ok {
		return
	}
	run, err := h.homework.GetRun(c.Request.Context(), runID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"run_id":      run.ID,
		"state":       run.State,
		"labels":      run.LabelList(),
		"explanation": run.Explanation,
	})
}

// GET /homework/run/:run_id/steps
func (h *HomeworkHandler) GetStepStates(c *gin.Context) {
	runID, ok := pathUUID(c, "run_id")
	if !ok {
		return
	}
	states, err := h.homework.GetStepStates(c.Request.Context(), runID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"run_id":      runID,
		"step_states": states,
	})
}

// GET /homework/run/:run_id/tasks
func (h *HomeworkHandler) ListTasks(c *gin.Context) {
	runID, ok := pathUUID(c, "run_id")
	if !ok {
		return
	}
	tasks, err := h.homework.ListTasks(c.Request.Context(), runID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, gin.H{
			"id":          task.ID,
			"key":         task.Key,
			"description": task.Description,
			"concepts":    task.ConceptList(),
		})
	}
	response.RespondOK(c, gin.H{
		"run_id": runID,
		"tasks":  out,
	})
}

// POST /homework/upload
// multipart form: user_id, file
func (h *HomeworkHandler) Upload(c *gin.Context) {
	userID, err := uuid.Parse(c.PostForm("user_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_required", err)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large",
			fmt.Errorf("file exceeds %d bytes", maxUploadBytes))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_unreadable", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "file_unreadable", err)
		return
	}

	run, err := h.homework.UploadHomework(c.Request.Context(), userID, filepath.Base(fileHeader.Filename), data)
	if err != nil {
		// The run may already exist and be scheduled; the client still gets
		// the error so it can retry the file.
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run_id": run.ID})
}

// POST /homework/run/:run_id/chat
// body: { "messages": [{ "role": "...", "content": "..." }] }
//
// The reply is a chunked plain-text stream. Upstream failures surface as a
// trailing "\n[ERROR]: ..." line, never as an HTTP error.
func (h *HomeworkHandler) Chat(c *gin.Context) {
	runID, ok := pathUUID(c, "run_id")
	if !ok {
		return
	}
	var req struct {
		Messages []chatMessageBody `json:"messages" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	messages := make([]openai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.Message{Role: m.Role, Content: m.Content})
	}

	c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	h.homework.ChatStream(c.Request.Context(), runID, messages, func(chunk string) {
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return
		}
		c.Writer.Flush()
	})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}
