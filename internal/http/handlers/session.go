package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interviewcoach-backend/internal/http/response"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

type SessionHandler struct {
	log *logger.Logger
	mgr *interview.Manager
}

func NewSessionHandler(log *logger.Logger, mgr *interview.Manager) *SessionHandler {
	return &SessionHandler{log: log.With("handler", "SessionHandler"), mgr: mgr}
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req interview.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.mgr.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondCreated(c, gin.H{"session": sess})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.mgr.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

// POST /api/sessions/:id/join
func (h *SessionHandler) Join(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	started, err := h.mgr.Join(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{"started": started})
}

// POST /api/sessions/:id/end
func (h *SessionHandler) End(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.mgr.End(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{"session": sess})
}

type fragmentRequest struct {
	Text string `json:"text"`
}

// POST /api/sessions/:id/fragments
//
// The reply, once generated, is spoken through the session speaker and
// reaches observers as a speech event.
func (h *SessionHandler) Fragment(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req fragmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("text is required"))
		return
	}
	if err := h.mgr.OnTranscriptFragment(id, req.Text, nil); err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

type documentsRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

// POST /api/sessions/:id/documents
func (h *SessionHandler) Documents(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req documentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Resume) == "" && strings.TrimSpace(req.JobDescription) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("resume or job_description is required"))
		return
	}
	if err := h.mgr.AddDocuments(c.Request.Context(), id, req.Resume, req.JobDescription); err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{"indexed": true})
}

// GET /api/sessions/:id/state
func (h *SessionHandler) State(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	state, err := h.mgr.GetState(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{"state": state})
}

// GET /api/sessions/:id/transcript
func (h *SessionHandler) Transcript(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	entries, err := h.mgr.GetTranscript(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	response.RespondOK(c, gin.H{
		"session_id": id,
		"transcript": entries,
		"evidence":   interview.Summarize(entries),
	})
}
