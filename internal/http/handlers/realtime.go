package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interviewcoach-backend/internal/http/response"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

// RealtimeHandler serves the coaching observer streams and the voice
// socket that carries transcript fragments in and replies out.
type RealtimeHandler struct {
	log    *logger.Logger
	mgr    *interview.Manager
	buffer int
}

func NewRealtimeHandler(log *logger.Logger, mgr *interview.Manager) *RealtimeHandler {
	return &RealtimeHandler{
		log:    log.With("handler", "RealtimeHandler"),
		mgr:    mgr,
		buffer: realtime.DefaultClientBuffer,
	}
}

func (h *RealtimeHandler) attach(c *gin.Context) (*realtime.Client, func(), bool) {
	id, ok := sessionID(c)
	if !ok {
		return nil, nil, false
	}
	client := realtime.NewClient(h.buffer)
	handle, err := h.mgr.AttachObserver(id, client)
	if err != nil {
		response.RespondAPIError(c, sessionError(err))
		return nil, nil, false
	}
	cleanup := func() {
		h.mgr.DetachObserver(handle)
		client.Close()
	}
	return client, cleanup, true
}

// GET /api/sessions/:id/insights/stream
func (h *RealtimeHandler) InsightStream(c *gin.Context) {
	client, cleanup, ok := h.attach(c)
	if !ok {
		return
	}
	defer cleanup()
	h.log.Info("SSE observer attached", "session_id", c.Param("id"), "observer_id", client.ID())
	realtime.ServeSSE(h.log, c.Writer, c.Request, client)
}

// GET /api/sessions/:id/insights/ws
func (h *RealtimeHandler) InsightSocket(c *gin.Context) {
	client, cleanup, ok := h.attach(c)
	if !ok {
		return
	}
	defer cleanup()
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	h.log.Info("WS observer attached", "session_id", c.Param("id"), "observer_id", client.ID())
	realtime.ServeWS(c.Request.Context(), h.log, conn, client, nil)
}

// voiceFrame is an inbound voice socket message. Plain text frames are
// treated as {"text": frame}.
type voiceFrame struct {
	Text string `json:"text"`
}

func parseVoiceFrame(data []byte) string {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, "{") {
		var f voiceFrame
		if err := json.Unmarshal(data, &f); err == nil {
			return f.Text
		}
	}
	return raw
}

// GET /api/sessions/:id/voice
func (h *RealtimeHandler) Voice(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if _, err := h.mgr.Get(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, sessionError(err))
		return
	}
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	client := realtime.NewClient(h.buffer)
	defer client.Close()
	channel := id.String()
	reply := func(text string) {
		msg := realtime.Message{Channel: channel, Event: realtime.EventSpeech, Data: interview.SpeechEvent{Text: text}}
		if err := client.Send(msg); err != nil {
			h.log.Warn("voice reply dropped", "session_id", channel, "error", err)
		}
	}
	onText := func(data []byte) {
		text := parseVoiceFrame(data)
		if text == "" {
			return
		}
		if err := h.mgr.OnTranscriptFragment(id, text, reply); err != nil {
			h.log.Info("voice fragment rejected, closing", "session_id", channel, "error", err)
			client.Close()
		}
	}
	h.log.Info("voice socket open", "session_id", channel, "connection_id", client.ID())
	realtime.ServeWS(c.Request.Context(), h.log, conn, client, onText)
}
