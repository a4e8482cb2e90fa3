package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/http/response"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview"
	"github.com/yungbote/interviewcoach-backend/internal/platform/apierr"
)

// sessionError maps session operation failures to API errors.
func sessionError(err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return apierr.BadRequest("invalid_session", err)
	case errors.Is(err, interview.ErrSessionNotFound):
		return apierr.NotFound("session_not_found", err)
	case errors.Is(err, interview.ErrSessionExpired):
		return apierr.New(http.StatusGone, "session_expired", err)
	case errors.Is(err, interview.ErrSessionEnded):
		return apierr.Conflict("session_ended", err)
	}
	return err
}

// sessionID parses the :id path parameter, writing a 400 when it is invalid.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, false
	}
	return id, true
}
