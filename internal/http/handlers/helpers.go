package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/http/response"
	"github.com/edupulse/a11y-backend/internal/pkg/apierr"
	"github.com/edupulse/a11y-backend/internal/requestdata"
)

// sessionIdentity pulls the resolved session and identity off the request
// context. The auth middleware guarantees a session ID is present.
func sessionIdentity(c *gin.Context) (sessionID, identity uuid.UUID, ok bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.SessionID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "missing_session",
			errors.New("no session bound to request"))
		return uuid.Nil, uuid.Nil, false
	}
	return rd.SessionID, rd.UserID, true
}

// respondServiceError maps service errors onto HTTP, honoring the status
// and code embedded in apierr.Error values.
func respondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}
