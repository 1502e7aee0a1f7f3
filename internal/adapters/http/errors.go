package http

import (
	"net/http"

	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/gin-gonic/gin"
)

func statusOf(code domain.Code) int {
	switch code {
	case domain.CodeNotFound, domain.CodeTargetNotFound:
		return http.StatusNotFound
	case domain.CodeSeatTaken, domain.CodeAlreadySeated, domain.CodeRoleConflict, domain.CodeInvalidTransition:
		return http.StatusConflict
	case domain.CodeInvalidSeat, domain.CodeInvalidRole, domain.CodeInvalidSchedule, domain.CodeBadPayload:
		return http.StatusBadRequest
	case domain.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	c.AbortWithStatusJSON(statusOf(code), gin.H{"code": code, "error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": domain.CodeBadPayload, "error": err.Error()})
}
