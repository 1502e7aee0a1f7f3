package http

import (
	"net/http"
	"strconv"

	"github.com/dkeye/FrontRow/internal/app/orch"
	"github.com/dkeye/FrontRow/internal/domain"
	"github.com/gin-gonic/gin"
)

// Admin drives the orchestrator from test automation. Every call goes
// through the same operations clients use.
type Admin struct {
	Orch *orch.Orchestrator
}

func (a *Admin) State(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.State())
}

func (a *Admin) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, a.Orch.Reset())
}

type assignSeatRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	UserName  string `json:"userName"`
	UserImage string `json:"userImage"`
}

func (a *Admin) AssignSeat(c *gin.Context) {
	var req assignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	seat, err := a.Orch.ForceAssignSeat(c.Param("seatId"), domain.SessionID(req.SessionID), req.UserName, req.UserImage)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

func (a *Admin) ReleaseSeat(c *gin.Context) {
	released, err := a.Orch.ReleaseSeat(c.Param("seatId"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

type showStateRequest struct {
	Status   string `json:"status" binding:"required"`
	ArtistID string `json:"artistId"`
}

func (a *Admin) ShowState(c *gin.Context) {
	var req showStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := domain.ParseShowStatus(req.Status)
	if err != nil {
		badRequest(c, err)
		return
	}
	show, err := a.Orch.ForceShowState(status, domain.SessionID(req.ArtistID))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, show)
}

func (a *Admin) Events(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": domain.CodeBadPayload, "error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records := a.Orch.Dispatch.History.Recent(limit, c.Query("type"))
	c.JSON(http.StatusOK, gin.H{"events": records, "count": len(records)})
}
