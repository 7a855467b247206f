package jobserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"golemate/src/models"
)

func (s *Server) handleSubmitTask(c *gin.Context) {
	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty input"})
		return
	}
	if req.Name == "" {
		req.Name = "golemate"
	}

	t, err := s.AddTask(req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, models.TaskCreated{TaskID: t.ID})
}

func (s *Server) handleGetTask(c *gin.Context) {
	t, ok := s.GetTask(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrTaskNotFound.Error()})
		return
	}
	t.Input = ""
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleViewQueue(c *gin.Context) {
	c.JSON(http.StatusOK, s.QueueStatus())
}

func (s *Server) handleClaimTask(c *gin.Context) {
	t, ok := s.ClaimTask(c.Request.Context())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleProgress(c *gin.Context) {
	var upd models.ProgressUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if upd.Progress < 0 || upd.Progress > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress must be within [0,1]"})
		return
	}
	s.respondUpdate(c, s.UpdateProgress(c.Param("id"), upd.Progress))
}

func (s *Server) handleResult(c *gin.Context) {
	var res models.TaskResult
	if err := c.ShouldBindJSON(&res); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	s.respondUpdate(c, s.CompleteTask(c.Param("id"), res))
}

func (s *Server) respondUpdate(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTaskFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
