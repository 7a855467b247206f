package jobserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"golemate/src/logx"
	"golemate/src/models"
)

const (
	DefaultQueueSize = 100
	DefaultClaimWait = 5 * time.Second
)

// Server keeps submitted tasks in memory and hands them out to workers.
type Server struct {
	queue     chan string
	mu        sync.RWMutex
	tasks     map[string]*models.Task
	claimWait time.Duration
	logx      logx.Logger
}

func NewServer(logger logx.Logger, queueSize int) *Server {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Server{
		queue:     make(chan string, queueSize),
		tasks:     make(map[string]*models.Task),
		claimWait: DefaultClaimWait,
		logx:      logger,
	}
}

// WithClaimWait sets how long a worker's claim blocks before a 204.
func (s *Server) WithClaimWait(d time.Duration) *Server {
	s.claimWait = d
	return s
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/queue", s.handleViewQueue)
	router.POST("/tasks", s.handleSubmitTask)
	router.GET("/tasks/:id", s.handleGetTask)

	worker := router.Group("/worker")
	worker.GET("/next", s.handleClaimTask)
	worker.POST("/tasks/:id/progress", s.handleProgress)
	worker.POST("/tasks/:id/result", s.handleResult)

	return router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logx.Infof("starting job server on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logx.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
