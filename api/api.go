// Package api exposes the bot over a JSON HTTP surface: a liveness probe,
// the send/broadcast operations, and read-only views of the stored
// subscribers.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcarloshn/difubot/internal/bot"
	"github.com/jcarloshn/difubot/internal/logger"
	"github.com/jcarloshn/difubot/internal/store"
	"github.com/sirupsen/logrus"
)

// SubscriberReader is the read-only slice of the store served over HTTP.
type SubscriberReader interface {
	ListSubscribers() ([]store.Subscriber, error)
	Counts() (subscribers, messages int64, err error)
}

type Server struct {
	bot   *bot.Bot
	store SubscriberReader
}

func New(b *bot.Bot, st SubscriberReader) *Server {
	return &Server{
		bot:   b,
		store: st,
	}
}

type broadcastRequest struct {
	Message string `json:"message"`
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleHealth)

	apiGroup := r.Group("/api")
	apiGroup.POST("/broadcast", s.handleBroadcast)
	apiGroup.POST("/send", s.handleSend)
	apiGroup.GET("/subscribers", s.handleSubscribers)
	apiGroup.GET("/stats", s.handleStats)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		fail(c, http.StatusBadRequest, "message is required")
		return
	}

	tally, err := s.bot.Broadcast(c.Request.Context(), req.Message)
	if err != nil {
		logger.WithError(err).Error("broadcast failed")
		fail(c, http.StatusInternalServerError, "broadcast failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "broadcast finished",
		"stats":   tally,
	})
}

func (s *Server) handleSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" || req.Message == "" {
		fail(c, http.StatusBadRequest, "to and message are required")
		return
	}

	if !s.bot.SendMessage(c.Request.Context(), req.To, req.Message) {
		fail(c, http.StatusInternalServerError, "failed to send message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "message sent",
	})
}

func (s *Server) handleSubscribers(c *gin.Context) {
	subs, err := s.store.ListSubscribers()
	if err != nil {
		logger.WithError(err).Error("failed to list subscribers")
		fail(c, http.StatusInternalServerError, "failed to list subscribers")
		return
	}
	if subs == nil {
		subs = []store.Subscriber{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"subscribers": subs,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	subs, msgs, err := s.store.Counts()
	if err != nil {
		logger.WithError(err).Error("failed to read stats")
		fail(c, http.StatusInternalServerError, "failed to read stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"subscribers": subs,
		"messages":    msgs,
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("http request")
	}
}
