package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/stream"
)

type handler struct {
	stream *stream.Stream
	logger *zap.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"time":     h.stream.Now(),
		"memories": h.stream.Store().MemoryCount(),
	})
}

func (h *handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.stream.GetState())
}

func (h *handler) patterns(c *gin.Context) {
	c.JSON(http.StatusOK, h.stream.Store().Patterns())
}

func (h *handler) predictions(c *gin.Context) {
	c.JSON(http.StatusOK, h.stream.Store().Predictions())
}

func (h *handler) memories(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.stream.Store().Memories(limit))
}

func (h *handler) ingest(c *gin.Context) {
	var r stream.Reading
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.stream.Ingest(r); err != nil {
		if errors.Is(err, stream.ErrUnknownKind) || errors.Is(err, signal.ErrUnknownField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("ingest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest reading"})
		return
	}

	c.JSON(http.StatusAccepted, h.stream.Store().Snapshot())
}
