// Package http builds the gin router for the voice service.
package http

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appconfig "github.com/veenjenga/Hands-and-Hope-sub001/internal/config"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/storage"
	"github.com/veenjenga/Hands-and-Hope-sub001/internal/ws"
	"github.com/veenjenga/Hands-and-Hope-sub001/webassets"
)

// NewRouter mounts the health check, the voice WebSocket, the journal API
// and the embedded reference client.
func NewRouter(cfg appconfig.Config, wsHandler *ws.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": wsHandler.SessionCount()})
	})

	router.GET("/voice-ws", func(c *gin.Context) {
		wsHandler.Handle(c.Writer, c.Request)
	})

	if cfg.Journal.Enabled {
		mountJournals(router, cfg.Journal.Dir)
	}
	mountEmbeddedClient(router, logger)

	return router
}

func mountJournals(router *gin.Engine, dir string) {
	journals := router.Group("/journals")
	journals.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, storage.ListJournals(dir))
	})
	journals.GET("/:id", func(c *gin.Context) {
		entries, err := storage.ReadJournal(dir, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})
	journals.DELETE("/:id", func(c *gin.Context) {
		if !storage.DeleteJournal(dir, c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "journal not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func mountEmbeddedClient(router *gin.Engine, logger *zap.Logger) {
	root, err := webassets.Subdir("voice")
	if err != nil {
		if logger != nil {
			logger.Warn("embedded voice client unavailable", zap.Error(err))
		}
		return
	}
	indexHTML, err := fs.ReadFile(root, "index.html")
	if err != nil {
		if logger != nil {
			logger.Warn("missing embedded index.html", zap.Error(err))
		}
		return
	}
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	router.StaticFileFS("/client.js", "client.js", http.FS(root))
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if logger == nil {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}
