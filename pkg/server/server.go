// Package server exposes rule management and classification over HTTP:
// a REST API for scripting and an MCP endpoint for agent access.
package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/home"
	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("server")
}

// Start runs the HTTP server on the configured address. Blocks until
// the server fails.
func Start(config *home.Config, db *database.RulesDB) error {
	gin.SetMode(gin.ReleaseMode)

	router := NewRouter(db)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.WithFields(logrus.Fields{
		"host":         config.Server.Host,
		"port":         config.Server.Port,
		"mcp_endpoint": "/mcp",
	}).Info("Server starting")

	return router.Run(addr)
}

// NewRouter builds the gin router with the REST API and the MCP
// endpoint mounted. Split out from Start so tests can drive it with
// httptest.
func NewRouter(db *database.RulesDB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	registerRESTRoutes(router, db)

	mcpServer := server.NewMCPServer(
		"mcp-file-rules",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	registerMCPTools(mcpServer, db)

	mcpHTTPServer := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithStateLess(true),
	)
	router.Any("/mcp", gin.WrapH(mcpHTTPServer))

	return router
}

// requestLogger logs every request with the original client IP, which
// may sit behind a reverse proxy.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		clientIP := c.Request.RemoteAddr
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			clientIP = realIP
		} else if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
			// First IP in the chain is the original client.
			for i := 0; i < len(forwardedFor); i++ {
				if forwardedFor[i] == ',' {
					forwardedFor = forwardedFor[:i]
					break
				}
			}
			clientIP = forwardedFor
		}

		c.Next()

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(startTime).Milliseconds(),
			"clientIP": clientIP,
		}).Info("Request completed")
	}
}
