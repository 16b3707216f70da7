package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/scanner"
)

// registerRESTRoutes wires the JSON API under /api.
func registerRESTRoutes(router *gin.Engine, db *database.RulesDB) {
	api := router.Group("/api")

	api.GET("/rules", listRulesHandler(db))
	api.POST("/rules", createRuleHandler(db))
	api.GET("/rules/:name", getRuleHandler(db))
	api.DELETE("/rules/:name", deleteRuleHandler(db))
	api.POST("/rules/:name/enable", setRuleEnabledHandler(db, true))
	api.POST("/rules/:name/disable", setRuleEnabledHandler(db, false))

	api.POST("/classify", classifyHandler(db))
	api.POST("/scan", scanHandler(db))
	api.GET("/decisions/:batchId", listDecisionsHandler(db))
}

func listRulesHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		enabledOnly := c.Query("enabled") == "true"

		rules, err := db.ListRules(enabledOnly)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rules": rules})
	}
}

func createRuleHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rule models.Rule
		if err := c.ShouldBindJSON(&rule); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if rule.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rule name is required"})
			return
		}

		id, err := db.CreateRule(&rule)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		rule.ID = id
		c.JSON(http.StatusCreated, rule)
	}
}

func getRuleHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, err := db.GetRule(c.Param("name"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if rule == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
			return
		}
		c.JSON(http.StatusOK, rule)
	}
}

func deleteRuleHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.DeleteRule(c.Param("name")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("name")})
	}
}

func setRuleEnabledHandler(db *database.RulesDB, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.SetRuleEnabled(c.Param("name"), enabled); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": c.Param("name"), "enabled": enabled})
	}
}

type classifyRequest struct {
	Path           string `json:"path"`
	SourceLocation string `json:"sourceLocation"`
	ApplyActions   bool   `json:"applyActions"`
}

// classifyHandler classifies either one on-disk file (path set) or
// every stored snapshot under a source location (path empty).
func classifyHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req classifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var result *ClassificationResult
		var err error
		switch {
		case req.Path != "":
			result, err = classifyPath(c.Request.Context(), db, req.Path, req.SourceLocation, req.ApplyActions)
		case req.SourceLocation != "":
			result, err = classifyLocation(c.Request.Context(), db, req.SourceLocation, req.ApplyActions)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "path or sourceLocation is required"})
			return
		}
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type scanRequest struct {
	Root           string `json:"root"`
	SourceLocation string `json:"sourceLocation"`
}

func scanHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Root == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "root is required"})
			return
		}

		opts := scanner.DefaultScanOptions()
		opts.SourceLocation = req.SourceLocation

		stats, err := scanner.Scan(c.Request.Context(), req.Root, db, opts)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func listDecisionsHandler(db *database.RulesDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		decisions, err := db.ListDecisions(c.Param("batchId"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decisions": decisions})
	}
}
