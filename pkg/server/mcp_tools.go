package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/scanner"
)

// registerMCPTools registers all MCP tools with the server
func registerMCPTools(s *server.MCPServer, db *database.RulesDB) {
	// Rule management tools
	registerRulesListTool(s, db)
	registerRulesAddTool(s, db)
	registerRulesEnableTool(s, db)
	registerRulesDisableTool(s, db)
	registerRulesDeleteTool(s, db)

	// Classification tools
	registerClassifyTool(s, db)
	registerClassifyLocationTool(s, db)

	// Scan and audit tools
	registerScanTool(s, db)
	registerDecisionsListTool(s, db)
}

func registerRulesListTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("rules-list",
		mcp.WithDescription("List classification rules in evaluation order"),
		mcp.WithBoolean("enabledOnly",
			mcp.Description("Only return enabled rules (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			EnabledOnly bool `json:"enabledOnly"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		rules, err := db.ListRules(args.EnabledOnly)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list rules: %v", err)), nil
		}

		return toolResultJSON(rules)
	})
}

func registerRulesAddTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("rules-add",
		mcp.WithDescription("Create a classification rule"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Unique rule name"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Evaluation priority; lower runs earlier (default: 100)"),
		),
		mcp.WithString("conditions",
			mcp.Required(),
			mcp.Description(`Inclusion conditions as a JSON array, e.g. [{"type":"extension","value":"pdf"}]`),
		),
		mcp.WithString("logicalOperator",
			mcp.Description("How inclusion conditions combine: and, or, single (default: and)"),
		),
		mcp.WithString("exclusions",
			mcp.Description("Exclusion conditions as a JSON array; any match vetoes the rule"),
		),
		mcp.WithString("actionKind",
			mcp.Required(),
			mcp.Description("Action to take on match: move, rename, retag"),
		),
		mcp.WithString("destinationRef",
			mcp.Description("Action target: destination location, new name, or kind tag"),
		),
		mcp.WithBoolean("chainingEnabled",
			mcp.Description("Re-evaluate the file after this rule's action applies (default: false)"),
		),
		mcp.WithNumber("maxChainDepth",
			mcp.Description("Chain depth bound when chaining is enabled (default: 10)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Name            string `json:"name"`
			Priority        *int   `json:"priority,omitempty"`
			Conditions      string `json:"conditions"`
			LogicalOperator string `json:"logicalOperator"`
			Exclusions      string `json:"exclusions"`
			ActionKind      string `json:"actionKind"`
			DestinationRef  string `json:"destinationRef"`
			ChainingEnabled bool   `json:"chainingEnabled"`
			MaxChainDepth   *int   `json:"maxChainDepth,omitempty"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		var conditions []*models.Condition
		if err := json.Unmarshal([]byte(args.Conditions), &conditions); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid conditions JSON: %v", err)), nil
		}

		var exclusions []*models.Condition
		if args.Exclusions != "" {
			if err := json.Unmarshal([]byte(args.Exclusions), &exclusions); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid exclusions JSON: %v", err)), nil
			}
		}

		rule := &models.Rule{
			Name:                args.Name,
			Priority:            100,
			Enabled:             true,
			Conditions:          conditions,
			LogicalOperator:     models.LogicalOperator(args.LogicalOperator),
			ExclusionConditions: exclusions,
			ActionKind:          models.ActionKind(args.ActionKind),
			DestinationRef:      args.DestinationRef,
			ChainingEnabled:     args.ChainingEnabled,
			MaxChainDepth:       10,
		}
		if args.Priority != nil {
			rule.Priority = *args.Priority
		}
		if args.MaxChainDepth != nil {
			rule.MaxChainDepth = *args.MaxChainDepth
		}
		if rule.LogicalOperator == "" {
			rule.LogicalOperator = models.OperatorAnd
		}

		id, err := db.CreateRule(rule)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create rule: %v", err)), nil
		}
		rule.ID = id

		log.WithField("rule", rule.Name).Info("Rule created via MCP")
		return toolResultJSON(rule)
	})
}

func registerRulesEnableTool(s *server.MCPServer, db *database.RulesDB) {
	registerRuleToggleTool(s, db, "rules-enable", "Enable a classification rule", true)
}

func registerRulesDisableTool(s *server.MCPServer, db *database.RulesDB) {
	registerRuleToggleTool(s, db, "rules-disable", "Disable a classification rule", false)
}

func registerRuleToggleTool(s *server.MCPServer, db *database.RulesDB, name, description string, enabled bool) {
	tool := mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Rule name"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Name string `json:"name"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		if err := db.SetRuleEnabled(args.Name, enabled); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update rule: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Rule %q enabled=%t", args.Name, enabled)), nil
	})
}

func registerRulesDeleteTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("rules-delete",
		mcp.WithDescription("Delete a classification rule"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Rule name"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Name string `json:"name"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		if err := db.DeleteRule(args.Name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete rule: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Rule %q deleted", args.Name)), nil
	})
}

func registerClassifyTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("classify",
		mcp.WithDescription("Classify one file against the enabled rules"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path to classify"),
		),
		mcp.WithString("sourceLocation",
			mcp.Description("Location tag for the file (default: containing directory)"),
		),
		mcp.WithBoolean("applyActions",
			mcp.Description("Apply rule actions and follow chains (default: false, decision only)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Path           string `json:"path"`
			SourceLocation string `json:"sourceLocation"`
			ApplyActions   bool   `json:"applyActions"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("path", args.Path).Info("Executing classify via MCP")

		result, err := classifyPath(ctx, db, args.Path, args.SourceLocation, args.ApplyActions)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Classification failed: %v", err)), nil
		}

		return toolResultJSON(result)
	})
}

func registerClassifyLocationTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("classify-location",
		mcp.WithDescription("Classify every scanned file under a source location as one batch"),
		mcp.WithString("sourceLocation",
			mcp.Required(),
			mcp.Description("Location tag whose stored snapshots to classify"),
		),
		mcp.WithBoolean("applyActions",
			mcp.Description("Apply rule actions and follow chains (default: false, decision only)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			SourceLocation string `json:"sourceLocation"`
			ApplyActions   bool   `json:"applyActions"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("sourceLocation", args.SourceLocation).Info("Executing classify-location via MCP")

		result, err := classifyLocation(ctx, db, args.SourceLocation, args.ApplyActions)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Batch classification failed: %v", err)), nil
		}

		return toolResultJSON(result)
	})
}

func registerScanTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("scan",
		mcp.WithDescription("Scan a directory tree into file snapshots"),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Directory to scan"),
		),
		mcp.WithString("sourceLocation",
			mcp.Description("Location tag stored on every snapshot (default: the root path)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Root           string `json:"root"`
			SourceLocation string `json:"sourceLocation"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("root", args.Root).Info("Executing scan via MCP")

		opts := scanner.DefaultScanOptions()
		opts.SourceLocation = args.SourceLocation

		stats, err := scanner.Scan(ctx, args.Root, db, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Scan failed: %v", err)), nil
		}

		result := fmt.Sprintf("Scan completed successfully\n"+
			"Files: %d\n"+
			"Errors: %d\n"+
			"Total size: %d bytes (%.2f MB)\n"+
			"Duration: %s",
			stats.FilesScanned,
			stats.Errors,
			stats.TotalSize,
			float64(stats.TotalSize)/(1024*1024),
			stats.Duration,
		)

		return mcp.NewToolResultText(result), nil
	})
}

func registerDecisionsListTool(s *server.MCPServer, db *database.RulesDB) {
	tool := mcp.NewTool("decisions-list",
		mcp.WithDescription("List recorded classification decisions for a batch"),
		mcp.WithString("batchId",
			mcp.Required(),
			mcp.Description("Batch identifier returned by classify or classify-location"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			BatchID string `json:"batchId"`
		}

		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		decisions, err := db.ListDecisions(args.BatchID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list decisions: %v", err)), nil
		}

		return toolResultJSON(decisions)
	})
}

func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func unmarshalArgs(arguments interface{}, v interface{}) error {
	data, err := json.Marshal(arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
