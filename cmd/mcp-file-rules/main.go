package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/actions"
	"github.com/prismon/mcp-file-rules/pkg/database"
	"github.com/prismon/mcp-file-rules/pkg/engine"
	"github.com/prismon/mcp-file-rules/pkg/home"
	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/prismon/mcp-file-rules/pkg/scanner"
	"github.com/prismon/mcp-file-rules/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	log *logrus.Entry

	// Database path; empty resolves to the home directory default
	dbPath string

	// Scan and watch options
	sourceLocation string
	workerCount    int

	// Classify options
	applyActions bool

	// Rule listing options
	enabledOnly bool

	// Rule authoring options
	rulePriority   int
	ruleConditions string
	ruleOperator   string
	ruleExclusions string
	ruleAction     string
	ruleDest       string
	ruleChaining   bool
	ruleMaxDepth   int

	// Server options
	port int
	host string
)

func init() {
	log = logger.WithName("cli")
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "mcp-file-rules",
		Short: "Rule-based file classification engine",
		Long: `mcp-file-rules - Rule-based file classification built with Go.

It scans directories into file snapshots, evaluates user-authored rules
against them with priority ordering and chained re-evaluation, and
records every decision for audit.`,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database file (default: home directory rules.db)")

	var scanCmd = &cobra.Command{
		Use:   "scan <root>",
		Short: "Scan a directory tree into file snapshots",
		Args:  cobra.ExactArgs(1),
		Run:   runScan,
	}
	scanCmd.Flags().StringVar(&sourceLocation, "location", "", "Location tag stored on every snapshot (default: the root path)")
	scanCmd.Flags().IntVar(&workerCount, "workers", 8, "Number of parallel workers")

	var watchCmd = &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and classify files as they arrive",
		Args:  cobra.ExactArgs(1),
		Run:   runWatch,
	}
	watchCmd.Flags().StringVar(&sourceLocation, "location", "", "Location tag for incoming files (default: the watched directory)")
	watchCmd.Flags().BoolVar(&applyActions, "apply", false, "Apply rule actions and follow chains")

	var classifyCmd = &cobra.Command{
		Use:   "classify <path>",
		Short: "Classify one file against the enabled rules",
		Args:  cobra.ExactArgs(1),
		Run:   runClassify,
	}
	classifyCmd.Flags().StringVar(&sourceLocation, "location", "", "Location tag for the file (default: containing directory)")
	classifyCmd.Flags().BoolVar(&applyActions, "apply", false, "Apply rule actions and follow chains")

	var classifyLocationCmd = &cobra.Command{
		Use:   "classify-location <location>",
		Short: "Classify every scanned file under a source location",
		Args:  cobra.ExactArgs(1),
		Run:   runClassifyLocation,
	}
	classifyLocationCmd.Flags().BoolVar(&applyActions, "apply", false, "Apply rule actions and follow chains")

	var rulesListCmd = &cobra.Command{
		Use:   "rules-list",
		Short: "List classification rules",
		Run:   runRulesList,
	}
	rulesListCmd.Flags().BoolVar(&enabledOnly, "enabled-only", false, "Only show enabled rules")

	var rulesAddCmd = &cobra.Command{
		Use:   "rules-add <name>",
		Short: "Create a classification rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesAdd,
	}
	rulesAddCmd.Flags().IntVar(&rulePriority, "priority", 100, "Evaluation priority; lower runs earlier")
	rulesAddCmd.Flags().StringVar(&ruleConditions, "conditions", "", `Inclusion conditions as a JSON array, e.g. [{"type":"extension","value":"pdf"}]`)
	rulesAddCmd.Flags().StringVar(&ruleOperator, "operator", "and", "How inclusion conditions combine: and, or, single")
	rulesAddCmd.Flags().StringVar(&ruleExclusions, "exclusions", "", "Exclusion conditions as a JSON array")
	rulesAddCmd.Flags().StringVar(&ruleAction, "action", "", "Action on match: move, rename, retag")
	rulesAddCmd.Flags().StringVar(&ruleDest, "dest", "", "Action target: destination location, new name, or kind tag")
	rulesAddCmd.Flags().BoolVar(&ruleChaining, "chain", false, "Re-evaluate the file after this rule's action applies")
	rulesAddCmd.Flags().IntVar(&ruleMaxDepth, "max-depth", 10, "Chain depth bound when chaining is enabled")
	_ = rulesAddCmd.MarkFlagRequired("conditions")
	_ = rulesAddCmd.MarkFlagRequired("action")

	var rulesEnableCmd = &cobra.Command{
		Use:   "rules-enable <name>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { runRuleToggle(args[0], true) },
	}

	var rulesDisableCmd = &cobra.Command{
		Use:   "rules-disable <name>",
		Short: "Disable a rule",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { runRuleToggle(args[0], false) },
	}

	var rulesDeleteCmd = &cobra.Command{
		Use:   "rules-delete <name>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesDelete,
	}

	var decisionsCmd = &cobra.Command{
		Use:   "decisions <batch-id>",
		Short: "Show recorded decisions for a batch",
		Args:  cobra.ExactArgs(1),
		Run:   runDecisions,
	}

	var serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP and MCP server",
		Run:   runServer,
	}
	serverCmd.Flags().IntVar(&port, "port", 3000, "Port to listen on")
	serverCmd.Flags().StringVar(&host, "host", "localhost", "Host to bind")

	rootCmd.AddCommand(scanCmd, watchCmd, classifyCmd, classifyLocationCmd,
		rulesListCmd, rulesAddCmd, rulesEnableCmd, rulesDisableCmd, rulesDeleteCmd,
		decisionsCmd, serverCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openDB opens the rules database, resolving the default path through
// the home directory when --db is not set.
func openDB() *database.RulesDB {
	path := dbPath
	if path == "" {
		mgr, err := home.NewManager("")
		if err != nil {
			fatal("Failed to resolve home directory", err)
		}
		if err := mgr.Initialize(); err != nil {
			fatal("Failed to initialize home directory", err)
		}
		path = mgr.DatabasePath()
	}

	db, err := database.NewRulesDB(path)
	if err != nil {
		fatal("Failed to open database", err)
	}
	return db
}

func fatal(msg string, err error) {
	log.WithError(err).Error(msg)
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("Failed to marshal output", err)
	}
	fmt.Println(string(data))
}

func runScan(cmd *cobra.Command, args []string) {
	root := args[0]
	log.WithFields(logrus.Fields{
		"command": "scan",
		"root":    root,
	}).Info("Executing command")

	db := openDB()
	defer db.Close()

	opts := scanner.DefaultScanOptions()
	opts.WorkerCount = workerCount
	opts.SourceLocation = sourceLocation

	stats, err := scanner.Scan(context.Background(), root, db, opts)
	if err != nil {
		fatal("Scan failed", err)
	}

	fmt.Printf("Scanned %d files (%.2f MB) with %d errors in %s\n",
		stats.FilesScanned, float64(stats.TotalSize)/(1024*1024),
		stats.Errors, stats.Duration)
}

// classifyOne chains one described file through the enabled rules and
// records the decision.
func classifyOne(ctx context.Context, db *database.RulesDB, file *models.FileDescriptor, apply bool) (*models.MatchOutcome, string, error) {
	start := time.Now()

	rules, err := db.ListRules(true)
	if err != nil {
		return nil, "", err
	}

	var applyFn engine.ApplyActionFunc
	if apply {
		applyFn = actions.NewPlanner().Apply
	}

	outcome := engine.NewEvaluator().ChainEvaluate(ctx, file, rules, applyFn)

	batchID := uuid.NewString()
	if err := db.RecordDecision(batchID, outcome, time.Since(start).Milliseconds()); err != nil {
		return nil, "", err
	}
	return outcome, batchID, nil
}

func runClassify(cmd *cobra.Command, args []string) {
	target := args[0]
	log.WithFields(logrus.Fields{
		"command": "classify",
		"target":  target,
		"apply":   applyActions,
	}).Info("Executing command")

	db := openDB()
	defer db.Close()

	file, err := scanner.Describe(target, sourceLocation)
	if err != nil {
		fatal("Failed to describe file", err)
	}

	outcome, batchID, err := classifyOne(context.Background(), db, file, applyActions)
	if err != nil {
		fatal("Classification failed", err)
	}

	fmt.Printf("Batch: %s\n", batchID)
	printOutcome(outcome)
}

func runClassifyLocation(cmd *cobra.Command, args []string) {
	location := args[0]
	log.WithFields(logrus.Fields{
		"command":  "classify-location",
		"location": location,
		"apply":    applyActions,
	}).Info("Executing command")

	db := openDB()
	defer db.Close()

	files, err := db.ListFiles(location)
	if err != nil {
		fatal("Failed to load file snapshots", err)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No snapshots found for location %q; run scan first\n", location)
		os.Exit(1)
	}

	rules, err := db.ListRules(true)
	if err != nil {
		fatal("Failed to load rules", err)
	}

	opts := engine.DefaultBatchOptions()
	if applyActions {
		opts.Apply = actions.NewPlanner().Apply
	}

	batch, err := engine.NewEvaluator().EvaluateBatch(context.Background(), files, rules, opts)
	if err != nil {
		fatal("Batch classification failed", err)
	}

	matched := 0
	for _, outcome := range batch.Outcomes {
		if err := db.RecordDecision(batch.BatchID, outcome, batch.Duration.Milliseconds()); err != nil {
			fatal("Failed to record decision", err)
		}
		if outcome.MatchedRule != nil {
			matched++
		}
	}

	fmt.Printf("Batch %s: %d/%d files matched in %s\n",
		batch.BatchID, matched, len(batch.Outcomes), batch.Duration)
}

func runWatch(cmd *cobra.Command, args []string) {
	dir := args[0]
	log.WithFields(logrus.Fields{
		"command": "watch",
		"dir":     dir,
		"apply":   applyActions,
	}).Info("Executing command")

	db := openDB()
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := scanner.NewWatcher(dir, sourceLocation, func(file *models.FileDescriptor) {
		if err := db.UpsertFile(file); err != nil {
			log.WithError(err).WithField("path", file.Path).Warn("Failed to store snapshot")
		}

		outcome, batchID, err := classifyOne(ctx, db, file, applyActions)
		if err != nil {
			log.WithError(err).WithField("path", file.Path).Warn("Classification failed")
			return
		}

		if outcome.MatchedRule != nil {
			fmt.Printf("[%s] %s -> %s (%s)\n", batchID, file.Name,
				outcome.MatchedRule.Name, outcome.TerminationReason)
		} else {
			fmt.Printf("[%s] %s -> no match\n", batchID, file.Name)
		}
	})

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
	if err := watcher.Run(ctx); err != nil {
		fatal("Watch failed", err)
	}
}

func printOutcome(outcome *models.MatchOutcome) {
	if outcome.MatchedRule != nil {
		fmt.Printf("Matched rule: %s (priority %d)\n", outcome.MatchedRule.Name, outcome.MatchedRule.Priority)
	} else {
		fmt.Println("Matched rule: none")
	}
	fmt.Printf("Termination: %s\n", outcome.TerminationReason)
	if len(outcome.AppliedRuleIDs) > 0 {
		fmt.Printf("Applied rules: %v\n", outcome.AppliedRuleIDs)
		fmt.Printf("Final location: %s\n", outcome.FinalFile.SourceLocation)
	}
	if outcome.Err != nil {
		fmt.Printf("Error: %v\n", outcome.Err)
	}
}

func runRulesList(cmd *cobra.Command, args []string) {
	db := openDB()
	defer db.Close()

	rules, err := db.ListRules(enabledOnly)
	if err != nil {
		fatal("Failed to list rules", err)
	}

	printJSON(rules)
}

func runRulesAdd(cmd *cobra.Command, args []string) {
	name := args[0]

	var conditions []*models.Condition
	if err := json.Unmarshal([]byte(ruleConditions), &conditions); err != nil {
		fatal("Invalid conditions JSON", err)
	}

	var exclusions []*models.Condition
	if ruleExclusions != "" {
		if err := json.Unmarshal([]byte(ruleExclusions), &exclusions); err != nil {
			fatal("Invalid exclusions JSON", err)
		}
	}

	rule := &models.Rule{
		Name:                name,
		Priority:            rulePriority,
		Enabled:             true,
		Conditions:          conditions,
		LogicalOperator:     models.LogicalOperator(ruleOperator),
		ExclusionConditions: exclusions,
		ActionKind:          models.ActionKind(ruleAction),
		DestinationRef:      ruleDest,
		ChainingEnabled:     ruleChaining,
		MaxChainDepth:       ruleMaxDepth,
	}

	db := openDB()
	defer db.Close()

	id, err := db.CreateRule(rule)
	if err != nil {
		fatal("Failed to create rule", err)
	}

	fmt.Printf("Created rule %q with id %d\n", name, id)
}

func runRuleToggle(name string, enabled bool) {
	db := openDB()
	defer db.Close()

	if err := db.SetRuleEnabled(name, enabled); err != nil {
		fatal("Failed to update rule", err)
	}

	fmt.Printf("Rule %q enabled=%t\n", name, enabled)
}

func runRulesDelete(cmd *cobra.Command, args []string) {
	db := openDB()
	defer db.Close()

	if err := db.DeleteRule(args[0]); err != nil {
		fatal("Failed to delete rule", err)
	}

	fmt.Printf("Deleted rule %q\n", args[0])
}

func runDecisions(cmd *cobra.Command, args []string) {
	db := openDB()
	defer db.Close()

	decisions, err := db.ListDecisions(args[0])
	if err != nil {
		fatal("Failed to list decisions", err)
	}

	printJSON(decisions)
}

func runServer(cmd *cobra.Command, args []string) {
	db := openDB()
	defer db.Close()

	mgr, err := home.NewManager("")
	if err != nil {
		fatal("Failed to resolve home directory", err)
	}

	config := home.DefaultConfig()
	if mgr.Exists() {
		if loaded, err := mgr.LoadConfig(); err == nil {
			config = loaded
		}
	}

	if cmd.Flags().Changed("port") {
		config.Server.Port = port
	}
	if cmd.Flags().Changed("host") {
		config.Server.Host = host
	}

	if err := logger.ConfigureFromString(config.Logging.Level); err != nil {
		log.WithError(err).Warn("Invalid log level in config, keeping default")
	}

	if err := server.Start(config, db); err != nil {
		fatal("Server failed", err)
	}
}
