package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thomasbaier2/SecondBrain/internal/agents"
	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/embedding"
	"github.com/thomasbaier2/SecondBrain/internal/llm"
	"github.com/thomasbaier2/SecondBrain/internal/mcp"
	"github.com/thomasbaier2/SecondBrain/internal/memory"
	"github.com/thomasbaier2/SecondBrain/internal/orchestrator"
	"github.com/thomasbaier2/SecondBrain/internal/policy"
	"github.com/thomasbaier2/SecondBrain/internal/priority"
	"github.com/thomasbaier2/SecondBrain/internal/storage"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

// app bundles the wired components behind each command.
type app struct {
	cfg     *config.Config
	store   *storage.BrainStore
	index   *memory.Index
	orch    *orchestrator.Orchestrator
	watcher *config.Watcher
}

var rootCmd = &cobra.Command{
	Use:   "brain",
	Short: "SecondBrain - personal assistant orchestration core",
	Long: `SecondBrain routes natural-language requests to domain agents (mail,
calendar, CRM, tasks), scores tasks on the Eisenhower matrix, and keeps a
similarity-searchable memory of everything it stores.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with the assistant",
	RunE:  runChat,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage stored tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Store a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, optionally Eisenhower-ranked for a window",
	RunE:  runTaskList,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Work with the similarity memory",
}

var memoryIndexCmd = &cobra.Command{
	Use:   "index [text]",
	Short: "Add a snippet to memory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemoryIndex,
}

var memorySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search memory by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemorySearch,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Promote overdue tasks to urgent",
	RunE:  runSweep,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant over MCP on stdio",
	RunE:  runMCP,
}

// Flags for task commands.
var (
	taskDeadline   string
	taskImportance int
	taskUrgency    int
	taskCategory   string
	taskStatus     string
	taskWindow     string
	searchLimit    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "secondbrain.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	taskAddCmd.Flags().StringVar(&taskDeadline, "deadline", "", "deadline (RFC 3339)")
	taskAddCmd.Flags().IntVar(&taskImportance, "importance", 0, "importance score 1-10")
	taskAddCmd.Flags().IntVar(&taskUrgency, "urgency", 0, "urgency score 1-10")
	taskAddCmd.Flags().StringVar(&taskCategory, "category", "", "category")
	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "filter by status (open, completed)")
	taskListCmd.Flags().StringVar(&taskWindow, "window", "", "Eisenhower window (today, week, month, all)")
	memorySearchCmd.Flags().IntVar(&searchLimit, "limit", 3, "maximum results")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskRmCmd)
	memoryCmd.AddCommand(memoryIndexCmd, memorySearchCmd)
	rootCmd.AddCommand(chatCmd, taskCmd, memoryCmd, sweepCmd, mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildLogger maps the logging config onto a zap logger. Console format uses
// the development encoder so interactive output stays readable.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// buildApp wires the full component graph. The embedding index and the
// generation client are optional: without API keys the assistant still runs
// with text-search fallback and canned synthesis.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient, err = llm.New(cfg.LLM, logger)
		if err != nil {
			logger.Warn("generation client unavailable", zap.Error(err))
		}
	}

	var index *memory.Index
	if cfg.Embedding.APIKey != "" {
		embedder, err := embedding.New(cfg.Embedding, logger)
		if err != nil {
			logger.Warn("embedder unavailable", zap.Error(err))
		} else {
			index, err = memory.NewIndex(cfg.Storage.MemoryPath, embedder, logger)
			if err != nil {
				return nil, err
			}
		}
	}

	engine := priority.NewEngine(cfg.Triage)

	var memIndex storage.MemoryIndex
	if index != nil {
		memIndex = index
	}
	store, err := storage.Open(cfg.Storage.BrainPath, engine, memIndex, logger)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(cfg.Intents, policy.DefaultRegistry(cfg.Policy), llmClient, logger)
	registerAgents(orch, store)

	watcher, err := config.NewWatcher(configPath, logger, func(updated *config.Config) {
		engine.UpdateTriage(updated.Triage)
		orch.UpdateIntents(updated.Intents)
	})
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		watcher = nil
	}

	return &app{cfg: cfg, store: store, index: index, orch: orch, watcher: watcher}, nil
}

// registerAgents binds the domain agents. Connectors are the deterministic
// mocks; swapping in real provider clients happens here.
func registerAgents(orch *orchestrator.Orchestrator, store *storage.BrainStore) {
	must := func(err error) {
		if err != nil {
			logger.Fatal("agent registration failed", zap.Error(err))
		}
	}
	must(orch.RegisterAgent(types.DomainGmail, agents.NewGmailAgent(agents.NewMockGmail(), logger)))
	must(orch.RegisterAgent(types.DomainMsGraph, agents.NewGraphAgent(agents.NewMockGraph(), logger)))
	must(orch.RegisterAgent(types.DomainSalesforce, agents.NewSalesforceAgent(agents.NewMockSalesforce(), logger)))
	must(orch.RegisterAgent(types.DomainTasks, agents.NewTasksAgent(store, logger)))
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			logger.Warn("config watcher failed to start", zap.Error(err))
		} else {
			defer a.watcher.Stop()
		}
	}

	fmt.Printf("%s %s - Eingabe senden, 'exit' beendet.\n", a.cfg.Name, a.cfg.Version)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		resp := a.orch.ProcessRequest(ctx, line)
		fmt.Println(resp.Text)

		// Recall: surface related memory for context.
		if hits := a.store.Query(ctx, line, 3); len(hits) > 0 {
			fmt.Println("\nDazu erinnere ich mich an:")
			for _, hit := range hits {
				fmt.Printf("  - %s (%.2f)\n", hit.Text, hit.Score)
			}
		}

		if a.index != nil {
			if err := a.index.Index(ctx, line, map[string]any{"kind": "chat"}); err != nil {
				logger.Warn("failed to index chat line", zap.Error(err))
			}
		}

		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	task := types.Task{
		Title:         strings.Join(args, " "),
		ImportanceScr: taskImportance,
		UrgencyScr:    taskUrgency,
		Category:      taskCategory,
	}
	if taskDeadline != "" {
		deadline, err := time.Parse(time.RFC3339, taskDeadline)
		if err != nil {
			return fmt.Errorf("invalid deadline: %w", err)
		}
		task.DeadlineAt = &deadline
	}

	stored, err := a.store.StoreTask(cmd.Context(), task)
	if err != nil {
		return err
	}
	fmt.Printf("Stored %s (%s, %s)\n", stored.ID, stored.Type, stored.Priority)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if taskWindow != "" {
		scored := a.store.EisenhowerMatrix(types.Window(taskWindow), time.Now())
		for _, st := range scored {
			deadline := "-"
			if st.DeadlineAt != nil {
				deadline = st.DeadlineAt.Format("2006-01-02 15:04")
			}
			fmt.Printf("%-4s U%-2d I%-2d %-20s %s\n",
				st.Quadrant, st.CalculatedUrgency, st.CalculatedImportance, deadline, st.Title)
		}
		return nil
	}

	for _, task := range a.store.Tasks(storage.TaskFilter{Status: taskStatus}) {
		fmt.Printf("%s  [%s/%s]  %s\n", task.ID, task.Status, task.Priority, task.Title)
	}
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	_, err = a.store.UpdateTask(cmd.Context(), args[0], func(task *types.Task) {
		task.Status = types.StatusCompleted
	})
	if err != nil {
		return err
	}
	fmt.Println("Done:", args[0])
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.store.DeleteTask(args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted:", args[0])
	return nil
}

func runMemoryIndex(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	if a.index == nil {
		return fmt.Errorf("no embedder configured (set GEMINI_API_KEY or OPENAI_API_KEY)")
	}

	text := strings.Join(args, " ")
	if err := a.index.Index(cmd.Context(), text, map[string]any{"kind": "manual"}); err != nil {
		return err
	}
	fmt.Printf("Indexed (%d records)\n", a.index.Len())
	return nil
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	hits := a.store.Query(cmd.Context(), strings.Join(args, " "), searchLimit)
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, hit := range hits {
		fmt.Printf("%.3f  %s\n", hit.Score, hit.Text)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	changed, err := a.store.RefreshUrgency(time.Now())
	if err != nil {
		return err
	}
	if changed {
		fmt.Println("Urgency refreshed: tasks promoted.")
	} else {
		fmt.Println("Urgency refreshed: nothing to promote.")
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err == nil {
			defer a.watcher.Stop()
		}
	}

	server := mcp.NewServer(a.orch, a.store, a.cfg.Version)
	logger.Info("serving MCP on stdio", zap.String("version", a.cfg.Version))
	return server.Run(ctx)
}
