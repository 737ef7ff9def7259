package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/config"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/render/preheat"
	"github.com/deepchat/deepchat/internal/runtime"
	"github.com/deepchat/deepchat/internal/sandbox"
	"github.com/deepchat/deepchat/internal/session"
	"github.com/deepchat/deepchat/internal/signal"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/widget"
)

// appName names the config/data directories and the persisted session
// file, grounded on SPEC_FULL's use of deepchat as the module's short
// name (the teacher's equivalent constant names its own binary
// "term-llm").
const appName = "deepchat"

var (
	modelFlag          string
	systemFlag         string
	baseURLFlag        string
	configFlag         string
	resumeFlag         string
	replayForkLastFlag bool
	enableFlag         string
	logRequestsFlag    string
	perfFlag           bool
	questionSetFlag    string
	workspaceFlag      string
	yoloFlag           bool
	readOnlyFlag       bool
	waitGDBFlag        bool
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Interactive multi-tab terminal chat client",
	Long: `deepchat is an interactive terminal chat client: multiple
conversation tabs grouped into categories, streaming assistant replies,
and a broker that pauses the turn for approval before running code or
writing a file.

Keyboard shortcuts:
  Tab          - Switch focus between chat and input
  Enter        - Send message (input focused)
  F1           - Help overlay
  F2           - Jump to a message
  F3           - Conversation summary
  F4           - Switch model
  F5           - Switch prompt
  Ctrl+Left/Right - Previous/next tab
  Ctrl+Q       - Quit`,
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "Model key from the config file's models list to use")
	rootCmd.Flags().StringVar(&systemFlag, "system", "", "System prompt text")
	rootCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Override the active provider's API base URL")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Path to a config file, overriding the default search path")
	rootCmd.Flags().StringVar(&resumeFlag, "resume", "", "Resume a saved conversation by id")
	rootCmd.Flags().BoolVar(&replayForkLastFlag, "replay-fork-last", false, "With --resume, drop the last assistant message if the conversation ends with one (nothing is resent)")
	rootCmd.Flags().StringVar(&enableFlag, "enable", "", "Comma-separated tool enable/disable list, e.g. +code_exec,-web_search")
	rootCmd.Flags().StringVar(&logRequestsFlag, "log-requests", "", "Directory to log session start and every outbound LLM request as JSONL (responses are not logged)")
	rootCmd.Flags().BoolVar(&perfFlag, "perf", false, "Print a perf-mode startup line to stderr (no per-request timing is recorded)")
	rootCmd.Flags().StringVar(&questionSetFlag, "question-set", "", "Path to a scripted question set (test harness)")
	rootCmd.Flags().StringVar(&workspaceFlag, "workspace", "", "Workspace root directory (defaults to the current directory)")
	rootCmd.Flags().BoolVar(&yoloFlag, "yolo", false, "Auto-approve code_exec and close its overlay once it finishes, without prompting")
	rootCmd.Flags().BoolVar(&readOnlyFlag, "read-only", false, "Disable file-write tools for this session")
	rootCmd.Flags().BoolVar(&waitGDBFlag, "wait-gdb", false, "Print this process's PID and wait for Enter before starting, for debugger attach")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if waitGDBFlag {
		waitForDebugger()
	}

	if configFlag != "" {
		viper.SetConfigFile(configFlag)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(modelFlag)

	modelCfg := cfg.ModelByKey(cfg.DefaultModel)
	if modelCfg == nil {
		return fmt.Errorf("no model configured for key %q", cfg.DefaultModel)
	}
	if baseURLFlag != "" {
		modelCfg.BaseURL = baseURLFlag
	}

	provider, err := llm.NewAnthropicProvider(modelCfg.APIKey, modelCfg.BaseURL, modelCfg.Model)
	if err != nil {
		return fmt.Errorf("failed to create provider for model %s: %w", modelCfg.Key, err)
	}
	modelName := modelCfg.Model
	maxOutputTokens := modelCfg.MaxTokens

	workspaceRoot := workspaceFlag
	if workspaceRoot == "" {
		workspaceRoot, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}
	workspace, err := broker.NewWorkspace(workspaceRoot)
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}

	var debugLogger *llm.DebugLogger
	if logRequestsFlag != "" {
		sessionID := strconv.FormatInt(time.Now().UnixNano(), 10)
		debugLogger, err = llm.NewDebugLogger(logRequestsFlag, sessionID)
		if err != nil {
			return fmt.Errorf("failed to open request log: %w", err)
		}
		debugLogger.LogSessionStart(appName, args, workspace.Root)
		defer debugLogger.Close()
	}

	// Detect the terminal's background once, before bubbletea takes over
	// the screen (termenv's OSC 11 query can fail once alt-screen mode is
	// active), and tell lipgloss explicitly so the theme and glamour agree.
	hasDarkBg := termenv.HasDarkBackground()
	lipgloss.SetHasDarkBackground(hasDarkBg)
	theme := render.DarkTheme()
	if !hasDarkBg {
		theme = render.LightTheme()
	}
	model := tabs.NewModel(systemFlag, modelCfg.Key, "default")
	if resumeFlag != "" {
		if err := resumeConversation(model, resumeFlag); err != nil {
			return fmt.Errorf("failed to resume conversation %s: %w", resumeFlag, err)
		}
	}

	pool := preheat.New(widget.PreheatRenderFunc(theme))

	ctx, stop := signal.NotifyContext()
	defer stop()

	llmOut := make(chan runtime.TaggedStreamEvent, 64)
	loop := &runtime.Loop{
		Model:  model,
		Theme:  theme,
		Width:  80,
		Height: 24,
		Pool:   pool,
		Send:   sendFn(ctx, provider, modelName, maxOutputTokens, debugLogger, llmOut),
	}
	rootWidget := widget.NewRoot(model, theme)
	loop.Root = rootWidget

	dispatcher := &runtime.Dispatcher{
		Model:    model,
		Spawner:  &sandbox.Runner{WorkspaceDir: workspace.Root},
		Applier:  broker.FileApplier{},
		Session:  &runtime.FileSessionHandler{AppName: appName},
		SysPrmpt: systemFlag,
		ModelKey: modelCfg.Key,
		Prompt:   "default",
		Overlay:  &rootWidget.Overlay,
		ToolDispatch: &broker.DispatchConfig{
			Workspace:    workspace,
			Enabled:      buildDispatchEnabled(),
			ReadOnly:     readOnlyFlag,
			TavilyAPIKey: cfg.TavilyAPIKey,
		},
		YOLO: yoloFlag,
	}
	loop.ToolCalls = dispatcher.HandleToolCalls
	loop.Continue = continueFn(ctx, provider, modelName, maxOutputTokens, debugLogger, llmOut)

	if perfFlag {
		fmt.Fprintf(os.Stderr, "deepchat: perf timing enabled, workspace=%s\n", workspace.Root)
	}

	program := runtime.NewProgram(loop)
	src := runtime.Sources{
		LLM:      llmOut,
		Preheat:  pool.Results(),
		Terminal: make(chan runtime.TerminalChildEvent),
	}
	return program.Run(src, dispatcher.HandlePendingCommand)
}

// resumeConversation loads id's saved conversation into the model's one
// starting tab. --replay-fork-last additionally drops the trailing
// assistant message (if any), so the conversation ends on the last user
// message; no request is started for it, and the user's next send goes
// out as a new turn — original_source's equivalent CLI flag has no public
// spec beyond its name, so this is the Open Question's resolved
// interpretation (see DESIGN.md).
func resumeConversation(model *tabs.Model, id string) error {
	conv, err := session.LoadConversation(appName, id)
	if err != nil {
		return err
	}
	tab := model.Active()
	if tab == nil {
		return nil
	}
	tab.ConversationID = conv.ID
	tab.App.Messages = conv.Messages
	if replayForkLastFlag && len(tab.App.Messages) > 0 {
		if last := tab.App.Messages[len(tab.App.Messages)-1]; last.Role == llm.RoleAssistant {
			tab.App.Messages = tab.App.Messages[:len(tab.App.Messages)-1]
		}
	}
	return nil
}

// sendFn closes over the configured provider/tool specs/logger to build
// Loop.Send without internal/runtime importing any of them.
func sendFn(ctx context.Context, provider llm.Provider, modelName string, maxOutputTokens int, logger *llm.DebugLogger, out chan runtime.TaggedStreamEvent) runtime.SendFn {
	return func(tab *tabs.Tab, content string) *chatmodel.RequestHandle {
		req := llm.Request{
			Model:           modelName,
			MaxOutputTokens: maxOutputTokens,
			Tools:           broker.ToolSpecs(buildDispatchEnabled()),
		}
		if logger != nil {
			logger.LogRequest(provider.Name(), modelName, req)
		}
		return runtime.StartSend(ctx, tab, content, provider, req, out)
	}
}

// continueFn closes over the same provider/tool specs/logger sendFn uses,
// to build Loop.Continue for resuming a turn after a tool call resolves.
func continueFn(ctx context.Context, provider llm.Provider, modelName string, maxOutputTokens int, logger *llm.DebugLogger, out chan runtime.TaggedStreamEvent) runtime.ContinueFn {
	return func(tab *tabs.Tab) *chatmodel.RequestHandle {
		req := llm.Request{
			Model:           modelName,
			MaxOutputTokens: maxOutputTokens,
			Tools:           broker.ToolSpecs(buildDispatchEnabled()),
		}
		if logger != nil {
			logger.LogRequest(provider.Name(), modelName, req)
		}
		return runtime.StartContinue(ctx, tab, provider, req, out)
	}
}

// dispatchToolNames enumerates spec.md §4.7's tool classes by name, the
// set buildDispatchEnabled's --enable overrides apply against.
var dispatchToolNames = []string{"web_search", "read_file", "read_code", "list_dir", "modify_file", "code_exec"}

// buildDispatchEnabled seeds every broker tool class enabled, then
// applies --enable's "+x"/"-x" overrides on top.
func buildDispatchEnabled() map[string]bool {
	enabled := map[string]bool{}
	for _, name := range dispatchToolNames {
		enabled[name] = true
	}
	if enableFlag == "" {
		return enabled
	}
	for _, tok := range strings.Split(enableFlag, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch tok[0] {
		case '+':
			enabled[tok[1:]] = true
		case '-':
			enabled[tok[1:]] = false
		default:
			enabled[tok] = true
		}
	}
	return enabled
}

// waitForDebugger prints this process's PID and blocks on a line of
// stdin, so a developer can attach a debugger before the TUI takes over
// the terminal.
func waitForDebugger() {
	fmt.Fprintf(os.Stderr, "deepchat: pid %d, press Enter to continue\n", os.Getpid())
	bufio.NewReader(os.Stdin).ReadString('\n')
}
