// Package main provides the CLI entry point for push, a provider-agnostic
// coding agent core: LLM streaming, hashline-based file editing, workspace
// tools, skills, and session persistence wired behind a REPL.
//
// # Basic Usage
//
// Enter the interactive REPL in the current workspace:
//
//	push
//
// List saved sessions or inspect config without entering the REPL:
//
//	push sessions list
//	push config show
//	push version
//
// # Environment Variables
//
//   - PUSH_CONFIG_PATH: path to the user config file (default ~/.push/config.json)
//   - PUSH_SESSION_DIR: session storage root (default ~/.push/sessions)
//   - PUSH_PROVIDER: active LLM provider id
//   - PUSH_<PROVIDER>_{URL,API_KEY,MODEL}: per-provider overrides
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/push/internal/agent"
	"github.com/haasonsaas/push/internal/agent/providers"
	"github.com/haasonsaas/push/internal/config"
	"github.com/haasonsaas/push/internal/observability"
	"github.com/haasonsaas/push/internal/repl"
	"github.com/haasonsaas/push/internal/sessions"
	sessiontools "github.com/haasonsaas/push/internal/tools/sessions"
	"github.com/haasonsaas/push/internal/skills"
	"github.com/haasonsaas/push/internal/tools/diagnostics"
	execpkg "github.com/haasonsaas/push/internal/tools/exec"
	"github.com/haasonsaas/push/internal/tools/files"
	"github.com/haasonsaas/push/internal/tools/git"
	"github.com/haasonsaas/push/internal/tools/memory"
	"github.com/haasonsaas/push/internal/tools/policy"
	"github.com/haasonsaas/push/internal/tools/symbols"
	"github.com/haasonsaas/push/internal/tools/websearch"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exit codes, exactly per spec.md §6.
const (
	exitOK             = 0
	exitInvalidArgs    = 2
	exitProviderDown   = 3
	exitApprovalDenied = 4
	exitInterrupted    = 130
)

func main() {
	os.Exit(run())
}

// run builds and executes the root command, returning the process exit code
// rather than calling os.Exit directly so it stays testable.
func run() int {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return exitInvalidArgs
	}
	return lastExitCode
}

// lastExitCode lets subcommands communicate a non-default exit code back to
// run() without cobra's own os.Exit(1) on every returned error.
var lastExitCode = exitOK

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "push",
		Short: "push - a provider-agnostic coding agent core",
		Long: `push drives a tool-using LLM loop over a local workspace: streaming
responses from any configured provider, editing files through hashline
addressing, running shell commands, searching the web, and persisting
sessions to disk.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildSessionsCmd(),
		buildConfigCmd(),
		buildVersionCmd(),
	)

	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "push %s (commit %s, built %s)\n", version, commit, date)
			return nil
		},
	}
}

func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				lastExitCode = exitInvalidArgs
				return err
			}
			out, err := cfg.Redacted()
			if err != nil {
				lastExitCode = exitInvalidArgs
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	})
	return cmd
}

func buildSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions newest-first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				lastExitCode = exitInvalidArgs
				return err
			}
			fileStore, err := sessions.NewFileStore(cfg.SessionDir)
			if err != nil {
				lastExitCode = exitInvalidArgs
				return err
			}
			store := sessions.NewFileBackedStore(fileStore)
			list, err := store.List(cmd.Context(), "push", sessions.ListOptions{})
			if err != nil {
				lastExitCode = exitInvalidArgs
				return err
			}
			for _, s := range list {
				title := s.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.UpdatedAt.Format("2006-01-02 15:04:05"), title)
			}
			return nil
		},
	})
	return cmd
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Enter the interactive REPL (also the default when no subcommand is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context())
		},
	}
}

// runREPL is also invoked when push is run with no subcommand, so that
// `push` alone drops straight into the agent loop.
func runREPL(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		lastExitCode = exitInvalidArgs
		return err
	}

	obsLogger := observability.NewLogger(observability.LogConfig{
		Level:  "info",
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	workspace, err := os.Getwd()
	if err != nil {
		lastExitCode = exitInvalidArgs
		return err
	}
	if cfg.Workspace != "" && cfg.Workspace != "." {
		workspace = cfg.Workspace
	}

	fileStore, err := sessions.NewFileStore(cfg.SessionDir)
	if err != nil {
		lastExitCode = exitInvalidArgs
		return err
	}
	store := sessions.NewFileBackedStore(fileStore)

	skillMgr := skills.NewManager(workspace)
	if err := skillMgr.Discover(ctx); err != nil {
		obsLogger.Warn(ctx, "skill discovery failed", "error", err)
	}

	resolver := policy.NewResolver()
	toolPolicy := policy.NewPolicy(policy.ProfileCoding)
	ctx = agent.WithToolPolicy(ctx, resolver, toolPolicy)

	metrics := observability.NewMetrics()

	// buildRuntime constructs a fully wired Runtime for providerID: the
	// repl.RuntimeFactory it hands to repl.NewREPL, called once at startup
	// and again every time the user issues /provider <id>.
	buildRuntime := func(providerID string) (*agent.Runtime, error) {
		providerCfg := cfg.ProviderConfigFor(providerID)
		provider, err := providers.New(providerID, providers.ProviderSettings{
			APIKey:       providerCfg.APIKey,
			BaseURL:      providerCfg.BaseURL,
			DefaultModel: providerCfg.DefaultModel,
		})
		if err != nil {
			return nil, err
		}

		runtimeOpts := agent.DefaultRuntimeOptions()
		runtimeOpts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

		runtime := agent.NewRuntimeWithOptions(provider, store, runtimeOpts)
		runtime.SetMetrics(metrics)
		registerCoreTools(runtime, cfg, workspace)
		registerSessionTools(runtime, store)
		return runtime, nil
	}

	runtime, err := buildRuntime(cfg.Provider)
	if err != nil {
		obsLogger.Error(ctx, "failed to construct provider", "provider", cfg.Provider, "error", err)
		lastExitCode = exitProviderDown
		return err
	}

	term := repl.NewREPL(repl.Config{
		Runtime:        runtime,
		Store:          store,
		AppConfig:      cfg,
		Version:        version,
		Workspace:      workspace,
		SkillManager:   skillMgr,
		RuntimeFactory: buildRuntime,
	})
	if err := term.Run(ctx); err != nil {
		if ctx.Err() != nil {
			lastExitCode = exitInterrupted
			return nil
		}
		lastExitCode = exitInvalidArgs
		return err
	}
	return nil
}

// registerCoreTools wires spec.md §4.2's core tool set against the
// workspace: file read/edit/write/list/search/patch/undo, git
// status/diff/commit, shell exec + background process management, web
// search/fetch, durable memory notes, symbol reading, and diagnostics.
func registerCoreTools(runtime *agent.Runtime, cfg *config.Config, workspace string) {
	filesCfg := files.Config{Workspace: workspace, MaxReadBytes: 1 << 20}
	runtime.RegisterTool(files.NewReadTool(filesCfg))
	runtime.RegisterTool(files.NewEditTool(filesCfg))
	runtime.RegisterTool(files.NewWriteTool(filesCfg))
	runtime.RegisterTool(files.NewListDirTool(filesCfg))
	runtime.RegisterTool(files.NewSearchFilesTool(filesCfg))
	runtime.RegisterTool(files.NewPatchsetTool(filesCfg))
	runtime.RegisterTool(files.NewUndoEditTool(filesCfg))

	gitCfg := git.Config{Workspace: workspace}
	runtime.RegisterTool(git.NewStatusTool(gitCfg))
	runtime.RegisterTool(git.NewDiffTool(gitCfg))
	runtime.RegisterTool(git.NewCommitTool(gitCfg, "", ""))

	execManager := execpkg.NewManager(workspace)
	runtime.RegisterTool(execpkg.NewExecTool("exec", execManager))
	runtime.RegisterTool(execpkg.NewProcessTool(execManager))

	searchBackend := websearch.BackendDuckDuckGo
	if cfg.WebSearch.Backend == string(websearch.BackendTavily) {
		searchBackend = websearch.BackendTavily
	}
	runtime.RegisterTool(websearch.NewWebSearchTool(&websearch.Config{
		TavilyAPIKey:       cfg.WebSearch.TavilyAPIKey,
		DefaultBackend:     searchBackend,
		ExtractContent:     true,
		DefaultResultCount: 5,
		CacheTTL:           300,
	}))
	runtime.RegisterTool(websearch.NewWebFetchTool(&websearch.FetchConfig{MaxChars: 20000}))

	memCfg := memory.Config{Workspace: workspace}
	runtime.RegisterTool(memory.NewSaveMemoryTool(memCfg))
	workingState := memory.NewWorkingState()
	runtime.RegisterTool(memory.NewCoderUpdateStateTool(workingState))

	runtime.RegisterTool(symbols.NewReadSymbolsTool(symbols.Config{Workspace: workspace}))
	runtime.RegisterTool(diagnostics.NewRunDiagnosticsTool(diagnostics.Config{Workspace: workspace}, execManager))
}

// registerSessionTools wires the session-introspection and
// sub-session-delegation tools beyond spec.md's core 16: listing sessions,
// reading a session's history, reporting status, and sending a message to
// another session (optionally waiting for its response) — all of which work
// unmodified against the single-process FileBackedStore+Runtime pair.
func registerSessionTools(runtime *agent.Runtime, store sessions.Store) {
	runtime.RegisterTool(sessiontools.NewListTool(store, "push"))
	runtime.RegisterTool(sessiontools.NewHistoryTool(store))
	runtime.RegisterTool(sessiontools.NewStatusTool(store))
	runtime.RegisterTool(sessiontools.NewSendTool(store, runtime))
}
