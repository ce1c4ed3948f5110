// Package repl implements push's interactive terminal front end: a
// banner, a colored prompt, streamed assistant output, and the `/`-prefixed
// command surface (spec.md §6). Raw-mode and color detection are grounded
// on golang.org/x/term; output styling uses lipgloss since the teacher
// (a headless gateway daemon) renders no terminal UI of its own.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/haasonsaas/push/internal/agent"
	"github.com/haasonsaas/push/internal/completer"
	"github.com/haasonsaas/push/internal/config"
	agentctx "github.com/haasonsaas/push/internal/context"
	"github.com/haasonsaas/push/internal/sessions"
	"github.com/haasonsaas/push/internal/skills"
	"github.com/haasonsaas/push/pkg/models"
)

// RuntimeFactory builds a fully wired Runtime for the named provider id. The
// REPL calls it once at startup and again on every /provider switch.
type RuntimeFactory func(providerID string) (*agent.Runtime, error)

// Config configures a REPL instance.
type Config struct {
	Runtime        *agent.Runtime
	Store          sessions.Store
	AppConfig      *config.Config
	Version        string
	Workspace      string
	SkillManager   *skills.Manager
	RuntimeFactory RuntimeFactory

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// REPL drives the read-eval-print loop over a Runtime.
type REPL struct {
	runtime      *agent.Runtime
	store        sessions.Store
	cfg          *config.Config
	version      string
	workspace    string
	skillMgr     *skills.Manager
	factory      RuntimeFactory
	providerID   string

	in  *bufio.Reader
	out io.Writer
	err io.Writer

	session *models.Session

	color     bool
	styles    styleSet
	completer *completer.Completer
}

type styleSet struct {
	banner   lipgloss.Style
	title    lipgloss.Style
	dim      lipgloss.Style
	prompt   lipgloss.Style
	assist   lipgloss.Style
	toolName lipgloss.Style
	toolBody lipgloss.Style
	errStyle lipgloss.Style
	warn     lipgloss.Style
}

func newStyles(color bool) styleSet {
	p := func(s lipgloss.Style) lipgloss.Style {
		if !color {
			return lipgloss.NewStyle()
		}
		return s
	}
	return styleSet{
		banner:   p(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))),
		title:    p(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))),
		dim:      p(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))),
		prompt:   p(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))),
		assist:   p(lipgloss.NewStyle().Foreground(lipgloss.Color("15"))),
		toolName: p(lipgloss.NewStyle().Foreground(lipgloss.Color("3"))),
		toolBody: p(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))),
		errStyle: p(lipgloss.NewStyle().Foreground(lipgloss.Color("1"))),
		warn:     p(lipgloss.NewStyle().Foreground(lipgloss.Color("3"))),
	}
}

// NewREPL constructs a REPL from cfg, defaulting In/Out/Err to the process
// stdio streams and detecting color support from the output file descriptor,
// NO_COLOR, and FORCE_COLOR per spec.md §6.
func NewREPL(cfg Config) *REPL {
	in := cfg.In
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := cfg.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	color := detectColor(out)

	providerID := "anthropic"
	if cfg.AppConfig != nil && cfg.AppConfig.Provider != "" {
		providerID = cfg.AppConfig.Provider
	}

	skillMgr := cfg.SkillManager
	var skillNames completer.SkillNamesFunc
	if skillMgr != nil {
		skillNames = skillMgr.Names
	}

	return &REPL{
		runtime:    cfg.Runtime,
		store:      cfg.Store,
		cfg:        cfg.AppConfig,
		version:    cfg.Version,
		workspace:  cfg.Workspace,
		skillMgr:   skillMgr,
		factory:    cfg.RuntimeFactory,
		providerID: providerID,
		in:         bufio.NewReader(in),
		out:        out,
		err:        errOut,
		color:      color,
		styles:     newStyles(color),
		completer:  completer.New(cfg.Workspace, skillNames),
	}
}

// detectColor mirrors NO_COLOR/FORCE_COLOR conventions: FORCE_COLOR always
// wins, NO_COLOR disables unconditionally, otherwise color follows whether
// out is a real terminal.
func detectColor(out io.Writer) bool {
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Run starts a new session and drives the read-eval-print loop until /exit,
// /quit, EOF, or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	session := &models.Session{ChannelID: r.workspace}
	if err := r.store.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	r.session = session

	r.printBanner()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(r.out, r.styles.prompt.Render("> "))
		line, err := r.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			terminate, err := r.handleCommand(ctx, line)
			if err != nil {
				r.printError(err)
			}
			if terminate {
				return nil
			}
			continue
		}

		if err := r.send(ctx, line); err != nil {
			r.printError(err)
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintln(r.out, r.styles.banner.Render("push"))
	model := "(default)"
	if r.cfg != nil {
		if pc := r.cfg.ProviderConfigFor(r.providerID); pc.DefaultModel != "" {
			model = pc.DefaultModel
		}
	}
	versionStr := ""
	if r.version != "" && r.version != "dev" {
		versionStr = " v" + r.version
	}
	fmt.Fprintln(r.out, r.styles.title.Render("coding agent")+r.styles.dim.Render(versionStr))
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.dim.Render("  provider: ")+r.providerID+r.styles.dim.Render("  model: ")+model)
	fmt.Fprintln(r.out, r.styles.dim.Render("  dir:      ")+r.workspace)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.dim.Render("  type ")+r.styles.toolName.Render("/help")+r.styles.dim.Render(" for commands"))
	fmt.Fprintln(r.out)
}

func (r *REPL) printError(err error) {
	fmt.Fprintln(r.err, r.styles.errStyle.Render("error: "+err.Error()))
}

func (r *REPL) printWarning(msg string) {
	fmt.Fprintln(r.out, r.styles.warn.Render("warning: "+msg))
}

// printUnknownCommand warns about an unrecognized /command and, via the
// Completer, suggests the reserved commands and skill names it could have
// been a typo for.
func (r *REPL) printUnknownCommand(name string) {
	r.printWarning("unknown command: /" + name)
	if candidates := r.completer.Suggest("/" + name); len(candidates) > 0 {
		fmt.Fprintln(r.out, r.styles.dim.Render("  did you mean: /"+strings.Join(candidates, ", /")))
	}
}

// send appends text as a user message and streams the response.
func (r *REPL) send(ctx context.Context, text string) error {
	msg := &models.Message{Role: models.RoleUser, Content: text}
	chunks, err := r.runtime.Process(ctx, r.session, msg)
	if err != nil {
		return err
	}

	wroteText := false
	for chunk := range chunks {
		switch {
		case chunk.Error != nil:
			return chunk.Error
		case chunk.Text != "":
			fmt.Fprint(r.out, r.styles.assist.Render(chunk.Text))
			wroteText = true
		case chunk.ToolEvent != nil:
			r.printToolEvent(chunk.ToolEvent)
		}
	}
	if wroteText {
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) printToolEvent(ev *models.ToolEvent) {
	if ev == nil {
		return
	}
	fmt.Fprintln(r.out, r.styles.toolName.Render("  -> "+ev.ToolName))
}

// handleCommand dispatches a /-prefixed line. The returned bool is true when
// the REPL loop should terminate (i.e. /exit, /quit).
func (r *REPL) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	switch name {
	case "help":
		r.printHelp()
		return false, nil
	case "new":
		return false, r.cmdNew(ctx)
	case "session":
		return false, r.cmdSession(ctx, args)
	case "model":
		return false, r.cmdModel(args)
	case "provider":
		return false, r.cmdProvider(ctx, args)
	case "skills":
		return false, r.cmdSkills(ctx, args)
	case "compact":
		return false, r.cmdCompact(ctx)
	case "config":
		return false, r.cmdConfig()
	case "exit", "quit":
		return true, nil
	default:
		if r.skillMgr != nil {
			if prompt, ok := r.skillMgr.Expand(name, strings.Join(args, " ")); ok {
				return false, r.send(ctx, prompt)
			}
		}
		r.printUnknownCommand(name)
		return false, nil
	}
}

func (r *REPL) printHelp() {
	lines := []string{
		"/help                         show this message",
		"/new                          start a new session",
		"/session rename <title>       rename the current session",
		"/session rename --clear       clear the current session's title",
		"/model <id>                   set the active model for this session",
		"/provider <id>                switch provider (rebuilds the runtime)",
		"/skills [reload]              list or reload skills",
		"/<skill> [args]               expand a skill prompt and send it",
		"/compact                      force a context digest of this session",
		"/config                       show resolved config, secrets masked",
		"/exit or /quit                exit",
	}
	for _, l := range lines {
		fmt.Fprintln(r.out, r.styles.dim.Render("  "+l))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdNew(ctx context.Context) error {
	session := &models.Session{ChannelID: r.workspace}
	if err := r.store.Create(ctx, session); err != nil {
		return err
	}
	r.session = session
	fmt.Fprintln(r.out, r.styles.dim.Render("started new session "+session.ID))
	return nil
}

func (r *REPL) cmdSession(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "rename" {
		return fmt.Errorf("usage: /session rename <title> | /session rename --clear")
	}
	title := ""
	if len(args) >= 2 && args[1] != "--clear" {
		title = strings.Join(args[1:], " ")
	}
	r.session.Title = title
	return r.store.Update(ctx, r.session)
}

func (r *REPL) cmdModel(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /model <id>")
	}
	if r.session.Metadata == nil {
		r.session.Metadata = map[string]any{}
	}
	r.session.Metadata["model"] = args[0]
	r.runtime.SetDefaultModel(args[0])
	fmt.Fprintln(r.out, r.styles.dim.Render("model set to "+args[0]))
	return nil
}

func (r *REPL) cmdProvider(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: /provider <id>")
	}
	if r.factory == nil {
		return fmt.Errorf("provider switching is unavailable in this session")
	}
	newRuntime, err := r.factory(args[0])
	if err != nil {
		return fmt.Errorf("switch provider: %w", err)
	}
	r.runtime = newRuntime
	r.providerID = args[0]
	fmt.Fprintln(r.out, r.styles.dim.Render("switched provider to "+args[0]))
	return nil
}

func (r *REPL) cmdSkills(ctx context.Context, args []string) error {
	if r.skillMgr == nil {
		r.printWarning("skills are unavailable in this session")
		return nil
	}
	if len(args) > 0 && args[0] == "reload" {
		if err := r.skillMgr.Discover(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.styles.dim.Render("skills reloaded"))
	}
	for _, skill := range r.skillMgr.List() {
		fmt.Fprintf(r.out, "  /%s - %s\n", skill.Name, skill.Description)
	}
	return nil
}

func (r *REPL) cmdCompact(ctx context.Context) error {
	history, err := r.store.GetHistory(ctx, r.session.ID, 0)
	if err != nil {
		return err
	}
	result, err := agentctx.Trim(history, r.providerID, r.currentModel(), agentctx.ModeGraceful)
	if err != nil {
		return err
	}
	if !result.Trimmed {
		fmt.Fprintln(r.out, r.styles.dim.Render("nothing to compact"))
		return nil
	}
	fb, ok := r.store.(*sessions.FileBackedStore)
	if !ok {
		return fmt.Errorf("compaction unsupported by this session store")
	}
	if err := fb.ReplaceHistory(ctx, r.session.ID, result.Messages); err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.styles.dim.Render(fmt.Sprintf("compacted %d messages -> %d", len(history), len(result.Messages))))
	return nil
}

func (r *REPL) currentModel() string {
	if r.session != nil && r.session.Metadata != nil {
		if m, ok := r.session.Metadata["model"].(string); ok && m != "" {
			return m
		}
	}
	if r.cfg != nil {
		return r.cfg.ProviderConfigFor(r.providerID).DefaultModel
	}
	return ""
}

func (r *REPL) cmdConfig() error {
	if r.cfg == nil {
		return fmt.Errorf("no config loaded")
	}
	out, err := r.cfg.Redacted()
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, out)
	return nil
}
