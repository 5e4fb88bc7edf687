// ABOUTME: Terminal client for a digital-twin question answering service.
// ABOUTME: Readline-style loop over the streaming query session.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/Ridam2k/Digital-Twin-sample/internal/config"
	"github.com/Ridam2k/Digital-Twin-sample/internal/session"
	"github.com/Ridam2k/Digital-Twin-sample/internal/twin"
)

var version = "dev"

const banner = `
  ██████╗ ██╗    ██╗██╗███╗   ██╗
     ██╔═╝██║    ██║██║████╗  ██║
     ██║  ██║ █╗ ██║██║██╔██╗ ██║
     ██║  ██║███╗██║██║██║╚██╗██║
     ██║  ╚███╔███╔╝██║██║ ╚████║
     ╚═╝   ╚══╝╚══╝ ╚═╝╚═╝  ╚═══╝
`

// getConfigPath returns the default config file path.
// Priority: XDG_CONFIG_HOME/twin/config.yaml > ~/.config/twin/config.yaml
func getConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "twin", "config.yaml")
}

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	server := flag.String("server", "", "Twin server URL (overrides config)")
	contentType := flag.String("content-type", "", "Content type hint sent with queries")
	flag.Parse()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server.BaseURL = *server
	}
	if *contentType != "" {
		cfg.Session.ContentType = *contentType
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Server:  %s\n", cfg.Server.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Mode:    %s\n", cfg.Session.DefaultMode)
	if !cfg.Session.StreamingEnabled() {
		green.Print("    ▶ ")
		fmt.Println("Stream:  disabled")
	}
	fmt.Println()
	fmt.Println("Type a question and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := twin.New(cfg.Server.BaseURL, twin.WithLogger(logger))
	sess := session.New(client, session.Config{
		DefaultMode:    cfg.Session.DefaultMode,
		ContentType:    cfg.Session.ContentType,
		SpeakDelay:     cfg.Session.SpeakDelay,
		NoticeDuration: cfg.Session.NoticeDuration,
		Streaming:      cfg.Session.StreamingEnabled(),
	}, logger)
	defer sess.Close()

	if err := run(ctx, sess, client); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// loadConfig reads the config file if one exists, falling back to
// defaults when the default path is absent. An explicit -config path
// that cannot be read is an error.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = getConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, sess *session.Session, client *twin.Client) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		state := sess.Snapshot()
		fmt.Printf("[%s]> ", state.Mode)

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if input == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		if input == "/mode" {
			printMode(sess.Snapshot())
			fmt.Println()
			continue
		}

		if input == "/health" {
			if err := printHealth(ctx, client); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if input == "/metrics" {
			printMetrics(sess.Metrics())
			fmt.Println()
			continue
		}

		if err := ask(ctx, sess, input); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Printf("[error] %v\n", err)
		}
		fmt.Println()
	}
}

// ask submits a question and prints the resulting assistant turn.
func ask(ctx context.Context, sess *session.Session, input string) error {
	before := sess.Snapshot()

	if err := sess.Submit(ctx, input); err != nil {
		if errors.Is(err, session.ErrBusy) {
			return fmt.Errorf("still answering the previous question")
		}
		return err
	}

	after := sess.Snapshot()
	if len(after.Messages) == 0 {
		return nil
	}
	msg := after.Messages[len(after.Messages)-1]
	if msg.Role != twin.RoleAssistant {
		return nil
	}

	if after.NoticeVisible && after.Mode != before.Mode {
		color.Yellow("[mode switched to %s]", after.Mode)
	}

	fmt.Println(renderMarkdown(msg.Text))

	if msg.OutOfScope {
		color.New(color.Faint).Println("[out of scope]")
	}

	if len(msg.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range msg.Citations {
			fmt.Printf("  [%d] %s", c.Index, c.DocTitle)
			if c.SourceURL != "" {
				fmt.Printf(" (%s)", c.SourceURL)
			}
			if c.Score > 0 {
				color.New(color.Faint).Printf("  score=%.2f", c.Score)
			}
			fmt.Println()
		}
	}

	return nil
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /mode          Show current persona mode and router scores")
	fmt.Println("  /health        Check server health")
	fmt.Println("  /metrics       Show last evaluation metrics")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
}

func printMode(state session.State) {
	fmt.Printf("Mode: %s\n", state.Mode)
	if len(state.RouterScores) == 0 {
		return
	}
	fmt.Println("Router scores:")
	names := make([]string, 0, len(state.RouterScores))
	for name := range state.RouterScores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-12s %.2f\n", name, state.RouterScores[name])
	}
}

func printHealth(ctx context.Context, client *twin.Client) error {
	health, err := client.Health(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(health))
	for k := range health {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, health[k])
	}
	return nil
}

func printMetrics(metrics map[string][]byte) {
	if len(metrics) == 0 {
		fmt.Println("No metrics received yet")
		return
	}

	if payload, ok := metrics["metrics_groundedness"]; ok {
		m, err := twin.DecodeGroundedness(payload)
		if err != nil {
			fmt.Printf("  groundedness: unreadable payload (%v)\n", err)
		} else {
			fmt.Printf("Groundedness: %.2f\n", m.GroundednessScore)
			for _, claim := range m.FabricatedClaims {
				color.Red("  fabricated: %s", truncate(claim, 100))
			}
			for _, audit := range m.ClaimAudits {
				mark := color.GreenString("✓")
				if !audit.Grounded {
					mark = color.RedString("✗")
				}
				fmt.Printf("  %s %s\n", mark, truncate(audit.Claim, 100))
			}
		}
	}

	if payload, ok := metrics["metrics_persona"]; ok {
		m, err := twin.DecodePersona(payload)
		if err != nil {
			fmt.Printf("  persona: unreadable payload (%v)\n", err)
		} else {
			fmt.Printf("Persona consistency: %.2f\n", m.PersonaConsistencyScore)
			dims := make([]string, 0, len(m.DimensionScores))
			for d := range m.DimensionScores {
				dims = append(dims, d)
			}
			sort.Strings(dims)
			for _, d := range dims {
				fmt.Printf("  %-16s %.2f\n", d, m.DimensionScores[d])
			}
			for _, v := range m.PersonaViolations {
				color.Yellow("  violation: %s", truncate(v, 100))
			}
		}
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
// Logs go to stderr so they never interleave with the prompt on stdout.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
