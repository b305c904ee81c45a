package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/maya/stride/internal/adapter"
	"github.com/maya/stride/internal/bindings"
	"github.com/maya/stride/internal/observability"
	"github.com/maya/stride/internal/plan"
	"github.com/maya/stride/internal/prompts"
	"github.com/maya/stride/internal/session"
	"github.com/maya/stride/internal/store"
	"github.com/maya/stride/internal/tools"
	"github.com/maya/stride/pkg/config"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.yaml")

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer history.Close()

	registry := tools.NewRegistry()
	for _, t := range cfg.Tools {
		registry.Register(tools.Declaration{
			ToolName:        t.Name,
			ToolDescription: t.Description,
			ToolParameters:  t.Parameters,
		})
	}

	// The configured system text wins; the prompts directory is the
	// fallback source.
	systemText := cfg.Backend.System
	if systemText == "" && cfg.App.PromptsDir != "" {
		if text, err := prompts.NewManager(cfg.App.PromptsDir, cfg.App.PromptOrder).GetSystemPrompt(); err != nil {
			log.Printf("Warning: Failed to load system prompt: %v", err)
		} else {
			systemText = text
		}
	}

	logger := observability.NewLogger(cfg.Logging.Dir)

	// Install the request adapter on the session's client and keep the
	// release handle paired with this process's lifetime.
	client := &http.Client{}
	restore := adapter.Install(client, adapter.Config{
		Endpoint: cfg.Backend.Endpoint,
		Headers:  cfg.Backend.Headers,
		System:   systemText,
	})
	defer restore.Close()

	sess := session.New(cfg.Backend.Endpoint, client, history, registry,
		plan.NewStore(), logger)
	sess.OnView = printView

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live status line (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
			}
		}
	}()

	go repl(ctx, sess, stop)

	<-ctx.Done()

	observability.CleanupTerminal()
	time.Sleep(200 * time.Millisecond)
	log.Println("session closed")
}

func repl(ctx context.Context, sess *session.Session, stop func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			stop()
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			stop()
			return
		}

		observability.Heartbeat()
		reply, err := sess.Send(ctx, input)
		if err != nil {
			log.Printf("Warning: request failed: %v", err)
			continue
		}
		fmt.Println(reply)
	}
}

func printView(v bindings.View) {
	if v.Plan != nil {
		printPlan(v.Plan)
	}
	if v.Table != nil {
		printTable(v.Table)
	}
}

func printPlan(p *plan.Plan) {
	fmt.Println("Plan:")
	for _, step := range p.Steps {
		mark := " "
		if step.Status == plan.StatusCompleted {
			mark = "x"
		}
		fmt.Printf("  [%s] %s\n", mark, step.Description)
	}
}

func printTable(t *bindings.Table) {
	switch t.State {
	case bindings.TableLoading:
		fmt.Println("(loading data...)")
	case bindings.TableEmpty:
		fmt.Println("(no data)")
	case bindings.TableReady:
		if len(t.Rows) == 0 {
			return
		}
		cols := make([]string, 0, len(t.Rows[0]))
		for col := range t.Rows[0] {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		fmt.Println(strings.Join(cols, " | "))
		for _, row := range t.Rows {
			cells := make([]string, len(cols))
			for i, col := range cols {
				cells[i] = fmt.Sprintf("%v", row[col])
			}
			fmt.Println(strings.Join(cells, " | "))
		}
	}
}
