// Command parley-chat is an interactive conversation client: it streams
// model turns, speaks them aloud in voice mode, and dispatches plugin
// function calls through the gateway.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/parley-ai/parley/internal/dotenv"
	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/audio"
	"github.com/parley-ai/parley/pkg/core/chat"
	"github.com/parley-ai/parley/pkg/core/plugins"
	"github.com/parley-ai/parley/pkg/core/providers/gemini"
	"github.com/parley-ai/parley/pkg/core/speech"
	"github.com/parley-ai/parley/pkg/core/speech/tts"
	"github.com/parley-ai/parley/pkg/core/types"
)

const (
	defaultModel        = "gemini-2.0-flash"
	defaultSummaryModel = "gemini-2.0-flash-lite"
	defaultTimeout      = 90 * time.Second
	defaultMaxHistory   = 40
)

type chatConfig struct {
	Model        string
	SummaryModel string
	System       string
	Locale       string
	TalkMode     string
	MaxHistory   int
	Timeout      time.Duration

	APIKey      string
	BaseURL     string
	AccessToken string

	GatewayURL   string
	GatewayToken string
	PluginDir    string

	CartesiaKey string
	Voice       string
}

func parseChatConfig(args []string, getenv func(string) string) (chatConfig, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := chatConfig{}
	fs := flag.NewFlagSet("parley-chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Model, "model", defaultModel, "model for conversation turns")
	fs.StringVar(&cfg.SummaryModel, "summary-model", defaultSummaryModel, "model for history summarization")
	fs.StringVar(&cfg.System, "system", "", "optional system prompt")
	fs.StringVar(&cfg.Locale, "locale", "en-US", "locale for sentence segmentation")
	fs.StringVar(&cfg.TalkMode, "talk-mode", "text", "text or voice")
	fs.IntVar(&cfg.MaxHistory, "max-history", defaultMaxHistory, "text messages kept before summarization")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "per-turn timeout (e.g. 90s)")
	fs.StringVar(&cfg.GatewayURL, "gateway-url", strings.TrimSpace(getenv("PARLEY_GATEWAY_URL")), "dispatch gateway base URL (or PARLEY_GATEWAY_URL)")
	fs.StringVar(&cfg.PluginDir, "plugins", "", "directory of plugin manifest JSON files")
	fs.StringVar(&cfg.Voice, "voice", "", "TTS voice id for voice mode")

	if err := fs.Parse(args); err != nil {
		return chatConfig{}, err
	}

	cfg.APIKey = strings.TrimSpace(getenv("GEMINI_API_KEY"))
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(getenv("GOOGLE_API_KEY"))
	}
	cfg.BaseURL = strings.TrimSpace(getenv("PARLEY_BASE_URL"))
	cfg.AccessToken = strings.TrimSpace(getenv("PARLEY_ACCESS_TOKEN"))
	cfg.GatewayToken = strings.TrimSpace(getenv("PARLEY_GATEWAY_TOKEN"))
	cfg.CartesiaKey = strings.TrimSpace(getenv("CARTESIA_API_KEY"))

	if err := validateChatConfig(cfg); err != nil {
		return chatConfig{}, err
	}
	return cfg, nil
}

func validateChatConfig(cfg chatConfig) error {
	if strings.TrimSpace(cfg.Model) == "" {
		return errors.New("model must not be empty")
	}
	if cfg.TalkMode != "text" && cfg.TalkMode != "voice" {
		return errors.New("talk-mode must be text or voice")
	}
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if cfg.APIKey == "" && cfg.AccessToken == "" {
		return errors.New("set GEMINI_API_KEY (or GOOGLE_API_KEY) or PARLEY_ACCESS_TOKEN")
	}
	if cfg.APIKey != "" && cfg.AccessToken != "" {
		return errors.New("set only one of GEMINI_API_KEY and PARLEY_ACCESS_TOKEN")
	}
	if cfg.PluginDir != "" && cfg.GatewayURL == "" {
		return errors.New("plugins require -gateway-url (or PARLEY_GATEWAY_URL)")
	}
	if cfg.TalkMode == "voice" && cfg.CartesiaKey == "" {
		return errors.New("voice mode requires CARTESIA_API_KEY")
	}
	return nil
}

// settingsStore is the mutable session configuration behind the
// orchestrator's per-turn snapshots.
type settingsStore struct {
	mu sync.Mutex
	s  chat.Settings
}

func (st *settingsStore) Snapshot() chat.Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

func (st *settingsStore) update(fn func(*chat.Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
}

func loadManifests(dir string) ([]types.PluginManifest, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	var manifests []types.PluginManifest
	for _, path := range entries {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read manifest %q: %w", path, err)
		}
		var m types.PluginManifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse manifest %q: %w", path, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func run(ctx context.Context, cfg chatConfig, in io.Reader, out, errOut io.Writer) error {
	provider := gemini.New()

	store := &settingsStore{s: chat.Settings{
		Model:        cfg.Model,
		SummaryModel: cfg.SummaryModel,
		System:       cfg.System,
		Locale:       cfg.Locale,
		TalkMode:     cfg.TalkMode,
		MaxHistory:   cfg.MaxHistory,
		Auth: types.Auth{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			AccessToken: cfg.AccessToken,
		},
	}}

	var speaker *speech.Speaker
	if cfg.TalkMode == "voice" {
		sink, err := audio.NewOtoSink(24000)
		if err != nil {
			return fmt.Errorf("open audio device: %w", err)
		}
		speaker = speech.NewSpeaker(
			tts.NewCartesia(cfg.CartesiaKey),
			audio.NewPlayer(sink),
			tts.SynthesizeOptions{Voice: cfg.Voice, Language: cfg.Locale},
		)
	}

	registry := plugins.NewRegistry()
	var dispatcher *plugins.Dispatcher
	if cfg.PluginDir != "" {
		manifests, err := loadManifests(cfg.PluginDir)
		if err != nil {
			return err
		}
		for _, m := range manifests {
			if err := registry.Install(m); err != nil {
				return fmt.Errorf("install plugin %q: %w", m.ID, err)
			}
			fmt.Fprintf(out, "installed plugin %s (%d operations)\n", m.ID, len(m.Operations))
		}
		store.update(func(s *chat.Settings) { s.Tools = registry.Declarations() })
		dispatcher = plugins.NewDispatcher(registry, plugins.NewGatewayClient(cfg.GatewayURL, cfg.GatewayToken))
	}

	hooks := chat.Hooks{
		OnTurnStart: func() {
			if speaker != nil {
				speaker.BeginTurn()
			}
		},
		OnStatement: func(text string) {
			if speaker != nil {
				speaker.Say(text)
			}
		},
		OnMessage: func(m types.Message) {
			fmt.Fprintf(out, "\n[%s] %s\n", m.ID, m.Text())
		},
		OnError: func(e *core.Error) {
			fmt.Fprintf(errOut, "turn failed: %v (use /retry)\n", e)
		},
	}
	if dispatcher != nil {
		hooks.OnFunctionCalls = dispatcher.HandleCalls
	}

	orch := chat.New(provider, store, hooks)
	orch.SetSummarizer(chat.NewSummarizer(provider))
	if dispatcher != nil {
		dispatcher.Bind(orch)
	}

	fmt.Fprintln(out, "parley-chat ready. /help for commands.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlashCommand(ctx, line, cfg, orch, store, speaker, out, errOut)
			if err != nil {
				fmt.Fprintf(errOut, "%v\n", err)
			}
			if quit {
				return scanner.Err()
			}
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := orch.Submit(turnCtx, types.Message{
			Parts: []types.Part{types.TextPart(line)},
		})
		cancel()
		if err != nil {
			continue // already reported via OnError
		}
		if speaker != nil {
			speaker.Wait()
		}
	}
	return scanner.Err()
}

func handleSlashCommand(ctx context.Context, line string, cfg chatConfig, orch *chat.Orchestrator, store *settingsStore, speaker *speech.Speaker, out, errOut io.Writer) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		fmt.Fprintln(out, "/model <name>     switch model")
		fmt.Fprintln(out, "/history          print the conversation log")
		fmt.Fprintln(out, "/redo <id>        regenerate from a message id")
		fmt.Fprintln(out, "/retry            replay after an error")
		fmt.Fprintln(out, "/silence          stop current speech")
		fmt.Fprintln(out, "/quit             exit")
	case "/model":
		if arg == "" {
			return false, errors.New("usage: /model <name>")
		}
		store.update(func(s *chat.Settings) { s.Model = arg })
		fmt.Fprintf(out, "model set to %s\n", arg)
	case "/history":
		for _, m := range orch.History() {
			fmt.Fprintf(out, "[%s] %s: %s\n", m.ID, m.Role, m.Text())
		}
	case "/redo":
		if arg == "" {
			return false, errors.New("usage: /redo <message-id>")
		}
		turnCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return false, orch.Resubmit(turnCtx, arg)
	case "/retry":
		turnCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return false, orch.Resubmit(turnCtx, chat.SentinelErrored)
	case "/silence":
		if speaker != nil {
			speaker.Silence()
		}
	case "/quit", "/exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}

func main() {
	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "parley-chat: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseChatConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley-chat: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "parley-chat: %v\n", err)
		os.Exit(1)
	}
}
