// voicebuilder - voice-driven website builder conversation engine
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/bus"
	"github.com/normanking/voicebuilder/internal/chat"
	"github.com/normanking/voicebuilder/internal/config"
	"github.com/normanking/voicebuilder/internal/discovery"
	"github.com/normanking/voicebuilder/internal/dispatch"
	"github.com/normanking/voicebuilder/internal/logging"
	"github.com/normanking/voicebuilder/internal/session"
	"github.com/normanking/voicebuilder/internal/stt"
	"github.com/normanking/voicebuilder/internal/tts"
	"github.com/normanking/voicebuilder/internal/voice"
)

var syslog *logging.Logger

// loadEnvFile loads API keys from ~/.voicebuilder/.env into the process
// environment. Values already set in the environment win.
func loadEnvFile(logger zerolog.Logger) {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Warn().Err(err).Msg("Could not get home directory")
		return
	}

	envPath := filepath.Join(home, ".voicebuilder", ".env")
	file, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	loaded := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
			loaded++
		}
	}
	if loaded > 0 {
		logger.Info().Int("count", loaded).Str("source", envPath).Msg("Loaded environment variables")
	}
}

func main() {
	appID := flag.String("app", "", "edit an existing app by ID instead of starting discovery")
	voiceName := flag.String("voice", "", "override the configured TTS voice")
	noSpeech := flag.Bool("no-speech", false, "disable spoken playback")
	flag.Parse()

	var err error
	syslog, err = logging.New(nil)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer syslog.Close()

	zlogger := syslog.Zerolog()
	zlogger.Info().Msg("voicebuilder starting")

	loadEnvFile(syslog.Component("env"))

	cfg, err := config.Load()
	if err != nil {
		clog := syslog.Component("config")
		clog.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	syslog.SetLevel(logging.Level(cfg.Logging.Level))

	eventBus := bus.NewEventBus()

	chatClient := chat.NewClient(syslog.Component("chat"), &chat.Config{
		APIKey:                cfg.Chat.APIKey,
		BaseURL:               cfg.Chat.BaseURL,
		Model:                 cfg.Chat.Model,
		ReasoningEffort:       cfg.Chat.ReasoningEffort,
		MaxOutputTokens:       cfg.Chat.MaxOutputTokens,
		MaxOutputTokensEditor: cfg.Chat.MaxOutputTokensEditor,
		Timeout:               cfg.Chat.Timeout,
	})
	if !chatClient.Available() {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is not set; the conversation engine cannot run.")
		os.Exit(1)
	}

	builderURL := cfg.Builder.ServerURL
	if builderURL == "" || builderURL == "auto" {
		builderURL = discoverBuilder(context.Background())
	}
	builder := dispatch.NewHTTPBuilder(&dispatch.HTTPBuilderConfig{
		ServerURL: builderURL,
		Timeout:   cfg.Builder.Timeout,
	}, syslog.Component("builder"))
	dispatcher := dispatch.NewDispatcher(builder, eventBus, syslog.Component("dispatch"))

	speaker := buildSpeaker(cfg, *voiceName, *noSpeech)

	var sess *session.Session
	if *appID != "" {
		sess = session.NewEditing(*appID)
	} else {
		sess = session.NewDiscovery()
	}

	var filter *stt.Filter
	if cfg.STT.FilterFillers {
		filter = stt.NewFilter(nil)
	}

	orch := voice.NewOrchestrator(
		syslog.Component("voice"),
		sess,
		chatClient,
		dispatcher,
		nil, // wired below, the provider needs the orchestrator as sink
		speaker,
		eventBus,
	)
	capture := buildCapture(cfg, orch, filter)
	orch.SetCapture(capture)

	subscribeConsole(eventBus)

	watcher, err := config.NewWatcher(syslog.Component("config"), func(next *config.Config) {
		syslog.SetLevel(logging.Level(next.Logging.Level))
	})
	if err != nil {
		clog := syslog.Component("config")
		clog.Warn().Err(err).Msg("Config watcher unavailable")
	} else {
		defer watcher.Close()
	}

	runPromptLoop(orch, capture, sess)
}

// discoverBuilder scans localhost for a running builder service and falls
// back to the default port when none answers.
func discoverBuilder(ctx context.Context) string {
	svc := discovery.NewService(syslog.Component("discovery"), nil)
	svc.Scan(ctx)
	if best := svc.Best(); best != nil {
		dlog := syslog.Component("discovery")
		dlog.Info().Str("url", best.URL).Int64("latencyMs", best.Latency).Msg("Builder service discovered")
		return best.URL
	}
	return dispatch.DefaultHTTPBuilderConfig().ServerURL
}

// buildSpeaker picks the synthesis provider by availability: ElevenLabs
// first, OpenAI as fallback, silent when neither is configured.
func buildSpeaker(cfg *config.Config, voiceOverride string, disabled bool) voice.Speaker {
	if disabled {
		return nil
	}

	voiceName := cfg.TTS.Voice
	if voiceOverride != "" {
		voiceName = voiceOverride
	}

	eleven := tts.NewElevenLabsProvider(syslog.Component("tts"), &tts.ElevenLabsConfig{
		APIKey:       cfg.TTS.ElevenLabsAPIKey,
		DefaultVoice: voiceName,
		ModelID:      cfg.TTS.Model,
		Stability:    cfg.TTS.Stability,
		Similarity:   cfg.TTS.SimilarityBoost,
		Style:        cfg.TTS.Style,
		SpeakerBoost: cfg.TTS.SpeakerBoost,
	})
	if cfg.TTS.Provider != "openai" && eleven.Available() {
		return voice.NewSynthSpeaker(syslog.Component("speaker"), eleven, nil, voiceName)
	}

	openai := tts.NewOpenAIProvider(syslog.Component("tts"), &tts.OpenAIConfig{
		APIKey:       cfg.TTS.OpenAIAPIKey,
		Model:        "tts-1",
		DefaultVoice: tts.VoiceNova,
	})
	if openai.Available() {
		return voice.NewSynthSpeaker(syslog.Component("speaker"), openai, nil, voiceName)
	}

	tlog := syslog.Component("tts")
	tlog.Info().Msg("No synthesis provider configured, replies will be text only")
	return nil
}

// buildCapture picks the capture provider: Deepgram streaming when
// configured and keyed, typed input otherwise.
func buildCapture(cfg *config.Config, sink stt.Sink, filter *stt.Filter) stt.CaptureProvider {
	if cfg.STT.Provider != "script" {
		deepgram := stt.NewDeepgramProvider(syslog.Component("stt"), &stt.DeepgramConfig{
			APIKey:         cfg.STT.DeepgramAPIKey,
			Language:       cfg.STT.Language,
			SampleRate:     cfg.STT.SampleRate,
			InterimResults: cfg.STT.InterimResults,
			Punctuate:      true,
		}, sink, filter)
		if deepgram.Available() {
			return deepgram
		}
		slog := syslog.Component("stt")
		slog.Info().Msg("DEEPGRAM_API_KEY is not set, voice capture falls back to typed input")
	}
	return stt.NewScriptProvider(sink, filter)
}

// subscribeConsole prints turn results and failures for the terminal user.
func subscribeConsole(eventBus *bus.EventBus) {
	eventBus.Subscribe(bus.EventTypeTurnCompleted, func(e bus.Event) {
		if speech, _ := e.Data["speech"].(string); speech != "" {
			fmt.Printf("\n%s\n", speech)
		}
		if q, _ := e.Data["question"].(string); q != "" {
			fmt.Printf("? %s\n", q)
		}
	})
	eventBus.Subscribe(bus.EventTypeTurnFailed, func(e bus.Event) {
		if msg, _ := e.Data["message"].(string); msg != "" {
			fmt.Printf("\n! %s\n", msg)
		}
	})
	eventBus.Subscribe(bus.EventTypePhaseChanged, func(e bus.Event) {
		if phase, _ := e.Data["phase"].(string); phase == string(session.PhaseBuilt) {
			fmt.Println("\n* Build dispatched. Your site is on the way!")
		}
	})
	eventBus.Subscribe(bus.EventTypeDispatchFailed, func(e bus.Event) {
		fmt.Println("\n! Could not reach the builder service. Your request was recorded.")
	})
}

// runPromptLoop reads utterances from stdin until EOF or /quit. Lines go
// straight to the orchestrator; /listen starts a capture instead. With the
// typed-input provider the next line is routed through the capture path,
// with a streaming provider the utterance arrives when speech ends.
func runPromptLoop(orch *voice.Orchestrator, capture stt.CaptureProvider, sess *session.Session) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	if sess.Mode() == session.ModeEditing {
		fmt.Printf("Editing app %s. Describe a change, or /quit to exit.\n", sess.AppID())
	} else {
		fmt.Println("Tell me about the website you want to build. /reset starts over, /quit exits.")
	}

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/reset":
			orch.Reset()
			fmt.Println("Session reset.")
		case line == "/listen":
			if err := orch.StartCapture(ctx); err != nil {
				fmt.Printf("! %v\n", err)
				continue
			}
			script, ok := capture.(*stt.ScriptProvider)
			if !ok {
				fmt.Println("Listening. Speak, then pause to send.")
				continue
			}
			fmt.Print("listening> ")
			if !scanner.Scan() {
				return
			}
			script.Push(strings.TrimSpace(scanner.Text()))
		default:
			if err := orch.Submit(ctx, line); err != nil {
				fmt.Printf("! %v\n", err)
			}
		}
	}
}
