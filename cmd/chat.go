package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhake2025/streamchat/internal/config"
	"github.com/zhake2025/streamchat/internal/debuglog"
	"github.com/zhake2025/streamchat/internal/feed"
	"github.com/zhake2025/streamchat/internal/replay"
	"github.com/zhake2025/streamchat/internal/store"
	"github.com/zhake2025/streamchat/internal/tui/chat"
	"github.com/zhake2025/streamchat/internal/ui"
)

var (
	chatResume     string
	chatTranscript string
)

func init() {
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "Resume an existing session by ID")
	chatCmd.Flags().StringVar(&chatTranscript, "transcript", "", "Replay a transcript file instead of the built-in demo")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	st, err := store.New(cfg.Sessions)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer st.Close()

	sess, err := resolveSession(ctx, st, chatResume)
	if err != nil {
		return err
	}

	transcript := replay.Builtin()
	if chatTranscript != "" {
		transcript, err = replay.Load(chatTranscript)
		if err != nil {
			return err
		}
	}

	var logger *debuglog.Logger
	if debugRaw || cfg.Debug.Raw {
		logger, err = debuglog.New(config.GetDebugLogDir(cfg.Debug), sess.ID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: debug logging disabled: %v\n", err)
		}
		logger.LogSessionStart("chat", args, mustGetwd())
	}

	model := chat.New(chat.Options{
		Config:     cfg,
		Store:      st,
		Session:    sess,
		Transcript: transcript,
		DebugLog:   logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}

// resolveSession loads the session to resume or creates a fresh one.
func resolveSession(ctx context.Context, st store.Store, resume string) (*store.Session, error) {
	if resume != "" {
		sess, err := st.Session(ctx, resume)
		if err != nil {
			return nil, fmt.Errorf("resume session %q: %w", resume, err)
		}
		return sess, nil
	}

	sess := &store.Session{
		ID:     uuid.NewString(),
		Status: feed.StatusPending,
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func mustGetwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

func initThemeFromConfig(cfg *config.Config) {
	ui.InitTheme(ui.ThemeConfig{
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Success:   cfg.Theme.Success,
		Error:     cfg.Theme.Error,
		Warning:   cfg.Theme.Warning,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
		Spinner:   cfg.Theme.Spinner,
	})
}
