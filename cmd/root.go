package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugRaw, "debug-raw", false, "Log raw stream events to a per-session JSONL file")
}

var rootCmd = &cobra.Command{
	Use:   "streamchat",
	Short: "Terminal chat client with throttled streaming rendering",
	Long: `streamchat renders streamed assistant responses in the terminal:
deltas are throttled into batched commits, long histories stay behind a
bounded window, and scrolling follows the stream without fighting the user.

Responses come from recorded transcripts, so the full pipeline runs offline.

Examples:
  streamchat chat                         # start a new conversation
  streamchat chat --resume <id>           # pick up an earlier session
  streamchat chat --transcript demo.yaml  # replay a custom transcript

  streamchat sessions                     # list stored sessions
  streamchat config                       # view resolved configuration`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var debugRaw bool

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
