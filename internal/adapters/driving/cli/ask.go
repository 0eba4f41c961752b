package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

var (
	askHint string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Answers one question against the configured corpus and database.
Use --hint to declare the expected answer shape (number, list, text).`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askHint, "hint", "text", "expected answer format: number, list, or text")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full answer record as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	hint, err := domain.ParseFormatHint(askHint)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := ensureCopilot(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	record := copilotService.Process(ctx, domain.Question{
		ID:         uuid.NewString(),
		Question:   args[0],
		FormatHint: hint,
	})

	if askJSON {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	renderRecord(cmd, record)
	return nil
}

// Styles for interactive output. Degraded to plain text when stdout is
// not a terminal so piped output stays machine-readable.
var (
	answerStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	citationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func renderRecord(cmd *cobra.Command, record domain.AnswerRecord) {
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	render := func(style lipgloss.Style, s string) string {
		if !styled {
			return s
		}
		return style.Render(s)
	}

	if record.FinalAnswer == domain.FailedAnswer {
		cmd.Println(render(failedStyle, domain.FailedAnswer))
		cmd.Printf("%s %s\n", render(labelStyle, "Reason:"), record.Explanation)
		return
	}

	switch answer := record.FinalAnswer.(type) {
	case []string:
		for _, item := range answer {
			cmd.Printf("%s %s\n", render(answerStyle, "-"), item)
		}
	default:
		cmd.Println(render(answerStyle, fmt.Sprint(answer)))
	}

	cmd.Println()
	cmd.Printf("%s %.2f\n", render(labelStyle, "Confidence:"), record.Confidence)
	if record.Explanation != "" {
		cmd.Printf("%s %s\n", render(labelStyle, "Explanation:"), record.Explanation)
	}
	for _, citation := range record.Citations {
		cmd.Println(render(citationStyle, "  ["+citation+"]"))
	}
}
