package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

// maxLineBytes bounds a single JSONL input line.
const maxLineBytes = 1 << 20

var batchOutput string

var batchCmd = &cobra.Command{
	Use:   "batch [questions.jsonl]",
	Short: "Answer a batch of questions from a JSONL file",
	Long: `Reads one question per line ({"id", "question", "format_hint"}),
answers them concurrently, and writes one answer record per question in
input order. A question that cannot be answered still produces a record
with the sentinel final_answer; the batch never drops an output line.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	questions, err := readQuestions(args[0])
	if err != nil {
		return err
	}
	logger.Info("Read %d questions from %s", len(questions), args[0])

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := ensureCopilot(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	records := copilotService.ProcessBatch(ctx, questions)

	out := cmd.OutOrStdout()
	if batchOutput != "" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeRecords(out, records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}

	if batchOutput != "" {
		cmd.Printf("Wrote %d records to %s\n", len(records), batchOutput)
	}
	return nil
}

// readQuestions parses and validates the JSONL input. Malformed lines,
// invalid questions, and duplicate ids are all fatal before any model
// call is made.
func readQuestions(path string) ([]domain.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var questions []domain.Question
	seen := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var q domain.Question
		if err := json.Unmarshal([]byte(text), &q); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("line %d: duplicate question id %q (first seen on line %d)", line, q.ID, prev)
		}
		seen[q.ID] = line

		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in %s", domain.ErrInvalidInput, path)
	}
	return questions, nil
}

// writeRecords emits one JSON record per line, in slice order.
func writeRecords(w io.Writer, records []domain.AnswerRecord) error {
	enc := json.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return err
		}
	}
	return nil
}
