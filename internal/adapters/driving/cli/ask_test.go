package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/retail-copilot/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_HasHintFlag(t *testing.T) {
	flag := askCmd.Flags().Lookup("hint")
	require.NotNil(t, flag, "hint flag should exist")
	assert.Equal(t, "text", flag.DefValue)
}

func TestAskCmd_RejectsUnknownHint(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "--hint", "table", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
		askHint = "text"
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "What is the return window?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askJSON = false
	}()

	require.NoError(t, rootCmd.Execute())

	var record domain.AnswerRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "What is the return window?", record.Question)
	assert.Equal(t, "42", record.FinalAnswer)
	assert.NotEmpty(t, record.ID, "ad-hoc questions get a generated id")
}

func TestRenderRecordText(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	renderRecord(rootCmd, domain.AnswerRecord{
		FinalAnswer: "30 days",
		Citations:   []string{"returns_policy::chunk1"},
		Confidence:  0.85,
		Explanation: "Stated in the returns policy.",
	})

	out := buf.String()
	assert.Contains(t, out, "30 days")
	assert.Contains(t, out, "0.85")
	assert.Contains(t, out, "returns_policy::chunk1")
	assert.Contains(t, out, "Stated in the returns policy.")
}

func TestRenderRecordList(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	renderRecord(rootCmd, domain.AnswerRecord{
		FinalAnswer: []string{"Footwear", "Outerwear"},
		Confidence:  0.7,
	})

	out := buf.String()
	assert.Contains(t, out, "Footwear")
	assert.Contains(t, out, "Outerwear")
}

func TestRenderRecordFailed(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	renderRecord(rootCmd, domain.AnswerRecord{
		FinalAnswer: domain.FailedAnswer,
		Explanation: "validation failed after 3 attempts",
	})

	out := buf.String()
	assert.Contains(t, out, domain.FailedAnswer)
	assert.Contains(t, out, "validation failed after 3 attempts")
}
