package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/exercise"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise FILE",
	Short: "Grade the answers of a checksum exercise",
	Long: `Load an exercise file (YAML) and grade its answers, or answers given on the
command line, against the computed checksums.

Examples:
  csumlab exercise udp.yml
  csumlab exercise udp.yml --answer IPv4=0x681C --answer UDP=0x88CA`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExercise(cmd.OutOrStdout(), args[0], exerciseAnswers, currentConfig().Output.Format)
	},
}

var exerciseAnswers map[string]string

func init() {
	exerciseCmd.Flags().StringToStringVarP(&exerciseAnswers, "answer", "a", nil,
		"answer as PROTOCOL=CHECKSUM, overrides the file")
}

type gradeDoc struct {
	Name    string            `yaml:"name,omitempty"`
	Results []exercise.Result `yaml:"results"`
	Correct int               `yaml:"correct"`
	Total   int               `yaml:"total"`
}

func runExercise(w io.Writer, path string, overrides map[string]string, format string) error {
	ex, err := exercise.Load(path)
	if err != nil {
		return err
	}

	answers := make(map[string]string, len(ex.Answers)+len(overrides))
	for k, v := range ex.Answers {
		answers[k] = v
	}
	for k, v := range overrides {
		answers[k] = v
	}

	results, err := ex.Grade(answers)
	if err != nil {
		return err
	}
	correct, total := exercise.Score(results)

	if isYAML(format) {
		return renderYAML(w, gradeDoc{Name: ex.Name, Results: results, Correct: correct, Total: total})
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		mark := "✗"
		if r.Correct {
			mark = "✓"
		}
		given := r.Given
		if given == "" {
			given = "-"
		}
		rows = append(rows, []string{r.Protocol, r.Expected, given, mark})
	}
	renderTable(w, []string{"Protocol", "Expected", "Given", "Result"}, rows)
	fmt.Fprintf(w, "Score: %d/%d\n", correct, total)
	return nil
}
