package helpers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/promptsmith/internal/domain"
)

// ReadText joins args, or reads in when args is empty or a single "-".
func ReadText(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	if in == nil {
		return "", fmt.Errorf("no input provided")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// ReadFileOrValue returns the file content when value starts with "@", otherwise value itself.
func ReadFileOrValue(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	data, err := os.ReadFile(value[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", value[1:], err)
	}
	return string(data), nil
}

// LoadCriteriaFromFile reads a YAML or JSON list of evaluation criteria.
func LoadCriteriaFromFile(path string) ([]domain.EvaluationCriterion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file %s: %w", path, err)
	}

	var criteria []domain.EvaluationCriterion
	if err := yaml.Unmarshal(data, &criteria); err != nil {
		return nil, fmt.Errorf("failed to parse criteria file %s: %w", path, err)
	}
	return criteria, nil
}

// PromptForYesNo prompts the user for a yes/no question
// Returns true for yes, false for no, or the default value if no input
func PromptForYesNo(out io.Writer, reader *bufio.Reader, promptText string, defaultValue bool) bool {
	label := "y/N"
	if defaultValue {
		label = "Y/n"
	}
	fmt.Fprintf(out, "%s [%s]: ", promptText, label)

	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))

	if line == "" {
		return defaultValue
	}
	return line == "y" || line == "yes"
}

// Confirm asks before a destructive action unless assumeYes is set.
func Confirm(out io.Writer, in io.Reader, question string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	return PromptForYesNo(out, bufio.NewReader(in), question, false)
}
