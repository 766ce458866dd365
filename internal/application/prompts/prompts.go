// Package prompts renders the embedded prompt templates sent to the model.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/doeshing/promptsmith/assets"
)

// Template names under assets/templates.
const (
	Analysis   = "analysis.tmpl"
	Comparison = "comparison.tmpl"
	Synthetic  = "synthetic.tmpl"
	Similar    = "similar.tmpl"
)

// System messages paired with the rendered templates.
const (
	AnalysisSystem = "You are an expert prompt engineer. You must always respond with only valid JSON, " +
		"with no other text or explanations."
	GenerationSystem = "You are a synthetic data generator. You must always respond with only valid JSON, " +
		"with no other text, markdown or code fences."
)

var templates = template.Must(template.New("prompts").ParseFS(assets.Templates, "templates/*.tmpl"))

// AnalysisData fills analysis.tmpl.
type AnalysisData struct {
	Prompt  string
	Context string
}

// GenerationData fills synthetic.tmpl and similar.tmpl.
type GenerationData struct {
	Template         string
	Instructions     string
	BatchSize        int
	ReferenceContent string
}

// Render executes the named template.
func Render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
