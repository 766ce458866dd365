package prompts

import (
	"strings"
	"testing"
)

func TestRenderAnalysis(t *testing.T) {
	out, err := Render(Analysis, AnalysisData{Prompt: "Write a function to sort an array"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Write a function to sort an array") {
		t.Fatalf("prompt not embedded:\n%s", out)
	}
	if !strings.Contains(out, "(none)") {
		t.Fatalf("expected empty context marker:\n%s", out)
	}
	if !strings.Contains(out, `"output_spec"`) {
		t.Fatalf("rubric missing from template")
	}
}

func TestRenderGenerationVariants(t *testing.T) {
	data := GenerationData{Template: "Product: {name}", Instructions: "Be brief.", BatchSize: 3, ReferenceContent: "Acme anvil"}

	plain, err := Render(Synthetic, data)
	if err != nil {
		t.Fatalf("render synthetic: %v", err)
	}
	if !strings.Contains(plain, "exactly 3 unique") || strings.Contains(plain, "Acme anvil") {
		t.Fatalf("unexpected synthetic render:\n%s", plain)
	}

	similar, err := Render(Similar, data)
	if err != nil {
		t.Fatalf("render similar: %v", err)
	}
	if !strings.Contains(similar, "Acme anvil") || !strings.Contains(similar, "Be brief.") {
		t.Fatalf("unexpected similar render:\n%s", similar)
	}
}

func TestRenderComparisonIsStatic(t *testing.T) {
	out, err := Render(Comparison, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "color:purple") {
		t.Fatalf("polished marker missing")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("missing.tmpl", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
