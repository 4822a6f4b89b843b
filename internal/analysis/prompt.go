package analysis

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

//go:embed prompt.tmpl
var defaultPromptTemplate string

// promptData is passed to the prompt template.
type promptData struct {
	Count        int
	Start        string
	End          string
	Observations string
}

// LoadPromptTemplate parses the template at path, or the built-in template
// when path is empty.
func LoadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate
	name := "sleep_quality"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
		content = string(raw)
		name = path
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// RenderPrompt serializes observations into the prompt sent to the scorer.
func RenderPrompt(tmpl *template.Template, observations []domain.SensorObservation) (string, error) {
	if len(observations) == 0 {
		return "", fmt.Errorf("%w: no observations to render", domain.ErrValidation)
	}

	payload, err := json.Marshal(observations)
	if err != nil {
		return "", fmt.Errorf("failed to marshal observations: %w", err)
	}

	data := promptData{
		Count:        len(observations),
		Start:        observations[0].Time,
		End:          observations[len(observations)-1].Time,
		Observations: string(payload),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
