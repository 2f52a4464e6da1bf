package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appprovts/SolarFlowPro/internal/repository"
)

// ContentGenerator abstracts the Gemini client for testing.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateLongContent(ctx context.Context, prompt string) (string, error)
}

// Drafter produces engineering drafts from project data: survey analyses,
// descriptive memorials for the utility, and equipment spec sheets.
type Drafter struct {
	gen ContentGenerator
}

func NewDrafter(gen ContentGenerator) *Drafter {
	return &Drafter{gen: gen}
}

// AnalyzeSurvey drafts a technical feasibility analysis from the site survey.
func (d *Drafter) AnalyzeSurvey(ctx context.Context, project *repository.Project, survey *repository.SurveyData) (string, error) {
	if survey == nil {
		return "", fmt.Errorf("project has no survey data")
	}
	return d.gen.GenerateContent(ctx, surveyAnalysisPrompt(project, survey))
}

// GenerateMemorial drafts the descriptive memorial submitted to the utility.
func (d *Drafter) GenerateMemorial(ctx context.Context, project *repository.Project) (string, error) {
	return d.gen.GenerateLongContent(ctx, memorialPrompt(project))
}

// LookupEquipmentSpecs asks the model for a flat JSON spec sheet of a known
// piece of equipment. Returns nil when the response cannot be parsed, so
// callers can fall back to manual entry.
func (d *Drafter) LookupEquipmentSpecs(ctx context.Context, name, equipmentType string) (map[string]interface{}, error) {
	text, err := d.gen.GenerateContent(ctx, equipmentSpecsPrompt(name, equipmentType))
	if err != nil {
		return nil, err
	}

	specs := parseSpecsJSON(text)
	return specs, nil
}

// parseSpecsJSON extracts a JSON object from model output, tolerating
// markdown code fences and surrounding prose.
func parseSpecsJSON(text string) map[string]interface{} {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil
	}

	var specs map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &specs); err != nil {
		return nil
	}
	return specs
}
