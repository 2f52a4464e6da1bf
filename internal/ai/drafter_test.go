package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/shopspring/decimal"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
	longCalled bool
}

func (g *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	return g.reply, g.err
}

func (g *fakeGenerator) GenerateLongContent(ctx context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	g.longCalled = true
	return g.reply, g.err
}

func testProject() *repository.Project {
	return &repository.Project{
		ID:         "proj-1",
		ClientName: "João Silva",
		Address:    "Rua das Flores, 123 - Campinas, SP",
		Status:     types.StatusAguardandoAnalise,
		PowerKwp:   decimal.NewFromFloat(4.5),
	}
}

func TestAnalyzeSurveyRequiresSurveyData(t *testing.T) {
	d := NewDrafter(&fakeGenerator{reply: "ok"})
	if _, err := d.AnalyzeSurvey(context.Background(), testProject(), nil); err == nil {
		t.Error("analysis without survey data must fail")
	}
}

func TestAnalyzeSurveyPromptCarriesSurvey(t *testing.T) {
	gen := &fakeGenerator{reply: "Análise de viabilidade..."}
	d := NewDrafter(gen)

	survey := &repository.SurveyData{
		RoofType:           "Cerâmica",
		AverageConsumption: 450,
		Photos:             []string{"a.jpg", "b.jpg", "c.jpg"},
	}
	got, err := d.AnalyzeSurvey(context.Background(), testProject(), survey)
	if err != nil {
		t.Fatalf("AnalyzeSurvey: %v", err)
	}
	if got != "Análise de viabilidade..." {
		t.Errorf("unexpected draft: %q", got)
	}
	if !strings.Contains(gen.lastPrompt, "Cerâmica") || !strings.Contains(gen.lastPrompt, "João Silva") {
		t.Error("prompt must include survey and project data")
	}
	if gen.longCalled {
		t.Error("analysis uses the fast model")
	}
}

func TestGenerateMemorialUsesLongModel(t *testing.T) {
	gen := &fakeGenerator{reply: "Memorial Descritivo..."}
	d := NewDrafter(gen)

	if _, err := d.GenerateMemorial(context.Background(), testProject()); err != nil {
		t.Fatalf("GenerateMemorial: %v", err)
	}
	if !gen.longCalled {
		t.Error("memorial drafting must use the long-form model")
	}
}

func TestLookupEquipmentSpecsPropagatesError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	d := NewDrafter(gen)

	if _, err := d.LookupEquipmentSpecs(context.Background(), "HiKu6", types.EquipmentModulo); err == nil {
		t.Error("generator error must surface")
	}
}

func TestParseSpecsJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]interface{}
	}{
		{
			name: "plain object",
			in:   `{"potencia": "550W"}`,
			want: map[string]interface{}{"potencia": "550W"},
		},
		{
			name: "fenced json",
			in:   "```json\n{\"potencia\": \"550W\"}\n```",
			want: map[string]interface{}{"potencia": "550W"},
		},
		{
			name: "surrounding prose",
			in:   "Aqui estão os dados:\n{\"eficiencia\": \"21.3%\"}\nEspero ter ajudado!",
			want: map[string]interface{}{"eficiencia": "21.3%"},
		},
		{
			name: "no object",
			in:   "Não encontrei especificações para esse equipamento.",
			want: nil,
		},
		{
			name: "broken json",
			in:   `{"potencia": `,
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseSpecsJSON(tc.in)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("parseSpecsJSON(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("key %q = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
