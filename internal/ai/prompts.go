package ai

import (
	"fmt"
	"strings"

	"github.com/appprovts/SolarFlowPro/internal/repository"
)

func surveyAnalysisPrompt(project *repository.Project, survey *repository.SurveyData) string {
	var b strings.Builder
	b.WriteString("Analise os seguintes dados de vistoria técnica fotovoltaica e forneça recomendações de engenharia:\n")
	fmt.Fprintf(&b, "Cliente: %s\n", project.ClientName)
	fmt.Fprintf(&b, "Potência Estimada: %s kWp\n", project.PowerKwp.String())
	fmt.Fprintf(&b, "Tipo de Telhado: %s\n", survey.RoofType)
	fmt.Fprintf(&b, "Orientação do Telhado: %s\n", survey.RoofOrientation)
	fmt.Fprintf(&b, "Inclinação: %.0f°\n", survey.Inclination)
	fmt.Fprintf(&b, "Condição do Telhado: %s\n", survey.RoofCondition)
	fmt.Fprintf(&b, "Consumo Médio: %.0f kWh/mês\n", survey.AverageConsumption)
	fmt.Fprintf(&b, "Tipo de Conexão: %s em %s\n", survey.ConnectionType, survey.Voltage)
	fmt.Fprintf(&b, "Problemas de Sombreamento: %s\n", survey.ShadingIssues)
	if survey.Azimuth != nil {
		fmt.Fprintf(&b, "Azimute: %.0f°\n", *survey.Azimuth)
	}
	if survey.ElectricalPanelStatus != "" {
		fmt.Fprintf(&b, "Estado do Quadro Elétrico: %s\n", survey.ElectricalPanelStatus)
	}
	b.WriteString("\nForneça uma análise técnica concisa sobre a viabilidade, sugestões de melhoria no layout e alertas de segurança.")
	return b.String()
}

func memorialPrompt(project *repository.Project) string {
	var b strings.Builder
	b.WriteString("Gere um rascunho de Memorial Descritivo para submissão à concessionária de energia.\n")
	b.WriteString("Dados do Projeto:\n")
	fmt.Fprintf(&b, "- Cliente: %s\n", project.ClientName)
	fmt.Fprintf(&b, "- Endereço: %s\n", project.Address)
	fmt.Fprintf(&b, "- Potência do Gerador: %s kWp\n", project.PowerKwp.String())
	fmt.Fprintf(&b, "- Produção Mensal Estimada: %s kWh\n", project.EstimatedProduction.String())
	b.WriteString("\nO documento deve conter: Introdução, Descrição do Sistema, Características Técnicas dos Equipamentos (módulos e inversor), e Proteções. Use um tom profissional e técnico de engenharia elétrica.")
	return b.String()
}

func equipmentSpecsPrompt(name, equipmentType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Retorne as especificações técnicas do equipamento fotovoltaico a seguir.\n")
	fmt.Fprintf(&b, "Nome: %s\n", name)
	fmt.Fprintf(&b, "Categoria: %s\n", equipmentType)
	b.WriteString("\nResponda APENAS com um objeto JSON plano de pares chave-valor (sem markdown, sem explicações). ")
	b.WriteString("Use chaves em português, por exemplo: potencia, eficiencia, tensao, garantia, dimensoes, peso.")
	return b.String()
}
