package types

// Project status values, in workflow order
const (
	StatusVistoria          = "Vistoria"
	StatusAguardandoAnalise = "Aguardando Análise"
	StatusAnalise           = "Análise Técnica"
	StatusSubmissao         = "Submissão Concessionária"
	StatusInstalacao        = "Instalação"
	StatusComissionamento   = "Comissionamento"
	StatusConcluido         = "Concluído"
)

// User roles
const (
	RoleIntegrador = "Integrador"
	RoleEngenharia = "Engenharia"
	RoleAdmin      = "Admin"
)

// Notification types
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
)

// Notification actions
const (
	ActionAcceptSurvey = "accept_survey"
)

// Equipment types
const (
	EquipmentModulo    = "Módulo"
	EquipmentInversor  = "Inversor"
	EquipmentEstrutura = "Estrutura"
	EquipmentProtecao  = "Proteção"
)

// Concessionária (utility) submission labels
const (
	ConcessionariaPendente  = "Pendente"
	ConcessionariaAprovado  = "Aprovado"
	ConcessionariaEmRevisao = "Em Revisão"
)

// StatusOrder is the fixed workflow sequence. Advancing and retracting a
// project moves exactly one position in this slice.
var StatusOrder = []string{
	StatusVistoria,
	StatusAguardandoAnalise,
	StatusAnalise,
	StatusSubmissao,
	StatusInstalacao,
	StatusComissionamento,
	StatusConcluido,
}

var ValidRoles = []string{RoleIntegrador, RoleEngenharia, RoleAdmin}

var ValidNotificationTypes = []string{
	NotificationInfo, NotificationSuccess, NotificationWarning,
}

var ValidEquipmentTypes = []string{
	EquipmentModulo, EquipmentInversor, EquipmentEstrutura, EquipmentProtecao,
}

var ValidConcessionariaStatuses = []string{
	ConcessionariaPendente, ConcessionariaAprovado, ConcessionariaEmRevisao,
}

// Helper functions for validation
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidNotificationType(t string) bool {
	for _, n := range ValidNotificationTypes {
		if n == t {
			return true
		}
	}
	return false
}

func IsValidEquipmentType(t string) bool {
	for _, e := range ValidEquipmentTypes {
		if e == t {
			return true
		}
	}
	return false
}

func IsValidConcessionariaStatus(s string) bool {
	for _, c := range ValidConcessionariaStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// StatusIndex returns the position of a status in the workflow order, or
// -1 for an unknown value.
func StatusIndex(status string) int {
	for i, s := range StatusOrder {
		if s == status {
			return i
		}
	}
	return -1
}
