// Package workflow holds the project status ordering and the role-gated
// rules over it: who sees which projects, which tabs and actions are
// available for a role at a given status, and how the status moves.
package workflow

import (
	"github.com/appprovts/SolarFlowPro/internal/types"
)

// MinSurveyPhotos is the evidence bar for finalizing a field survey.
// Submissions with fewer photos in the general album are rejected.
const MinSurveyPhotos = 3

// Advance returns the next status in the workflow order. At the last
// status (Concluído) it returns the input unchanged.
func Advance(status string) string {
	idx := types.StatusIndex(status)
	if idx < 0 || idx >= len(types.StatusOrder)-1 {
		return status
	}
	return types.StatusOrder[idx+1]
}

// Retract returns the previous status in the workflow order. At the
// first status (Vistoria) it returns the input unchanged.
func Retract(status string) string {
	idx := types.StatusIndex(status)
	if idx <= 0 {
		return status
	}
	return types.StatusOrder[idx-1]
}

// IsManagement reports whether the role carries engineering/admin
// privileges (flow control, project editing, documents).
func IsManagement(role string) bool {
	return role == types.RoleEngenharia || role == types.RoleAdmin
}

// VisibleTo reports whether a project is in the user's general lists.
// Integradores see only projects assigned to their name, plus projects
// not yet assigned to anyone. Management roles see everything.
func VisibleTo(role, userName, assignedIntegrator string) bool {
	if role != types.RoleIntegrador {
		return true
	}
	return assignedIntegrator == "" || assignedIntegrator == userName
}

// View names for server-side list filtering, mirroring the app's
// sidebar sections.
const (
	ViewAll        = ""
	ViewVistorias  = "vistorias"
	ViewEngenharia = "engenharia"
)

// vistoriaStatuses are the field-work phases shown in the Vistorias list.
var vistoriaStatuses = map[string]bool{
	types.StatusVistoria:          true,
	types.StatusAguardandoAnalise: true,
}

// pipelineStatuses are the phases shown on the Engenharia board.
var pipelineStatuses = map[string]bool{
	types.StatusAguardandoAnalise: true,
	types.StatusAnalise:           true,
	types.StatusSubmissao:         true,
	types.StatusInstalacao:        true,
	types.StatusComissionamento:   true,
}

// InView reports whether a status belongs to the named view. The
// engenharia view is reserved for management roles.
func InView(view, role, status string) bool {
	switch view {
	case ViewVistorias:
		return vistoriaStatuses[status]
	case ViewEngenharia:
		return IsManagement(role) && pipelineStatuses[status]
	default:
		return true
	}
}

// Capabilities describes what a role may do with a project at its
// current status. It is computed in one place so handlers and services
// do not re-derive role booleans ad hoc.
type Capabilities struct {
	EditSurvey       bool `json:"editSurvey"`
	EditInfo         bool `json:"editInfo"`
	ViewDocuments    bool `json:"viewDocuments"`
	ManageFlow       bool `json:"manageFlow"`
	Advance          bool `json:"advance"`
	Retract          bool `json:"retract"`
	Reset            bool `json:"reset"`
	RunAnalysis      bool `json:"runAnalysis"`
	GenerateMemorial bool `json:"generateMemorial"`
}

// CapabilitiesFor resolves the capability set for a role acting on a
// project in the given status.
func CapabilitiesFor(role, status string) Capabilities {
	mgmt := IsManagement(role)
	return Capabilities{
		EditSurvey:    role == types.RoleIntegrador && status == types.StatusVistoria,
		EditInfo:      mgmt,
		ViewDocuments: mgmt,
		ManageFlow:    mgmt,
		// Advancing out of Aguardando Análise is reserved for the
		// analysis action itself.
		Advance:          mgmt && status != types.StatusConcluido && status != types.StatusAguardandoAnalise,
		Retract:          mgmt && status != types.StatusVistoria,
		Reset:            mgmt,
		RunAnalysis:      mgmt && status == types.StatusAguardandoAnalise,
		GenerateMemorial: mgmt && status != types.StatusVistoria,
	}
}

// CanSubmitSurvey reports whether the acting user may finalize the
// survey of a project: the assigned integrator (or any management role)
// while the project is still in Vistoria. An unassigned project accepts
// a submission from any integrator, matching the visibility rule.
func CanSubmitSurvey(role, userName, assignedIntegrator, status string) bool {
	if status != types.StatusVistoria {
		return false
	}
	if IsManagement(role) {
		return true
	}
	if role != types.RoleIntegrador {
		return false
	}
	return assignedIntegrator == "" || assignedIntegrator == userName
}

// SurveyComplete applies the evidence gate: at least MinSurveyPhotos
// photos in the general album.
func SurveyComplete(photoCount int) bool {
	return photoCount >= MinSurveyPhotos
}
