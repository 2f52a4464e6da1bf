package socket

import (
	"fmt"
)

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ============================================
// Notification Broadcasting
// ============================================

// SendNotification sends a notification to a specific user
func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

// SendNotificationRead tells a user's other connections that notifications
// were read, so open tabs stay in sync
func (b *Broadcaster) SendNotificationRead(userID string, notificationIDs []string) {
	b.hub.SendToUser(userID, MessageNotificationRead, map[string]interface{}{
		"ids": notificationIDs,
	})
}

// SendNotificationCount pushes the user's refreshed unread count
func (b *Broadcaster) SendNotificationCount(userID string, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"count": unread,
	})
}

// ============================================
// Project Broadcasting
// ============================================

// BroadcastProjectCreated announces a new project to every connected client.
// Everyone sees the board, so project lifecycle events go out globally and
// clients filter by role on their side.
func (b *Broadcaster) BroadcastProjectCreated(project map[string]interface{}, excludeUserID string) {
	b.hub.Broadcast(MessageProjectCreated, map[string]interface{}{
		"project":       project,
		"createdByUser": excludeUserID,
	})
}

// BroadcastProjectUpdated broadcasts project field changes to watchers of the project room
func (b *Broadcaster) BroadcastProjectUpdated(projectID string, project map[string]interface{}, changes []string, excludeUserID string) {
	room := fmt.Sprintf("project:%s", projectID)
	payload := map[string]interface{}{
		"project":       project,
		"changedFields": changes,
		"changedByUser": excludeUserID,
		"projectId":     projectID,
	}
	b.hub.SendToRoom(room, MessageProjectUpdated, payload, excludeUserID)
	b.hub.Broadcast(MessageProjectUpdated, payload)
}

// BroadcastProjectDeleted announces project removal
func (b *Broadcaster) BroadcastProjectDeleted(projectID string, excludeUserID string) {
	b.hub.Broadcast(MessageProjectDeleted, map[string]interface{}{
		"projectId": projectID,
	})
}

// BroadcastStatusChanged broadcasts a workflow transition
func (b *Broadcaster) BroadcastStatusChanged(projectID string, project map[string]interface{}, oldStatus, newStatus string, excludeUserID string) {
	b.hub.Broadcast(MessageProjectStatusChanged, map[string]interface{}{
		"project":       project,
		"projectId":     projectID,
		"oldStatus":     oldStatus,
		"newStatus":     newStatus,
		"changedByUser": excludeUserID,
	})
}

// BroadcastSurveySubmitted announces a completed site survey
func (b *Broadcaster) BroadcastSurveySubmitted(projectID string, project map[string]interface{}, submittedBy string) {
	b.hub.Broadcast(MessageSurveySubmitted, map[string]interface{}{
		"project":     project,
		"projectId":   projectID,
		"submittedBy": submittedBy,
	})
}

// BroadcastIntegratorAssigned notifies the assigned integrator directly
func (b *Broadcaster) BroadcastIntegratorAssigned(integratorUserID, projectID string, project map[string]interface{}, assignedBy string) {
	b.hub.SendToUser(integratorUserID, MessageIntegratorAssigned, map[string]interface{}{
		"project":    project,
		"projectId":  projectID,
		"assignedBy": assignedBy,
	})
}

// BroadcastAnalysisGenerated announces a fresh technical analysis draft
func (b *Broadcaster) BroadcastAnalysisGenerated(projectID string, excludeUserID string) {
	room := fmt.Sprintf("project:%s", projectID)
	b.hub.SendToRoom(room, MessageAnalysisGenerated, map[string]interface{}{
		"projectId": projectID,
	}, excludeUserID)
}

// BroadcastMemorialGenerated announces a fresh descriptive memorial draft
func (b *Broadcaster) BroadcastMemorialGenerated(projectID string, excludeUserID string) {
	room := fmt.Sprintf("project:%s", projectID)
	b.hub.SendToRoom(room, MessageMemorialGenerated, map[string]interface{}{
		"projectId": projectID,
	}, excludeUserID)
}
