package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeActivityRecorded = "activity.recorded"
	EventTypeUserUpdated      = "user.updated"
	EventTypeEmployeeUpdated  = "employee.updated"
	EventTypeBackupCompleted  = "backup.completed"
)

type ActivityRecordedEvent struct {
	BaseEvent
	EntryID  string `json:"entry_id"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

func NewActivityRecordedEvent(entryID, category, action string) *ActivityRecordedEvent {
	return &ActivityRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeActivityRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id": entryID,
				"category": category,
				"action":   action,
			},
		},
		EntryID:  entryID,
		Category: category,
		Action:   action,
	}
}

type UserUpdatedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Operation string `json:"operation"`
}

func NewUserUpdatedEvent(userID int64, operation string) *UserUpdatedEvent {
	return &UserUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"operation": operation,
			},
		},
		UserID:    userID,
		Operation: operation,
	}
}

type EmployeeUpdatedEvent struct {
	BaseEvent
	EmployeeID int64  `json:"employee_id"`
	Operation  string `json:"operation"`
}

func NewEmployeeUpdatedEvent(employeeID int64, operation string) *EmployeeUpdatedEvent {
	return &EmployeeUpdatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEmployeeUpdated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"employee_id": employeeID,
				"operation":   operation,
			},
		},
		EmployeeID: employeeID,
		Operation:  operation,
	}
}

type BackupCompletedEvent struct {
	BaseEvent
	Kind string `json:"kind"`
	Size int    `json:"size"`
}

func NewBackupCompletedEvent(kind string, size int) *BackupCompletedEvent {
	return &BackupCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBackupCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"kind": kind,
				"size": size,
			},
		},
		Kind: kind,
		Size: size,
	}
}
