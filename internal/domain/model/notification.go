package model

import "time"

// NotificationKind classifies a status notice.
type NotificationKind string

// Notification kinds delivered to citizens and workers.
const (
	NoticeReportReceived NotificationKind = "report_received"
	NoticeTaskClaimed    NotificationKind = "task_claimed"
	NoticeStatusChanged  NotificationKind = "status_changed"
	NoticeRequestOverdue NotificationKind = "request_overdue"
)

// Notification is a status notice addressed to a citizen or a worker.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	RequestID   string           `json:"request_id"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}
