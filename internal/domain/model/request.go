package model

import "time"

// ServiceRequest is a civic issue report filed by a citizen.
// SLADeadline is optional; a nil deadline means no SLA applies and the
// request is invisible to the deadline sweep.
type ServiceRequest struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	CategoryID       string     `json:"category_id"`
	Status           Status     `json:"status"`
	Priority         Priority   `json:"priority"`
	CitizenID        string     `json:"citizen_id"`
	AssignedWorkerID *string    `json:"assigned_worker_id,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	Address          string     `json:"address,omitempty"`
	PhotoURL         string     `json:"photo_url,omitempty"`
	SLADeadline      *time.Time `json:"sla_deadline,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SlaViolation is an immutable record of one deadline breach. WorkerID is
// nil when the request was unassigned at the time of the breach.
type SlaViolation struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	WorkerID   *string   `json:"worker_id,omitempty"`
	DelayHours float64   `json:"delay_hours"`
	CreatedAt  time.Time `json:"created_at"`
}
