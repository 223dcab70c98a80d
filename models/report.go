package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportPending:  {ReportReviewed},
	ReportReviewed: {ReportResolved},
}

func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	return slices.Contains(reportTransitions[s], next)
}

// OpenReportStatuses are the states that block a duplicate report.
var OpenReportStatuses = []ReportStatus{ReportPending, ReportReviewed}

var ReportableEntities = []string{EntityUser, EntityPet, EntityReview, EntityMessage}

type Report struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	ReporterID   uint                        `json:"reporter_id" gorm:"index;not null"`
	EntityType   string                      `json:"entity_type" gorm:"index:idx_report_entity;not null"`
	EntityID     uint                        `json:"entity_id" gorm:"index:idx_report_entity;not null"`
	Reason       string                      `json:"reason" gorm:"not null"`
	Details      string                      `json:"details,omitempty"`
	EvidenceURLs datatypes.JSONSlice[string] `json:"evidence_urls"`
	Status       ReportStatus                `json:"status" gorm:"index;not null"`
	AdminNotes   string                      `json:"admin_notes,omitempty"`
	ReviewedBy   *uint                       `json:"reviewed_by,omitempty"`
	ResolvedAt   *time.Time                  `json:"resolved_at,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}
