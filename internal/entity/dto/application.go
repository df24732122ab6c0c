package dto

import "time"

// ApplyRequest is the investor application payload.
type ApplyRequest struct {
	Pitch         string `json:"pitch" binding:"required"`
	Accreditation bool   `json:"accreditation"`
}

// DecisionRequest is an admin decision on an application.
type DecisionRequest struct {
	ApplicationID uint   `json:"applicationId" binding:"required"`
	Decision      string `json:"decision" binding:"required,oneof=approved denied"`
}

// DecisionResponse acknowledges an admin decision.
type DecisionResponse struct {
	OK            bool   `json:"ok"`
	Decision      string `json:"decision"`
	ApplicationID uint   `json:"applicationId"`
}

// ApplicationItem is an application as seen by its owner or an admin.
type ApplicationItem struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"userId"`
	Email          string     `json:"email,omitempty"`
	FirstName      string     `json:"firstName,omitempty"`
	LastName       string     `json:"lastName,omitempty"`
	Pitch          string     `json:"pitch"`
	Accreditation  bool       `json:"accreditation"`
	Status         string     `json:"status"`
	DecidedBy      *uint      `json:"decidedBy"`
	DecidedByEmail string     `json:"decidedByEmail,omitempty"`
	DecidedAt      *time.Time `json:"decidedAt"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	HasEvidence    bool       `json:"hasEvidence"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ApplicationResponse wraps a single application.
type ApplicationResponse struct {
	Application ApplicationItem `json:"application"`
}

// ApplicationListResponse is the admin listing.
type ApplicationListResponse struct {
	Applications []ApplicationItem `json:"applications"`
}
