// internal/domain/models/inspection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConstructionObject is a site under inspection.
type ConstructionObject struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Address     string             `bson:"address" json:"address"`
	Latitude    float64            `bson:"latitude" json:"latitude"`
	Longitude   float64            `bson:"longitude" json:"longitude"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	DeveloperID primitive.ObjectID `bson:"developer_id" json:"developer_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Review statuses
const (
	ReviewPlanned    = "planned"
	ReviewInProgress = "in_progress"
	ReviewCompleted  = "completed"
	ReviewCancelled  = "cancelled"
)

// Review is a scheduled inspection of a construction object.
type Review struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	ObjectID    primitive.ObjectID  `bson:"object_id" json:"object"`
	PlannedDate time.Time           `bson:"planned_date" json:"planned_date"`
	AssignedTo  *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to"`
	Status      string              `bson:"status" json:"status"`
	CreatedBy   *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`

	// Denormalized from the object for mobile clients (list view only).
	Latitude  float64 `bson:"-" json:"latitude,omitempty"`
	Longitude float64 `bson:"-" json:"longitude,omitempty"`
}

// Photo is an uploaded image attached to a report or issue.
type Photo struct {
	Path        string    `bson:"path" json:"path"`
	ContentType string    `bson:"content_type" json:"content_type"`
	UploadedAt  time.Time `bson:"uploaded_at" json:"uploaded_at"`

	// URL is resolved from Path by the storage backend when responding.
	URL string `bson:"-" json:"url,omitempty"`
}

// Report is an inspector's written finding for a review.
type Report struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReviewID  primitive.ObjectID  `bson:"review_id" json:"review"`
	Comment   string              `bson:"comment" json:"comment"`
	CreatedBy *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	Photos    []Photo             `bson:"photos" json:"photos"`
}

// Issue statuses
const (
	IssueOpen       = "open"
	IssueInProgress = "in_progress"
	IssueResolved   = "resolved"
)

// IsValidIssueStatus checks if an issue status is valid.
func IsValidIssueStatus(s string) bool {
	return s == IssueOpen || s == IssueInProgress || s == IssueResolved
}

// Issue is a defect found during a review.
type Issue struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ReviewID    primitive.ObjectID  `bson:"review_id" json:"review"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description" json:"description"`
	Status      string              `bson:"status" json:"status"`
	CreatedBy   *primitive.ObjectID `bson:"created_by,omitempty" json:"created_by"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
	Photos      []Photo             `bson:"photos" json:"photos"`
}
