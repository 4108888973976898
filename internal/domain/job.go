package domain

import (
	"encoding/json"
	"time"
)

// Category enumerates supported generation job categories.
type Category string

const (
	CategoryWorkout    Category = "workout"
	CategoryMeal       Category = "meal"
	CategoryInbodyScan Category = "inbody-scan"
	CategoryBodyPhoto  Category = "body-photo"
)

// Categories lists every supported category in a stable order.
var Categories = []Category{CategoryWorkout, CategoryMeal, CategoryInbodyScan, CategoryBodyPhoto}

// Valid reports whether the category is one of the supported kinds.
func (c Category) Valid() bool {
	switch c {
	case CategoryWorkout, CategoryMeal, CategoryInbodyScan, CategoryBodyPhoto:
		return true
	}
	return false
}

// VisionBased reports whether generation for the category consumes an image.
func (c Category) VisionBased() bool {
	return c == CategoryInbodyScan || c == CategoryBodyPhoto
}

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStateQueued    JobState = "queued"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether the state is final and immutable.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Job encapsulates the lifecycle of one asynchronous generation request.
// The queue exclusively owns the record while it is non-terminal; once
// terminal, ownership of the artifact reference passes to the domain store.
type Job struct {
	ID            string
	UserID        string
	Category      Category
	Payload       json.RawMessage
	State         JobState
	Attempt       int
	// Charged records that the job's usage unit landed on the quota
	// ledger. It survives redelivery so a resumed job never charges twice.
	Charged       bool
	Progress      int
	ResultRef     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
