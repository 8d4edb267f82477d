// Package model provides domain types shared across packages.
package model

import (
	"fmt"
	"time"
)

// Dependency is a material a business relies on and the country it is
// predominantly sourced from. On disk the origin is stored as "location".
type Dependency struct {
	Material string `json:"material" jsonschema:"minLength=1"`
	Origin   string `json:"location" jsonschema:"minLength=1"`
}

// String returns a human-readable representation.
func (d Dependency) String() string {
	return fmt.Sprintf("%s (%s)", d.Material, d.Origin)
}

// RiskAssessment is the structured judgement the analyst derives from
// collected news.
type RiskAssessment struct {
	// Score ranges from 0 to 10; 0 means no relevant information was found.
	Score        float64 `json:"risk_score" jsonschema:"minimum=0,maximum=10"`
	Reason       string  `json:"reason"`
	ActionNeeded bool    `json:"action_needed"`
	// RetrySearch is the model's hint that a broader query may help.
	RetrySearch bool `json:"retry_search,omitempty"`
}

// Alert is delivered to notifiers when a dependency crosses the threshold.
type Alert struct {
	Dependency Dependency     `json:"dependency"`
	Assessment RiskAssessment `json:"assessment"`
	Key        string         `json:"key"`
	RaisedAt   time.Time      `json:"raised_at"`
}
