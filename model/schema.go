package model

import "github.com/richinex/supplysentinel/internal/schema"

// Schemas for the records that cross a deserialization boundary: model
// output and the dependency list file.
var (
	DependencyListSchema = schema.MustValidator([]Dependency{})
	RiskAssessmentSchema = schema.MustValidator(&RiskAssessment{})
)
