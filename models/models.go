package models

import (
	"time"

	"gorm.io/datatypes"
)

// Analysis records one analyze call over a source file or snippet.
type Analysis struct {
	ID    string `gorm:"primaryKey;type:varchar(20)"`
	RunID string `gorm:"type:varchar(20);index"`

	// Input details
	Path string `gorm:"type:varchar(512)"`
	Kind string `gorm:"type:varchar(20);not null"` // function, procedure, trigger, query

	// Extracted metadata
	ObjectName  string `gorm:"type:varchar(255)"`
	LinesOfCode int    `gorm:"default:0"`
	OuterJoins  int    `gorm:"default:0"`

	// Rule hits and parse diagnostics as reported
	RuleHits    datatypes.JSON `gorm:"type:jsonb"`
	Diagnostics datatypes.JSON `gorm:"type:jsonb"`

	// SHA256 of the analyzed source
	SourceDigest string `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`

	// Relationships
	Rewrites []Rewrite `gorm:"foreignKey:AnalysisID"`
}

// Rewrite records one applied rule rewrite.
type Rewrite struct {
	ID         string `gorm:"primaryKey;type:varchar(20)"`
	AnalysisID string `gorm:"type:varchar(20);index"`

	Rule     string         `gorm:"type:varchar(20);not null"` // CYAR-xxxx
	Location datatypes.JSON `gorm:"type:jsonb"`                // TextRange of the match

	// Checksums for validation
	BaseDigest  string `gorm:"type:varchar(64)"` // SHA256 of the input text
	AfterDigest string `gorm:"type:varchar(64)"` // SHA256 of the rewritten text

	Diff string `gorm:"type:text"`

	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// Run tracks one CLI invocation over a set of files.
type Run struct {
	ID        string    `gorm:"primaryKey;type:varchar(20)"`
	StartedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time

	// Statistics
	AnalysesCount int `gorm:"default:0"`
	RewritesCount int `gorm:"default:0"`

	// Invocation details
	Args datatypes.JSON `gorm:"type:jsonb"`
}

// TableName customizations for cleaner names
func (Analysis) TableName() string { return "analyses" }
func (Rewrite) TableName() string  { return "rewrites" }
func (Run) TableName() string      { return "runs" }
