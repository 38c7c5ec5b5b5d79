// Package db persists the tool's own bookkeeping: which sources were
// analyzed, which rules were applied, and the digests proving what text
// each rewrite was based on.
package db

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/sqlmorph/core"
	"github.com/oxhq/sqlmorph/models"
)

// History records analyses and rewrites for one run.
type History struct {
	db  *gorm.DB
	run models.Run
}

// NewHistory opens a run record on the given database.
func NewHistory(gdb *gorm.DB, args []string) (*History, error) {
	argsJSON, _ := json.Marshal(args)
	run := models.Run{
		ID:   generateID("run"),
		Args: datatypes.JSON(argsJSON),
	}
	if err := gdb.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	return &History{db: gdb, run: run}, nil
}

// RunID returns the identifier of the open run.
func (h *History) RunID() string { return h.run.ID }

// RecordAnalysis persists one analysis result and returns its ID.
func (h *History) RecordAnalysis(path, kind, source string, md core.Metadata) (string, error) {
	hits, _ := json.Marshal(md.Rules)
	diags, _ := json.Marshal(md.Diagnostics)

	rec := models.Analysis{
		ID:           generateID("ana"),
		RunID:        h.run.ID,
		Path:         path,
		Kind:         kind,
		RuleHits:     datatypes.JSON(hits),
		Diagnostics:  datatypes.JSON(diags),
		SourceDigest: Digest(source),
	}
	switch {
	case md.Function != nil:
		rec.ObjectName = md.Function.Name
		rec.LinesOfCode = md.Function.LinesOfCode
	case md.Procedure != nil:
		rec.ObjectName = md.Procedure.Name
		rec.LinesOfCode = md.Procedure.LinesOfCode
	case md.Trigger != nil:
		rec.ObjectName = md.Trigger.Name
		rec.LinesOfCode = md.Trigger.LinesOfCode
	case md.Query != nil:
		rec.OuterJoins = md.Query.OuterJoins
	}

	if err := h.db.Create(&rec).Error; err != nil {
		return "", fmt.Errorf("failed to record analysis: %w", err)
	}
	h.run.AnalysesCount++
	return rec.ID, nil
}

// RecordRewrite persists one applied rule rewrite.
func (h *History) RecordRewrite(analysisID, ruleName string, loc core.TextRange, before, after, diff string) error {
	locJSON, _ := json.Marshal(loc)
	rec := models.Rewrite{
		ID:          generateID("rwr"),
		AnalysisID:  analysisID,
		Rule:        ruleName,
		Location:    datatypes.JSON(locJSON),
		BaseDigest:  Digest(before),
		AfterDigest: Digest(after),
		Diff:        diff,
	}
	if err := h.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record rewrite: %w", err)
	}
	h.run.RewritesCount++
	return nil
}

// Close stamps the run's end time and flushes the counters.
func (h *History) Close() error {
	now := time.Now()
	h.run.EndedAt = &now
	return h.db.Save(&h.run).Error
}

// Digest returns the hex SHA-256 of a source text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// generateID creates a unique identifier with a prefix
func generateID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(bytes))
}
