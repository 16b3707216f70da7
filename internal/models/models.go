package models

import "time"

// FileDescriptor is an immutable snapshot of one file's attributes.
// Conditions only ever consume this snapshot; the engine never re-reads
// the filesystem mid-evaluation.
type FileDescriptor struct {
	Path           string    `db:"path" json:"path"`
	Name           string    `db:"name" json:"name"`
	Extension      string    `db:"extension" json:"extension"` // no leading dot
	Size           int64     `db:"size" json:"size"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	ModifiedAt     time.Time `db:"modified_at" json:"modifiedAt"`
	AccessedAt     time.Time `db:"accessed_at" json:"accessedAt"`
	Kind           string    `db:"kind" json:"kind"`                      // e.g. "image", "document"
	SourceLocation string    `db:"source_location" json:"sourceLocation"` // opaque location tag
}

// Clone returns a copy of the descriptor. Action application returns a
// new descriptor rather than mutating the input.
func (f *FileDescriptor) Clone() *FileDescriptor {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

// ActionKind identifies what a rule does to a matched file. The engine
// treats it as opaque; pkg/actions interprets it.
type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionRename ActionKind = "rename"
	ActionRetag  ActionKind = "retag"
)

// Rule is one user-authored classification rule. Rules are produced by
// an external authoring layer and handed to the engine as read-only
// snapshots; evaluation never mutates a rule.
type Rule struct {
	ID        int64  `db:"id" json:"id,omitempty"`
	Name      string `db:"name" json:"name"`
	Priority  int    `db:"priority" json:"priority"` // lower = evaluated earlier
	CreatedAt int64  `db:"created_at" json:"created_at"`
	Enabled   bool   `db:"enabled" json:"enabled"`

	// Conditions is the single source of truth for inclusion matching.
	// An empty list never matches.
	Conditions      []*Condition    `json:"conditions"`
	LogicalOperator LogicalOperator `json:"logicalOperator"`

	// ExclusionConditions are an implicit OR: any match vetoes the rule.
	ExclusionConditions []*Condition `json:"exclusionConditions,omitempty"`

	ActionKind     ActionKind `json:"actionKind"`
	DestinationRef string     `json:"destinationRef,omitempty"` // opaque to the engine

	ChainingEnabled bool `json:"chainingEnabled"`
	MaxChainDepth   int  `json:"maxChainDepth,omitempty"`
}

// TerminationReason classifies how a chain evaluation ended.
type TerminationReason string

const (
	TerminationMatched         TerminationReason = "matched"
	TerminationNoMatch         TerminationReason = "no_match"
	TerminationDepthLimited    TerminationReason = "depth_limited"
	TerminationCycleTerminated TerminationReason = "cycle_terminated"
	TerminationActionFailed    TerminationReason = "action_failed"
)

// MatchOutcome is the result of a chained evaluation handed back to the
// caller. AppliedRuleIDs preserves application order.
type MatchOutcome struct {
	MatchedRule       *Rule             `json:"matchedRule,omitempty"`
	FinalFile         *FileDescriptor   `json:"finalFile"`
	AppliedRuleIDs    []int64           `json:"appliedRuleIds"`
	TerminationReason TerminationReason `json:"terminationReason"`
	Err               error             `json:"-"`
}

// Decision is one persisted classification outcome, the audit trail row
// written after a file has been evaluated as part of a batch.
type Decision struct {
	ID                int64   `db:"id" json:"id,omitempty"`
	BatchID           string  `db:"batch_id" json:"batch_id"`
	FilePath          string  `db:"file_path" json:"file_path"`
	MatchedRuleID     *int64  `db:"matched_rule_id" json:"matched_rule_id,omitempty"`
	TerminationReason string  `db:"termination_reason" json:"termination_reason"`
	AppliedRuleIDs    string  `db:"applied_rule_ids" json:"applied_rule_ids"` // JSON array
	ErrorMessage      *string `db:"error_message" json:"error_message,omitempty"`
	DurationMs        int64   `db:"duration_ms" json:"duration_ms"`
	DecidedAt         int64   `db:"decided_at" json:"decided_at"`
}
