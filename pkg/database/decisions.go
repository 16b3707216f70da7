package database

import (
	"database/sql"
	"encoding/json"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// Decision log operations. Every classified file gets one row so rule
// behavior stays auditable after the fact.

// RecordDecision writes one classification outcome for a batch.
func (d *RulesDB) RecordDecision(batchID string, outcome *models.MatchOutcome, durationMs int64) error {
	var matchedRuleID *int64
	if outcome.MatchedRule != nil {
		id := outcome.MatchedRule.ID
		matchedRuleID = &id
	}

	appliedJSON, err := json.Marshal(outcome.AppliedRuleIDs)
	if err != nil {
		return err
	}

	var errorMsg *string
	if outcome.Err != nil {
		msg := outcome.Err.Error()
		errorMsg = &msg
	}

	_, err = d.db.Exec(`
		INSERT INTO decisions (batch_id, file_path, matched_rule_id,
			termination_reason, applied_rule_ids, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, batchID, outcome.FinalFile.Path, matchedRuleID,
		string(outcome.TerminationReason), string(appliedJSON), errorMsg, durationMs)
	return err
}

// ListDecisions returns the decisions for one batch, oldest first.
func (d *RulesDB) ListDecisions(batchID string) ([]*models.Decision, error) {
	rows, err := d.db.Query(`
		SELECT id, batch_id, file_path, matched_rule_id, termination_reason,
			applied_rule_ids, error_message, duration_ms, decided_at
		FROM decisions
		WHERE batch_id = ?
		ORDER BY id ASC
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*models.Decision
	for rows.Next() {
		var dec models.Decision
		var matchedRuleID sql.NullInt64
		var errorMsg sql.NullString
		var durationMs sql.NullInt64

		if err := rows.Scan(&dec.ID, &dec.BatchID, &dec.FilePath, &matchedRuleID,
			&dec.TerminationReason, &dec.AppliedRuleIDs, &errorMsg,
			&durationMs, &dec.DecidedAt); err != nil {
			return nil, err
		}

		if matchedRuleID.Valid {
			dec.MatchedRuleID = &matchedRuleID.Int64
		}
		if errorMsg.Valid {
			dec.ErrorMessage = &errorMsg.String
		}
		if durationMs.Valid {
			dec.DurationMs = durationMs.Int64
		}

		decisions = append(decisions, &dec)
	}

	return decisions, rows.Err()
}
