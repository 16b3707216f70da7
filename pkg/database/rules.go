package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/sirupsen/logrus"
)

// Rule Operations
//
// Conditions are stored as JSON columns; rows are rehydrated into
// models.Rule values on read. ListRules returns insertion order;
// evaluation order is the engine sorter's job, not a SQL ORDER BY, so
// ordering logic exists in exactly one place.

// CreateRule inserts a rule and returns its id.
func (d *RulesDB) CreateRule(rule *models.Rule) (int64, error) {
	log.WithFields(logrus.Fields{
		"name":     rule.Name,
		"enabled":  rule.Enabled,
		"priority": rule.Priority,
	}).Info("Creating rule")

	conditionsJSON, exclusionsJSON, err := marshalConditions(rule)
	if err != nil {
		return 0, err
	}

	result, err := d.db.Exec(`
		INSERT INTO rules (name, priority, enabled, logical_operator, conditions_json,
			exclusions_json, action_kind, destination_ref, chaining_enabled, max_chain_depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.Name, rule.Priority, boolToInt(rule.Enabled), string(rule.LogicalOperator),
		conditionsJSON, exclusionsJSON, string(rule.ActionKind), rule.DestinationRef,
		boolToInt(rule.ChainingEnabled), rule.MaxChainDepth)

	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// GetRule retrieves a rule by name. Returns nil when absent.
func (d *RulesDB) GetRule(name string) (*models.Rule, error) {
	row := d.db.QueryRow(ruleSelect+" WHERE name = ?", name)
	return scanRule(row)
}

// GetRuleByID retrieves a rule by id. Returns nil when absent.
func (d *RulesDB) GetRuleByID(id int64) (*models.Rule, error) {
	row := d.db.QueryRow(ruleSelect+" WHERE id = ?", id)
	return scanRule(row)
}

// ListRules returns all rules, optionally only enabled ones, in
// insertion order.
func (d *RulesDB) ListRules(enabledOnly bool) ([]*models.Rule, error) {
	query := ruleSelect
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY id ASC"

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// UpdateRule rewrites an existing rule by name.
func (d *RulesDB) UpdateRule(rule *models.Rule) error {
	log.WithField("name", rule.Name).Info("Updating rule")

	conditionsJSON, exclusionsJSON, err := marshalConditions(rule)
	if err != nil {
		return err
	}

	result, err := d.db.Exec(`
		UPDATE rules
		SET priority = ?, enabled = ?, logical_operator = ?, conditions_json = ?,
			exclusions_json = ?, action_kind = ?, destination_ref = ?,
			chaining_enabled = ?, max_chain_depth = ?,
			updated_at = strftime('%s', 'now')
		WHERE name = ?
	`, rule.Priority, boolToInt(rule.Enabled), string(rule.LogicalOperator),
		conditionsJSON, exclusionsJSON, string(rule.ActionKind), rule.DestinationRef,
		boolToInt(rule.ChainingEnabled), rule.MaxChainDepth, rule.Name)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", rule.Name)
	}
	return nil
}

// SetRuleEnabled toggles a rule by name.
func (d *RulesDB) SetRuleEnabled(name string, enabled bool) error {
	result, err := d.db.Exec(`
		UPDATE rules SET enabled = ?, updated_at = strftime('%s', 'now') WHERE name = ?
	`, boolToInt(enabled), name)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", name)
	}
	return nil
}

// DeleteRule removes a rule by name.
func (d *RulesDB) DeleteRule(name string) error {
	log.WithField("name", name).Info("Deleting rule")

	result, err := d.db.Exec(`DELETE FROM rules WHERE name = ?`, name)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", name)
	}
	return nil
}

const ruleSelect = `
	SELECT id, name, priority, enabled, logical_operator, conditions_json,
		exclusions_json, action_kind, destination_ref, chaining_enabled,
		max_chain_depth, created_at
	FROM rules`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var rule models.Rule
	var enabled, chaining int
	var operator, actionKind, conditionsJSON string
	var exclusionsJSON, destinationRef sql.NullString

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Priority, &enabled, &operator, &conditionsJSON,
		&exclusionsJSON, &actionKind, &destinationRef, &chaining,
		&rule.MaxChainDepth, &rule.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	rule.ChainingEnabled = chaining == 1
	rule.LogicalOperator = models.LogicalOperator(operator)
	rule.ActionKind = models.ActionKind(actionKind)
	if destinationRef.Valid {
		rule.DestinationRef = destinationRef.String
	}

	if err := json.Unmarshal([]byte(conditionsJSON), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to parse conditions for rule %s: %w", rule.Name, err)
	}
	if exclusionsJSON.Valid && exclusionsJSON.String != "" {
		if err := json.Unmarshal([]byte(exclusionsJSON.String), &rule.ExclusionConditions); err != nil {
			return nil, fmt.Errorf("failed to parse exclusions for rule %s: %w", rule.Name, err)
		}
	}

	return &rule, nil
}

func marshalConditions(rule *models.Rule) (string, string, error) {
	conditions := rule.Conditions
	if conditions == nil {
		conditions = []*models.Condition{}
	}
	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal conditions: %w", err)
	}

	var exclusionsJSON []byte
	if len(rule.ExclusionConditions) > 0 {
		exclusionsJSON, err = json.Marshal(rule.ExclusionConditions)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal exclusions: %w", err)
		}
	}

	return string(conditionsJSON), string(exclusionsJSON), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
