// Package actions supplies the action-application side of chained
// classification. The Planner computes what a rule's action does to a
// file snapshot and records the operation for a downstream executor;
// it never touches the filesystem itself.
package actions

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prismon/mcp-file-rules/internal/models"
	"github.com/prismon/mcp-file-rules/pkg/logger"
	"github.com/sirupsen/logrus"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("actions")
}

// PlannedOperation is one recorded action, in application order.
type PlannedOperation struct {
	RuleID   int64             `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	Action   models.ActionKind `json:"action"`
	Path     string            `json:"path"`
	Target   string            `json:"target"`
}

// Planner interprets rule actions against file snapshots. Safe for
// concurrent use; independent chains share one planner during a batch.
type Planner struct {
	mu      sync.Mutex
	planned []PlannedOperation
}

// NewPlanner creates an empty planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Apply satisfies engine.ApplyActionFunc. It returns a new descriptor
// reflecting the rule's action and records the operation; the input
// snapshot is never mutated.
func (p *Planner) Apply(ctx context.Context, file *models.FileDescriptor, rule *models.Rule) (*models.FileDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	updated := file.Clone()

	switch rule.ActionKind {
	case models.ActionMove:
		if rule.DestinationRef == "" {
			return nil, fmt.Errorf("rule %q: move action requires a destination", rule.Name)
		}
		updated.SourceLocation = rule.DestinationRef
		updated.Path = filepath.Join(rule.DestinationRef, file.Name)

	case models.ActionRename:
		if rule.DestinationRef == "" {
			return nil, fmt.Errorf("rule %q: rename action requires a new name", rule.Name)
		}
		updated.Name = rule.DestinationRef
		updated.Extension = strings.TrimPrefix(filepath.Ext(rule.DestinationRef), ".")
		updated.Path = filepath.Join(filepath.Dir(file.Path), rule.DestinationRef)

	case models.ActionRetag:
		if rule.DestinationRef == "" {
			return nil, fmt.Errorf("rule %q: retag action requires a kind tag", rule.Name)
		}
		updated.Kind = rule.DestinationRef

	default:
		return nil, fmt.Errorf("rule %q: unknown action kind %q", rule.Name, rule.ActionKind)
	}

	op := PlannedOperation{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Action:   rule.ActionKind,
		Path:     file.Path,
		Target:   rule.DestinationRef,
	}

	p.mu.Lock()
	p.planned = append(p.planned, op)
	p.mu.Unlock()

	log.WithFields(logrus.Fields{
		"rule":   rule.Name,
		"action": rule.ActionKind,
		"path":   file.Path,
		"target": rule.DestinationRef,
	}).Debug("Planned action")

	return updated, nil
}

// Planned returns a copy of the recorded operations.
func (p *Planner) Planned() []PlannedOperation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlannedOperation, len(p.planned))
	copy(out, p.planned)
	return out
}

// Reset clears the recorded operations.
func (p *Planner) Reset() {
	p.mu.Lock()
	p.planned = nil
	p.mu.Unlock()
}
