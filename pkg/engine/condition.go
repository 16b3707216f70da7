package engine

import (
	"strings"
	"time"

	"github.com/prismon/mcp-file-rules/internal/models"
)

// EvaluateCondition evaluates a single condition against a file.
// It is total: malformed or unrecognized conditions evaluate to false
// (fail-closed) rather than erroring, so one bad condition can never
// abort a batch.
func (e *Evaluator) EvaluateCondition(cond *models.Condition, file *models.FileDescriptor) bool {
	return e.evaluateCondition(cond, file, e.now())
}

func (e *Evaluator) evaluateCondition(cond *models.Condition, file *models.FileDescriptor, at time.Time) bool {
	if cond == nil || file == nil {
		return false
	}

	switch cond.Type {
	case models.ConditionExtension:
		return textEqual(file.Extension, strings.TrimPrefix(cond.Value, "."), cond.CaseSensitive)

	case models.ConditionNameContains:
		return textContains(file.Name, cond.Value, cond.CaseSensitive)

	case models.ConditionNameStartsWith:
		return textHasPrefix(file.Name, cond.Value, cond.CaseSensitive)

	case models.ConditionNameEndsWith:
		return textHasSuffix(file.Name, cond.Value, cond.CaseSensitive)

	case models.ConditionSizeLargerThan:
		return file.Size > cond.Bytes

	case models.ConditionDateOlderThan:
		return e.matchDateOlderThan(cond, file, at)

	case models.ConditionKind:
		return textEqual(file.Kind, cond.Value, cond.CaseSensitive)

	case models.ConditionSourceLocation:
		return textEqual(file.SourceLocation, cond.Value, cond.CaseSensitive)

	case models.ConditionNot:
		if cond.Inner == nil {
			return false
		}
		return !e.evaluateCondition(cond.Inner, file, at)

	case models.ConditionGroup:
		// Nested groups form a tree, so recursion terminates.
		return e.evaluateAll(cond.Conditions, cond.Operator, file, at)

	default:
		log.WithField("conditionType", cond.Type).Trace("Unknown condition type, evaluating to false")
		return false
	}
}

// matchDateOlderThan applies the inclusive age boundary: "older than N
// days" means age >= N days. A missing timestamp or negative N is
// malformed input and evaluates to false.
func (e *Evaluator) matchDateOlderThan(cond *models.Condition, file *models.FileDescriptor, at time.Time) bool {
	if cond.Days < 0 {
		return false
	}

	var ts time.Time
	switch cond.DateField {
	case models.DateFieldCreated:
		ts = file.CreatedAt
	case models.DateFieldModified:
		ts = file.ModifiedAt
	case models.DateFieldAccessed:
		ts = file.AccessedAt
	default:
		log.WithField("dateField", cond.DateField).Trace("Unknown date field, evaluating to false")
		return false
	}

	if ts.IsZero() {
		return false
	}

	return at.Sub(ts) >= time.Duration(cond.Days)*24*time.Hour
}

// String conditions default to case-insensitive unless the condition
// explicitly requests case sensitivity.

func textEqual(s, v string, caseSensitive bool) bool {
	if caseSensitive {
		return s == v
	}
	return strings.EqualFold(s, v)
}

func textContains(s, v string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(s, v)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(v))
}

func textHasPrefix(s, v string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.HasPrefix(s, v)
	}
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(v))
}

func textHasSuffix(s, v string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.HasSuffix(s, v)
	}
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(v))
}
