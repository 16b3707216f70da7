package models

// ConditionType identifies one variant of the closed condition set.
// Any value outside this set is legal input that evaluates to false.
type ConditionType string

const (
	ConditionExtension      ConditionType = "extension"
	ConditionNameContains   ConditionType = "name_contains"
	ConditionNameStartsWith ConditionType = "name_starts_with"
	ConditionNameEndsWith   ConditionType = "name_ends_with"
	ConditionSizeLargerThan ConditionType = "size_larger_than"
	ConditionDateOlderThan  ConditionType = "date_older_than"
	ConditionKind           ConditionType = "kind"
	ConditionSourceLocation ConditionType = "source_location"
	ConditionNot            ConditionType = "not"
	ConditionGroup          ConditionType = "group"
)

// LogicalOperator combines the conditions of a rule or group.
type LogicalOperator string

const (
	// OperatorSingle marks an authoring-time single-condition rule.
	// It is semantically identical to OperatorAnd over one element and
	// the evaluator never special-cases it.
	OperatorSingle LogicalOperator = "single"
	OperatorAnd    LogicalOperator = "and"
	OperatorOr     LogicalOperator = "or"
)

// DateField selects which timestamp a date condition compares against.
type DateField string

const (
	DateFieldCreated  DateField = "created"
	DateFieldModified DateField = "modified"
	DateFieldAccessed DateField = "accessed"
)

// Condition is a single predicate over a file's attributes. Which fields
// are meaningful depends on Type; unused fields stay at their zero value
// so that two conditions built from the same parameters are deeply equal.
type Condition struct {
	Type ConditionType `json:"type"`

	// Text conditions (extension, name_*, kind, source_location)
	Value         string `json:"value,omitempty"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`

	// size_larger_than
	Bytes int64 `json:"bytes,omitempty"`

	// date_older_than
	Days      int       `json:"days,omitempty"`
	DateField DateField `json:"dateField,omitempty"`

	// not
	Inner *Condition `json:"inner,omitempty"`

	// group
	Operator   LogicalOperator `json:"operator,omitempty"`
	Conditions []*Condition    `json:"conditions,omitempty"`
}

// Equal reports deep value equality between two conditions.
func (c *Condition) Equal(other *Condition) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Type != other.Type ||
		c.Value != other.Value ||
		c.CaseSensitive != other.CaseSensitive ||
		c.Bytes != other.Bytes ||
		c.Days != other.Days ||
		c.DateField != other.DateField ||
		c.Operator != other.Operator {
		return false
	}
	if !c.Inner.Equal(other.Inner) {
		return false
	}
	if len(c.Conditions) != len(other.Conditions) {
		return false
	}
	for i := range c.Conditions {
		if !c.Conditions[i].Equal(other.Conditions[i]) {
			return false
		}
	}
	return true
}
