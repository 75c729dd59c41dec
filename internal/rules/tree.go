// Package rules defines the structured representation of rule_logic and the
// interpreter that applies it to architecture elements. A rule's logic is a
// predicate tree: composite nodes (all/any/not) over leaf checks.
package rules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archalign/validation-backend/internal/types"
)

const (
	CheckHasRelation = "has_relation"
	CheckAttrPresent = "attr_present"
	CheckAttrIn      = "attr_in"
	CheckNotOrphaned = "not_orphaned"
	CheckMaxAgeDays  = "max_age_days"
)

const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
	DirectionAny      = "any"
)

type Node struct {
	All []*Node `json:"all,omitempty"`
	Any []*Node `json:"any,omitempty"`
	Not *Node   `json:"not,omitempty"`

	Check string `json:"check,omitempty"`

	// has_relation
	RelationshipType string `json:"relationship_type,omitempty"`
	Direction        string `json:"direction,omitempty"`
	MinCount         int    `json:"min_count,omitempty"`
	TargetLayer      string `json:"target_layer,omitempty"`

	// attr_present / attr_in
	Attribute string   `json:"attribute,omitempty"`
	Values    []string `json:"values,omitempty"`

	// max_age_days
	Days int `json:"days,omitempty"`

	// Optional override for the issue type a failing leaf produces.
	IssueType string `json:"issue_type,omitempty"`
}

// Logic is the root of a rule_logic document. An optional entity_type
// filter narrows which elements of the rule's scope layer are checked.
type Logic struct {
	EntityType string `json:"entity_type,omitempty"`
	Node
}

func Parse(raw []byte) (*Logic, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty rule_logic")
	}
	var logic Logic
	if err := json.Unmarshal(raw, &logic); err != nil {
		return nil, fmt.Errorf("parse rule_logic: %w", err)
	}
	if err := validateNode(&logic.Node); err != nil {
		return nil, err
	}
	return &logic, nil
}

func validateNode(n *Node) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	composites := 0
	if len(n.All) > 0 {
		composites++
	}
	if len(n.Any) > 0 {
		composites++
	}
	if n.Not != nil {
		composites++
	}
	if composites > 1 {
		return fmt.Errorf("node mixes composite forms")
	}
	if composites == 1 {
		if n.Check != "" {
			return fmt.Errorf("composite node also carries check %q", n.Check)
		}
		for _, child := range n.All {
			if err := validateNode(child); err != nil {
				return err
			}
		}
		for _, child := range n.Any {
			if err := validateNode(child); err != nil {
				return err
			}
		}
		if n.Not != nil {
			return validateNode(n.Not)
		}
		return nil
	}
	switch n.Check {
	case CheckHasRelation:
		if n.RelationshipType == "" {
			return fmt.Errorf("has_relation requires relationship_type")
		}
	case CheckAttrPresent:
		if n.Attribute == "" {
			return fmt.Errorf("attr_present requires attribute")
		}
	case CheckAttrIn:
		if n.Attribute == "" || len(n.Values) == 0 {
			return fmt.Errorf("attr_in requires attribute and values")
		}
	case CheckNotOrphaned:
	case CheckMaxAgeDays:
		if n.Days <= 0 {
			return fmt.Errorf("max_age_days requires days > 0")
		}
	case "":
		return fmt.Errorf("leaf node missing check")
	default:
		return fmt.Errorf("unknown check %q", n.Check)
	}
	return nil
}

// Edge is one relationship touching the element under evaluation.
type Edge struct {
	Type    string
	OtherID uuid.UUID
}

// Subject is everything the interpreter may inspect about one element.
type Subject struct {
	Element  *types.ArchitectureElement
	Outgoing []Edge
	Incoming []Edge
	// LayerOf resolves the layer of a related element, for target_layer
	// constraints. May be nil when no rule in the set uses target_layer.
	LayerOf func(id uuid.UUID) (string, bool)
	Now     time.Time
}

// Eval walks the tree. On failure it returns the leaf that decided the
// outcome so the caller can derive an issue type; the leaf is nil when a
// negation failed.
func (l *Logic) Eval(s *Subject) (bool, *Node) {
	return evalNode(&l.Node, s)
}

func evalNode(n *Node, s *Subject) (bool, *Node) {
	switch {
	case len(n.All) > 0:
		for _, child := range n.All {
			if ok, leaf := evalNode(child, s); !ok {
				return false, leaf
			}
		}
		return true, nil
	case len(n.Any) > 0:
		var firstLeaf *Node
		for _, child := range n.Any {
			ok, leaf := evalNode(child, s)
			if ok {
				return true, nil
			}
			if firstLeaf == nil {
				firstLeaf = leaf
			}
		}
		return false, firstLeaf
	case n.Not != nil:
		ok, _ := evalNode(n.Not, s)
		if ok {
			return false, nil
		}
		return true, nil
	default:
		if evalLeaf(n, s) {
			return true, nil
		}
		return false, n
	}
}

func evalLeaf(n *Node, s *Subject) bool {
	switch n.Check {
	case CheckHasRelation:
		min := n.MinCount
		if min <= 0 {
			min = 1
		}
		return countRelations(n, s) >= min
	case CheckAttrPresent:
		val, ok := s.Element.Attributes[n.Attribute]
		if !ok || val == nil {
			return false
		}
		str, isStr := val.(string)
		return !isStr || str != ""
	case CheckAttrIn:
		val, ok := s.Element.Attributes[n.Attribute]
		if !ok {
			return false
		}
		str, isStr := val.(string)
		if !isStr {
			return false
		}
		for _, allowed := range n.Values {
			if str == allowed {
				return true
			}
		}
		return false
	case CheckNotOrphaned:
		return len(s.Outgoing)+len(s.Incoming) > 0
	case CheckMaxAgeDays:
		cutoff := s.Now.AddDate(0, 0, -n.Days)
		return s.Element.UpdatedAt.After(cutoff)
	}
	return false
}

func countRelations(n *Node, s *Subject) int {
	count := 0
	direction := n.Direction
	if direction == "" {
		direction = DirectionOutgoing
	}
	match := func(edges []Edge) {
		for _, e := range edges {
			if e.Type != n.RelationshipType {
				continue
			}
			if n.TargetLayer != "" {
				if s.LayerOf == nil {
					continue
				}
				layer, ok := s.LayerOf(e.OtherID)
				if !ok || layer != n.TargetLayer {
					continue
				}
			}
			count++
		}
	}
	if direction == DirectionOutgoing || direction == DirectionAny {
		match(s.Outgoing)
	}
	if direction == DirectionIncoming || direction == DirectionAny {
		match(s.Incoming)
	}
	return count
}

// FailureIssueType maps a failing leaf to the issue type it should raise.
// The rule's own type decides the fallback when the leaf carries no
// explicit mapping: traceability rules raise broken_traceability,
// completeness rules raise missing_link, alignment rules raise invalid_enum.
func FailureIssueType(leaf *Node, ruleType string) string {
	if leaf != nil && leaf.IssueType != "" {
		return leaf.IssueType
	}
	if leaf != nil {
		switch leaf.Check {
		case CheckHasRelation:
			if ruleType == types.RuleTypeTraceability {
				return types.IssueTypeBrokenTraceability
			}
			return types.IssueTypeMissingLink
		case CheckNotOrphaned:
			return types.IssueTypeOrphaned
		case CheckMaxAgeDays:
			return types.IssueTypeStale
		case CheckAttrIn:
			return types.IssueTypeInvalidEnum
		case CheckAttrPresent:
			return types.IssueTypeMissingLink
		}
	}
	switch ruleType {
	case types.RuleTypeTraceability:
		return types.IssueTypeBrokenTraceability
	case types.RuleTypeAlignment:
		return types.IssueTypeInvalidEnum
	default:
		return types.IssueTypeMissingLink
	}
}

// FailureDescription renders a human-readable reason for a failing leaf.
func FailureDescription(leaf *Node, ruleName string) string {
	if leaf == nil {
		return fmt.Sprintf("element violates rule %q", ruleName)
	}
	switch leaf.Check {
	case CheckHasRelation:
		min := leaf.MinCount
		if min <= 0 {
			min = 1
		}
		if leaf.TargetLayer != "" {
			return fmt.Sprintf("expected at least %d %q relationship(s) to the %s layer", min, leaf.RelationshipType, leaf.TargetLayer)
		}
		return fmt.Sprintf("expected at least %d %q relationship(s)", min, leaf.RelationshipType)
	case CheckAttrPresent:
		return fmt.Sprintf("attribute %q is missing or empty", leaf.Attribute)
	case CheckAttrIn:
		return fmt.Sprintf("attribute %q is not one of the allowed values", leaf.Attribute)
	case CheckNotOrphaned:
		return "element has no relationships in either direction"
	case CheckMaxAgeDays:
		return fmt.Sprintf("element has not been updated in the last %d days", leaf.Days)
	}
	return fmt.Sprintf("element violates rule %q", ruleName)
}
