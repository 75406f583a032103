package model

import (
	"encoding/json"
	"fmt"
)

const (
	GoalKindTimeBased = "timeBased"
	GoalKindTaskBased = "taskBased"
)

// Goal is the daily target. It is implemented only by TimeBased and TaskBased;
// a nil Goal means no goal is set.
type Goal interface {
	Kind() string
	Target() int64
	isGoal()
}

type TimeBased struct {
	TargetHours int64
}

type TaskBased struct {
	TargetSessions int64
}

func (TimeBased) Kind() string    { return GoalKindTimeBased }
func (g TimeBased) Target() int64 { return g.TargetHours }
func (TimeBased) isGoal()         {}

func (TaskBased) Kind() string    { return GoalKindTaskBased }
func (g TaskBased) Target() int64 { return g.TargetSessions }
func (TaskBased) isGoal()         {}

// NewGoal builds the variant named by kind.
func NewGoal(kind string, target int64) (Goal, error) {
	switch kind {
	case GoalKindTimeBased:
		return TimeBased{TargetHours: target}, nil
	case GoalKindTaskBased:
		return TaskBased{TargetSessions: target}, nil
	default:
		return nil, fmt.Errorf("unknown goal kind %q", kind)
	}
}

type goalEnvelope struct {
	Kind      string `json:"kind"`
	TimeBased *int64 `json:"timeBased,omitempty"`
	TaskBased *int64 `json:"taskBased,omitempty"`
}

// MarshalGoal encodes g as {"kind":"timeBased","timeBased":3}; nil encodes as null.
func MarshalGoal(g Goal) ([]byte, error) {
	if g == nil {
		return []byte("null"), nil
	}
	target := g.Target()
	env := goalEnvelope{Kind: g.Kind()}
	switch g.(type) {
	case TimeBased:
		env.TimeBased = &target
	case TaskBased:
		env.TaskBased = &target
	default:
		return nil, fmt.Errorf("unsupported goal type %T", g)
	}
	return json.Marshal(env)
}

// UnmarshalGoal is the inverse of MarshalGoal. Exactly one variant field must
// be present and it must match kind.
func UnmarshalGoal(data []byte) (Goal, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env goalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode goal: %w", err)
	}
	if env.TimeBased != nil && env.TaskBased != nil {
		return nil, fmt.Errorf("goal carries both timeBased and taskBased")
	}
	switch env.Kind {
	case GoalKindTimeBased:
		if env.TimeBased == nil {
			return nil, fmt.Errorf("timeBased goal missing target")
		}
		return TimeBased{TargetHours: *env.TimeBased}, nil
	case GoalKindTaskBased:
		if env.TaskBased == nil {
			return nil, fmt.Errorf("taskBased goal missing target")
		}
		return TaskBased{TargetSessions: *env.TaskBased}, nil
	default:
		return nil, fmt.Errorf("unknown goal kind %q", env.Kind)
	}
}

// GoalJSON adapts a Goal to encoding/json so it can sit inside response bodies.
type GoalJSON struct {
	Goal Goal
}

func (g GoalJSON) MarshalJSON() ([]byte, error) {
	return MarshalGoal(g.Goal)
}

func (g *GoalJSON) UnmarshalJSON(data []byte) error {
	goal, err := UnmarshalGoal(data)
	if err != nil {
		return err
	}
	g.Goal = goal
	return nil
}
