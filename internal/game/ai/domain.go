// Package ai chooses actions for AI-controlled combatants.
//
// Baseline is the deterministic default policy. Domains are Hierarchical Task
// Network definitions loaded from YAML: the root task "behave" is decomposed by
// ordered methods, whose preconditions are Lua hooks, down to primitive operators
// that map onto combat actions.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RootTask is the task every plan starts from.
const RootTask = "behave"

// Operator actions understood by the Decider.
const (
	OpAttack  = "attack"
	OpDefend  = "defend"
	OpCast    = "cast"
	OpUseItem = "use_item"
	OpFlee    = "flee"
	OpPass    = "pass"
)

var validOps = map[string]bool{
	OpAttack: true, OpDefend: true, OpCast: true, OpUseItem: true, OpFlee: true, OpPass: true,
}

// Task is an abstract goal decomposed by methods.
type Task struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Method decomposes a task into subtasks or operator IDs.
// An empty Precondition always applies.
type Method struct {
	TaskID       string   `yaml:"task"`
	ID           string   `yaml:"id"`
	Precondition string   `yaml:"precondition"`
	Subtasks     []string `yaml:"subtasks"`
}

// Operator is a primitive step that becomes one combat action.
//
// Target is one of "weakest_enemy", "nearest_enemy", "strongest_enemy",
// "weakest_ally", "self" or empty. Ability names the spell or item for cast and
// use_item.
type Operator struct {
	ID      string `yaml:"id"`
	Action  string `yaml:"action"`
	Target  string `yaml:"target"`
	Ability string `yaml:"ability"`
}

// Domain is a complete HTN tactics definition.
//
// Invariant: task, method and operator IDs are unique within their kind.
type Domain struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	Tasks       []*Task     `yaml:"tasks"`
	Methods     []*Method   `yaml:"methods"`
	Operators   []*Operator `yaml:"operators"`
}

// Validate checks required fields, uniqueness and cross references.
//
// Postcondition: nil guarantees the root task exists, every method refers to a
// known task and decomposes into known tasks or operators, and every operator
// action is supported.
func (d *Domain) Validate() error {
	if d.ID == "" {
		return errors.New("ai domain: id must not be empty")
	}
	tasks := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("ai domain %q: task with empty id", d.ID)
		}
		if tasks[t.ID] {
			return fmt.Errorf("ai domain %q: duplicate task %q", d.ID, t.ID)
		}
		tasks[t.ID] = true
	}
	if !tasks[RootTask] {
		return fmt.Errorf("ai domain %q: missing root task %q", d.ID, RootTask)
	}

	ops := make(map[string]bool, len(d.Operators))
	for _, op := range d.Operators {
		switch {
		case op.ID == "":
			return fmt.Errorf("ai domain %q: operator with empty id", d.ID)
		case ops[op.ID]:
			return fmt.Errorf("ai domain %q: duplicate operator %q", d.ID, op.ID)
		case tasks[op.ID]:
			return fmt.Errorf("ai domain %q: %q is both a task and an operator", d.ID, op.ID)
		case !validOps[op.Action]:
			return fmt.Errorf("ai domain %q operator %q: unsupported action %q", d.ID, op.ID, op.Action)
		case (op.Action == OpCast || op.Action == OpUseItem) && op.Ability == "":
			return fmt.Errorf("ai domain %q operator %q: %s requires an ability", d.ID, op.ID, op.Action)
		}
		ops[op.ID] = true
	}

	methods := make(map[string]bool, len(d.Methods))
	for _, m := range d.Methods {
		switch {
		case m.ID == "" || m.TaskID == "":
			return fmt.Errorf("ai domain %q: method missing id or task", d.ID)
		case methods[m.ID]:
			return fmt.Errorf("ai domain %q: duplicate method %q", d.ID, m.ID)
		case !tasks[m.TaskID]:
			return fmt.Errorf("ai domain %q method %q: unknown task %q", d.ID, m.ID, m.TaskID)
		case len(m.Subtasks) == 0:
			return fmt.Errorf("ai domain %q method %q: no subtasks", d.ID, m.ID)
		}
		methods[m.ID] = true
		for _, sub := range m.Subtasks {
			if !tasks[sub] && !ops[sub] {
				return fmt.Errorf("ai domain %q method %q: subtask %q is neither a task nor an operator", d.ID, m.ID, sub)
			}
		}
	}
	return nil
}

// OperatorByID returns the operator with id.
func (d *Domain) OperatorByID(id string) (*Operator, bool) {
	for _, op := range d.Operators {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// MethodsForTask returns the methods of taskID in declaration order.
func (d *Domain) MethodsForTask(taskID string) []*Method {
	var out []*Method
	for _, m := range d.Methods {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	return out
}

type domainFile struct {
	Domain *Domain `yaml:"domain"`
}

// ParseDomain decodes and validates one YAML domain document.
func ParseDomain(data []byte) (*Domain, error) {
	var f domainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Domain == nil {
		return nil, errors.New("missing top-level 'domain' key")
	}
	if err := f.Domain.Validate(); err != nil {
		return nil, err
	}
	return f.Domain, nil
}

// LoadDomains parses every *.yaml file in dir.
//
// Postcondition: returns (nil, nil) when dir holds no YAML files.
func LoadDomains(dir string) ([]*Domain, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadDomains: reading %q: %w", dir, err)
	}
	var out []*Domain
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: reading %s: %w", e.Name(), err)
		}
		d, err := ParseDomain(data)
		if err != nil {
			return nil, fmt.Errorf("ai.LoadDomains: %s: %w", e.Name(), err)
		}
		out = append(out, d)
	}
	return out, nil
}
