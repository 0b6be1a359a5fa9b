package tree

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes a tree. Root is ticked once per ship per tick; TeamRoot,
// when set, is ticked once per team per tick without a ship.
type Config struct {
	Root     string                `yaml:"root"`
	TeamRoot string                `yaml:"team_root,omitempty"`
	Nodes    map[string]ConfigNode `yaml:"nodes"`
}

type ConfigNode struct {
	Type      string   `yaml:"type"`
	Children  []string `yaml:"children,omitempty"`
	Child     string   `yaml:"child,omitempty"`
	Action    string   `yaml:"action,omitempty"`
	Condition string   `yaml:"condition,omitempty"`
	Params    Params   `yaml:"params,omitempty"`
}

// Parse decodes a YAML tree description. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("tree: parse: %w", err)
	}
	if c.Root == "" {
		return nil, errors.New("tree: root is required")
	}
	return &c, nil
}

// Build instantiates the ship tree and the optional team tree.
func (c *Config) Build(reg Registry) (ship Tree, team Tree, err error) {
	b := &builder{cfg: c, reg: reg, created: make(map[string]Node), building: make(map[string]bool)}
	if c.Root != "" {
		root, err := b.node(c.Root)
		if err != nil {
			return Tree{}, Tree{}, err
		}
		ship = Tree{root: root}
	}
	if c.TeamRoot != "" {
		root, err := b.node(c.TeamRoot)
		if err != nil {
			return Tree{}, Tree{}, err
		}
		team = Tree{root: root}
	}
	return ship, team, nil
}

type builder struct {
	cfg      *Config
	reg      Registry
	created  map[string]Node
	building map[string]bool
}

func (b *builder) node(name string) (Node, error) {
	if n, ok := b.created[name]; ok {
		return n, nil
	}
	if b.building[name] {
		return nil, fmt.Errorf("tree: cycle through node %s", name)
	}
	nc, ok := b.cfg.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("tree: unknown node %s", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	n, err := b.build(name, nc)
	if err != nil {
		return nil, fmt.Errorf("tree: node %s: %w", name, err)
	}
	b.created[name] = n
	return n, nil
}

func (b *builder) children(names []string) ([]Node, error) {
	out := make([]Node, 0, len(names))
	for _, name := range names {
		ch, err := b.node(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func (b *builder) build(name string, nc ConfigNode) (Node, error) {
	kind := strings.ToLower(nc.Type)
	switch kind {
	case "sequence", "selector", "parallel":
		children, err := b.children(nc.Children)
		if err != nil {
			return nil, err
		}
		var comp Composite
		switch kind {
		case "sequence":
			comp = NewSequence(name)
		case "selector":
			comp = NewSelector(name)
		default:
			policy := ParallelRequireAllSuccess
			if s := nc.Params.String("policy", "all"); s == "one" || s == "any" {
				policy = ParallelRequireOneSuccess
			}
			comp = NewParallel(name, policy)
		}
		comp.SetChildren(children...)
		return comp, nil
	case "action":
		return b.reg.NewAction(nc.Action, name, nc.Params)
	case "condition":
		return b.reg.NewCondition(nc.Condition, name, nc.Params)
	case "decorator":
		kind = nc.Params.String("name", "")
	}

	dec, err := b.reg.NewDecorator(kind, name, nc.Params)
	if err != nil {
		return nil, err
	}
	if nc.Child == "" {
		return nil, errors.New("decorator requires child")
	}
	ch, err := b.node(nc.Child)
	if err != nil {
		return nil, err
	}
	dec.SetChild(ch)
	return dec, nil
}

// Params are the free-form parameters of a configured node.
type Params map[string]any

func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return def
}

func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

// Float accepts integer or floating point values.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("param %s: expected number, got %T", key, v)
	}
}

func (p Params) Int(key string, def int) (int, error) {
	f, err := p.Float(key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
