package industry

import "fmt"

// Root is the synthetic top of every industry hierarchy and the final
// fallback scope for benchmark roll-ups.
const Root = "all"

// Node is one industry in the hierarchical tenant configuration.
type Node struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Children []Node `yaml:"children,omitempty"`
}

// Taxonomy is a read-only view of a tenant's industry forest. Every code
// has at most one parent; codes without an explicit parent roll up to Root.
type Taxonomy struct {
	parents map[string]string
	names   map[string]string
	order   []string
}

// New flattens the configured forest into a parent-pointer map. Duplicate
// codes and use of the reserved root code are configuration errors.
func New(nodes []Node) (*Taxonomy, error) {
	t := &Taxonomy{
		parents: make(map[string]string),
		names:   make(map[string]string),
	}
	if err := t.add(nodes, Root); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) add(nodes []Node, parent string) error {
	for _, n := range nodes {
		if n.Code == "" {
			return fmt.Errorf("industry under %q has no code", parent)
		}
		if n.Code == Root {
			return fmt.Errorf("industry code %q is reserved", Root)
		}
		if _, ok := t.parents[n.Code]; ok {
			return fmt.Errorf("duplicate industry code %q", n.Code)
		}
		t.parents[n.Code] = parent
		t.names[n.Code] = n.Name
		t.order = append(t.order, n.Code)
		if err := t.add(n.Children, n.Code); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether code is a known industry (or the root).
func (t *Taxonomy) Contains(code string) bool {
	if code == Root {
		return true
	}
	_, ok := t.parents[code]
	return ok
}

// Parent returns the parent code, or Root for top-level industries. The
// root itself has no parent.
func (t *Taxonomy) Parent(code string) (string, bool) {
	if code == Root {
		return "", false
	}
	p, ok := t.parents[code]
	return p, ok
}

// Ancestors returns code followed by every ancestor up to and including
// Root. Unknown codes resolve to just the root, so callers always get a
// usable fallback chain.
func (t *Taxonomy) Ancestors(code string) []string {
	if code == Root || !t.Contains(code) {
		return []string{Root}
	}
	chain := []string{code}
	for {
		p, ok := t.Parent(chain[len(chain)-1])
		if !ok {
			break
		}
		chain = append(chain, p)
	}
	return chain
}

// Name returns the display name for a code. The root has no display name.
func (t *Taxonomy) Name(code string) string {
	return t.names[code]
}

// Codes lists every industry code in configuration order.
func (t *Taxonomy) Codes() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
