// Package catalog provides the read-only policy and ideology reference data.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"

	"citycouncil/internal/domain"
)

const (
	policiesFile   = "policies.json"
	ideologiesFile = "ideologies.json"
)

//go:embed data/*.json
var embedded embed.FS

// Catalog is an immutable in-memory set of policies and ideologies.
// It is safe for concurrent use.
type Catalog struct {
	policies    map[string]domain.Policy
	policyIDs   []string
	ideologies  map[string]domain.Ideology
	ideologyIDs []string
}

// Default returns the catalog shipped with the server
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads policies.json and ideologies.json from fsys
func Load(fsys fs.FS) (*Catalog, error) {
	var policies []domain.Policy
	if err := readJSON(fsys, policiesFile, &policies); err != nil {
		return nil, err
	}
	var ideologies []domain.Ideology
	if err := readJSON(fsys, ideologiesFile, &ideologies); err != nil {
		return nil, err
	}
	return New(policies, ideologies)
}

// New builds a catalog from the given records, rejecting empty or duplicate
// identifiers and unknown city parameters.
func New(policies []domain.Policy, ideologies []domain.Ideology) (*Catalog, error) {
	c := &Catalog{
		policies:   make(map[string]domain.Policy, len(policies)),
		ideologies: make(map[string]domain.Ideology, len(ideologies)),
	}

	for _, p := range policies {
		if p.ID == "" {
			return nil, fmt.Errorf("policy %q: missing id", p.Title)
		}
		if _, dup := c.policies[p.ID]; dup {
			return nil, fmt.Errorf("policy %s: duplicate id", p.ID)
		}
		for param := range p.Effects {
			if !slices.Contains(domain.Params, param) {
				return nil, fmt.Errorf("policy %s: unknown parameter %q", p.ID, param)
			}
		}
		c.policies[p.ID] = p
		c.policyIDs = append(c.policyIDs, p.ID)
	}

	for _, i := range ideologies {
		if i.ID == "" {
			return nil, fmt.Errorf("ideology %q: missing id", i.Name)
		}
		if _, dup := c.ideologies[i.ID]; dup {
			return nil, fmt.Errorf("ideology %s: duplicate id", i.ID)
		}
		for param := range i.Coefficients {
			if !slices.Contains(domain.Params, param) {
				return nil, fmt.Errorf("ideology %s: unknown parameter %q", i.ID, param)
			}
		}
		c.ideologies[i.ID] = i
		c.ideologyIDs = append(c.ideologyIDs, i.ID)
	}

	if len(c.policies) == 0 {
		return nil, fmt.Errorf("catalog has no policies")
	}
	if len(c.ideologies) == 0 {
		return nil, fmt.Errorf("catalog has no ideologies")
	}
	return c, nil
}

// Policy returns the policy with the given id
func (c *Catalog) Policy(id string) (domain.Policy, bool) {
	p, ok := c.policies[id]
	if ok {
		p.Effects = p.Effects.Clone()
	}
	return p, ok
}

// Ideology returns the ideology with the given id
func (c *Catalog) Ideology(id string) (domain.Ideology, bool) {
	i, ok := c.ideologies[id]
	return i, ok
}

// PolicyIDs returns every policy id in catalog order
func (c *Catalog) PolicyIDs() []string {
	return slices.Clone(c.policyIDs)
}

// IdeologyIDs returns every ideology id in catalog order
func (c *Catalog) IdeologyIDs() []string {
	return slices.Clone(c.ideologyIDs)
}

// GetPolicies returns the policies for ids, skipping unknown ids
func (c *Catalog) GetPolicies(ids []string) []domain.Policy {
	out := make([]domain.Policy, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.Policy(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// GetIdeologies returns the ideologies for ids, skipping unknown ids
func (c *Catalog) GetIdeologies(ids []string) []domain.Ideology {
	out := make([]domain.Ideology, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.Ideology(id); ok {
			out = append(out, i)
		}
	}
	return out
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
