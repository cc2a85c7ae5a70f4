// Package contract generates and encodes derived contracts: read-only
// projections of a claim subset that introduce no claim of their own.
package contract

import (
	"fmt"
	"os"

	"github.com/scriptorium/claimledger/internal/domain"
	"gopkg.in/yaml.v3"
)

// Spec is the curator-authored input to the generator.
type Spec struct {
	Name       string             `yaml:"name"`
	Version    int                `yaml:"version"`
	Claims     []domain.ClaimID   `yaml:"claims"`
	Guarantees []domain.Guarantee `yaml:"guarantees"`

	// Historical lists invalidated claims the contract may still cite as
	// historical references.
	Historical []domain.ClaimID `yaml:"historical,omitempty"`

	// NonBinding lists tier 3-4 claims allowed in as annotations only.
	NonBinding []domain.ClaimID `yaml:"non_binding,omitempty"`
}

// LoadSpec reads and decodes a contract spec file.
func LoadSpec(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract spec: %w", err)
	}
	return ParseSpec(raw)
}

func ParseSpec(raw []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode contract spec: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("contract spec: name is required")
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return &s, nil
}

func (s *Spec) isHistorical(id domain.ClaimID) bool { return contains(s.Historical, id) }
func (s *Spec) isNonBinding(id domain.ClaimID) bool { return contains(s.NonBinding, id) }

func contains(ids []domain.ClaimID, id domain.ClaimID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
