package admin

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/model"
)

// Registry tracks platform-wide uniqueness constraints a single
// CircuitProposal.Validate call can't see: an endpoint or circuit id
// claimed by one active circuit can't also be claimed by another. It
// starts empty and is kept current by the Service as circuits
// materialize or disband; circuits already in the store are not loaded
// into it.
type Registry struct {
	circuitIDs mapset.Set
	endpoints  mapset.Set
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{circuitIDs: mapset.NewSet(), endpoints: mapset.NewSet()}
}

// Observe folds an already-materialized circuit's id and endpoints into
// the registry.
func (r *Registry) Observe(c *model.Circuit) {
	r.circuitIDs.Add(string(c.CircuitID))
	for _, e := range c.AllEndpoints() {
		r.endpoints.Add(e)
	}
}

// Forget removes a disbanded or abandoned circuit's claims.
func (r *Registry) Forget(c *model.Circuit) {
	r.circuitIDs.Remove(string(c.CircuitID))
	for _, e := range c.AllEndpoints() {
		r.endpoints.Remove(e)
	}
}

// ValidateProposal checks a ProposedCircuit's structural invariants
// (delegated to Circuit.Validate via a zero-version materialization) plus
// the platform-wide uniqueness checks only the Registry can see: the
// circuit id must be new, and none of its endpoints may already be
// claimed by another active circuit.
func (r *Registry) ValidateProposal(p *model.ProposedCircuit) error {
	candidate := p.ToCircuit(0)
	if err := candidate.Validate(); err != nil {
		return err
	}
	if r.circuitIDs.Contains(string(p.CircuitID)) {
		return errs.Newf(errs.KindDuplicateCircuit, "circuit %q already exists", p.CircuitID)
	}
	seen := mapset.NewSet()
	for _, e := range candidate.AllEndpoints() {
		if r.endpoints.Contains(e) {
			return errs.Newf(errs.KindProposalValidation, "endpoint %q already claimed by another circuit", e)
		}
		if seen.Contains(e) {
			return errs.Newf(errs.KindProposalValidation, "endpoint %q claimed twice within the same proposal", e)
		}
		seen.Add(e)
	}
	return nil
}
