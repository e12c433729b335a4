package auth

import (
	"github.com/splinter-platform/splinter/internal/config"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

// ConfiguredAuthorizationTypes parses RuntimeConfig.AcceptedAuthTypes (the
// base offer list behind §4.3 point 1) into its typed form, preserving
// configured order since that order becomes the acceptor's tie-break
// preference in NarrowAcceptedAuthorizations/SelectAuthorizationType.
func ConfiguredAuthorizationTypes(cfg *config.RuntimeConfig) ([]ids.AuthorizationType, error) {
	if len(cfg.AcceptedAuthTypes) == 0 {
		return nil, errs.New(errs.KindUnsupportedAuthType, "no accepted authorization types configured")
	}
	out := make([]ids.AuthorizationType, 0, len(cfg.AcceptedAuthTypes))
	for _, name := range cfg.AcceptedAuthTypes {
		t, ok := ids.ParseAuthorizationType(name)
		if !ok {
			return nil, errs.Newf(errs.KindUnsupportedAuthType, "unknown accepted authorization type %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// NarrowAcceptedAuthorizations builds the accepted_authorizations list the
// accepting side offers in its AuthProtocolResponse (§4.3 point 1), grounded
// on AuthProtocolRequestHandlerBuilder::build (original_source's
// network/auth/handlers/v1_handlers/builders.rs). base is every type this
// node is configured to accept; expected and requiredLocal each narrow that
// down to a single type when set, the same way the Rust builder narrows
// accepted_authorizations to expected_authorization (if the acceptor
// already holds circuit/proposal metadata pinning the type) or else to
// local_authorization — offering the full list only when neither applies,
// so the initiator is free to choose.
func NarrowAcceptedAuthorizations(base []ids.AuthorizationType, expected, requiredLocal *ids.AuthorizationType) ([]ids.AuthorizationType, error) {
	switch {
	case expected != nil:
		return []ids.AuthorizationType{*expected}, nil
	case requiredLocal != nil:
		return []ids.AuthorizationType{*requiredLocal}, nil
	case len(base) == 0:
		return nil, errs.New(errs.KindUnsupportedAuthType, "no accepted authorization types could be added")
	default:
		out := make([]ids.AuthorizationType, len(base))
		copy(out, base)
		return out, nil
	}
}

// SelectAuthorizationType picks the authorization type the initiator offers
// first, from accepted (the acceptor's advertised accepted_authorizations),
// narrowed by expected (set when the initiator already holds circuit
// metadata constraining it) and requiredLocal (the initiator's own
// required local authorization type) — §4.3 point 2. accepted's order is
// preserved, so the acceptor's own preference order decides ties; the one
// tie-break called out explicitly (a Challenge-only requiredLocal excludes
// Trust from the offer even if the acceptor advertised it) falls out of
// the requiredLocal filter below without special-casing it. Returns
// KindUnsupportedAuthType if no type satisfies every constraint; the
// caller must drop the connection rather than retry inside the FSM (§4.3
// "Failure semantics").
func SelectAuthorizationType(accepted []ids.AuthorizationType, expected, requiredLocal *ids.AuthorizationType) (ids.AuthorizationType, error) {
	for _, candidate := range accepted {
		if expected != nil && candidate != *expected {
			continue
		}
		if requiredLocal != nil && candidate != *requiredLocal {
			continue
		}
		return candidate, nil
	}
	return 0, errs.New(errs.KindUnsupportedAuthType, "no authorization type satisfies both local and remote constraints")
}
