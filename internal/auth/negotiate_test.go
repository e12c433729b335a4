package auth

import (
	"testing"

	"github.com/splinter-platform/splinter/internal/config"
	"github.com/splinter-platform/splinter/internal/errs"
	"github.com/splinter-platform/splinter/internal/ids"
)

func authType(t ids.AuthorizationType) *ids.AuthorizationType { return &t }

func TestConfiguredAuthorizationTypesParsesInOrder(t *testing.T) {
	cfg := &config.RuntimeConfig{AcceptedAuthTypes: []string{"Trust", "Challenge"}}
	got, err := ConfiguredAuthorizationTypes(cfg)
	if err != nil {
		t.Fatalf("ConfiguredAuthorizationTypes: %v", err)
	}
	if len(got) != 2 || got[0] != ids.AuthTrust || got[1] != ids.AuthChallenge {
		t.Fatalf("expected [Trust Challenge], got %v", got)
	}
}

func TestConfiguredAuthorizationTypesRejectsUnknownName(t *testing.T) {
	cfg := &config.RuntimeConfig{AcceptedAuthTypes: []string{"Kerberos"}}
	if _, err := ConfiguredAuthorizationTypes(cfg); !errs.Is(err, errs.KindUnsupportedAuthType) {
		t.Fatalf("expected KindUnsupportedAuthType, got %v", err)
	}
}

func TestConfiguredAuthorizationTypesRejectsEmpty(t *testing.T) {
	cfg := &config.RuntimeConfig{}
	if _, err := ConfiguredAuthorizationTypes(cfg); !errs.Is(err, errs.KindUnsupportedAuthType) {
		t.Fatalf("expected KindUnsupportedAuthType, got %v", err)
	}
}

func TestNarrowAcceptedAuthorizationsOffersEverythingByDefault(t *testing.T) {
	base := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := NarrowAcceptedAuthorizations(base, nil, nil)
	if err != nil {
		t.Fatalf("NarrowAcceptedAuthorizations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both types offered, got %v", got)
	}
}

func TestNarrowAcceptedAuthorizationsNarrowsToExpected(t *testing.T) {
	base := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := NarrowAcceptedAuthorizations(base, authType(ids.AuthChallenge), nil)
	if err != nil {
		t.Fatalf("NarrowAcceptedAuthorizations: %v", err)
	}
	if len(got) != 1 || got[0] != ids.AuthChallenge {
		t.Fatalf("expected [Challenge], got %v", got)
	}
}

func TestNarrowAcceptedAuthorizationsNarrowsToRequiredLocalWhenNoExpected(t *testing.T) {
	base := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := NarrowAcceptedAuthorizations(base, nil, authType(ids.AuthChallenge))
	if err != nil {
		t.Fatalf("NarrowAcceptedAuthorizations: %v", err)
	}
	if len(got) != 1 || got[0] != ids.AuthChallenge {
		t.Fatalf("expected [Challenge], got %v", got)
	}
}

func TestNarrowAcceptedAuthorizationsRejectsEmptyBase(t *testing.T) {
	if _, err := NarrowAcceptedAuthorizations(nil, nil, nil); !errs.Is(err, errs.KindUnsupportedAuthType) {
		t.Fatalf("expected KindUnsupportedAuthType, got %v", err)
	}
}

func TestSelectAuthorizationTypePrefersAcceptedOrder(t *testing.T) {
	accepted := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := SelectAuthorizationType(accepted, nil, nil)
	if err != nil {
		t.Fatalf("SelectAuthorizationType: %v", err)
	}
	if got != ids.AuthTrust {
		t.Fatalf("expected Trust preferred first, got %s", got)
	}
}

func TestSelectAuthorizationTypeNarrowsToExpected(t *testing.T) {
	accepted := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := SelectAuthorizationType(accepted, authType(ids.AuthChallenge), nil)
	if err != nil {
		t.Fatalf("SelectAuthorizationType: %v", err)
	}
	if got != ids.AuthChallenge {
		t.Fatalf("expected Challenge from the expected constraint, got %s", got)
	}
}

// A Challenge-only requiredLocal excludes Trust from the initiator's offer
// even though the acceptor advertised it (§4.3 tie-break bullet 2).
func TestSelectAuthorizationTypeRequiredLocalExcludesTrust(t *testing.T) {
	accepted := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	got, err := SelectAuthorizationType(accepted, nil, authType(ids.AuthChallenge))
	if err != nil {
		t.Fatalf("SelectAuthorizationType: %v", err)
	}
	if got != ids.AuthChallenge {
		t.Fatalf("expected Challenge, got %s", got)
	}
}

func TestSelectAuthorizationTypeDropsConnectionWhenNothingSatisfiesBoth(t *testing.T) {
	accepted := []ids.AuthorizationType{ids.AuthTrust}
	_, err := SelectAuthorizationType(accepted, authType(ids.AuthChallenge), authType(ids.AuthChallenge))
	if !errs.Is(err, errs.KindUnsupportedAuthType) {
		t.Fatalf("expected KindUnsupportedAuthType, got %v", err)
	}
}

func TestAcceptingMachineOfferAuthorizationsRecordsResult(t *testing.T) {
	m := NewAcceptingMachine()
	base := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	offered, err := m.OfferAuthorizations(base, nil, nil)
	if err != nil {
		t.Fatalf("OfferAuthorizations: %v", err)
	}
	if len(offered) != 2 {
		t.Fatalf("expected both types offered, got %v", offered)
	}
	recorded := m.AcceptedAuthorizations()
	if len(recorded) != 2 || recorded[0] != ids.AuthTrust || recorded[1] != ids.AuthChallenge {
		t.Fatalf("expected recorded offer to match, got %v", recorded)
	}
}

func TestEncodeDecodeAuthorizationTypesRoundTrip(t *testing.T) {
	types := []ids.AuthorizationType{ids.AuthTrust, ids.AuthChallenge}
	wire := EncodeAuthorizationTypes(types)
	if len(wire) != 2 || wire[0] != "Trust" || wire[1] != "Challenge" {
		t.Fatalf("unexpected wire form %v", wire)
	}
	back := DecodeAuthorizationTypes(wire)
	if len(back) != 2 || back[0] != ids.AuthTrust || back[1] != ids.AuthChallenge {
		t.Fatalf("expected round trip to match, got %v", back)
	}
}

func TestDecodeAuthorizationTypesSkipsUnknownNames(t *testing.T) {
	back := DecodeAuthorizationTypes([]string{"Trust", "Kerberos"})
	if len(back) != 1 || back[0] != ids.AuthTrust {
		t.Fatalf("expected unknown names skipped, got %v", back)
	}
}
