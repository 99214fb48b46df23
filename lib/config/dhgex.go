package config

import (
	"github.com/samber/oops"
)

// DHGexParameters carries the group sizes offered in a
// diffie-hellman-group-exchange request. A zero Min and Max selects the
// legacy SSH_MSG_KEX_DH_GEX_REQUEST_OLD form, where only the preferred size
// goes on the wire.
type DHGexParameters struct {
	MinGroupLength       int
	PreferredGroupLength int
	MaxGroupLength       int
}

// DefaultDHGexParameters returns the modern request form with a 1024..8192
// bit window preferring 3072-bit groups.
func DefaultDHGexParameters() *DHGexParameters {
	return &DHGexParameters{
		MinGroupLength:       1024,
		PreferredGroupLength: 3072,
		MaxGroupLength:       8192,
	}
}

// LegacyDHGexParameters returns the pre-RFC 4419 form carrying only the
// preferred group size.
func LegacyDHGexParameters(preferred int) *DHGexParameters {
	return &DHGexParameters{PreferredGroupLength: preferred}
}

// IsLegacy reports whether the parameters use the old single-size request.
func (p *DHGexParameters) IsLegacy() bool {
	return p.MinGroupLength == 0 && p.MaxGroupLength == 0
}

// Validate checks the size ordering. The legacy form only needs a positive
// preferred size.
func (p *DHGexParameters) Validate() error {
	if p.PreferredGroupLength < 1024 {
		return oops.Errorf("preferred group length %d below 1024", p.PreferredGroupLength)
	}
	if p.IsLegacy() {
		return nil
	}
	if p.MinGroupLength > p.PreferredGroupLength || p.PreferredGroupLength > p.MaxGroupLength {
		return oops.Errorf("group lengths not ordered: min %d preferred %d max %d",
			p.MinGroupLength, p.PreferredGroupLength, p.MaxGroupLength)
	}
	return nil
}
