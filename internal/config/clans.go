package config

import (
	"github.com/udisondev/clans/internal/clan"
)

// Clans holds clan policy. It implements clan.Settings.
type Clans struct {
	VerificationRequired bool             `yaml:"require_verification"`
	BulletinBoardSize    int              `yaml:"bb_size"`
	RivalLimit           int              `yaml:"rival_limit_percent"`
	ClanTrustByDefault   bool             `yaml:"clan_trust_by_default"`
	UnrivableClans       []string         `yaml:"unrivable_clans"`
	Weights              clan.KillWeights `yaml:"kill_weights"`
}

var _ clan.Settings = Clans{}

// DefaultClans returns the stock clan policy.
func DefaultClans() Clans {
	return Clans{
		VerificationRequired: true,
		BulletinBoardSize:    6,
		RivalLimit:           50,
		ClanTrustByDefault:   false,
		Weights:              clan.DefaultKillWeights(),
	}
}

// RequireVerification reports whether clans must be verified to use social features.
func (c Clans) RequireVerification() bool { return c.VerificationRequired }

// BoardSize returns the bulletin board capacity.
func (c Clans) BoardSize() int { return c.BulletinBoardSize }

// RivalLimitPercent returns the share of rivable clans a clan may declare rivals.
func (c Clans) RivalLimitPercent() int { return c.RivalLimit }

// TrustByDefault reports whether new members start trusted.
func (c Clans) TrustByDefault() bool { return c.ClanTrustByDefault }

// KillWeights returns the weighted-kill multipliers.
func (c Clans) KillWeights() clan.KillWeights { return c.Weights }

// IsUnrivable reports whether the tag is listed as unrivable (markup and case ignored).
func (c Clans) IsUnrivable(tag string) bool {
	key := clan.NormalizeTag(tag)
	for _, t := range c.UnrivableClans {
		if clan.NormalizeTag(t) == key {
			return true
		}
	}
	return false
}
