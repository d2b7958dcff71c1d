package waiver

import (
	"fmt"
	"maps"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
)

// Settings are the league rules a processing pass enforces.
type Settings struct {
	Mode                  Mode
	MinBid                int64
	RosterCap             int
	RosterCapBySlot       map[player.Position]int
	AllowSamePassChaining bool
}

func (s Settings) Validate() error {
	if s.Mode != ModeFAAB && s.Mode != ModePriority {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	}
	if s.MinBid < 0 {
		return fmt.Errorf("%w: min bid must be >= 0", ErrInvalidSettings)
	}
	if s.RosterCap <= 0 {
		return fmt.Errorf("%w: roster cap must be > 0", ErrInvalidSettings)
	}
	for pos, limit := range s.RosterCapBySlot {
		if _, ok := player.AllPositions[pos]; !ok {
			return fmt.Errorf("%w: unknown slot %q", ErrInvalidSettings, pos)
		}
		if limit <= 0 {
			return fmt.Errorf("%w: cap for slot %s must be > 0", ErrInvalidSettings, pos)
		}
	}
	return nil
}

func (s Settings) Clone() Settings {
	s.RosterCapBySlot = maps.Clone(s.RosterCapBySlot)
	return s
}
