package player

import "fmt"

// Position represents football position categories used for roster slot caps.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// Player is an athlete in a fantasy league's player pool.
type Player struct {
	ID       string
	LeagueID string
	Name     string
	Position Position
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.LeagueID == "" {
		return fmt.Errorf("player league id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}

	return nil
}
