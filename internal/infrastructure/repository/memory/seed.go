package memory

import (
	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/player"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
)

const (
	LeagueIDLiga1Indonesia = "idn-liga-1-2025"
	LeagueIDPremierLeague  = "eng-premier-league-2025"
)

// SeedLeagues returns the demo leagues. Liga 1 follows the configured
// defaults; the Premier League demo always runs rolling priority.
func SeedLeagues(defaults waiver.Settings, faabBudget int64, schedule league.ProcessingSchedule) []league.League {
	priority := defaults.Clone()
	priority.Mode = waiver.ModePriority
	priority.MinBid = 0

	return []league.League{
		{
			ID:         LeagueIDLiga1Indonesia,
			Name:       "Liga 1 Indonesia",
			Season:     "2025/2026",
			FaabBudget: faabBudget,
			Waiver:     defaults.Clone(),
			Schedule:   schedule,
		},
		{
			ID:         LeagueIDPremierLeague,
			Name:       "Premier League",
			Season:     "2025/2026",
			FaabBudget: faabBudget,
			Waiver:     priority,
			Schedule:   schedule,
		},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: "idn-gk-01", LeagueID: LeagueIDLiga1Indonesia, Name: "Andritany Ardhiyasa", Position: player.PositionGoalkeeper},
		{ID: "idn-gk-02", LeagueID: LeagueIDLiga1Indonesia, Name: "Teja Paku Alam", Position: player.PositionGoalkeeper},
		{ID: "idn-def-01", LeagueID: LeagueIDLiga1Indonesia, Name: "Hansamu Yama", Position: player.PositionDefender},
		{ID: "idn-def-02", LeagueID: LeagueIDLiga1Indonesia, Name: "Nick Kuipers", Position: player.PositionDefender},
		{ID: "idn-def-03", LeagueID: LeagueIDLiga1Indonesia, Name: "Dusan Stevanovic", Position: player.PositionDefender},
		{ID: "idn-def-04", LeagueID: LeagueIDLiga1Indonesia, Name: "Ricky Fajrin", Position: player.PositionDefender},
		{ID: "idn-def-05", LeagueID: LeagueIDLiga1Indonesia, Name: "Arief Catur", Position: player.PositionDefender},
		{ID: "idn-mid-01", LeagueID: LeagueIDLiga1Indonesia, Name: "Maciej Gajos", Position: player.PositionMidfielder},
		{ID: "idn-mid-02", LeagueID: LeagueIDLiga1Indonesia, Name: "Marc Klok", Position: player.PositionMidfielder},
		{ID: "idn-mid-03", LeagueID: LeagueIDLiga1Indonesia, Name: "Bruno Moreira", Position: player.PositionMidfielder},
		{ID: "idn-mid-04", LeagueID: LeagueIDLiga1Indonesia, Name: "Eber Bessa", Position: player.PositionMidfielder},
		{ID: "idn-mid-05", LeagueID: LeagueIDLiga1Indonesia, Name: "Mitsuru Maruoka", Position: player.PositionMidfielder},
		{ID: "idn-mid-06", LeagueID: LeagueIDLiga1Indonesia, Name: "Dedi Kusnandar", Position: player.PositionMidfielder},
		{ID: "idn-fwd-01", LeagueID: LeagueIDLiga1Indonesia, Name: "Gustavo Almeida", Position: player.PositionForward},
		{ID: "idn-fwd-02", LeagueID: LeagueIDLiga1Indonesia, Name: "David da Silva", Position: player.PositionForward},
		{ID: "idn-fwd-03", LeagueID: LeagueIDLiga1Indonesia, Name: "Paulo Henrique", Position: player.PositionForward},
		{ID: "eng-gk-01", LeagueID: LeagueIDPremierLeague, Name: "David Raya", Position: player.PositionGoalkeeper},
		{ID: "eng-def-01", LeagueID: LeagueIDPremierLeague, Name: "William Saliba", Position: player.PositionDefender},
		{ID: "eng-mid-01", LeagueID: LeagueIDPremierLeague, Name: "Dominik Szoboszlai", Position: player.PositionMidfielder},
		{ID: "eng-fwd-01", LeagueID: LeagueIDPremierLeague, Name: "Darwin Nunez", Position: player.PositionForward},
	}
}

// SeedTeams returns fantasy teams with unique waiver priorities per league.
func SeedTeams(faabBudget int64) []roster.TeamState {
	return []roster.TeamState{
		{
			TeamID: "ft-garuda", LeagueID: LeagueIDLiga1Indonesia, Name: "Garuda XI", OwnerUserID: "user-garuda",
			PlayerIDs: []string{"idn-gk-01", "idn-def-01", "idn-mid-01", "idn-fwd-01"}, TotalFaab: faabBudget, WaiverPriority: 1,
		},
		{
			TeamID: "ft-maung", LeagueID: LeagueIDLiga1Indonesia, Name: "Maung FC", OwnerUserID: "user-maung",
			PlayerIDs: []string{"idn-gk-02", "idn-def-02", "idn-mid-02", "idn-fwd-02"}, TotalFaab: faabBudget, WaiverPriority: 2,
		},
		{
			TeamID: "ft-bajul", LeagueID: LeagueIDLiga1Indonesia, Name: "Bajul Ijo", OwnerUserID: "user-bajul",
			PlayerIDs: []string{"idn-def-03", "idn-mid-03", "idn-fwd-03"}, TotalFaab: faabBudget, WaiverPriority: 3,
		},
		{
			TeamID: "ft-north-london", LeagueID: LeagueIDPremierLeague, Name: "North London Nerds", OwnerUserID: "user-nln",
			PlayerIDs: []string{"eng-gk-01", "eng-def-01"}, TotalFaab: faabBudget, WaiverPriority: 1,
		},
		{
			TeamID: "ft-kop", LeagueID: LeagueIDPremierLeague, Name: "Kop Stars", OwnerUserID: "user-kop",
			PlayerIDs: []string{"eng-mid-01"}, TotalFaab: faabBudget, WaiverPriority: 2,
		},
	}
}
