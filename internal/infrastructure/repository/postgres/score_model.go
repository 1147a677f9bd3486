package postgres

import (
	"time"

	"github.com/riskibarqy/matchday/internal/domain/score"
)

type scoreRowTableModel struct {
	ID            int64     `db:"id"`
	FixtureID     int64     `db:"fixture_id"`
	SectionID     string    `db:"section_id"`
	RowNumber     int       `db:"row_number"`
	KickoffAt     time.Time `db:"kickoff_at"`
	DayLabel      string    `db:"day_label"`
	Status        string    `db:"status"`
	Elapsed       *int      `db:"elapsed"`
	HomeTeamID    int64     `db:"home_team_id"`
	HomeTeamName  string    `db:"home_team_name"`
	HomeTeamLogo  string    `db:"home_team_logo"`
	HomeWinner    *bool     `db:"home_winner"`
	AwayTeamID    int64     `db:"away_team_id"`
	AwayTeamName  string    `db:"away_team_name"`
	AwayTeamLogo  string    `db:"away_team_logo"`
	AwayWinner    *bool     `db:"away_winner"`
	LeagueID      int64     `db:"league_id"`
	LeagueName    string    `db:"league_name"`
	LeagueCountry string    `db:"league_country"`
	LeagueLogo    string    `db:"league_logo"`
	LeagueFlag    string    `db:"league_flag"`
	LeagueSeason  int       `db:"league_season"`
	LeagueRound   string    `db:"league_round"`
	OddsHome      string    `db:"odds_home"`
	OddsDraw      string    `db:"odds_draw"`
	OddsAway      string    `db:"odds_away"`
	HomeGoals     *int      `db:"home_goals"`
	AwayGoals     *int      `db:"away_goals"`
	LastUpdated   time.Time `db:"last_updated"`
	CreatedAt     time.Time `db:"created_at"`
}

type scoreRowInsertModel struct {
	FixtureID     int64     `db:"fixture_id"`
	SectionID     string    `db:"section_id"`
	RowNumber     int       `db:"row_number"`
	KickoffAt     time.Time `db:"kickoff_at"`
	DayLabel      string    `db:"day_label"`
	Status        string    `db:"status"`
	Elapsed       *int      `db:"elapsed"`
	HomeTeamID    int64     `db:"home_team_id"`
	HomeTeamName  string    `db:"home_team_name"`
	HomeTeamLogo  string    `db:"home_team_logo"`
	HomeWinner    *bool     `db:"home_winner"`
	AwayTeamID    int64     `db:"away_team_id"`
	AwayTeamName  string    `db:"away_team_name"`
	AwayTeamLogo  string    `db:"away_team_logo"`
	AwayWinner    *bool     `db:"away_winner"`
	LeagueID      int64     `db:"league_id"`
	LeagueName    string    `db:"league_name"`
	LeagueCountry string    `db:"league_country"`
	LeagueLogo    string    `db:"league_logo"`
	LeagueFlag    string    `db:"league_flag"`
	LeagueSeason  int       `db:"league_season"`
	LeagueRound   string    `db:"league_round"`
	OddsHome      string    `db:"odds_home"`
	OddsDraw      string    `db:"odds_draw"`
	OddsAway      string    `db:"odds_away"`
	HomeGoals     *int      `db:"home_goals"`
	AwayGoals     *int      `db:"away_goals"`
	LastUpdated   time.Time `db:"last_updated"`
}

func newScoreRowInsertModel(row score.Row, now time.Time) scoreRowInsertModel {
	return scoreRowInsertModel{
		FixtureID:     row.FixtureID,
		SectionID:     row.SectionID,
		RowNumber:     row.RowNumber,
		KickoffAt:     row.Kickoff,
		DayLabel:      row.DayLabel,
		Status:        row.Status,
		Elapsed:       row.Elapsed,
		HomeTeamID:    row.HomeTeam.ID,
		HomeTeamName:  row.HomeTeam.Name,
		HomeTeamLogo:  row.HomeTeam.Logo,
		HomeWinner:    row.HomeTeam.Winner,
		AwayTeamID:    row.AwayTeam.ID,
		AwayTeamName:  row.AwayTeam.Name,
		AwayTeamLogo:  row.AwayTeam.Logo,
		AwayWinner:    row.AwayTeam.Winner,
		LeagueID:      row.League.ID,
		LeagueName:    row.League.Name,
		LeagueCountry: row.League.Country,
		LeagueLogo:    row.League.Logo,
		LeagueFlag:    row.League.Flag,
		LeagueSeason:  row.League.Season,
		LeagueRound:   row.League.Round,
		OddsHome:      row.Odds.Home,
		OddsDraw:      row.Odds.Draw,
		OddsAway:      row.Odds.Away,
		HomeGoals:     row.HomeGoals,
		AwayGoals:     row.AwayGoals,
		LastUpdated:   now,
	}
}

func (m scoreRowTableModel) toDomain() score.Row {
	return score.Row{
		RowNumber: m.RowNumber,
		FixtureID: m.FixtureID,
		Kickoff:   m.KickoffAt,
		DayLabel:  m.DayLabel,
		Status:    m.Status,
		Elapsed:   m.Elapsed,
		HomeTeam: score.Team{
			ID:     m.HomeTeamID,
			Name:   m.HomeTeamName,
			Logo:   m.HomeTeamLogo,
			Winner: m.HomeWinner,
		},
		AwayTeam: score.Team{
			ID:     m.AwayTeamID,
			Name:   m.AwayTeamName,
			Logo:   m.AwayTeamLogo,
			Winner: m.AwayWinner,
		},
		League: score.League{
			ID:      m.LeagueID,
			Name:    m.LeagueName,
			Country: m.LeagueCountry,
			Logo:    m.LeagueLogo,
			Flag:    m.LeagueFlag,
			Season:  m.LeagueSeason,
			Round:   m.LeagueRound,
		},
		HomeGoals:   m.HomeGoals,
		AwayGoals:   m.AwayGoals,
		Odds:        score.OddsTriple{Home: m.OddsHome, Draw: m.OddsDraw, Away: m.OddsAway},
		SectionID:   m.SectionID,
		LastUpdated: m.LastUpdated,
	}
}
