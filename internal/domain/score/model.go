package score

import (
	"strings"
	"time"
)

// Status codes as reported by the upstream provider.
const (
	StatusNotStarted = "NS"
	StatusFullTime   = "FT"
	StatusAfterExtra = "AET"
	StatusPenalties  = "PEN"
	StatusPostponed  = "PP"
	StatusCancelled  = "CANC"
)

type Team struct {
	ID     int64
	Name   string
	Logo   string
	Winner *bool
}

type League struct {
	ID      int64
	Name    string
	Country string
	Logo    string
	Flag    string
	Season  int
	Round   string
}

// Fixture is one normalized upstream match as produced by the fetch client.
type Fixture struct {
	ID        int64
	Kickoff   time.Time
	Status    string
	Elapsed   *int
	HomeTeam  Team
	AwayTeam  Team
	League    League
	HomeGoals *int
	AwayGoals *int
}

// OddsTriple holds the three-way match-winner odds from the designated
// bookmaker, kept as the decimal strings the provider sends. A triple with any
// empty component is incomplete and treated as absent.
type OddsTriple struct {
	Home string
	Draw string
	Away string
}

func (o OddsTriple) Complete() bool {
	return strings.TrimSpace(o.Home) != "" &&
		strings.TrimSpace(o.Draw) != "" &&
		strings.TrimSpace(o.Away) != ""
}

// Row is the persisted join of a fixture and its odds. RowNumber is the dense
// 1-based rank by kickoff within one assembled batch and is recomputed on
// every assembly; only FixtureID is a stable identity.
type Row struct {
	RowNumber   int
	FixtureID   int64
	Kickoff     time.Time
	DayLabel    string
	Status      string
	Elapsed     *int
	HomeTeam    Team
	AwayTeam    Team
	League      League
	HomeGoals   *int
	AwayGoals   *int
	Odds        OddsTriple
	SectionID   string
	LastUpdated time.Time
}

// LiveScore carries the mutable fields of an in-progress fixture.
type LiveScore struct {
	FixtureID int64
	Status    string
	Elapsed   *int
	HomeGoals *int
	AwayGoals *int
}

func IsFinishedStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case StatusFullTime, StatusAfterExtra, StatusPenalties:
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "1H", "2H", "HT", "ET", "BT", "P", "LIVE":
		return true
	default:
		return false
	}
}
