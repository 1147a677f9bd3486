package apifootball

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday/internal/domain/score"
)

// envelope is the provider's common response wrapper. Response is kept raw so
// each endpoint decodes only the item shape it needs.
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Paging   paging          `json:"paging"`
	Response json.RawMessage `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// errorMessage flattens the provider's loosely typed errors field. Empty
// objects and arrays mean no error.
func (e envelope) errorMessage() string {
	trimmed := strings.TrimSpace(string(e.Errors))
	switch trimmed {
	case "", "null", "[]", "{}":
		return ""
	}

	var byField map[string]string
	if err := sonic.Unmarshal(e.Errors, &byField); err == nil {
		keys := make([]string, 0, len(byField))
		for key := range byField {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(byField))
		for _, key := range keys {
			parts = append(parts, key+": "+byField[key])
		}
		return strings.Join(parts, "; ")
	}

	if len(trimmed) > 240 {
		trimmed = trimmed[:240] + "..."
	}
	return trimmed
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Long    string `json:"long"`
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
		Flag    string `json:"flag"`
		Season  int    `json:"season"`
		Round   string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home teamItem `json:"home"`
		Away teamItem `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

type teamItem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
	Winner *bool  `json:"winner"`
}

func mapFixture(item fixtureItem) (score.Fixture, bool) {
	if item.Fixture.ID <= 0 {
		return score.Fixture{}, false
	}
	kickoff, err := time.Parse(time.RFC3339, item.Fixture.Date)
	if err != nil {
		return score.Fixture{}, false
	}

	return score.Fixture{
		ID:      item.Fixture.ID,
		Kickoff: kickoff,
		Status:  strings.TrimSpace(item.Fixture.Status.Short),
		Elapsed: item.Fixture.Status.Elapsed,
		HomeTeam: score.Team{
			ID:     item.Teams.Home.ID,
			Name:   strings.TrimSpace(item.Teams.Home.Name),
			Logo:   item.Teams.Home.Logo,
			Winner: item.Teams.Home.Winner,
		},
		AwayTeam: score.Team{
			ID:     item.Teams.Away.ID,
			Name:   strings.TrimSpace(item.Teams.Away.Name),
			Logo:   item.Teams.Away.Logo,
			Winner: item.Teams.Away.Winner,
		},
		League: score.League{
			ID:      item.League.ID,
			Name:    strings.TrimSpace(item.League.Name),
			Country: item.League.Country,
			Logo:    item.League.Logo,
			Flag:    item.League.Flag,
			Season:  item.League.Season,
			Round:   item.League.Round,
		},
		HomeGoals: item.Goals.Home,
		AwayGoals: item.Goals.Away,
	}, true
}

type oddsItem struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	Bookmakers []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Bets []struct {
			ID     int64  `json:"id"`
			Name   string `json:"name"`
			Values []struct {
				Value string `json:"value"`
				Odd   string `json:"odd"`
			} `json:"values"`
		} `json:"bets"`
	} `json:"bookmakers"`
}

// mapOdds extracts the match-winner triple for the designated bookmaker and
// bet market. Incomplete triples are reported as absent, never partially.
func mapOdds(item oddsItem, bookmakerID, betID int64) (int64, score.OddsTriple, bool) {
	if item.Fixture.ID <= 0 {
		return 0, score.OddsTriple{}, false
	}

	for _, bookmaker := range item.Bookmakers {
		if bookmaker.ID != bookmakerID {
			continue
		}
		for _, bet := range bookmaker.Bets {
			if bet.ID != betID {
				continue
			}
			var triple score.OddsTriple
			for _, value := range bet.Values {
				switch strings.ToLower(strings.TrimSpace(value.Value)) {
				case "home", "1":
					triple.Home = strings.TrimSpace(value.Odd)
				case "draw", "x":
					triple.Draw = strings.TrimSpace(value.Odd)
				case "away", "2":
					triple.Away = strings.TrimSpace(value.Odd)
				}
			}
			if !triple.Complete() {
				return 0, score.OddsTriple{}, false
			}
			return item.Fixture.ID, triple, true
		}
	}
	return 0, score.OddsTriple{}, false
}
