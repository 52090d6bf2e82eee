package api

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/apexview/apexview/internal/cache"
	"github.com/apexview/apexview/internal/config"
	"github.com/apexview/apexview/internal/f1"
)

// racesPayload builds the cached body of the season schedule endpoint.
func racesPayload(ctx context.Context, provider f1.Provider, year int) ([]byte, error) {
	events, err := provider.Schedule(ctx, year)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string][]f1.Event{"events": events})
}

// seasonResults loads the final race of a season, which carries the
// cumulative championship points for every driver.
func seasonResults(ctx context.Context, provider f1.Provider, year int) ([]f1.Result, error) {
	events, err := provider.Schedule(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, f1.ErrNotFound
	}

	finalRound := 0
	for _, e := range events {
		finalRound = max(finalRound, e.Round)
	}

	data, err := provider.Session(year, strconv.Itoa(finalRound), "R").Load(ctx, f1.LoadOptions{Results: true})
	if err != nil {
		return nil, err
	}
	return data.Results, nil
}

type seasonStanding struct {
	Driver string  `json:"Abbreviation"`
	Team   string  `json:"TeamName"`
	Points float64 `json:"Points"`
}

func seasonDriverStandingsPayload(ctx context.Context, provider f1.Provider, year int) ([]byte, error) {
	results, err := seasonResults(ctx, provider, year)
	if err != nil {
		return nil, err
	}
	standings := make([]seasonStanding, 0, len(results))
	for _, res := range results {
		standings = append(standings, seasonStanding{Driver: res.Driver, Team: res.Team, Points: res.Points})
	}
	sort.SliceStable(standings, func(a, b int) bool { return standings[a].Points > standings[b].Points })
	return json.Marshal(standings)
}

type constructorStanding struct {
	Team   string  `json:"TeamName"`
	Points float64 `json:"Points"`
}

func seasonConstructorStandingsPayload(ctx context.Context, provider f1.Provider, year int) ([]byte, error) {
	results, err := seasonResults(ctx, provider, year)
	if err != nil {
		return nil, err
	}
	best := make(map[string]float64)
	for _, res := range results {
		best[res.Team] = max(best[res.Team], res.Points)
	}
	standings := make([]constructorStanding, 0, len(best))
	for team, points := range best {
		standings = append(standings, constructorStanding{Team: team, Points: points})
	}
	sort.Slice(standings, func(a, b int) bool {
		if standings[a].Points != standings[b].Points {
			return standings[a].Points > standings[b].Points
		}
		return standings[a].Team < standings[b].Team
	})
	return json.Marshal(standings)
}

// WarmupTasks builds the startup prefetch list: the schedule of every given
// season, plus the championship standings of the most recent one. The tasks
// use the same keys and payload shapes as the live handlers, so warmed
// entries are served directly.
func WarmupTasks(provider f1.Provider, ttl config.TTLConfig, years []int) []cache.WarmupTask {
	tasks := make([]cache.WarmupTask, 0, len(years)+2)
	latest := 0

	for _, year := range years {
		latest = max(latest, year)
		tasks = append(tasks, cache.WarmupTask{
			Op:   "races",
			Args: []string{strconv.Itoa(year)},
			TTL:  ttl.Races,
			Compute: func(ctx context.Context) ([]byte, error) {
				return racesPayload(ctx, provider, year)
			},
		})
	}
	if latest == 0 {
		return tasks
	}

	rawLatest := strconv.Itoa(latest)
	return append(tasks,
		cache.WarmupTask{
			Op:   "standings",
			Args: []string{"season", "driver", rawLatest},
			TTL:  ttl.Standings,
			Compute: func(ctx context.Context) ([]byte, error) {
				return seasonDriverStandingsPayload(ctx, provider, latest)
			},
		},
		cache.WarmupTask{
			Op:   "standings",
			Args: []string{"season", "constructor", rawLatest},
			TTL:  ttl.Standings,
			Compute: func(ctx context.Context) ([]byte, error) {
				return seasonConstructorStandingsPayload(ctx, provider, latest)
			},
		},
	)
}
