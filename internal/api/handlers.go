package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apexview/apexview/internal/cache"
	"github.com/apexview/apexview/internal/config"
	"github.com/apexview/apexview/internal/f1"
	"github.com/apexview/apexview/internal/observability"
)

// ServiceName and ServiceVersion identify the API in the root endpoint.
const (
	ServiceName    = "ApexView F1 API"
	ServiceVersion = "2.0.0"
)

// sessionCodes are the session types probed when listing what an event ran.
var sessionCodes = []string{"FP1", "FP2", "FP3", "Q", "R"}

// Handlers serves the public API. Every data endpoint goes through the cache
// orchestrator; the provider is only consulted on a full miss.
type Handlers struct {
	orch     *cache.Orchestrator
	provider f1.Provider
	ttl      config.TTLConfig
	logger   *observability.Logger
}

// NewHandlers wires the API handlers.
func NewHandlers(orch *cache.Orchestrator, provider f1.Provider, ttl config.TTLConfig, logger *observability.Logger) *Handlers {
	return &Handlers{orch: orch, provider: provider, ttl: ttl, logger: logger}
}

// Register attaches all routes to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.healthz)

	mux.HandleFunc("GET /api/races/{year}", h.races)
	mux.HandleFunc("GET /api/races/{year}/{event}/{session}", h.raceStandings)
	mux.HandleFunc("GET /api/sessions/{year}/{event}", h.sessions)
	mux.HandleFunc("GET /api/drivers/{year}/{event}/{session}", h.drivers)
	mux.HandleFunc("GET /api/drivers/details/{year}/{event}/{session}", h.driverDetails)
	mux.HandleFunc("GET /api/drivers/profile/{driver}", h.driverProfile)
	mux.HandleFunc("GET /api/telemetry/{year}/{event}/{session}/{driver}", h.telemetry)
	mux.HandleFunc("GET /api/seasons/driver/{year}", h.seasonDriverStandings)
	mux.HandleFunc("GET /api/seasons/constructor/{year}", h.seasonConstructorStandings)
	mux.HandleFunc("GET /api/news", h.news)
}

// serveCached runs compute through the cache orchestrator and writes the
// resulting JSON payload.
func (h *Handlers) serveCached(w http.ResponseWriter, r *http.Request, op string, args []string, ttl time.Duration, compute cache.ComputeFunc) {
	payload, err := h.orch.Fetch(r.Context(), op, args, ttl, compute)
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (h *Handlers) writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	if h.logger != nil {
		h.logger.WithTrace(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	if errors.Is(err, f1.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "data not found")
		return
	}
	writeError(w, r, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"path":  r.URL.Path,
	})
}

// yearParam parses and validates the {year} path value.
func yearParam(r *http.Request) (int, string, bool) {
	raw := r.PathValue("year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1950 {
		return 0, raw, false
	}
	return year, raw, true
}

func (h *Handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"name":    ServiceName,
		"version": ServiceVersion,
		"metrics": "/metrics",
	})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// races lists the season schedule.
func (h *Handlers) races(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}

	h.serveCached(w, r, "races", []string{rawYear}, h.ttl.Races, func(ctx context.Context) ([]byte, error) {
		return racesPayload(ctx, h.provider, year)
	})
}

// sessions lists which session types an event actually ran, by probing each
// known code against the provider.
func (h *Handlers) sessions(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}
	event := r.PathValue("event")

	h.serveCached(w, r, "sessions", []string{rawYear, event}, h.ttl.Sessions, func(ctx context.Context) ([]byte, error) {
		available := make([]string, 0, len(sessionCodes))
		for _, code := range sessionCodes {
			_, err := h.provider.Session(year, event, code).Load(ctx, f1.LoadOptions{})
			switch {
			case err == nil:
				available = append(available, code)
			case errors.Is(err, f1.ErrNotFound):
				// Event exists but did not run this session type.
			default:
				return nil, err
			}
		}
		return json.Marshal(map[string][]string{"Sessions": available})
	})
}

// drivers lists the driver codes that took part in a session.
func (h *Handlers) drivers(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}
	event, session := r.PathValue("event"), r.PathValue("session")

	h.serveCached(w, r, "drivers", []string{rawYear, event, session}, h.ttl.Drivers, func(ctx context.Context) ([]byte, error) {
		data, err := h.provider.Session(year, event, session).Load(ctx, f1.LoadOptions{Drivers: true})
		if err != nil {
			return nil, err
		}
		codes := make([]string, 0, len(data.Drivers))
		for _, d := range data.Drivers {
			codes = append(codes, d.Code)
		}
		sort.Strings(codes)
		return json.Marshal(map[string][]string{"drivers": codes})
	})
}

// driverDetails lists code, name and team for every session participant.
// The key shares the "drivers" category with the roster endpoint; a "details"
// marker keeps the two apart (a roster key starts with a numeric year).
func (h *Handlers) driverDetails(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}
	event, session := r.PathValue("event"), r.PathValue("session")

	h.serveCached(w, r, "drivers", []string{"details", rawYear, event, session}, h.ttl.Drivers, func(ctx context.Context) ([]byte, error) {
		data, err := h.provider.Session(year, event, session).Load(ctx, f1.LoadOptions{Drivers: true})
		if err != nil {
			return nil, err
		}
		drivers := make([]f1.Driver, 0, len(data.Drivers))
		for _, d := range data.Drivers {
			if d.Name == "" {
				d.Name = d.Code
			}
			if d.Team == "" {
				d.Team = "Unknown"
			}
			drivers = append(drivers, d)
		}
		sort.Slice(drivers, func(a, b int) bool { return drivers[a].Code < drivers[b].Code })
		return json.Marshal(map[string][]f1.Driver{"drivers": drivers})
	})
}

// telemetry returns the downsampled fastest-lap trace for one driver.
func (h *Handlers) telemetry(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}
	event, session := r.PathValue("event"), r.PathValue("session")
	driver := strings.ToUpper(r.PathValue("driver"))

	h.serveCached(w, r, "telemetry", []string{rawYear, event, session, driver}, h.ttl.Telemetry, func(ctx context.Context) ([]byte, error) {
		lap, err := h.provider.Session(year, event, session).Telemetry(ctx, driver)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"driver":    driver,
			"session":   rawYear + " " + event + " " + session,
			"lap_time":  lap.LapTime,
			"telemetry": lap.Points,
		})
	})
}

// raceStandings returns the classification of one session.
func (h *Handlers) raceStandings(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}
	event, session := r.PathValue("event"), r.PathValue("session")

	h.serveCached(w, r, "standings", []string{"race", rawYear, event, session}, h.ttl.Standings, func(ctx context.Context) ([]byte, error) {
		data, err := h.provider.Session(year, event, session).Load(ctx, f1.LoadOptions{Results: true})
		if err != nil {
			return nil, err
		}
		return json.Marshal(data.Results)
	})
}

// seasonDriverStandings returns the driver championship table.
func (h *Handlers) seasonDriverStandings(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}

	h.serveCached(w, r, "standings", []string{"season", "driver", rawYear}, h.ttl.Standings, func(ctx context.Context) ([]byte, error) {
		return seasonDriverStandingsPayload(ctx, h.provider, year)
	})
}

// seasonConstructorStandings returns the constructor championship table,
// ranking each team by its best driver's cumulative points.
func (h *Handlers) seasonConstructorStandings(w http.ResponseWriter, r *http.Request) {
	year, rawYear, ok := yearParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "year must be a valid season year")
		return
	}

	h.serveCached(w, r, "standings", []string{"season", "constructor", rawYear}, h.ttl.Standings, func(ctx context.Context) ([]byte, error) {
		return seasonConstructorStandingsPayload(ctx, h.provider, year)
	})
}
