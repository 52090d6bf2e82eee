package api

import (
	"net/http"
	"strings"
	"time"
)

// driverProfile returns career statistics for a driver. Backed by a small
// in-process table until a proper stats source is wired up.
// TODO: replace the static table with a provider-backed career stats lookup.
func (h *Handlers) driverProfile(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("driver"))
	if profile, ok := driverProfiles[code]; ok {
		writeJSON(w, profile)
		return
	}
	writeJSON(w, map[string]any{
		"name": r.PathValue("driver"),
		"team": "Unknown",
		"bio":  "Profile data not available",
	})
}

// news returns the latest headlines.
func (h *Handlers) news(w http.ResponseWriter, r *http.Request) {
	date := time.Now().Format("2006-01-02")
	items := make([]newsItem, len(newsFeed))
	copy(items, newsFeed)
	for i := range items {
		items[i].Date = date
	}
	writeJSON(w, map[string][]newsItem{"news": items})
}

type driverProfileData struct {
	Name          string `json:"name"`
	Team          string `json:"team"`
	Number        int    `json:"number"`
	Championships int    `json:"championships"`
	Country       string `json:"country"`
	Podiums       int    `json:"podiums"`
	Wins          int    `json:"wins"`
	Bio           string `json:"bio"`
}

var driverProfiles = map[string]driverProfileData{
	"HAM": {
		Name:          "Lewis Hamilton",
		Team:          "Mercedes",
		Number:        44,
		Championships: 7,
		Country:       "United Kingdom",
		Podiums:       195,
		Wins:          103,
		Bio:           "One of the most successful F1 drivers of all time, holding numerous records.",
	},
	"VER": {
		Name:          "Max Verstappen",
		Team:          "Red Bull Racing",
		Number:        1,
		Championships: 4,
		Country:       "Netherlands",
		Podiums:       97,
		Wins:          59,
		Bio:           "Known for his aggressive driving style and exceptional race craft.",
	},
}

type newsItem struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Summary  string `json:"summary"`
	ImageURL string `json:"image_url"`
}

var newsFeed = []newsItem{
	{
		ID:       1,
		Title:    "Hamilton announces retirement after 2026 season",
		Summary:  "Seven-time world champion Lewis Hamilton has announced he will retire from F1 after the 2026 season.",
		ImageURL: "https://example.com/hamilton.jpg",
	},
	{
		ID:       2,
		Title:    "F1 confirms new USA Grand Prix venue for 2026",
		Summary:  "Formula 1 has confirmed a new USA Grand Prix venue starting from the 2026 season.",
		ImageURL: "https://example.com/usa-gp.jpg",
	},
	{
		ID:       3,
		Title:    "Red Bull unveils radical new aerodynamic concept",
		Summary:  "Red Bull Racing has revealed a radical new aerodynamic package ahead of the next race.",
		ImageURL: "https://example.com/redbull.jpg",
	},
}
