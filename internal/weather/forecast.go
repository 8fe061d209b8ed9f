package weather

import (
	"strings"
	"time"
)

// Highlight thresholds in °C.
const (
	ColdBelow = 10.0
	HotAbove  = 30.0
)

// Forecast is the subset of the 5-day/3-hour upstream payload we read.
type Forecast struct {
	List []Entry `json:"list"`
	City City    `json:"city"`
}

type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Entry is one 3-hour slot.
type Entry struct {
	Dt      int64       `json:"dt"`
	DtTxt   string      `json:"dt_txt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
}

type Main struct {
	Temp float64 `json:"temp"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// DaySummary aggregates the slots of one calendar day.
type DaySummary struct {
	Date        string  `json:"date"`
	MinTemp     float64 `json:"tempMin"`
	MaxTemp     float64 `json:"tempMax"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WeatherID   int     `json:"weatherId"`
}

// Summarize groups slots by day in upstream order. Min and max come from the
// slot temperatures; the condition comes from the middle slot of the day.
func Summarize(f Forecast) []DaySummary {
	var order []string
	byDay := make(map[string][]Entry)
	for _, e := range f.List {
		day := entryDay(e)
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		byDay[day] = append(byDay[day], e)
	}

	out := make([]DaySummary, 0, len(order))
	for _, day := range order {
		entries := byDay[day]
		s := DaySummary{Date: day, MinTemp: entries[0].Main.Temp, MaxTemp: entries[0].Main.Temp}
		for _, e := range entries[1:] {
			s.MinTemp = min(s.MinTemp, e.Main.Temp)
			s.MaxTemp = max(s.MaxTemp, e.Main.Temp)
		}
		if mid := entries[len(entries)/2]; len(mid.Weather) > 0 {
			s.Description = mid.Weather[0].Description
			s.Icon = mid.Weather[0].Icon
			s.WeatherID = mid.Weather[0].ID
		}
		out = append(out, s)
	}
	return out
}

func entryDay(e Entry) string {
	if day, _, ok := strings.Cut(e.DtTxt, " "); ok && day != "" {
		return day
	}
	return time.Unix(e.Dt, 0).UTC().Format("2006-01-02")
}

// Highlight flags notable conditions of a day.
type Highlight struct {
	Rain bool `json:"rain"`
	Cold bool `json:"cold"`
	Hot  bool `json:"hot"`
}

// Highlights evaluates every day. Rain covers thunderstorm, drizzle and rain condition ids.
func Highlights(days []DaySummary) []Highlight {
	out := make([]Highlight, len(days))
	for i, d := range days {
		out[i] = Highlight{
			Rain: d.WeatherID >= 200 && d.WeatherID < 600,
			Cold: d.MinTemp < ColdBelow,
			Hot:  d.MaxTemp > HotAbove,
		}
	}
	return out
}

// FirstDays keeps at most n days. n <= 0 keeps them all.
func FirstDays(days []DaySummary, n int) []DaySummary {
	if n <= 0 || n >= len(days) {
		return days
	}
	return days[:n]
}
