package ingest

import (
	"strconv"
	"strings"
	"time"

	"ospanel/internal/models"
)

// StatusFallback selects what an unrecognized status raw value becomes.
type StatusFallback int

const (
	// StatusPassThrough keeps the trimmed original text.
	StatusPassThrough StatusFallback = iota
	// StatusDefaultLabel replaces it with the policy's default label.
	StatusDefaultLabel
)

// DateFallback selects what an unparseable date becomes.
type DateFallback int

const (
	// DateNull stores no date.
	DateNull DateFallback = iota
	// DateToday stores today's date.
	DateToday
)

// statusSynonyms maps lowercased raw values to canonical labels.
var statusSynonyms = map[string]string{
	"concluído":    models.StatusDone,
	"concluido":    models.StatusDone,
	"finalizado":   models.StatusDone,
	"completo":     models.StatusDone,
	"pendente":     models.StatusPending,
	"aberto":       models.StatusOpen,
	"liberado":     models.StatusReleased,
	"liberada":     models.StatusReleased,
	"aprovado":     models.StatusApproved,
	"em andamento": models.StatusInProgress,
	"processando":  models.StatusInProgress,
}

// NormalizeStatus maps a raw spreadsheet status to a canonical label.
// Matching is trimmed and case-insensitive. Empty input always yields the
// default label; unrecognized input follows the fallback policy.
func NormalizeStatus(raw string, fallback StatusFallback, defaultLabel string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultLabel
	}
	if label, ok := statusSynonyms[strings.ToLower(trimmed)]; ok {
		return label
	}
	if fallback == StatusDefaultLabel {
		return defaultLabel
	}
	return trimmed
}

// dateLayouts are tried in priority order; the first that parses wins.
var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"02/01/2006",
	"2006-01-02",
	"02.01.2006",
}

// serialEpoch is day zero of spreadsheet date serials. The 1900 date system
// counts a nonexistent 1900-02-29, so day zero lands on 1899-12-30 and
// serial 2 is 1900-01-01.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NormalizeDate coerces a raw cell to a calendar date. String layouts are
// tried first, then numeric spreadsheet serials. Unparseable or empty input
// follows the fallback policy.
func NormalizeDate(raw string, fallback DateFallback) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallbackDate(fallback)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		d := serialEpoch.AddDate(0, 0, int(serial))
		return &d
	}
	return fallbackDate(fallback)
}

func fallbackDate(f DateFallback) *time.Time {
	if f == DateToday {
		now := time.Now()
		d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

// NormalizeQuantity coerces a raw cell to an integer; invalid input is 0.
func NormalizeQuantity(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return int(f)
	}
	return 0
}

// NormalizeAmount coerces a raw cell to a decimal value; invalid input is
// 0.0. Brazilian comma-decimal input ("1.234,56") is accepted.
func NormalizeAmount(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	if strings.Contains(trimmed, ",") {
		alt := strings.ReplaceAll(trimmed, ".", "")
		alt = strings.ReplaceAll(alt, ",", ".")
		if f, err := strconv.ParseFloat(alt, 64); err == nil {
			return f
		}
	}
	return 0
}

// NormalizeText trims whitespace. An empty result means "no value".
func NormalizeText(raw string) string {
	return strings.TrimSpace(raw)
}
