package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tekai/internal/storage"
)

// DailyStats summarises one day of the interaction log.
type DailyStats struct {
	Date             string         `json:"date"`
	Questions        int            `json:"questions"`
	Answered         int            `json:"answered"`
	Failed           int            `json:"failed"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	AnswersByModel   map[string]int `json:"answers_by_model"`
}

// AnalyzeDailyLogs counts the exchanges logged on the calendar day of targetDate,
// in targetDate's location.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:           startOfDay.Format("2006-01-02"),
		AnswersByModel: make(map[string]int),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.Question == "" {
			continue
		}
		stats.Questions++
		if event.Failed {
			stats.Failed++
			continue
		}
		stats.Answered++
		stats.PromptTokens += event.PromptTokens
		stats.CompletionTokens += event.CompletionTokens
		if event.Model != "" {
			stats.AnswersByModel[event.Model]++
		}
	}
	return stats
}

// GenerateReportSummary renders the stats as a short plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Study activity for %s:\n", ds.Date)
	fmt.Fprintf(&b, "- Questions asked: %d\n", ds.Questions)
	fmt.Fprintf(&b, "- Answered: %d\n", ds.Answered)
	if ds.Failed > 0 {
		fmt.Fprintf(&b, "- Failed: %d\n", ds.Failed)
	}
	if total := ds.PromptTokens + ds.CompletionTokens; total > 0 {
		fmt.Fprintf(&b, "- Tokens: %d (prompt %d, completion %d)\n", total, ds.PromptTokens, ds.CompletionTokens)
	}

	models := make([]string, 0, len(ds.AnswersByModel))
	for m := range ds.AnswersByModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintf(&b, "- %s: %d answers\n", m, ds.AnswersByModel[m])
	}
	return b.String()
}

// ToJSON serialises the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
