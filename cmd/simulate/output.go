package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/scenario"
)

type jsonTick struct {
	Date   string                     `json:"date"`
	Values map[string]decimal.Decimal `json:"values"`
}

type jsonJournalEntry struct {
	Date      string          `json:"date"`
	Tick      string          `json:"tick"`
	AccountID string          `json:"account_id"`
	Kind      string          `json:"kind"`
	Delta     decimal.Decimal `json:"delta"`
	Balance   decimal.Decimal `json:"balance"`
}

type jsonOutput struct {
	RunID       string             `json:"run_id"`
	ExecutionID string             `json:"execution_id"`
	Scenario    string             `json:"scenario"`
	Start       string             `json:"start"`
	End         string             `json:"end"`
	Resolution  string             `json:"resolution"`
	Accounts    []string           `json:"accounts"`
	Ticks       []jsonTick         `json:"ticks"`
	Summaries   []scenario.Summary `json:"summaries"`
	Journal     []jsonJournalEntry `json:"journal,omitempty"`
}

// writeJSON writes the run, its ticks and per-account summaries as one document.
func writeJSON(w io.Writer, run *domain.Run, results *domain.Results, ids []string, journal *scenario.Journal) error {
	out := jsonOutput{
		RunID:       run.RunID,
		ExecutionID: run.ExecutionID,
		Scenario:    run.Scenario,
		Start:       run.StartDate.Format(time.DateOnly),
		End:         run.EndDate.Format(time.DateOnly),
		Resolution:  run.Resolution,
		Accounts:    ids,
		Ticks:       make([]jsonTick, 0, results.Len()),
	}
	for _, tick := range results.Ticks() {
		out.Ticks = append(out.Ticks, jsonTick{Date: tick.Date.Format(time.DateOnly), Values: tick.Values})
	}
	for _, id := range ids {
		out.Summaries = append(out.Summaries, scenario.Summarize(results, id))
	}
	if journal != nil {
		for _, e := range journal.Entries() {
			out.Journal = append(out.Journal, jsonJournalEntry{
				Date:      e.Date.Format(time.DateOnly),
				Tick:      e.Tick.Format(time.DateOnly),
				AccountID: e.AccountID,
				Kind:      string(e.Action.Kind),
				Delta:     e.Delta,
				Balance:   e.Balance,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeTable prints one row per tick and one column per account.
func writeTable(w io.Writer, results *domain.Results, ids []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "date\t%s\t\n", strings.Join(ids, "\t"))
	for _, tick := range results.Ticks() {
		cols := make([]string, len(ids))
		for i, id := range ids {
			cols[i] = tick.Values[id].StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", tick.Date.Format(time.DateOnly), strings.Join(cols, "\t"))
	}
	tw.Flush()
}

func writeSummaries(w io.Writer, results *domain.Results, ids []string) {
	fmt.Fprintln(w)
	for _, id := range ids {
		s := scenario.Summarize(results, id)
		if s.Ticks == 0 {
			continue
		}
		fmt.Fprintf(w, "%s: first=%s last=%s min=%s max=%s net=%s drawdown=%s mean=%.2f stddev=%.2f\n",
			id,
			s.First.StringFixed(2), s.Last.StringFixed(2),
			s.Min.StringFixed(2), s.Max.StringFixed(2),
			s.NetChange.StringFixed(2), s.Drawdown.StringFixed(2), s.Mean, s.StdDev)
	}
}

func writeJournal(w io.Writer, journal *scenario.Journal) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "tick\tdate\taccount\tkind\tdelta\tbalance")
	for _, e := range journal.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Tick.Format(time.DateOnly),
			e.Date.Format(time.DateOnly),
			e.AccountID,
			e.Action.Kind,
			e.Delta.StringFixed(2),
			e.Balance.StringFixed(2))
	}
	tw.Flush()
}
