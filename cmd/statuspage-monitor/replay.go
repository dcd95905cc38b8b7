package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"statuspage-monitor/pkg/fetch"
	"statuspage-monitor/pkg/snapshot"
	"statuspage-monitor/pkg/types"
)

// replayIncidentLimit caps how many recent incidents the replay output shows.
const replayIncidentLimit = 10

// runReplay fetches every configured target once and prints its current
// components and recent incidents.
func runReplay(configPath string, w io.Writer) error {
	cfg, err := types.LoadMonitorConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	doer := fetch.NewHTTPDoer()
	for _, target := range cfg.Targets {
		fetcher := fetch.NewConditionalFetcher(target.URL, doer)
		result := fetcher.Poll(ctx)
		if result.State != fetch.Updated {
			return fmt.Errorf("failed to fetch %s: %w", target.Name, result.Err)
		}
		printSnapshot(w, target, result.Snapshot)
	}

	return nil
}

func printSnapshot(w io.Writer, target types.Target, snap *snapshot.Snapshot) {
	fmt.Fprintf(w, "== %s (%s)\n", target.Name, target.URL)
	fmt.Fprintf(w, "Page status: %s\n\n", snap.PageStatus)

	components := make([]snapshot.Component, 0, len(snap.Components))
	for _, component := range snap.Components {
		components = append(components, component)
	}
	sort.Slice(components, func(a, b int) bool {
		return components[a].Name < components[b].Name
	})

	fmt.Fprintf(w, "Components (%d):\n", len(components))
	for _, component := range components {
		fmt.Fprintf(w, "  %-40s %s\n", component.Name, component.Status)
	}

	incidents := make([]snapshot.Incident, 0, len(snap.Incidents))
	for _, incident := range snap.Incidents {
		incidents = append(incidents, incident)
	}
	sort.Slice(incidents, func(a, b int) bool {
		return incidents[a].CreatedAt.After(incidents[b].CreatedAt)
	})
	if len(incidents) > replayIncidentLimit {
		incidents = incidents[:replayIncidentLimit]
	}

	fmt.Fprintf(w, "\nRecent incidents (%d):\n", len(incidents))
	for _, incident := range incidents {
		resolved := "ongoing"
		if incident.ResolvedAt != nil {
			resolved = incident.ResolvedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  %s [impact=%s status=%s resolved=%s]\n", incident.Name, incident.Impact, incident.Status, resolved)
		for _, update := range incident.Updates {
			body := update.Body
			if body != "" {
				body = " - " + body
			}
			fmt.Fprintf(w, "    %s %s%s\n", update.CreatedAt.Local().Format("2006-01-02 15:04:05"), update.Status, body)
		}
	}
	fmt.Fprintln(w)
}
