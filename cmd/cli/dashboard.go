package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/scoring"
)

func (a *app) dashboard(ctx context.Context) error {
	agg := assessment.NewAggregator(a.api)
	if err := agg.Load(ctx); err != nil {
		return errors.New(agg.Err())
	}
	stats, err := a.api.DashboardStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, titleStyle.Render("Your wellbeing overview"))
	fmt.Fprintf(a.out, "Conversations: %d   Assessments: %d   Crisis alerts: %d\n",
		stats.TotalConversations, stats.TotalAssessments, stats.CrisisAlerts)
	if stats.RecentActivityDays > 0 {
		fmt.Fprintln(a.out, faintStyle.Render("Active in the last 7 days."))
	}

	sum := agg.Summary()
	if sum.Empty {
		fmt.Fprintln(a.out, "\nNo assessments yet. Run `solace assess` to take your first one.")
		return nil
	}
	fmt.Fprintf(a.out, "\nCurrent risk: %s\n", tierBadge(sum.Tier))
	fmt.Fprintf(a.out, "Average PHQ-9: %.1f   Average GAD-7: %.1f   (%d assessments)\n", sum.AvgPHQ9, sum.AvgGAD7, sum.Count)
	fmt.Fprintf(a.out, "Latest: depression %s, anxiety %s, stress %d/10\n",
		severityLabel(scoring.PHQ9, sum.Latest.PHQ9Score),
		severityLabel(scoring.GAD7, sum.Latest.GAD7Score),
		sum.Latest.StressLevel)

	fmt.Fprintf(a.out, "\n%s\n", titleStyle.Render("Trend"))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPHQ-9\tGAD-7\tSTRESS\tRISK")
	for _, p := range agg.Trends() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", p.CreatedAt.Local().Format("2006-01-02"), p.PHQ9Score, p.GAD7Score, p.StressLevel, p.Tier)
	}
	return tw.Flush()
}
