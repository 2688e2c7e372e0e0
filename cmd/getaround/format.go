package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
)

// formatRisk renders the headline KPI, e.g. "12.34% (+1.23%)".
func formatRisk(m domain.ThresholdMetric) string {
	return fmt.Sprintf("%.2f%% (%+.2f%%)", m.RiskPct, m.Delta)
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64) + " min"
}

func writeReport(w io.Writer, r *domain.Report) error {
	m := r.Metric
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Check-in type:\t%s\n", m.Checkin)
	fmt.Fprintf(tw, "Threshold:\t%s\n", formatMinutes(m.Threshold))
	if r.Segment != "" {
		fmt.Fprintf(tw, "Segment:\t%s\n", r.Segment)
	}
	fmt.Fprintf(tw, "Rentals analyzed:\t%d\n", m.Total)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Revenue Risk (%% of Rentals Blocked):\t%s\n", formatRisk(m))
	fmt.Fprintf(tw, "Blocked Rentals:\t%d\n", m.Blocked)
	fmt.Fprintf(tw, "Not Blocked:\t%d\n", m.NotBlocked)
	fmt.Fprintf(tw, "Solved Cases:\t%d\n", m.Solved)
	fmt.Fprintf(tw, "Remaining Risk:\t%d\n", m.Unsolved)
	if m.PreviousThreshold != nil {
		fmt.Fprintf(tw, "Delta vs:\t%s\n", formatMinutes(*m.PreviousThreshold))
	}
	fmt.Fprintln(tw)

	if err := tw.Flush(); err != nil {
		return err
	}
	return writeCurve(w, m.Checkin, r.Curve)
}

func writeCurve(w io.Writer, checkin domain.CheckinFilter, curve []domain.CurvePoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Revenue risk curve (%s)\n", checkin)
	fmt.Fprintln(tw, "Threshold\tRevenue Risk %\t")
	for _, p := range curve {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", formatMinutes(p.Threshold), p.RiskPct)
	}
	return tw.Flush()
}

func writeBreakdown(w io.Writer, b *domain.DelayBreakdown) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Check-in type:\t%s\n", b.Checkin)
	fmt.Fprintf(tw, "Rentals:\t%d\n\n", b.Total)

	fmt.Fprintln(tw, "CHECK-IN\tCATEGORY\tCOUNT\tSHARE %")
	for _, g := range b.Groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", g.CheckinType, g.Category, g.Count, g.Share)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "CHECK-IN\tCOUNT\tMEAN\tMEDIAN\tP90\tLATE %")
	for _, s := range b.Stats {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\t%.2f\n",
			s.CheckinType, s.Count, s.MeanDelay, s.MedianDelay, s.P90Delay, s.LateShare)
	}
	return tw.Flush()
}
