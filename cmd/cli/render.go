package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"assesstime/adapters/export"
	"assesstime/domain/actionlog"
	"assesstime/domain/run"
	"assesstime/internal/config"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderRun(w io.Writer, result *run.Result, written []string) error {
	fmt.Fprintf(w, "Run %s (variant %s)\n", result.Manifest.RunID, result.Manifest.Variant)
	fmt.Fprintf(w, "Fingerprint %s\n", result.Manifest.Fingerprint.Fingerprint.Short())
	fmt.Fprintf(w, "Rows read %d, dropped %d\n", result.Ingest.RowsRead, result.Ingest.RowsDropped)
	fmt.Fprintf(w, "Sessions %d, excluded %d, sample %d\n\n",
		result.Funnel.Initial(), result.Funnel.TotalRemoved(), result.Funnel.Final())

	tw := newTable(w)
	fmt.Fprintln(tw, "STAGE\tENABLED\tREMOVED\tREMAINING")
	for _, row := range export.FunnelTable(result.Funnel).Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	summary := export.SummaryTable(result.Summary)
	tw = newTable(w)
	fmt.Fprintln(tw, "ACTIVITY\tN\tMEAN\tSD\tMIN\tMEDIAN\tP90\tMAX")
	for _, row := range summary.Rows {
		// activity, count, mean, sd, min, max, median, p25, p75, p90
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4], row[6], row[9], row[5])
	}
	for _, row := range export.OverallTable(result.Summary).Rows {
		// same columns without the activity id
		fmt.Fprintf(tw, "(overall)\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[5], row[8], row[4])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, "(minutes)")

	if len(written) > 0 {
		fmt.Fprintln(w)
		for _, path := range written {
			fmt.Fprintf(w, "wrote %s\n", path)
		}
	}
	return nil
}

func renderVariants(w io.Writer, v *config.Variants) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "VARIANT\tGROUP BY\tPAUSES\tCOMPLETION\tSAME DAY\tBOUNDS\tFILES")
	for _, name := range v.Names() {
		cfg, err := v.Get(name)
		if err != nil {
			return err
		}
		f := cfg.Funnel
		completion := f.CompleteActionLabel
		if completion == "" {
			completion = "any " + f.EndMarker
		} else {
			completion = fmt.Sprintf("%s %q", f.CompleteMatch, completion)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%t\t(%s, %s)\t%s\n",
			name, f.GroupBy, f.FilterPauses, completion, f.SameDayOnly,
			f.MinDuration, f.MaxDuration, strings.Join(cfg.Files, ","))
	}
	return tw.Flush()
}

func renderIngest(w io.Writer, log *actionlog.Log) error {
	r := log.Report
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(r.Sources, ", "))
	fmt.Fprintf(w, "Rows read %d, kept %d, dropped %d\n", r.RowsRead, r.RowsKept, r.RowsDropped)
	fmt.Fprintf(w, "Respondents %d, activities %d\n", r.Respondents, r.Activities)
	if !r.Earliest.IsZero() {
		fmt.Fprintf(w, "Range %s to %s (%s)\n", r.Earliest.Format(time.RFC3339), r.Latest.Format(time.RFC3339), r.Span())
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "\nParse failures (sample):")
		tw := newTable(w)
		fmt.Fprintln(tw, "SOURCE\tROW\tVALUE\tREASON")
		for _, f := range r.Failures {
			fmt.Fprintf(tw, "%s\t%d\t%q\t%s\n", f.Source, f.Row, f.Value, f.Reason)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nAction labels:")
	tw := newTable(w)
	fmt.Fprintln(tw, "COUNT\tLABEL")
	for _, l := range r.Labels {
		fmt.Fprintf(tw, "%d\t%s\n", l.Count, l.Label)
	}
	return tw.Flush()
}
