package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"picks-sizing/db/clickhouse"
	"picks-sizing/internal/catalog"
	"picks-sizing/internal/sizing"
	"picks-sizing/pkg/units"
)

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, report *sizing.Report) {
	resp := report.Response()
	info := resp.ModelInfo

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE ESTIMATE")
	fmt.Fprintf(tw, "  Total RM:\t%s\n", resp.TotalRM)
	fmt.Fprintf(tw, "  Memory (GB):\t%s\n", resp.TotalMemoryBeforeRounding)
	fmt.Fprintf(tw, "  Memory rounded (GB):\t%s\t(%d x %g GB sticks)\n",
		resp.TotalMemoryAfterRounding, units.Sticks(report.Totals.MemoryAfterRounding), units.StickSizeGB)
	fmt.Fprintf(tw, "  Total CPU:\t%s\n", resp.TotalCPU)
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "RECOMMENDED MODEL (%s)\n", info.MatchRule)
	fmt.Fprintf(tw, "  Model:\t%s\n", info.ModelName)
	fmt.Fprintf(tw, "  PM:\t%s\n", deref(info.PM))
	fmt.Fprintf(tw, "  PCI:\t%s\n", deref(info.PCI))
	fmt.Fprintf(tw, "  Max support:\t%s\n", deref(info.MaxSupport))
	fmt.Fprintf(tw, "  1U / 2U:\t%s / %s\n", deref(info.U1), deref(info.U2))
	if info.G4Model != nil {
		fmt.Fprintf(tw, "  Overflow model:\t%s\t(%s RM)\n", *info.G4Model, sizing.Fixed2(*info.G4PM))
	}
	tw.Flush()
}

func writeMatch(w io.Writer, match sizing.MatchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Demand:\t%s RM\n", sizing.Fixed2(match.DemandRM))
	if match.Found {
		fmt.Fprintf(tw, "Model:\t%s\t(pm %s, pci %s)\n", match.Base.Model, match.Base.PM, match.Base.PCI)
	} else {
		fmt.Fprintf(tw, "Model:\t%s\n", sizing.NoMatchingModel)
	}
	if match.Overflow != nil {
		fmt.Fprintf(tw, "Overflow model:\t%s\t(%s RM)\n", match.Overflow.Model, sizing.Fixed2(*match.OverflowCapacity))
	}
	tw.Flush()
}

func writeModels(w io.Writer, models []catalog.HardwareModel) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tPM\tG4 PM\tMAX SUPPORT\tIP\tPCI\t1U\t2U")
	for _, hm := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			hm.Model, hm.PM, dash(hm.G4PM), dash(hm.MaxSupport), dash(hm.IP), hm.PCI, hm.OneU, hm.TwoU)
	}
	tw.Flush()
}

func writeProfiles(w io.Writer, profiles []catalog.UnitResourceProfile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT TYPE\tMODEL\tRESOLUTION\tRM\tMEM\tCPU")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%g\n",
			p.ProductType, dash(p.Model), dash(p.Resolution), p.RM, dash(p.MEM), p.CPU)
	}
	tw.Flush()
}

func writeHistory(w io.Writer, entries []clickhouse.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tSD/HD/FHD/UHD/PT/DEC\tRM\tMEMORY\tCPU\tMODEL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d/%d/%d/%d/%d/%d\t%s\t%s\t%s\t%s\n",
			e.RecordedAt.Format("2006-01-02 15:04:05"),
			e.SD, e.HD, e.FHD, e.UHD, e.Passthrough, e.Decoder,
			e.TotalRM.StringFixed(2), e.MemoryAfterRounding.StringFixed(2), e.TotalCPU.StringFixed(2),
			e.Model)
	}
	tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
