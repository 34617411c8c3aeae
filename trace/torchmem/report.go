package torchmem

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	val := float64(n)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for val >= 1024 && i < len(units)-1 {
		val /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", val, units[i])
}

// WriteLiveTable renders the live allocations as a table.
func WriteLiveTable(w io.Writer, live []Allocation) {
	table := tablewriter.NewTable(w, tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
		Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
	})))
	table.Header([]string{"NAME", "ADDRESS", "SIZE", "ALLOCATED AT (us)"})
	for _, a := range live {
		table.Append([]string{
			a.Name,
			fmt.Sprintf("0x%x", a.Addr),
			HumanSize(a.Size),
			strconv.FormatInt(a.AllocatedAt, 10),
		})
	}
	table.Render()
}

// WriteSummary prints the builder statistics followed by the live table.
func WriteSummary(w io.Writer, b *Builder) {
	s := b.Stats()
	fmt.Fprintf(w, "allocations:     %d\n", s.Allocations)
	fmt.Fprintf(w, "frees:           %d\n", s.Frees)
	fmt.Fprintf(w, "live:            %d (%s)\n", s.Live, HumanSize(s.LiveBytes))
	fmt.Fprintf(w, "peak live:       %s\n", HumanSize(s.PeakLiveBytes))
	fmt.Fprintf(w, "address space:   %s\n", HumanSize(s.AddressEnd))
	if s.Live == 0 {
		return
	}
	fmt.Fprintln(w)
	WriteLiveTable(w, b.Live())
}
