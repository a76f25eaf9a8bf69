package protocol

import "strings"

// FormatEntry renders one resting order as quantity@price#id, or
// quantity(totalQuantity)@price#id for iceberg orders.
func FormatEntry(e *ReportEntry) string {
	var sb strings.Builder
	sb.WriteString(e.Quantity)
	if e.TotalQuantity != "" {
		sb.WriteString("(")
		sb.WriteString(e.TotalQuantity)
		sb.WriteString(")")
	}
	sb.WriteString("@")
	sb.WriteString(e.Price)
	sb.WriteString("#")
	sb.WriteString(e.OrderID)
	return sb.String()
}

// FormatBookReport renders the whole book, bids then asks, each side in
// priority order. Every entry is followed by a trailing space, matching
// the report consumers' expected framing.
func FormatBookReport(r *BookReport) string {
	var sb strings.Builder
	sb.WriteString("B: ")
	for _, e := range r.Bids {
		sb.WriteString(FormatEntry(e))
		sb.WriteString(" ")
	}
	sb.WriteString("\nS: ")
	for _, e := range r.Asks {
		sb.WriteString(FormatEntry(e))
		sb.WriteString(" ")
	}
	return sb.String()
}
