package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatFillOrg renders a Fill as an Org-mode block suitable for pasting
// into a trading journal. It purposely includes narrative placeholders
// (Thesis/Execution/Review) while keeping all structured facts in a
// PROPERTIES drawer for easy search.
func FormatFillOrg(f Fill) string {
	heading := fmt.Sprintf("** Fill: %s %s (%s)", f.Symbol, f.Side, shortID(f.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":FILL_ID: %s\n", f.ID))
	b.WriteString(fmt.Sprintf(":ORDER_ID: %s\n", f.OrderID))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", f.Symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", f.Side))
	b.WriteString(fmt.Sprintf(":QUANTITY: %.0f\n", f.Quantity))
	b.WriteString(fmt.Sprintf(":PRICE: %.2f\n", f.Price))
	b.WriteString(fmt.Sprintf(":COMMISSION: %s\n", f.Commission.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":CASH_DELTA: %s\n", f.CashDelta.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":REALIZED_PL: %s\n", f.RealizedPL.StringFixed(2)))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", f.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", f.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatFillsOrg renders multiple fills separated by blank lines.
func FormatFillsOrg(fills []Fill) string {
	var b strings.Builder
	for i, f := range fills {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatFillOrg(f))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
