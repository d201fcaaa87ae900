package receipt

import (
	"fmt"
	"time"

	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/domain/order"
)

// FallbackBillingText is stamped on page 2 when no billing data could be
// resolved for the payment.
const FallbackBillingText = "NO BILLING ADDRESS FOUND"

// Stamp is one piece of text to draw at a fixed position.
type Stamp struct {
	Page   int
	X      float64
	Y      float64
	Points int
	Text   string
}

// DeliveryText derives the delivery window printed on the receipt from the
// order date. Range mode produces "January 14–18" (months spelled out on both
// sides when the window crosses a month boundary); single mode produces a
// plain "January 8".
func DeliveryText(policy config.DeliveryConfig, orderDate time.Time) string {
	switch policy.Mode {
	case config.DeliveryModeSingle:
		d := orderDate.AddDate(0, 0, policy.OffsetDays)
		return fmt.Sprintf("%s %d", d.Month(), d.Day())
	default:
		start := orderDate.AddDate(0, 0, policy.RangeStartDays)
		end := orderDate.AddDate(0, 0, policy.RangeEndDays)
		if start.Month() == end.Month() {
			return fmt.Sprintf("%s %d–%d", start.Month(), start.Day(), end.Day())
		}
		return fmt.Sprintf("%s %d – %s %d", start.Month(), start.Day(), end.Month(), end.Day())
	}
}

// ComposeStamps computes the full overlay for one receipt: the page 1 order
// fields and either the stacked billing address block or the fallback marker
// on page 2. It is pure so the text content can be tested without touching a
// PDF.
func ComposeStamps(layout Layout, orderNumber int64, orderDate time.Time, billing *order.BillingAddress, delivery config.DeliveryConfig) []Stamp {
	stamps := make([]Stamp, 0, 11)

	put := func(field, text string) {
		p, ok := layout.Fields[field]
		if !ok {
			return
		}
		stamps = append(stamps, Stamp{
			Page:   p.Page,
			X:      p.X,
			Y:      p.Y,
			Points: p.Points,
			Text:   text,
		})
	}

	put(FieldOrderTitle, fmt.Sprintf("Check out order #%d", orderNumber))
	put(FieldOrderDateLong, orderDate.Format("Monday, January 2, 2006"))
	put(FieldOrderSubmitted, fmt.Sprintf("Order #%d successfully submitted", orderNumber))
	put(FieldOrderDateShort, orderDate.Format("Jan 2"))
	put(FieldDeliveryRange, DeliveryText(delivery, orderDate))
	put(FieldOrderNumberInline, fmt.Sprintf("#%d", orderNumber))

	if billing.IsEmpty() {
		put(FieldBillingMissing, FallbackBillingText)
		return stamps
	}

	start, ok := layout.Fields[FieldBillingAddress]
	if !ok {
		return stamps
	}
	for i, line := range billing.Lines() {
		stamps = append(stamps, Stamp{
			Page:   start.Page,
			X:      start.X,
			Y:      start.Y - float64(i)*layout.AddressLineHeight,
			Points: start.Points,
			Text:   line,
		})
	}

	return stamps
}
