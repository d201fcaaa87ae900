package receipt

import (
	"testing"
	"time"

	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangePolicy(start, end int) config.DeliveryConfig {
	return config.DeliveryConfig{
		Mode:           config.DeliveryModeRange,
		RangeStartDays: start,
		RangeEndDays:   end,
	}
}

func TestDeliveryText_RangeSameMonth(t *testing.T) {
	orderDate := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	got := DeliveryText(rangePolicy(13, 17), orderDate)
	assert.Equal(t, "January 14–18", got)
}

func TestDeliveryText_RangeCrossesMonth(t *testing.T) {
	orderDate := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)
	got := DeliveryText(rangePolicy(10, 14), orderDate)
	assert.Equal(t, "January 30 – February 3", got)
}

func TestDeliveryText_Single(t *testing.T) {
	orderDate := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	got := DeliveryText(config.DeliveryConfig{
		Mode:       config.DeliveryModeSingle,
		OffsetDays: 7,
	}, orderDate)
	assert.Equal(t, "January 8", got)
}

func stampByText(stamps []Stamp, text string) (Stamp, bool) {
	for _, s := range stamps {
		if s.Text == text {
			return s, true
		}
	}
	return Stamp{}, false
}

func TestComposeStamps_OrderFields(t *testing.T) {
	orderDate := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	billing := &order.BillingAddress{
		Name:       "Dana Whitfield",
		Line1:      "18 Cedar Row",
		City:       "Portland",
		PostalCode: "97205",
		Country:    "US",
	}

	stamps := ComposeStamps(DefaultLayout(), 1118, orderDate, billing, rangePolicy(13, 17))

	_, ok := stampByText(stamps, "Check out order #1118")
	assert.True(t, ok)
	_, ok = stampByText(stamps, "Monday, March 2, 2026")
	assert.True(t, ok)
	_, ok = stampByText(stamps, "Order #1118 successfully submitted")
	assert.True(t, ok)
	_, ok = stampByText(stamps, "Mar 2")
	assert.True(t, ok)
	_, ok = stampByText(stamps, "March 15–19")
	assert.True(t, ok)
	_, ok = stampByText(stamps, "#1118")
	assert.True(t, ok)
}

func TestComposeStamps_AddressBlockStacksDownward(t *testing.T) {
	layout := DefaultLayout()
	billing := &order.BillingAddress{
		Name:       "Dana Whitfield",
		Line1:      "18 Cedar Row",
		Line2:      "Apt 4",
		City:       "Portland",
		PostalCode: "97205",
		Country:    "US",
	}

	stamps := ComposeStamps(layout, 7, time.Now().UTC(), billing, rangePolicy(13, 17))

	wantLines := []string{"Dana Whitfield", "18 Cedar Row", "Apt 4", "Portland, 97205", "US"}
	start := layout.Fields[FieldBillingAddress]
	for i, line := range wantLines {
		s, ok := stampByText(stamps, line)
		require.True(t, ok, "missing address line %q", line)
		assert.Equal(t, start.Page, s.Page)
		assert.Equal(t, start.X, s.X)
		assert.InDelta(t, start.Y-float64(i)*layout.AddressLineHeight, s.Y, 0.001)
	}

	_, ok := stampByText(stamps, FallbackBillingText)
	assert.False(t, ok)
}

func TestComposeStamps_FallbackWhenBillingMissing(t *testing.T) {
	stamps := ComposeStamps(DefaultLayout(), 7, time.Now().UTC(), nil, rangePolicy(13, 17))

	s, ok := stampByText(stamps, FallbackBillingText)
	require.True(t, ok)
	assert.Equal(t, 2, s.Page)
}

func TestComposeStamps_EmptyAddressUsesFallback(t *testing.T) {
	stamps := ComposeStamps(DefaultLayout(), 7, time.Now().UTC(), &order.BillingAddress{}, rangePolicy(13, 17))

	_, ok := stampByText(stamps, FallbackBillingText)
	assert.True(t, ok)
}

func TestLayoutFor(t *testing.T) {
	l, err := LayoutFor("")
	require.NoError(t, err)
	assert.Equal(t, "storefront-v1", l.Family)

	_, err = LayoutFor("unknown-family")
	assert.Error(t, err)
}
