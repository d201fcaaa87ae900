package receipt

import (
	ierr "github.com/cartloom/checkout/internal/errors"
)

// Placement positions one overlay field on the template. Coordinates are PDF
// points measured from the bottom-left corner of the page.
type Placement struct {
	Page   int     `mapstructure:"page"`
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Points int     `mapstructure:"points"`
}

// Overlay field names. Fields absent from a layout are not stamped, and
// fields whose page exceeds the template's page count are skipped at render
// time, so one layout serves both one- and two-page template families.
const (
	FieldOrderTitle        = "order_title"
	FieldOrderDateLong     = "order_date_long"
	FieldOrderSubmitted    = "order_submitted"
	FieldOrderDateShort    = "order_date_short"
	FieldDeliveryRange     = "delivery_range"
	FieldOrderNumberInline = "order_number_inline"
	FieldBillingAddress    = "billing_address"
	FieldBillingMissing    = "billing_missing"
)

// Layout is the declarative field map for one template family. Template
// layout lives in data rather than code so new template sets can be
// onboarded without a deploy.
type Layout struct {
	Family string `mapstructure:"family"`
	// AddressLineHeight is the vertical step between stacked billing lines.
	AddressLineHeight float64              `mapstructure:"address_line_height"`
	Fields            map[string]Placement `mapstructure:"fields"`
}

// DefaultLayout matches the curated storefront template sets.
func DefaultLayout() Layout {
	return Layout{
		Family:            "storefront-v1",
		AddressLineHeight: 18,
		Fields: map[string]Placement{
			FieldOrderTitle:        {Page: 1, X: 72, Y: 708, Points: 18},
			FieldOrderDateLong:     {Page: 1, X: 72, Y: 678, Points: 11},
			FieldOrderSubmitted:    {Page: 1, X: 72, Y: 540, Points: 13},
			FieldOrderDateShort:    {Page: 1, X: 96, Y: 470, Points: 10},
			FieldDeliveryRange:     {Page: 1, X: 341, Y: 470, Points: 10},
			FieldOrderNumberInline: {Page: 1, X: 214, Y: 430, Points: 10},
			FieldBillingAddress:    {Page: 2, X: 72, Y: 640, Points: 11},
			FieldBillingMissing:    {Page: 2, X: 72, Y: 640, Points: 14},
		},
	}
}

var layouts = map[string]Layout{
	"storefront-v1": DefaultLayout(),
}

// RegisterLayout adds or replaces a template family layout.
func RegisterLayout(l Layout) {
	layouts[l.Family] = l
}

// LayoutFor returns the layout registered for a template family. An empty
// family selects the default.
func LayoutFor(family string) (Layout, error) {
	if family == "" {
		return DefaultLayout(), nil
	}
	l, ok := layouts[family]
	if !ok {
		return Layout{}, ierr.NewErrorf("no layout registered for template family %q", family).
			Mark(ierr.ErrValidation)
	}
	return l, nil
}
