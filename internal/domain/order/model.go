package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cartloom/checkout/internal/types"
)

// BillingAddress holds the billing details reported by the payment provider
// for the payment method used. Any field may be empty; the whole struct may be
// absent when the provider lookup fails.
type BillingAddress struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Lines returns the non-empty address lines in display order: recipient name,
// street lines, a combined "City, Postal" line, then country.
func (b *BillingAddress) Lines() []string {
	if b == nil {
		return nil
	}

	lines := make([]string, 0, 5)
	for _, l := range []string{b.Name, b.Line1, b.Line2} {
		if l != "" {
			lines = append(lines, l)
		}
	}

	cityParts := make([]string, 0, 2)
	for _, p := range []string{b.City, b.PostalCode} {
		if p != "" {
			cityParts = append(cityParts, p)
		}
	}
	if len(cityParts) > 0 {
		lines = append(lines, strings.Join(cityParts, ", "))
	}

	if b.Country != "" {
		lines = append(lines, b.Country)
	}
	return lines
}

// IsEmpty reports whether no usable billing data is present.
func (b *BillingAddress) IsEmpty() bool {
	return b == nil || len(b.Lines()) == 0
}

// Value implements driver.Valuer so the address can be stored as jsonb.
func (b *BillingAddress) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *BillingAddress) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported billing address column type %T", src)
	}
	return json.Unmarshal(data, b)
}

// OrderRecord is the structured unit produced once per successful payment.
// It is inserted before rendering so a failed render never loses the payment
// confirmation, and updated once the receipt has been published.
type OrderRecord struct {
	ID          string                `db:"id" json:"id"`
	OrderNumber int64                 `db:"order_number" json:"order_number"`
	AmountCents int64                 `db:"amount_cents" json:"amount_cents"`
	Currency    string                `db:"currency" json:"currency"`
	Provider    types.PaymentProvider `db:"provider" json:"provider"`
	Account     string                `db:"account" json:"account"`
	PaymentRef  string                `db:"payment_ref" json:"payment_ref"`
	TemplateID  string                `db:"template_id" json:"template_id"`
	Billing     *BillingAddress       `db:"billing" json:"billing,omitempty"`
	ReceiptKey  string                `db:"receipt_key" json:"receipt_key,omitempty"`
	Status      types.OrderStatus     `db:"status" json:"status"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// NewOrderRecord creates a pending record for a freshly issued order number.
func NewOrderRecord(orderNumber, amountCents int64, currency string, provider types.PaymentProvider, account, paymentRef string, createdAt time.Time) *OrderRecord {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	return &OrderRecord{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		OrderNumber: orderNumber,
		AmountCents: amountCents,
		Currency:    currency,
		Provider:    provider,
		Account:     account,
		PaymentRef:  paymentRef,
		Status:      types.OrderStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
}
