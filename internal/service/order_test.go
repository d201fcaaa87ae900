package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"testing"

	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/publisher"
	"github.com/cartloom/checkout/internal/repository/inmemory"
	"github.com/cartloom/checkout/internal/sequencer"
	"github.com/cartloom/checkout/internal/template"
	"github.com/cartloom/checkout/internal/testutil"
	"github.com/cartloom/checkout/internal/types"
	"github.com/stretchr/testify/suite"
)

type stubPicker struct {
	ref *template.Ref
	err error
}

func (p *stubPicker) Pick(amountCents int64) (*template.Ref, error) {
	return p.ref, p.err
}

type stubResolver struct {
	address *order.BillingAddress
	err     error
}

func (r *stubResolver) Fetch(ctx context.Context, account, paymentMethodID string) (*order.BillingAddress, error) {
	return r.address, r.err
}

type stubRenderer struct {
	err         error
	lastBilling *order.BillingAddress
	calls       int
}

func (r *stubRenderer) Render(template []byte, orderNumber int64, orderDate time.Time, billing *order.BillingAddress) ([]byte, error) {
	r.calls++
	r.lastBilling = billing
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte("rendered:"), template...), nil
}

type stubPublisher struct {
	storeErr error
	stored   map[string][]byte
}

func (p *stubPublisher) Filename(orderNumber int64, now time.Time) string {
	return publisher.SortableKey(orderNumber, now)
}

func (p *stubPublisher) Store(ctx context.Context, filename string, data []byte) error {
	if p.storeErr != nil {
		return p.storeErr
	}
	if p.stored == nil {
		p.stored = make(map[string][]byte)
	}
	p.stored[filename] = data
	return nil
}

func (p *stubPublisher) List(ctx context.Context) ([]publisher.StoredReceipt, error) {
	return nil, nil
}

func (p *stubPublisher) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	return nil, ierr.NewError("not stored").Mark(ierr.ErrNotFound)
}

type OrderServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   OrderService
	seq       *sequencer.MemorySequencer
	picker    *stubPicker
	resolver  *stubResolver
	renderer  *stubRenderer
	publisher *stubPublisher
	orderRepo *inmemory.OrderStore
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	templatePath := filepath.Join(s.T().TempDir(), "a.pdf")
	s.Require().NoError(os.WriteFile(templatePath, []byte("%PDF-1.4 template"), 0o644))

	s.seq = sequencer.NewMemorySequencer(1100)
	s.picker = &stubPicker{ref: &template.Ref{ID: "2895/a.pdf", Path: templatePath}}
	s.resolver = &stubResolver{address: &order.BillingAddress{
		Name:  "Dana Whitfield",
		Line1: "18 Cedar Row",
		City:  "Portland",
	}}
	s.renderer = &stubRenderer{}
	s.publisher = &stubPublisher{}
	s.orderRepo = inmemory.NewOrderStore()

	s.service = NewOrderService(
		s.GetConfig(),
		s.seq,
		s.picker,
		s.resolver,
		s.renderer,
		s.publisher,
		s.orderRepo,
		s.GetLogger(),
	)
}

func (s *OrderServiceSuite) paymentEvent() *stripe.PaymentEvent {
	return &stripe.PaymentEvent{
		Provider:        types.PaymentProviderStripe,
		Account:         "new",
		EventID:         "evt_123",
		PaymentIntentID: "pi_123",
		PaymentMethodID: "pm_123",
		AmountCents:     2895,
		Currency:        "usd",
		CreatedAt:       s.Now(),
	}
}

func (s *OrderServiceSuite) TestProcessPaymentSucceeded() {
	result := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.False(result.Failed())
	s.Equal(StageCompleted, result.Stage)
	s.Equal(int64(1101), result.OrderNumber)
	s.Equal("2895/a.pdf", result.TemplateID)
	s.True(result.BillingResolved)
	s.True(result.RecordPersisted)
	s.NotEmpty(result.ReceiptKey)

	s.Contains(string(s.publisher.stored[result.ReceiptKey]), "rendered:")

	record, err := s.orderRepo.GetByOrderNumber(s.GetContext(), 1101)
	s.NoError(err)
	s.Equal(types.OrderStatusRendered, record.Status)
	s.Equal(result.ReceiptKey, record.ReceiptKey)
	s.Equal("pi_123", record.PaymentRef)
	s.NotNil(record.Billing)
}

func (s *OrderServiceSuite) TestBillingFailureIsSoft() {
	s.resolver.address = nil
	s.resolver.err = ierr.NewError("provider down").Mark(ierr.ErrBillingUnavailable)

	result := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.False(result.Failed())
	s.Equal(StageCompleted, result.Stage)
	s.False(result.BillingResolved)
	s.Nil(s.renderer.lastBilling)

	record, err := s.orderRepo.GetByOrderNumber(s.GetContext(), 1101)
	s.NoError(err)
	s.Equal(types.OrderStatusRendered, record.Status)
	s.Nil(record.Billing)
}

func (s *OrderServiceSuite) TestNoTemplatesAbortsBeforeRender() {
	s.picker.ref = nil
	s.picker.err = ierr.NewError("no bucket").Mark(ierr.ErrNoTemplates)

	result := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.True(result.Failed())
	s.Equal(StageTemplate, result.Stage)
	s.Zero(s.renderer.calls)
	s.Empty(s.publisher.stored)
	s.Zero(s.orderRepo.Count())
}

func (s *OrderServiceSuite) TestRenderFailureMarksRecordFailed() {
	s.renderer.err = ierr.NewError("bad template").Mark(ierr.ErrTemplateCorrupt)

	result := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.True(result.Failed())
	s.Equal(StageRender, result.Stage)
	s.Empty(s.publisher.stored)

	record, err := s.orderRepo.GetByOrderNumber(s.GetContext(), 1101)
	s.NoError(err)
	s.Equal(types.OrderStatusFailed, record.Status)
}

func (s *OrderServiceSuite) TestPublishFailureMarksRecordFailed() {
	s.publisher.storeErr = ierr.NewError("bucket gone").Mark(ierr.ErrPublishFailed)

	result := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.True(result.Failed())
	s.Equal(StagePublish, result.Stage)

	record, err := s.orderRepo.GetByOrderNumber(s.GetContext(), 1101)
	s.NoError(err)
	s.Equal(types.OrderStatusFailed, record.Status)
	s.Empty(record.ReceiptKey)
}

func (s *OrderServiceSuite) TestSequentialPaymentsGetSequentialNumbers() {
	first := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())
	second := s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())

	s.Equal(int64(1101), first.OrderNumber)
	s.Equal(int64(1102), second.OrderNumber)
}

func (s *OrderServiceSuite) TestListRecentOrders() {
	for i := 0; i < 3; i++ {
		s.service.ProcessPaymentSucceeded(s.GetContext(), s.paymentEvent())
	}

	records, err := s.service.ListRecentOrders(s.GetContext(), 2)
	s.NoError(err)
	s.Require().Len(records, 2)
	s.Equal(int64(1103), records[0].OrderNumber)
	s.Equal(int64(1102), records[1].OrderNumber)
}
