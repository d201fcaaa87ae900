package service

import (
	"context"
	"os"
	"time"

	"github.com/cartloom/checkout/internal/billing"
	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/publisher"
	"github.com/cartloom/checkout/internal/sequencer"
	"github.com/cartloom/checkout/internal/template"
	"github.com/cartloom/checkout/internal/types"
)

const storageTimeout = 15 * time.Second

// PipelineStage names the steps of the receipt pipeline, in order.
type PipelineStage string

const (
	StageSequence  PipelineStage = "sequence"
	StageTemplate  PipelineStage = "template"
	StageRender    PipelineStage = "render"
	StagePublish   PipelineStage = "publish"
	StageCompleted PipelineStage = "completed"
)

// PipelineResult reports how far one payment event made it through the
// pipeline. Err is the stage failure, if any; the webhook ingress only uses
// it for logging since the provider response is 200 either way once the
// signature verified.
type PipelineResult struct {
	Stage           PipelineStage
	OrderNumber     int64
	TemplateID      string
	ReceiptKey      string
	BillingResolved bool
	RecordPersisted bool
	Err             error
}

// Failed reports whether the pipeline stopped before completion.
func (r *PipelineResult) Failed() bool {
	return r.Err != nil
}

// ReceiptRenderer is the rendering dependency of the pipeline.
type ReceiptRenderer interface {
	Render(template []byte, orderNumber int64, orderDate time.Time, billing *order.BillingAddress) ([]byte, error)
}

// TemplatePicker is the template selection dependency of the pipeline.
type TemplatePicker interface {
	Pick(amountCents int64) (*template.Ref, error)
}

// OrderService runs the order issuance and receipt pipeline for verified
// payment success events.
type OrderService interface {
	ProcessPaymentSucceeded(ctx context.Context, event *stripe.PaymentEvent) *PipelineResult
	ListRecentOrders(ctx context.Context, limit int) ([]*order.OrderRecord, error)
}

type orderService struct {
	cfg       *config.Configuration
	sequencer sequencer.Sequencer
	selector  TemplatePicker
	resolver  billing.Resolver
	renderer  ReceiptRenderer
	publisher publisher.Publisher
	orderRepo order.Repository
	logger    *logger.Logger
}

func NewOrderService(
	cfg *config.Configuration,
	seq sequencer.Sequencer,
	selector TemplatePicker,
	resolver billing.Resolver,
	renderer ReceiptRenderer,
	pub publisher.Publisher,
	orderRepo order.Repository,
	logger *logger.Logger,
) OrderService {
	return &orderService{
		cfg:       cfg,
		sequencer: seq,
		selector:  selector,
		resolver:  resolver,
		renderer:  renderer,
		publisher: pub,
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// ProcessPaymentSucceeded runs sequence → template → billing → render →
// publish for one verified event. Billing lookup and order record
// persistence fail soft; every other stage failure aborts the pipeline. The
// caller must not translate any failure into a non-200 provider response: a
// provider retry would issue a duplicate order number for the same payment.
func (s *orderService) ProcessPaymentSucceeded(ctx context.Context, event *stripe.PaymentEvent) *PipelineResult {
	result := &PipelineResult{Stage: StageSequence}

	seqCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	orderNumber, err := s.sequencer.Next(seqCtx)
	cancel()
	if err != nil {
		result.Err = err
		return result
	}
	result.OrderNumber = orderNumber

	result.Stage = StageTemplate
	ref, err := s.selector.Pick(event.AmountCents)
	if err != nil {
		result.Err = err
		return result
	}
	result.TemplateID = ref.ID

	record := order.NewOrderRecord(
		orderNumber, event.AmountCents, event.Currency,
		event.Provider, event.Account, event.PaymentIntentID, event.CreatedAt,
	)
	record.TemplateID = ref.ID
	result.RecordPersisted = s.persistRecord(ctx, record, "create")

	// Soft failure: a missing address becomes the fallback marker.
	billingAddr, err := s.resolver.Fetch(ctx, event.Account, event.PaymentMethodID)
	if err != nil {
		s.logger.Warnw("proceeding without billing details",
			"order_number", orderNumber,
			"payment_intent_id", event.PaymentIntentID,
			"error", err,
		)
		billingAddr = nil
	}
	result.BillingResolved = !billingAddr.IsEmpty()
	record.Billing = billingAddr

	result.Stage = StageRender
	templateBytes, err := os.ReadFile(ref.Path)
	if err != nil {
		result.Err = ierr.WithError(err).
			WithHint("failed to read template file").
			WithMessagef("path:%s", ref.Path).
			Mark(ierr.ErrStorageUnavailable)
		s.failRecord(ctx, record, result)
		return result
	}

	document, err := s.renderer.Render(templateBytes, orderNumber, event.CreatedAt, billingAddr)
	if err != nil {
		result.Err = err
		s.failRecord(ctx, record, result)
		return result
	}

	result.Stage = StagePublish
	filename := s.publisher.Filename(orderNumber, time.Now().UTC())
	pubCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	err = s.publisher.Store(pubCtx, filename, document)
	cancel()
	if err != nil {
		result.Err = err
		s.failRecord(ctx, record, result)
		return result
	}
	result.ReceiptKey = filename

	record.ReceiptKey = filename
	record.Status = types.OrderStatusRendered
	s.persistRecord(ctx, record, "update")

	result.Stage = StageCompleted
	s.logger.Infow("receipt pipeline completed",
		"order_number", orderNumber,
		"template_id", ref.ID,
		"receipt_key", filename,
		"billing_resolved", result.BillingResolved,
	)
	return result
}

func (s *orderService) ListRecentOrders(ctx context.Context, limit int) ([]*order.OrderRecord, error) {
	return s.orderRepo.ListRecent(ctx, limit)
}

// persistRecord writes the order record, logging instead of failing: the
// structured record is a safety net, never a reason to drop a receipt.
func (s *orderService) persistRecord(ctx context.Context, record *order.OrderRecord, op string) bool {
	var err error
	switch op {
	case "create":
		err = s.orderRepo.Create(ctx, record)
	default:
		err = s.orderRepo.Update(ctx, record)
	}
	if err != nil {
		s.logger.Errorw("failed to persist order record",
			"op", op,
			"order_number", record.OrderNumber,
			"error", err,
		)
		return false
	}
	return true
}

func (s *orderService) failRecord(ctx context.Context, record *order.OrderRecord, result *PipelineResult) {
	record.Status = types.OrderStatusFailed
	if result.RecordPersisted {
		s.persistRecord(ctx, record, "update")
	}
}
