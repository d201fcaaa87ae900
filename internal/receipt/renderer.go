package receipt

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
)

const overlayFillColor = "#1a1a1a"

// Renderer overlays computed order fields onto a PDF template at fixed
// coordinates. Templates are curated assets with known layouts, so absolute
// placement is deliberate; see Layout for the field map.
type Renderer struct {
	layout   Layout
	fontName string
	delivery config.DeliveryConfig
	logger   *logger.Logger
}

// NewRenderer builds a renderer for the configured template family and font.
// A configured font file is installed as a user font; the font name must then
// resolve against the core or installed fonts, otherwise ErrFontLoad.
func NewRenderer(cfg *config.Configuration, logger *logger.Logger) (*Renderer, error) {
	layout, err := LayoutFor(cfg.Orders.LayoutFamily)
	if err != nil {
		return nil, err
	}

	if cfg.Orders.FontFile != "" {
		if err := api.InstallFonts([]string{cfg.Orders.FontFile}); err != nil {
			return nil, ierr.WithError(err).
				WithHint("failed to install receipt font").
				WithMessagef("font_file:%s", cfg.Orders.FontFile).
				Mark(ierr.ErrFontLoad)
		}
	}

	fontName := cfg.Orders.FontName
	if !font.SupportedFont(fontName) {
		return nil, ierr.NewErrorf("font %q is not available", fontName).
			WithHint("use a PDF core font or configure orders.fontfile").
			Mark(ierr.ErrFontLoad)
	}

	return &Renderer{
		layout:   layout,
		fontName: fontName,
		delivery: cfg.Orders.Delivery,
		logger:   logger,
	}, nil
}

// Render produces the finalized receipt document. Missing billing data never
// fails a render; the fallback marker is stamped instead.
func (r *Renderer) Render(template []byte, orderNumber int64, orderDate time.Time, billing *order.BillingAddress) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.Validate(bytes.NewReader(template), conf); err != nil {
		return nil, ierr.WithError(err).
			WithHint("template could not be parsed").
			Mark(ierr.ErrTemplateCorrupt)
	}

	pageCount, err := api.PageCount(bytes.NewReader(template), conf)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("template page count unavailable").
			Mark(ierr.ErrTemplateCorrupt)
	}

	stamps := ComposeStamps(r.layout, orderNumber, orderDate, billing, r.delivery)

	current := template
	for _, stamp := range stamps {
		if stamp.Page > pageCount {
			// Single-page template families simply drop the page 2 block.
			continue
		}

		wm, err := api.TextWatermark(stamp.Text, r.describe(stamp), true, false, pdftypes.POINTS)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("invalid overlay description").
				WithMessagef("text:%s", stamp.Text).
				Mark(ierr.ErrTemplateCorrupt)
		}

		var buf bytes.Buffer
		pages := []string{strconv.Itoa(stamp.Page)}
		if err := api.AddWatermarks(bytes.NewReader(current), &buf, pages, wm, conf); err != nil {
			return nil, ierr.WithError(err).
				WithHint("failed to stamp overlay onto template").
				WithMessagef("page:%d, text:%s", stamp.Page, stamp.Text).
				Mark(ierr.ErrTemplateCorrupt)
		}
		current = buf.Bytes()
	}

	return current, nil
}

// describe builds the pdfcpu watermark parameter string for one stamp: fixed
// absolute position from the bottom-left corner, one font and fill color per
// render.
func (r *Renderer) describe(s Stamp) string {
	return fmt.Sprintf(
		"fontname:%s, points:%d, scalefactor:1 abs, position:bl, offset:%.2f %.2f, fillcolor:%s, rotation:0, opacity:1",
		r.fontName, s.Points, s.X, s.Y, overlayFillColor,
	)
}
