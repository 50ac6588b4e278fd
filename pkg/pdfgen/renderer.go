package pdfgen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/config"
	pkgerrors "github.com/agilestore/agilestore-backend/pkg/errors"
	"github.com/agilestore/agilestore-backend/pkg/logger"
)

// InvoiceData carries everything the invoice template renders for a paid order.
type InvoiceData struct {
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	ProductName   string
	PackageName   string
	DurationLabel string
	GrossAmount   decimal.Decimal
	Discount      decimal.Decimal
	TotalAmount   decimal.Decimal
	Currency      string
	IssuedAt      time.Time
	PaidAt        time.Time
}

// InvoiceRenderer produces a PDF for a paid order.
type InvoiceRenderer interface {
	Render(ctx context.Context, data InvoiceData) ([]byte, error)
}

// TypstRenderer renders the invoice template through the typst CLI.
type TypstRenderer struct {
	templatePath string
	fontDir      string
	typstBin     string
	logger       *logger.Logger
}

// NewTypstRenderer builds a renderer from the invoice config.
func NewTypstRenderer(cfg config.InvoiceConfig, logg *logger.Logger) (*TypstRenderer, error) {
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice renderer logger is required")
	}
	if cfg.TemplatePath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice template path is required")
	}
	bin := cfg.TypstBin
	if bin == "" {
		bin = "typst"
	}
	return &TypstRenderer{
		templatePath: cfg.TemplatePath,
		fontDir:      cfg.FontDir,
		typstBin:     bin,
		logger:       logg,
	}, nil
}

// Render fills the template, compiles it, and returns the PDF bytes. Temp
// files live in a per-invoice scratch dir removed on return.
func (r *TypstRenderer) Render(ctx context.Context, data InvoiceData) ([]byte, error) {
	typPath, cleanup, err := r.prepareTemplate(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.compile(ctx, data.InvoiceNumber, typPath)
}

func (r *TypstRenderer) prepareTemplate(data InvoiceData) (string, func(), error) {
	templateContent, err := os.ReadFile(r.templatePath)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read invoice template")
	}

	tmpl, err := template.New("invoice").Parse(string(templateContent))
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse invoice template")
	}

	dir, err := os.MkdirTemp("", "invoice-")
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice scratch dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	typPath := filepath.Join(dir, fmt.Sprintf("invoice-%s.typ", data.InvoiceNumber))
	f, err := os.Create(typPath)
	if err != nil {
		cleanup()
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice typ file")
	}
	defer f.Close()

	if err := tmpl.Execute(f, toTypstData(data)); err != nil {
		cleanup()
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice template")
	}

	return typPath, cleanup, nil
}

func (r *TypstRenderer) compile(ctx context.Context, invoiceNumber, typPath string) ([]byte, error) {
	bin, err := exec.LookPath(r.typstBin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locate typst binary")
	}

	args := []string{"compile", typPath}
	if r.fontDir != "" {
		args = append(args, "--font-path", r.fontDir)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		r.logger.Error(ctx, fmt.Sprintf("typst compile failed: %s", output), err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compile invoice template")
	}

	pdfPath := filepath.Join(filepath.Dir(typPath), fmt.Sprintf("invoice-%s.pdf", invoiceNumber))
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read compiled invoice pdf")
	}
	return pdfBytes, nil
}

// typstData is the flattened shape the .typ template consumes.
type typstData struct {
	InvoiceNumber string
	Title         string
	CustomerName  string
	CustomerEmail string
	ProductName   string
	PackageName   string
	DurationLabel string
	GrossAmount   float64
	Discount      float64
	TotalAmount   float64
	Currency      string
	IssuedAt      string
	PaidAt        string
}

func toTypstData(data InvoiceData) typstData {
	gross, _ := data.GrossAmount.Float64()
	discount, _ := data.Discount.Float64()
	total, _ := data.TotalAmount.Float64()

	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	return typstData{
		InvoiceNumber: data.InvoiceNumber,
		Title:         "Invoice " + data.InvoiceNumber,
		CustomerName:  data.CustomerName,
		CustomerEmail: data.CustomerEmail,
		ProductName:   data.ProductName,
		PackageName:   data.PackageName,
		DurationLabel: data.DurationLabel,
		GrossAmount:   gross,
		Discount:      discount,
		TotalAmount:   total,
		Currency:      data.Currency,
		IssuedAt:      formatTypstDate(issued),
		PaidAt:        formatTypstDate(data.PaidAt),
	}
}

func formatTypstDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
