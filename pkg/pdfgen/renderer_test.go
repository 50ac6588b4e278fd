package pdfgen

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agilestore/agilestore-backend/pkg/config"
)

func TestNewTypstRendererValidates(t *testing.T) {
	if _, err := NewTypstRenderer(config.InvoiceConfig{TemplatePath: "x"}, nil); err == nil {
		t.Fatal("expected missing logger error")
	}
}

func TestToTypstData(t *testing.T) {
	paid := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	data := toTypstData(InvoiceData{
		InvoiceNumber: "AGS-20260901-0001",
		CustomerName:  "Budi Santoso",
		CustomerEmail: "budi@example.com",
		ProductName:   "Natabanyu",
		PackageName:   "Basic",
		DurationLabel: "1 Bulan",
		GrossAmount:   decimal.NewFromInt(249000),
		Discount:      decimal.NewFromInt(50000),
		TotalAmount:   decimal.NewFromInt(199000),
		Currency:      "IDR",
		IssuedAt:      paid,
		PaidAt:        paid,
	})

	if data.Title != "Invoice AGS-20260901-0001" {
		t.Fatalf("unexpected title %q", data.Title)
	}
	if data.TotalAmount != 199000 {
		t.Fatalf("unexpected total %v", data.TotalAmount)
	}
	if data.PaidAt != "2026-09-01" {
		t.Fatalf("unexpected paid date %q", data.PaidAt)
	}
}

func TestToTypstDataDefaultsIssuedAt(t *testing.T) {
	data := toTypstData(InvoiceData{InvoiceNumber: "AGS-1"})
	if data.IssuedAt == "" {
		t.Fatal("expected issued date to default to today")
	}
	if data.PaidAt != "" {
		t.Fatalf("expected empty paid date, got %q", data.PaidAt)
	}
}
