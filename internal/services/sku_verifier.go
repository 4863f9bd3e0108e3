package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// ProductCatalog is the read side of the products table.
type ProductCatalog interface {
	ListProducts(ctx context.Context, userID uuid.UUID) ([]db.Product, error)
}

type SKUMatch struct {
	Input   string `json:"input"`
	Catalog string `json:"catalog"`
}

// VerificationReport buckets SKUs by how they match the catalog.
type VerificationReport struct {
	Exact    []string   `json:"exact"`
	ByCase   []SKUMatch `json:"by_case"`
	ByFormat []SKUMatch `json:"by_format"`
	Absent   []string   `json:"absent"`
}

func (r VerificationReport) String() string {
	return fmt.Sprintf("exact=%d by_case=%d by_format=%d absent=%d",
		len(r.Exact), len(r.ByCase), len(r.ByFormat), len(r.Absent))
}

// SKUVerifier reports catalog drift. It never writes.
type SKUVerifier struct {
	catalog ProductCatalog
}

func NewSKUVerifier(catalog ProductCatalog) *SKUVerifier {
	return &SKUVerifier{catalog: catalog}
}

var repeatedHyphens = regexp.MustCompile(`-{2,}`)

// looseSKU ignores case and spaces and treats runs of hyphens as one.
func looseSKU(s string) string {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	return repeatedHyphens.ReplaceAllString(s, "-")
}

func (v *SKUVerifier) Verify(ctx context.Context, userID uuid.UUID, skus []string) (VerificationReport, error) {
	products, err := v.catalog.ListProducts(ctx, userID)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("failed to load products: %w", err)
	}

	exact := make(map[string]bool, len(products))
	byUpper := make(map[string]string, len(products))
	byLoose := make(map[string]string, len(products))
	for _, p := range products {
		exact[p.Sku] = true
		if _, ok := byUpper[strings.ToUpper(p.Sku)]; !ok {
			byUpper[strings.ToUpper(p.Sku)] = p.Sku
		}
		if _, ok := byLoose[looseSKU(p.Sku)]; !ok {
			byLoose[looseSKU(p.Sku)] = p.Sku
		}
	}

	var report VerificationReport
	seen := make(map[string]bool, len(skus))
	for _, raw := range skus {
		sku := strings.TrimSpace(raw)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true

		switch {
		case exact[sku]:
			report.Exact = append(report.Exact, sku)
		case byUpper[strings.ToUpper(sku)] != "":
			report.ByCase = append(report.ByCase, SKUMatch{Input: sku, Catalog: byUpper[strings.ToUpper(sku)]})
		case byLoose[looseSKU(sku)] != "":
			report.ByFormat = append(report.ByFormat, SKUMatch{Input: sku, Catalog: byLoose[looseSKU(sku)]})
		default:
			report.Absent = append(report.Absent, sku)
		}
	}
	return report, nil
}
