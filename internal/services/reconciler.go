package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// ClientMatcher resolves the client names of a batch up front.
type ClientMatcher interface {
	ResolveRows(ctx context.Context, userID uuid.UUID, rows []SaleRow) (map[string]db.Client, []UnresolvedClient, error)
}

// ProductNamer gives sale lines their display names.
type ProductNamer interface {
	GetProductBySKU(ctx context.Context, arg db.GetProductBySKUParams) (db.Product, error)
}

// Preflight is what the operator sees before anything is emitted.
type Preflight struct {
	Ready      int                `json:"ready"`
	Skipped    int                `json:"skipped"`
	Excluded   int                `json:"excluded"`
	Unresolved []UnresolvedClient `json:"unresolved"`
}

type RunOptions struct {
	// Confirm is asked once after pre-flight. Nil proceeds.
	Confirm func(Preflight) bool
}

type RowFailure struct {
	Row   int    `json:"row"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

type ExcludedRow struct {
	Row    int    `json:"row"`
	Client string `json:"client"`
}

// Report is the outcome of one reconciliation run.
type Report struct {
	Total       int                `json:"total"`
	Succeeded   []string           `json:"succeeded"`
	Duplicates  []string           `json:"duplicates"`
	Failed      []RowFailure       `json:"failed"`
	Skipped     []SkippedRow       `json:"skipped"`
	Excluded    []ExcludedRow      `json:"excluded"`
	Unresolved  []UnresolvedClient `json:"unresolved"`
	Aborted     bool               `json:"aborted"`
	Interrupted bool               `json:"interrupted,omitempty"`
}

func (r *Report) Summary() string {
	return fmt.Sprintf("rows=%d succeeded=%d duplicates=%d failed=%d skipped=%d excluded=%d unresolved_clients=%d",
		r.Total, len(r.Succeeded), len(r.Duplicates), len(r.Failed), len(r.Skipped), len(r.Excluded), len(r.Unresolved))
}

// Reconciler turns sheet rows into sales: normalise, resolve every client,
// confirm, then emit row by row.
type Reconciler struct {
	clients  ClientMatcher
	products ProductNamer
	emitter  Emitter
	opts     NormalizeOptions
	channel  string
	log      zerolog.Logger
}

func NewReconciler(clients ClientMatcher, products ProductNamer, emitter Emitter, opts NormalizeOptions, channel string, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		clients:  clients,
		products: products,
		emitter:  emitter,
		opts:     opts,
		channel:  channel,
		log:      log.With().Str("component", "reconciler").Logger(),
	}
}

// Run never fails because of a single row: row problems land in the report.
// The returned error is reserved for setup failures such as the client
// table being unreadable.
func (r *Reconciler) Run(ctx context.Context, userID uuid.UUID, rows []SheetRow, opts RunOptions) (*Report, error) {
	sales, skipped := NormalizeRows(rows, r.opts)

	report := &Report{
		Total:      len(rows),
		Succeeded:  []string{},
		Duplicates: []string{},
		Failed:     []RowFailure{},
		Skipped:    skipped,
		Excluded:   []ExcludedRow{},
	}
	if report.Skipped == nil {
		report.Skipped = []SkippedRow{}
	}

	resolved, unresolved, err := r.clients.ResolveRows(ctx, userID, sales)
	if err != nil {
		return nil, apperr.External("Reconcile", err)
	}
	report.Unresolved = unresolved

	ready := make([]SaleRow, 0, len(sales))
	for _, s := range sales {
		if _, ok := resolved[s.Client]; !ok {
			report.Excluded = append(report.Excluded, ExcludedRow{Row: s.Row, Client: s.Client})
			continue
		}
		ready = append(ready, s)
	}

	pre := Preflight{
		Ready:      len(ready),
		Skipped:    len(report.Skipped),
		Excluded:   len(report.Excluded),
		Unresolved: unresolved,
	}
	r.log.Info().
		Int("ready", pre.Ready).
		Int("skipped", pre.Skipped).
		Int("excluded", pre.Excluded).
		Int("unresolved_clients", len(unresolved)).
		Msg("pre-flight complete")

	if opts.Confirm != nil && !opts.Confirm(pre) {
		report.Aborted = true
		r.log.Warn().Msg("run declined, nothing emitted")
		return report, nil
	}

	names := make(map[string]string)
	for _, s := range ready {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		name, err := r.productName(ctx, userID, s.SKU, names)
		if err != nil {
			report.Failed = append(report.Failed, RowFailure{Row: s.Row, Key: s.IdempotencyKey, Error: err.Error()})
			continue
		}

		err = r.emitter.EmitSale(ctx, userID, r.payload(s, resolved[s.Client], name))
		switch {
		case err == nil:
			report.Succeeded = append(report.Succeeded, s.IdempotencyKey)
		case apperr.IsConflict(err):
			report.Duplicates = append(report.Duplicates, s.IdempotencyKey)
		default:
			report.Failed = append(report.Failed, RowFailure{Row: s.Row, Key: s.IdempotencyKey, Error: err.Error()})
			r.log.Warn().Int("row", s.Row).Str("key", s.IdempotencyKey).Err(err).Msg("row failed")
		}
	}

	r.log.Info().Msg(report.Summary())
	return report, nil
}

// productName looks up the catalog name of sku once per run. SKUs missing
// from the catalog are named after themselves.
func (r *Reconciler) productName(ctx context.Context, userID uuid.UUID, sku string, seen map[string]string) (string, error) {
	if name, ok := seen[sku]; ok {
		return name, nil
	}
	name := sku
	if r.products != nil {
		product, err := r.products.GetProductBySKU(ctx, db.GetProductBySKUParams{UserID: userID, Sku: sku})
		switch {
		case err == nil:
			name = product.Name
		case !isNoRows(err):
			return "", fmt.Errorf("product lookup for %s: %w", sku, err)
		}
	}
	seen[sku] = name
	return name, nil
}

func (r *Reconciler) payload(s SaleRow, client db.Client, name string) SalePayload {
	total := s.Total
	return SalePayload{
		SaleDate:       s.Date.Format("2006-01-02"),
		ClientID:       client.ID,
		Channel:        r.channel,
		IdempotencyKey: s.IdempotencyKey,
		Items: []SaleItemPayload{{
			SKU:       s.SKU,
			Quantity:  s.Quantity,
			UnitPrice: s.UnitPrice,
			Total:     &total,
			Name:      name,
		}},
	}
}
