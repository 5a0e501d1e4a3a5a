package ingest

import (
	"context"
	"fmt"

	"ospanel/internal/models"
	"ospanel/internal/store"
)

// Mode selects what happens to existing rows when a spreadsheet is loaded.
type Mode int

const (
	// Append keeps existing rows.
	Append Mode = iota
	// Replace discards all existing rows as part of the load transaction.
	Replace
)

// Policy parameterizes one ingestion run. The two legacy dashboard variants
// are the DetailedImportPolicy and SimpleCRUDPolicy presets.
type Policy struct {
	Mode           Mode
	Dedupe         bool
	StatusFallback StatusFallback
	DefaultStatus  string
	DateFallback   DateFallback
	Required       []Field
	NaturalKey     []Field
}

// DetailedImportPolicy mirrors the full-panel weekly loader: full replace,
// no dedupe, unrecognized statuses pass through, unparseable dates are null.
func DetailedImportPolicy() Policy {
	return Policy{
		Mode:           Replace,
		Dedupe:         false,
		StatusFallback: StatusPassThrough,
		DefaultStatus:  models.StatusPending,
		DateFallback:   DateNull,
		Required:       []Field{FieldOperation, FieldProduct},
		NaturalKey:     []Field{FieldOperation, FieldProduct},
	}
}

// SimpleCRUDPolicy mirrors the simplified dashboard: append with duplicate
// suppression, unrecognized statuses collapse to the default label,
// unparseable dates become today.
func SimpleCRUDPolicy() Policy {
	return Policy{
		Mode:           Append,
		Dedupe:         true,
		StatusFallback: StatusDefaultLabel,
		DefaultStatus:  models.StatusPending,
		DateFallback:   DateToday,
		Required:       []Field{FieldOperation, FieldProduct},
		NaturalKey:     []Field{FieldOperation, FieldProduct},
	}
}

// RowError is one skipped row, indexed by its spreadsheet row number
// (the header row is row 1).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result is the structured outcome of one ingestion run.
type Result struct {
	Success          bool       `json:"success"`
	Imported         int        `json:"imported"`
	SkippedDuplicate int        `json:"skipped_duplicate"`
	SkippedInvalid   int        `json:"skipped_invalid"`
	ErrorCount       int        `json:"error_count"`
	Errors           []RowError `json:"errors"`
}

// Progress reports rows processed so far during a run.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Pipeline loads a parsed table into the store under one policy.
type Pipeline struct {
	Store  *store.Store
	Policy Policy

	// OnProgress, when set, is called after every processed row.
	OnProgress func(Progress)
}

// Run executes one ingestion. Per-row problems are collected, never raised;
// the run only fails for an incomplete required mapping or a storage fault.
// Cancellation is honored between rows: append mode commits the partial
// batch, replace mode rolls back so existing data survives intact.
func (p *Pipeline) Run(ctx context.Context, tbl *Table) (*Result, error) {
	mapping, _ := MapColumns(tbl.Headers)
	var missing []Field
	for _, f := range p.Policy.Required {
		if _, ok := mapping[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteMappingError{Missing: missing}
	}

	load, err := p.Store.BeginLoad()
	if err != nil {
		return nil, err
	}
	defer load.Rollback()

	if p.Policy.Mode == Replace {
		if err := load.Clear(); err != nil {
			return nil, err
		}
	}

	res := &Result{Errors: []RowError{}}
	seen := map[string]bool{}
	cancelled := false

	for i, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			if p.Policy.Mode == Replace {
				return nil, err
			}
			cancelled = true
			break
		}
		rowNum := i + 2

		o := p.buildOrder(mapping, tbl, row)

		if f, ok := p.missingRequired(o); ok {
			res.SkippedInvalid++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: fmt.Sprintf("%s is empty", f)})
			p.progress(i+1, len(tbl.Rows))
			continue
		}

		if p.Policy.Dedupe {
			key, keyStr := p.naturalKey(o)
			dup := seen[keyStr]
			if !dup {
				dup, err = load.Exists(key)
				if err != nil {
					return nil, err
				}
			}
			if dup {
				res.SkippedDuplicate++
				p.progress(i+1, len(tbl.Rows))
				continue
			}
			seen[keyStr] = true
		}

		if _, err := load.Insert(o); err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Message: err.Error()})
			p.progress(i+1, len(tbl.Rows))
			continue
		}
		res.Imported++
		p.progress(i+1, len(tbl.Rows))
	}

	if err := load.Commit(); err != nil {
		return nil, err
	}
	res.Success = !cancelled
	if cancelled {
		return res, ctx.Err()
	}
	return res, nil
}

func (p *Pipeline) progress(processed, total int) {
	if p.OnProgress != nil {
		p.OnProgress(Progress{Processed: processed, Total: total})
	}
}

// buildOrder extracts each mapped cell and applies the normalizer for its
// field. Unmapped fields keep zero values; status defaults to the policy
// label when its column is absent.
func (p *Pipeline) buildOrder(mapping Mapping, tbl *Table, row []string) *models.Order {
	o := &models.Order{Status: p.Policy.DefaultStatus}
	get := func(f Field) (string, bool) {
		idx, ok := mapping[f]
		if !ok {
			return "", false
		}
		return tbl.Cell(row, idx), true
	}

	if raw, ok := get(FieldStatus); ok {
		o.Status = NormalizeStatus(raw, p.Policy.StatusFallback, p.Policy.DefaultStatus)
	}
	if raw, ok := get(FieldQuantity); ok {
		o.Quantity = NormalizeQuantity(raw)
	}
	if raw, ok := get(FieldGrossValue); ok {
		o.GrossValue = NormalizeAmount(raw)
	}
	if raw, ok := get(FieldCreatedOn); ok {
		if d := NormalizeDate(raw, p.Policy.DateFallback); d != nil {
			s := d.Format("2006-01-02")
			o.CreatedOn = &s
		}
	}
	for _, f := range Fields() {
		if !isTextField(f) {
			continue
		}
		if raw, ok := get(f); ok {
			setTextField(o, f, NormalizeText(raw))
		}
	}
	return o
}

func (p *Pipeline) missingRequired(o *models.Order) (Field, bool) {
	for _, f := range p.Policy.Required {
		if textField(o, f) == "" {
			return f, true
		}
	}
	return "", false
}

func (p *Pipeline) naturalKey(o *models.Order) (map[string]string, string) {
	key := make(map[string]string, len(p.Policy.NaturalKey))
	keyStr := ""
	for _, f := range p.Policy.NaturalKey {
		v := textField(o, f)
		key[string(f)] = v
		keyStr += v + "\x00"
	}
	return key, keyStr
}

func isTextField(f Field) bool {
	switch f {
	case FieldStatus, FieldQuantity, FieldGrossValue, FieldCreatedOn:
		return false
	}
	return true
}

func textField(o *models.Order, f Field) string {
	switch f {
	case FieldOperation:
		return o.Operation
	case FieldOpportunityNumber:
		return o.OpportunityNumber
	case FieldVTANumber:
		return o.VTANumber
	case FieldQuoteNumber:
		return o.QuoteNumber
	case FieldCircuitNumber:
		return o.CircuitNumber
	case FieldQuoteStatus:
		return o.QuoteStatus
	case FieldProduct:
		return o.Product
	case FieldOrderIssuer:
		return o.OrderIssuer
	case FieldIssuerName:
		return o.IssuerName
	case FieldAccountManager:
		return o.AccountManager
	case FieldSalesOrg:
		return o.SalesOrg
	case FieldDistributionChannel:
		return o.DistributionChannel
	case FieldActivitySector:
		return o.ActivitySector
	case FieldSDItem:
		return o.SDItem
	case FieldProductID:
		return o.ProductID
	case FieldContractDuration:
		return o.ContractDuration
	}
	return ""
}

func setTextField(o *models.Order, f Field, v string) {
	switch f {
	case FieldOperation:
		o.Operation = v
	case FieldOpportunityNumber:
		o.OpportunityNumber = v
	case FieldVTANumber:
		o.VTANumber = v
	case FieldQuoteNumber:
		o.QuoteNumber = v
	case FieldCircuitNumber:
		o.CircuitNumber = v
	case FieldQuoteStatus:
		o.QuoteStatus = v
	case FieldProduct:
		o.Product = v
	case FieldOrderIssuer:
		o.OrderIssuer = v
	case FieldIssuerName:
		o.IssuerName = v
	case FieldAccountManager:
		o.AccountManager = v
	case FieldSalesOrg:
		o.SalesOrg = v
	case FieldDistributionChannel:
		o.DistributionChannel = v
	case FieldActivitySector:
		o.ActivitySector = v
	case FieldSDItem:
		o.SDItem = v
	case FieldProductID:
		o.ProductID = v
	case FieldContractDuration:
		o.ContractDuration = v
	}
}
