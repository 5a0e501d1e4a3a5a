package ingest

import (
	"ospanel/internal/models"
)

// PreviewResult describes how a table would be ingested without writing
// anything: the resolved column mapping and the first normalized rows.
type PreviewResult struct {
	Mapped          map[Field]string `json:"mapped"`
	UnmappedHeaders []string         `json:"unmapped_headers"`
	MissingRequired []Field          `json:"missing_required"`
	TotalRows       int              `json:"total_rows"`
	Sample          []models.Order   `json:"sample"`
}

// Preview dry-runs the mapping and normalization over the first n rows.
func (p *Pipeline) Preview(tbl *Table, n int) *PreviewResult {
	mapping, _ := MapColumns(tbl.Headers)

	res := &PreviewResult{
		Mapped:          make(map[Field]string, len(mapping)),
		UnmappedHeaders: []string{},
		MissingRequired: []Field{},
		TotalRows:       len(tbl.Rows),
		Sample:          []models.Order{},
	}
	claimed := make(map[int]bool, len(mapping))
	for f, idx := range mapping {
		res.Mapped[f] = tbl.Headers[idx]
		claimed[idx] = true
	}
	for i, h := range tbl.Headers {
		if !claimed[i] {
			res.UnmappedHeaders = append(res.UnmappedHeaders, h)
		}
	}
	for _, f := range p.Policy.Required {
		if _, ok := mapping[f]; !ok {
			res.MissingRequired = append(res.MissingRequired, f)
		}
	}

	for i, row := range tbl.Rows {
		if i >= n {
			break
		}
		res.Sample = append(res.Sample, *p.buildOrder(mapping, tbl, row))
	}
	return res
}
