// Package license normalises the license summary returned by the server.
package license

import (
	"github.com/igraph100/DW-Spectrum/internal/decode"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

// Counts is the normalised license summary. Nil means the server did not
// report that figure.
type Counts struct {
	Total     *int `json:"total"`
	Used      *int `json:"used"`
	Available *int `json:"available"`
}

// Candidate field paths, tried in order. The "digital" sub-object, when
// present, is authoritative and the generic names are not consulted.
var (
	digitalTotal     = []string{"digital.total"}
	digitalUsed      = []string{"digital.inUse"}
	digitalAvailable = []string{"digital.available"}

	genericTotal     = []string{"total", "totalLicenses", "licensesTotal", "summary.total", "summary.totalLicenses"}
	genericUsed      = []string{"used", "usedLicenses", "licensesUsed", "inUse", "summary.used", "summary.usedLicenses", "summary.inUse"}
	genericAvailable = []string{"available", "free", "remaining", "summary.available", "summary.free", "summary.remaining"}
)

// Extract returns (total, used, available) from a license summary.
func Extract(summary models.LicenseSummary) Counts {
	if len(summary) == 0 {
		return Counts{}
	}

	if _, ok := decode.Object(summary, "digital"); ok {
		return Counts{
			Total:     lookup(summary, digitalTotal),
			Used:      lookup(summary, digitalUsed),
			Available: lookup(summary, digitalAvailable),
		}
	}

	return Counts{
		Total:     lookup(summary, genericTotal),
		Used:      lookup(summary, genericUsed),
		Available: lookup(summary, genericAvailable),
	}
}

// Remaining is total-used clamped at zero when both are known, otherwise
// whatever the server reported as available.
func (c Counts) Remaining() *int {
	if c.Total != nil && c.Used != nil {
		n := *c.Total - *c.Used
		if n < 0 {
			n = 0
		}
		return &n
	}
	return c.Available
}

func lookup(m map[string]any, paths []string) *int {
	n, ok := decode.Int(m, paths...)
	if !ok {
		return nil
	}
	return &n
}
