// Package models contains domain types for the analysis dashboard client.
package models

import "fmt"

// PageID identifies one stage of the upload → analysis → results → dashboard workflow.
type PageID string

const (
	PageLanding    PageID = "landing"
	PageProcessing PageID = "processing"
	PageResults    PageID = "results"
	PageDashboard  PageID = "dashboard"
)

// Pages lists every valid page in workflow order.
var Pages = []PageID{PageLanding, PageProcessing, PageResults, PageDashboard}

// Valid reports whether p is one of the known pages.
func (p PageID) Valid() bool {
	switch p {
	case PageLanding, PageProcessing, PageResults, PageDashboard:
		return true
	}
	return false
}

// ParsePageID converts a string into a PageID, rejecting unknown values.
func ParsePageID(s string) (PageID, error) {
	p := PageID(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown page: %q", s)
	}
	return p, nil
}
