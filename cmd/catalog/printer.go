package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"property-portal/internal/application/retrieval"
	"property-portal/internal/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// printer serialises output from the command loop and retriever listeners.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	title cases.Caser
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, title: cases.Title(language.English)}
}

func (p *printer) prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, "> ")
}

func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *printer) list(view string, st retrieval.State[[]domain.PropertyListing]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case st.Loading:
		fmt.Fprintf(p.w, "[%s] loading...\n", view)
	case st.Failed():
		fmt.Fprintf(p.w, "[%s] %s\n", view, st.Error)
	case len(st.Result) == 0:
		fmt.Fprintf(p.w, "[%s] no properties\n", view)
	default:
		fmt.Fprintf(p.w, "[%s] %d properties\n", view, len(st.Result))
		for _, l := range st.Result {
			fmt.Fprintf(p.w, "  %-6s %-32s %-20s %s\n", l.ID, truncate(l.Name, 32), truncate(l.City, 20), p.summary(l.ListingFields))
		}
	}
}

func (p *printer) property(st retrieval.State[*domain.PropertyListing]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case st.Loading:
		fmt.Fprintln(p.w, "[show] loading...")
	case st.Failed():
		fmt.Fprintf(p.w, "[show] %s\n", st.Error)
	case st.Result == nil:
		fmt.Fprintln(p.w, "[show] no property")
	default:
		l := st.Result
		fmt.Fprintf(p.w, "[show] #%s %s\n", l.ID, l.Name)
		fmt.Fprintf(p.w, "  %s %s, %s, %s, %s (%s)\n", l.BuildingNumber, l.CardinalDirection, l.City, l.State, l.Country, l.CountryCode)
		fmt.Fprintf(p.w, "  %.4f, %.4f  geohash %s  %s\n", l.Latitude, l.Longitude, l.Geohash(domain.NeighbourhoodPrecision), l.TimeZone)
		fmt.Fprintf(p.w, "  owner %s, %s\n", l.OwnerName, l.ContactNumber)
		if s := p.summary(l.ListingFields); s != "" {
			fmt.Fprintf(p.w, "  %s\n", s)
		}
		if l.Description != nil {
			fmt.Fprintf(p.w, "  %s\n", *l.Description)
		}
	}
}

// summary renders the optional fields that are present.
func (p *printer) summary(f domain.ListingFields) string {
	var parts []string
	if f.Type != nil {
		parts = append(parts, p.label(string(*f.Type)))
	}
	if f.Status != nil {
		parts = append(parts, p.label(string(*f.Status)))
	}
	if f.Price != nil {
		parts = append(parts, fmt.Sprintf("$%.0f", *f.Price))
	}
	if f.Bedrooms != nil {
		parts = append(parts, fmt.Sprintf("%d bd", *f.Bedrooms))
	}
	if f.Bathrooms != nil {
		parts = append(parts, fmt.Sprintf("%d ba", *f.Bathrooms))
	}
	if f.Area != nil {
		parts = append(parts, fmt.Sprintf("%.0f sqft", *f.Area))
	}
	return strings.Join(parts, " · ")
}

// label turns "for-sale" into "For Sale".
func (p *printer) label(s string) string {
	return p.title.String(strings.ReplaceAll(s, "-", " "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
