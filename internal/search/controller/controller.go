// Package controller owns the mutable search state of one browser session:
// the active tab, the criteria being edited, and one result set per tab.
package controller

import (
	"context"
	"fmt"
	"sync"

	"carsearch_frontend/internal/search/transport"
	"carsearch_frontend/platform/apperr"
)

// Tab is one of the two search modes.
type Tab int

const (
	TabForm Tab = iota
	TabFreeText
)

var tabNames = [...]string{TabForm: "form", TabFreeText: "text"}

func (t Tab) String() string {
	if t < TabForm || t > TabFreeText {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// MarshalText encodes the tab as its name.
func (t Tab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseTab parses "form" or "text".
func ParseTab(s string) (Tab, error) {
	for i, name := range tabNames {
		if name == s {
			return Tab(i), nil
		}
	}
	return TabForm, apperr.Validation("unknown tab").WithDetails(map[string]string{"tab": s})
}

// Status is the submission state of a tab.
type Status int

const (
	Idle Status = iota
	InFlight
)

func (s Status) String() string {
	if s == InFlight {
		return "in_flight"
	}
	return "idle"
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrSuperseded is returned by Submit when a newer submission for the same
// tab was issued before this one completed. Its response is discarded.
var ErrSuperseded = apperr.New(apperr.KindCanceled, "search superseded by a newer submission")

// FormFieldNames are the input names accepted by SetField.
var FormFieldNames = []string{
	"registrationNumber",
	"manufacturedTimeFrom",
	"manufacturedTimeTo",
	"priceFromIncluding",
	"priceTo",
	"numberOfKilometers",
	"carTypeMake",
	"carTypeModel",
}

// Searcher executes a built backend request.
type Searcher interface {
	Execute(ctx context.Context, req transport.Request) ([]transport.Vehicle, error)
}

type tabState struct {
	status     Status
	generation uint64
	cancel     context.CancelFunc
	results    []transport.Vehicle
}

// Controller is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	searcher Searcher
	active   Tab
	form     transport.FormCriteria
	query    string
	tabs     [2]tabState
}

// New creates a controller on the form tab with empty criteria and results.
func New(searcher Searcher) *Controller {
	c := &Controller{searcher: searcher, active: TabForm}
	for i := range c.tabs {
		c.tabs[i].results = []transport.Vehicle{}
	}
	return c
}

// SelectTab switches the active tab. Results of both tabs are kept.
func (c *Controller) SelectTab(t Tab) error {
	if t != TabForm && t != TabFreeText {
		return apperr.Validation("unknown tab")
	}
	c.mu.Lock()
	c.active = t
	c.mu.Unlock()
	return nil
}

// ActiveTab returns the selected tab.
func (c *Controller) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetField updates exactly one form criterion, keyed by its input name.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := fieldRef(&c.form, name)
	if ref == nil {
		return apperr.Validation("unknown form field").WithDetails(map[string]string{"name": name})
	}
	*ref = value
	return nil
}

// SetQuery sets the free-text query.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Submit builds the tab's request from the current criteria and runs it.
// A submission still in flight for the same tab is canceled and its
// response discarded; only the latest submission can replace the result set.
// On failure the result set is left unchanged.
func (c *Controller) Submit(ctx context.Context, tab Tab) ([]transport.Vehicle, error) {
	c.mu.Lock()
	req, err := c.buildLocked(tab)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	ts := &c.tabs[tab]
	if ts.cancel != nil {
		ts.cancel()
	}
	ts.generation++
	gen := ts.generation
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ts.cancel = cancel
	ts.status = InFlight
	c.mu.Unlock()

	rows, err := c.searcher.Execute(reqCtx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts.generation != gen {
		return nil, ErrSuperseded
	}
	ts.cancel = nil
	ts.status = Idle
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []transport.Vehicle{}
	}
	ts.results = rows
	return cloneRows(rows), nil
}

// Results returns a copy of the tab's last result set.
func (c *Controller) Results(tab Tab) []transport.Vehicle {
	if tab != TabForm && tab != TabFreeText {
		return []transport.Vehicle{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRows(c.tabs[tab].results)
}

// TabView is the rendered state of one tab.
type TabView struct {
	Status     Status              `json:"status"`
	Generation uint64              `json:"generation"`
	Results    []transport.Vehicle `json:"results"`
}

// State is a point-in-time copy of the controller.
type State struct {
	ActiveTab Tab                    `json:"activeTab"`
	Form      transport.FormCriteria `json:"form"`
	Query     string                 `json:"query"`
	FormTab   TabView                `json:"formTab"`
	TextTab   TabView                `json:"textTab"`
}

// Snapshot copies the full state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ActiveTab: c.active,
		Form:      c.form,
		Query:     c.query,
		FormTab:   c.viewLocked(TabForm),
		TextTab:   c.viewLocked(TabFreeText),
	}
}

func (c *Controller) viewLocked(tab Tab) TabView {
	ts := c.tabs[tab]
	return TabView{Status: ts.status, Generation: ts.generation, Results: cloneRows(ts.results)}
}

func (c *Controller) buildLocked(tab Tab) (transport.Request, error) {
	switch tab {
	case TabForm:
		return transport.BuildFormRequest(c.form)
	case TabFreeText:
		return transport.BuildFreeTextRequest(transport.FreeTextCriteria{Search: c.query})
	default:
		return transport.Request{}, apperr.Validation("unknown tab")
	}
}

func fieldRef(f *transport.FormCriteria, name string) *string {
	switch name {
	case "registrationNumber":
		return &f.RegistrationNumber
	case "manufacturedTimeFrom":
		return &f.ManufacturedTimeFrom
	case "manufacturedTimeTo":
		return &f.ManufacturedTimeTo
	case "priceFromIncluding":
		return &f.PriceFromIncluding
	case "priceTo":
		return &f.PriceTo
	case "numberOfKilometers":
		return &f.NumberOfKilometers
	case "carTypeMake":
		return &f.CarTypeMake
	case "carTypeModel":
		return &f.CarTypeModel
	default:
		return nil
	}
}

func cloneRows(rows []transport.Vehicle) []transport.Vehicle {
	out := make([]transport.Vehicle, len(rows))
	copy(out, rows)
	return out
}
