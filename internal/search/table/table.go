// Package table renders normalized vehicle rows as the fixed six-column results table.
package table

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strconv"

	"carsearch_frontend/internal/search/transport"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

var tableTemplate = template.Must(template.ParseFS(templateFS, "templates/table.html"))

// Headers are the fixed column labels, in display order.
var Headers = []string{
	"Registration Number",
	"Manufactured Time",
	"Price",
	"Nb. of kilometers",
	"Make",
	"Model",
}

const (
	dateLayout  = "02/01/2006"
	invalidDate = "Invalid Date"
	euroSymbol  = "€"
)

var (
	locale  = language.BritishEnglish
	printer = message.NewPrinter(locale)
	// Minor units for EUR, taken from CLDR rather than assumed.
	euroScale, _ = currency.Standard.Rounding(currency.EUR)
)

// View is the formatted table: header plus one row of cells per record.
type View struct {
	Headers []string
	Rows    [][]string
}

// Build formats rows in input order. No reordering or filtering happens here.
func Build(rows []transport.Vehicle) View {
	view := View{
		Headers: Headers,
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		view.Rows = append(view.Rows, Cells(row))
	}
	return view
}

// Cells formats one record into the six column values.
func Cells(v transport.Vehicle) []string {
	return []string{
		v.RegistrationNumber,
		FormatDate(v.ManufacturedTime),
		FormatPrice(v.Price),
		strconv.FormatInt(v.NumberOfKilometers, 10),
		v.Make,
		v.Model,
	}
}

// FormatDate renders a manufacture date as dd/mm/yyyy.
func FormatDate(d transport.ManufacturedDate) string {
	if !d.Valid {
		return invalidDate
	}
	return d.Time.Format(dateLayout)
}

// FormatPrice renders an amount as en-GB euro currency, e.g. €1,234.50.
// The sign goes before the symbol: -€5.00.
func FormatPrice(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + euroSymbol + printer.Sprint(number.Decimal(amount, number.Scale(euroScale)))
}

// WriteHTML renders the table as HTML.
func WriteHTML(w io.Writer, rows []transport.Vehicle) error {
	return tableTemplate.Execute(w, Build(rows))
}

// HTML renders the table for embedding in a page template.
func HTML(rows []transport.Vehicle) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, rows); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// WriteText renders the table for a terminal.
func WriteText(w io.Writer, rows []transport.Vehicle) error {
	view := Build(rows)

	tw := tablewriter.NewWriter(w)
	header := make([]any, len(view.Headers))
	for i, h := range view.Headers {
		header[i] = h
	}
	tw.Header(header...)
	if err := tw.Bulk(view.Rows); err != nil {
		return err
	}
	return tw.Render()
}
