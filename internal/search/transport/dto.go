// Package transport provides wire and display types for the vehicle search domain.
package transport

import "time"

// Endpoints served by the search backend, relative to its base URL.
const (
	EndpointFormSearch   = "search/search-car"
	EndpointStringSearch = "search/string-search-car"
)

// Fixed pagination; only the first page is ever requested.
const (
	DefaultPageNumber = 0
	DefaultPageSize   = 20
)

// PropertyToSearchList is the fixed set of attribute paths a free-text search matches against.
var PropertyToSearchList = []string{
	"registrationNumber",
	"manufacturedTime",
	"price",
	"numberOfKilometers",
	"carType.make",
	"carType.model",
}

// FormCriteria holds the structured search inputs exactly as entered.
// An empty string means no constraint.
type FormCriteria struct {
	RegistrationNumber   string `json:"registrationNumber" form:"registrationNumber"`
	ManufacturedTimeFrom string `json:"manufacturedTimeFrom" form:"manufacturedTimeFrom" validate:"omitempty,isodate"`
	ManufacturedTimeTo   string `json:"manufacturedTimeTo" form:"manufacturedTimeTo" validate:"omitempty,isodate"`
	PriceFromIncluding   string `json:"priceFromIncluding" form:"priceFromIncluding" validate:"omitempty,numeric"`
	PriceTo              string `json:"priceTo" form:"priceTo" validate:"omitempty,numeric"`
	NumberOfKilometers   string `json:"numberOfKilometers" form:"numberOfKilometers" validate:"omitempty,numeric"`
	CarTypeMake          string `json:"carTypeMake" form:"carTypeMake"`
	CarTypeModel         string `json:"carTypeModel" form:"carTypeModel"`
}

// FreeTextCriteria holds the single free-text query.
type FreeTextCriteria struct {
	Search string `json:"search" form:"search"`
}

// FormSearchPayload is the request body of EndpointFormSearch.
// Date bounds are ISO timestamps or null.
type FormSearchPayload struct {
	RegistrationNumber   string  `json:"registrationNumber"`
	ManufacturedTimeFrom *string `json:"manufacturedTimeFrom"`
	ManufacturedTimeTo   *string `json:"manufacturedTimeTo"`
	PriceFromIncluding   string  `json:"priceFromIncluding"`
	PriceTo              string  `json:"priceTo"`
	NumberOfKilometers   string  `json:"numberOfKilometers"`
	CarTypeMake          string  `json:"carTypeMake"`
	CarTypeModel         string  `json:"carTypeModel"`
	PageNumber           int     `json:"pageNumber"`
	PageSize             int     `json:"pageSize"`
}

// StringSearchPayload is the request body of EndpointStringSearch.
type StringSearchPayload struct {
	SearchTerm           string   `json:"searchTerm"`
	PropertyToSearchList []string `json:"propertyToSearchList"`
}

// SearchEnvelope is the backend response. Pagination metadata is ignored.
type SearchEnvelope struct {
	Content []WireRecord `json:"content"`
}

// WireCarType is the nested make/model pair of the form search response.
type WireCarType struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}

// WireRecord is a vehicle as returned by either endpoint. It carries either
// a nested CarType or the flat CarTypeMake/CarTypeModel strings.
type WireRecord struct {
	RegistrationNumber string       `json:"registrationNumber"`
	ManufacturedTime   string       `json:"manufacturedTime"`
	Price              float64      `json:"price"`
	NumberOfKilometers int64        `json:"numberOfKilometers"`
	CarType            *WireCarType `json:"carType,omitempty"`
	CarTypeMake        string       `json:"carTypeMake,omitempty"`
	CarTypeModel       string       `json:"carTypeModel,omitempty"`
}

// ManufacturedDate is a parsed manufacture date. Valid is false when the
// wire value could not be parsed; Raw keeps the original text.
type ManufacturedDate struct {
	Time  time.Time `json:"time"`
	Raw   string    `json:"raw"`
	Valid bool      `json:"valid"`
}

// Vehicle is the display record consumed by the results table.
type Vehicle struct {
	RegistrationNumber string           `json:"registrationNumber"`
	ManufacturedTime   ManufacturedDate `json:"manufacturedTime"`
	Price              float64          `json:"price"`
	NumberOfKilometers int64            `json:"numberOfKilometers"`
	Make               string           `json:"make"`
	Model              string           `json:"model"`
}
