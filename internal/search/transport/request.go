package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carsearch_frontend/platform/apperr"
)

// isoTimestampLayout matches the millisecond UTC form backends expect, e.g. 2023-01-15T00:00:00.000Z.
const isoTimestampLayout = "2006-01-02T15:04:05.000Z"

const dateInputLayout = "2006-01-02"

// Request describes one POST to the search backend.
type Request struct {
	Method   string
	Endpoint string
	Body     []byte
	Header   map[string]string
}

// BuildFormRequest builds the form search request. All criteria pass through
// verbatim except the date bounds, which become start-of-day UTC timestamps
// or null when empty.
func BuildFormRequest(criteria FormCriteria) (Request, error) {
	from, err := dateBound("manufacturedTimeFrom", criteria.ManufacturedTimeFrom)
	if err != nil {
		return Request{}, err
	}
	to, err := dateBound("manufacturedTimeTo", criteria.ManufacturedTimeTo)
	if err != nil {
		return Request{}, err
	}

	payload := FormSearchPayload{
		RegistrationNumber:   criteria.RegistrationNumber,
		ManufacturedTimeFrom: from,
		ManufacturedTimeTo:   to,
		PriceFromIncluding:   criteria.PriceFromIncluding,
		PriceTo:              criteria.PriceTo,
		NumberOfKilometers:   criteria.NumberOfKilometers,
		CarTypeMake:          criteria.CarTypeMake,
		CarTypeModel:         criteria.CarTypeModel,
		PageNumber:           DefaultPageNumber,
		PageSize:             DefaultPageSize,
	}

	return newPostRequest(EndpointFormSearch, payload)
}

// BuildFreeTextRequest builds the free-text search request.
func BuildFreeTextRequest(criteria FreeTextCriteria) (Request, error) {
	fields := make([]string, len(PropertyToSearchList))
	copy(fields, PropertyToSearchList)

	payload := StringSearchPayload{
		SearchTerm:           criteria.Search,
		PropertyToSearchList: fields,
	}

	return newPostRequest(EndpointStringSearch, payload)
}

func newPostRequest(endpoint string, payload interface{}) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, apperr.Wrap(apperr.KindInternal, "encode search payload", err)
	}

	return Request{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Body:     body,
		Header:   map[string]string{"Content-Type": "application/json"},
	}, nil
}

func dateBound(field, value string) (*string, error) {
	if value == "" {
		return nil, nil
	}

	day, err := time.ParseInLocation(dateInputLayout, value, time.UTC)
	if err != nil {
		return nil, apperr.Validation("invalid date").
			WithOp("transport.BuildFormRequest").
			WithDetails(map[string]string{field: fmt.Sprintf("expected YYYY-MM-DD, got %q", value)})
	}

	ts := day.Format(isoTimestampLayout)
	return &ts, nil
}
