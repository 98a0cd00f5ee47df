package service

import (
	"context"
	"errors"
	"time"

	"carsearch_frontend/internal/search/transport"
	"carsearch_frontend/platform/apperr"
	"carsearch_frontend/platform/logger"
)

// Backend sends a built request and returns the raw response envelope.
type Backend interface {
	Do(ctx context.Context, req transport.Request) (*transport.SearchEnvelope, error)
}

type Service struct {
	backend Backend
	log     *logger.Logger
}

func New(backend Backend, log *logger.Logger) *Service {
	return &Service{backend: backend, log: log}
}

// Execute runs req against the backend and normalizes the response.
func (s *Service) Execute(ctx context.Context, req transport.Request) ([]transport.Vehicle, error) {
	start := time.Now()
	log := s.log.WithContext(ctx)

	env, err := s.backend.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperr.Wrap(apperr.KindCanceled, "search canceled", err).WithOp("search.Execute")
		}
		log.UpstreamError(req.Endpoint, 0, err)
		return nil, apperr.Upstream("search backend unavailable", err).
			WithOp("search.Execute").
			WithDetails(err.Error())
	}

	rows := transport.Normalize(env)
	log.SearchEvent(modeOf(req.Endpoint), req.Endpoint, len(rows), time.Since(start))
	return rows, nil
}

// FormSearch builds and runs a form search.
func (s *Service) FormSearch(ctx context.Context, criteria transport.FormCriteria) ([]transport.Vehicle, error) {
	req, err := transport.BuildFormRequest(criteria)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, req)
}

// FreeTextSearch builds and runs a free-text search.
func (s *Service) FreeTextSearch(ctx context.Context, criteria transport.FreeTextCriteria) ([]transport.Vehicle, error) {
	req, err := transport.BuildFreeTextRequest(criteria)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, req)
}

func modeOf(endpoint string) string {
	switch endpoint {
	case transport.EndpointFormSearch:
		return "form"
	case transport.EndpointStringSearch:
		return "text"
	default:
		return "unknown"
	}
}
