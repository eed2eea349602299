package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/pkg/api"
)

const maxUpdateSize = 1024 * 1024 * 10

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/updates", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			submitUpdateEndpoint(svc),
			decodeUpdateReq,
			api.EncodeResponse,
			opts...,
		), "submit-update").ServeHTTP)
		r.Post("/cbor", otelhttp.NewHandler(kithttp.NewServer(
			submitUpdateCBOREndpoint(svc),
			decodeUpdateCBORReq,
			api.EncodeResponse,
			opts...,
		), "submit-update-cbor").ServeHTTP)
	})

	mux.Route("/readings", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			processReadingEndpoint(svc),
			decodeReadingReq,
			api.EncodeResponse,
			opts...,
		), "process-reading").ServeHTTP)
	})

	mux.Post("/devices/{deviceID}/predict", otelhttp.NewHandler(kithttp.NewServer(
		predictDeviceEndpoint(svc),
		decodePredictReq,
		api.EncodeResponse,
		opts...,
	), "predict-device").ServeHTTP)

	mux.Route("/rounds", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRoundsEndpoint(svc),
			decodeListRoundsReq,
			api.EncodeResponse,
			opts...,
		), "list-rounds").ServeHTTP)
		r.Post("/trigger", otelhttp.NewHandler(kithttp.NewServer(
			triggerRoundEndpoint(svc),
			decodeTriggerReq,
			api.EncodeResponse,
			opts...,
		), "trigger-round").ServeHTTP)
		r.Get("/{roundIndex}", otelhttp.NewHandler(kithttp.NewServer(
			getRoundEndpoint(svc),
			decodeRoundReq,
			api.EncodeResponse,
			opts...,
		), "get-round").ServeHTTP)
	})

	mux.Route("/model", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			getWeightsEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-model").ServeHTTP)
		r.Get("/summary", otelhttp.NewHandler(kithttp.NewServer(
			getModelSummaryEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-model-summary").ServeHTTP)
	})

	mux.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
		getStatusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-status").ServeHTTP)

	mux.Get("/consensus", otelhttp.NewHandler(kithttp.NewServer(
		getConsensusEndpoint(svc),
		decodeEmptyReq,
		api.EncodeResponse,
		opts...,
	), "get-consensus").ServeHTTP)

	mux.Put("/config", otelhttp.NewHandler(kithttp.NewServer(
		configureEndpoint(svc),
		decodeConfigReq,
		api.EncodeResponse,
		opts...,
	), "configure").ServeHTTP)

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeUpdateReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req updateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeUpdateCBORReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentTypeCBOR) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return cborUpdateReq{data: data}, nil
}

func decodeReadingReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req readingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req predictReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}
	req.deviceID = chi.URLParam(r, "deviceID")

	return req, nil
}

func decodeTriggerReq(_ context.Context, r *http.Request) (any, error) {
	var req triggerReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	}
	if s := r.URL.Query().Get("strategy"); s != "" {
		req.Strategy = s
	}

	return req, nil
}

func decodeListRoundsReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listRoundsReq{
		offset: o,
		limit:  l,
	}, nil
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "roundIndex"))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return roundReq{index: index}, nil
}

func decodeConfigReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req configReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}
