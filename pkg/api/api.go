package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	pkgerrors "github.com/absmach/fedge/pkg/errors"
	"github.com/absmach/fedge/pkg/model"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	ContentTypeCBOR = "application/cbor"

	MaxLimitSize = 100
)

func EncodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, device.ErrMalformedReading),
		errors.Is(err, coordinator.ErrMalformedUpdate),
		errors.Is(err, coordinator.ErrInvalidTriggerConfig),
		errors.Is(err, coordinator.ErrNoPendingUpdates),
		errors.Is(err, aggregation.ErrUnknownStrategy),
		errors.Is(err, aggregation.ErrEmptyUpdateSet),
		errors.Is(err, model.ErrInvalidArchitecture),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, apiutil.ErrValidation):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, model.ErrArchitectureMismatch),
		errors.Is(err, aggregation.ErrIncompatibleArchitectures):
		w.WriteHeader(http.StatusUnprocessableEntity)
	case errors.Is(err, pkgerrors.ErrNotFound),
		errors.Is(err, coordinator.ErrRoundNotFound),
		errors.Is(err, device.ErrUnknownDevice):
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
