package api

import (
	"context"
	"errors"

	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"

	"github.com/absmach/fedge/coordinator"
	pkgerrors "github.com/absmach/fedge/pkg/errors"
)

func submitUpdateEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(updateReq)
		if !ok {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.SubmitUpdate(ctx, req.Update)
		if err != nil {
			return submitResponse{}, err
		}

		return submitResponse{
			SubmitResult: res,
		}, nil
	}
}

func submitUpdateCBOREndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(cborUpdateReq)
		if !ok {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return submitResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.SubmitUpdateCBOR(ctx, req.data)
		if err != nil {
			return submitResponse{}, err
		}

		return submitResponse{
			SubmitResult: res,
		}, nil
	}
}

func processReadingEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(readingReq)
		if !ok {
			return readingResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return readingResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.ProcessReading(ctx, req.Reading)
		if err != nil {
			return readingResponse{}, err
		}

		return readingResponse{
			Result: res,
		}, nil
	}
}

func predictDeviceEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		prediction, err := svc.PredictDevice(ctx, req.deviceID, req.Sensors)
		if err != nil {
			return predictResponse{}, err
		}

		return predictResponse{
			DeviceID:   req.deviceID,
			Prediction: prediction,
		}, nil
	}
}

func triggerRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(triggerReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		round, err := svc.TriggerRound(ctx, req.Strategy)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			Round:   round,
			created: true,
		}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listRoundsReq)
		if !ok {
			return listRoundsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}

		page, err := svc.GetHistory(ctx, req.offset, req.limit)
		if err != nil {
			return listRoundsResponse{}, err
		}

		return listRoundsResponse{
			RoundPage: page,
		}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		round, err := svc.GetRound(ctx, req.index)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			Round: round,
		}, nil
	}
}

func getWeightsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		ws, err := svc.GetWeights(ctx)
		if err != nil {
			return weightsResponse{}, err
		}

		return weightsResponse{
			WeightSet: ws,
		}, nil
	}
}

func getModelSummaryEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		summary, err := svc.GetModelSummary(ctx)
		if err != nil {
			return summaryResponse{}, err
		}

		return summaryResponse{
			Summary: summary,
		}, nil
	}
}

func getStatusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.GetStatus(ctx)
		if err != nil {
			return statusResponse{}, err
		}

		return statusResponse{
			Status: status,
		}, nil
	}
}

func getConsensusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		report, err := svc.GetConsensus(ctx)
		if err != nil {
			return consensusResponse{}, err
		}

		return consensusResponse{
			ConsensusReport: report,
		}, nil
	}
}

func configureEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(configReq)
		if !ok {
			return configResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return configResponse{}, err
		}

		if err := svc.Configure(ctx, req.TriggerConfig); err != nil {
			return configResponse{}, err
		}

		return configResponse{
			TriggerConfig: req.TriggerConfig,
		}, nil
	}
}
