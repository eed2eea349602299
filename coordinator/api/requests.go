package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
)

type updateReq struct {
	aggregation.Update `json:",inline"`
}

func (r *updateReq) validate() error {
	if r.DeviceID == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type cborUpdateReq struct {
	data []byte
}

func (r *cborUpdateReq) validate() error {
	if len(r.data) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}

type readingReq struct {
	device.Reading `json:",inline"`
}

func (r *readingReq) validate() error {
	return r.Reading.Validate()
}

type predictReq struct {
	deviceID string
	Sensors  device.Sensors `json:"sensors"`
}

func (r *predictReq) validate() error {
	if r.deviceID == "" {
		return apiutil.ErrMissingID
	}

	return r.Sensors.Validate()
}

type triggerReq struct {
	Strategy string `json:"strategy,omitempty"`
}

type listRoundsReq struct {
	offset, limit uint64
}

type roundReq struct {
	index int
}

func (r *roundReq) validate() error {
	if r.index < 0 {
		return apiutil.ErrValidation
	}

	return nil
}

type configReq struct {
	coordinator.TriggerConfig `json:",inline"`
}

func (r *configReq) validate() error {
	return r.TriggerConfig.Validate()
}
