package api

import (
	"net/http"
	"strconv"

	"github.com/absmach/supermq"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/model"
)

var (
	_ supermq.Response = (*submitResponse)(nil)
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*listRoundsResponse)(nil)
	_ supermq.Response = (*weightsResponse)(nil)
	_ supermq.Response = (*statusResponse)(nil)
	_ supermq.Response = (*configResponse)(nil)
)

type submitResponse struct {
	coordinator.SubmitResult
}

func (r submitResponse) Code() int {
	if r.Round != nil {
		return http.StatusCreated
	}

	return http.StatusAccepted
}

func (r submitResponse) Headers() map[string]string {
	if r.Round != nil {
		return map[string]string{
			"Location": "/rounds/" + strconv.Itoa(r.Round.Index),
		}
	}

	return map[string]string{}
}

func (r submitResponse) Empty() bool {
	return false
}

type roundResponse struct {
	coordinator.Round
	created bool
}

func (r roundResponse) Code() int {
	if r.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (r roundResponse) Headers() map[string]string {
	if r.created {
		return map[string]string{
			"Location": "/rounds/" + strconv.Itoa(r.Index),
		}
	}

	return map[string]string{}
}

func (r roundResponse) Empty() bool {
	return false
}

type listRoundsResponse struct {
	coordinator.RoundPage
}

func (r listRoundsResponse) Code() int {
	return http.StatusOK
}

func (r listRoundsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r listRoundsResponse) Empty() bool {
	return false
}

type weightsResponse struct {
	model.WeightSet
}

func (r weightsResponse) Code() int {
	return http.StatusOK
}

func (r weightsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r weightsResponse) Empty() bool {
	return false
}

type summaryResponse struct {
	model.Summary
}

func (r summaryResponse) Code() int {
	return http.StatusOK
}

func (r summaryResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r summaryResponse) Empty() bool {
	return false
}

type statusResponse struct {
	coordinator.Status
}

func (r statusResponse) Code() int {
	return http.StatusOK
}

func (r statusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r statusResponse) Empty() bool {
	return false
}

type consensusResponse struct {
	coordinator.ConsensusReport
}

func (r consensusResponse) Code() int {
	return http.StatusOK
}

func (r consensusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r consensusResponse) Empty() bool {
	return false
}

type configResponse struct {
	coordinator.TriggerConfig
}

func (r configResponse) Code() int {
	return http.StatusOK
}

func (r configResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r configResponse) Empty() bool {
	return false
}

type readingResponse struct {
	device.Result
}

func (r readingResponse) Code() int {
	return http.StatusOK
}

func (r readingResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r readingResponse) Empty() bool {
	return false
}

type predictResponse struct {
	DeviceID   string    `json:"device_id"`
	Prediction []float64 `json:"prediction"`
}

func (r predictResponse) Code() int {
	return http.StatusOK
}

func (r predictResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r predictResponse) Empty() bool {
	return false
}
