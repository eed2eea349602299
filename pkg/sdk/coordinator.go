package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	updatesEndpoint   = "/updates"
	readingsEndpoint  = "/readings"
	devicesEndpoint   = "/devices"
	roundsEndpoint    = "/rounds"
	modelEndpoint     = "/model"
	statusEndpoint    = "/status"
	consensusEndpoint = "/consensus"
	configEndpoint    = "/config"
)

type WeightSet struct {
	Architecture []int         `json:"architecture"`
	Weights      [][][]float64 `json:"weights"`
	Biases       [][]float64   `json:"biases"`
}

type Update struct {
	DeviceID    string         `json:"device_id"`
	Weights     WeightSet      `json:"weights"`
	SampleCount int            `json:"sample_count"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type SubmitResult struct {
	Accepted     bool   `json:"accepted"`
	PendingCount int    `json:"pending_count"`
	Round        *Round `json:"round,omitempty"`
}

type Reading struct {
	DeviceID  string             `json:"device_id"`
	Sensors   map[string]float64 `json:"sensors"`
	Timestamp time.Time          `json:"timestamp"`
}

type TrainResult struct {
	DeviceID      string    `json:"device_id"`
	Trained       bool      `json:"trained"`
	Loss          float64   `json:"loss,omitempty"`
	TrainingCount int       `json:"training_count"`
	Prediction    []float64 `json:"prediction,omitempty"`
}

type Prediction struct {
	DeviceID   string    `json:"device_id"`
	Prediction []float64 `json:"prediction"`
}

type Round struct {
	Index        int       `json:"round_index"`
	Strategy     string    `json:"strategy"`
	Timestamp    time.Time `json:"timestamp"`
	DeviceIDs    []string  `json:"device_ids"`
	TotalSamples int       `json:"total_samples"`
	Weights      WeightSet `json:"weights"`
}

type RoundPage struct {
	PageMetadata
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

type LayerSummary struct {
	Layer      int `json:"layer"`
	InputSize  int `json:"input_size"`
	OutputSize int `json:"output_size"`
	Parameters int `json:"parameters"`
}

type ModelSummary struct {
	Architecture    []int          `json:"architecture"`
	TotalParameters int            `json:"total_parameters"`
	Layers          []LayerSummary `json:"layers"`
}

type FleetStats struct {
	TotalDevices   int            `json:"total_devices"`
	TrainingCounts map[string]int `json:"training_counts"`
	BufferSizes    map[string]int `json:"buffer_sizes"`
}

type TriggerConfig struct {
	Policy    string        `json:"policy"`
	Threshold int           `json:"threshold,omitempty"`
	Interval  time.Duration `json:"interval,omitempty"`
	Cron      string        `json:"cron,omitempty"`
	Strategy  string        `json:"strategy"`
}

type Status struct {
	State               string         `json:"state"`
	PendingCount        int            `json:"pending_count"`
	TotalRounds         int            `json:"total_rounds"`
	DeviceContributions map[string]int `json:"device_contributions"`
	LastRound           time.Time      `json:"last_round,omitempty"`
	Trigger             TriggerConfig  `json:"trigger"`
	Fleet               FleetStats     `json:"fleet"`
}

type Consensus struct {
	PendingCount int     `json:"pending_count"`
	Score        float64 `json:"consensus_score"`
}

func (sdk *flSDK) SubmitUpdate(update Update) (SubmitResult, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return SubmitResult{}, err
	}

	url := sdk.coordinatorURL + updatesEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusAccepted, http.StatusCreated)
	if err != nil {
		return SubmitResult{}, err
	}

	var res SubmitResult
	if err := json.Unmarshal(body, &res); err != nil {
		return SubmitResult{}, err
	}

	return res, nil
}

func (sdk *flSDK) SubmitUpdateCBOR(data []byte) (SubmitResult, error) {
	url := sdk.coordinatorURL + updatesEndpoint + "/cbor"

	body, err := sdk.processRequest(http.MethodPost, url, CTCBOR, data, http.StatusAccepted, http.StatusCreated)
	if err != nil {
		return SubmitResult{}, err
	}

	var res SubmitResult
	if err := json.Unmarshal(body, &res); err != nil {
		return SubmitResult{}, err
	}

	return res, nil
}

func (sdk *flSDK) SendReading(reading Reading) (TrainResult, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return TrainResult{}, err
	}

	url := sdk.coordinatorURL + readingsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusOK)
	if err != nil {
		return TrainResult{}, err
	}

	var res TrainResult
	if err := json.Unmarshal(body, &res); err != nil {
		return TrainResult{}, err
	}

	return res, nil
}

func (sdk *flSDK) Predict(deviceID string, sensors map[string]float64) (Prediction, error) {
	data, err := json.Marshal(map[string]any{"sensors": sensors})
	if err != nil {
		return Prediction{}, err
	}

	url := sdk.coordinatorURL + devicesEndpoint + "/" + deviceID + "/predict"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusOK)
	if err != nil {
		return Prediction{}, err
	}

	var res Prediction
	if err := json.Unmarshal(body, &res); err != nil {
		return Prediction{}, err
	}

	return res, nil
}

func (sdk *flSDK) TriggerRound(strategy string) (Round, error) {
	data, err := json.Marshal(map[string]string{"strategy": strategy})
	if err != nil {
		return Round{}, err
	}

	url := sdk.coordinatorURL + roundsEndpoint + "/trigger"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusCreated)
	if err != nil {
		return Round{}, err
	}

	var round Round
	if err := json.Unmarshal(body, &round); err != nil {
		return Round{}, err
	}

	return round, nil
}

func (sdk *flSDK) ListRounds(offset, limit uint64) (RoundPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}
	url := sdk.coordinatorURL + roundsEndpoint + query

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return RoundPage{}, err
	}

	var page RoundPage
	if err := json.Unmarshal(body, &page); err != nil {
		return RoundPage{}, err
	}

	return page, nil
}

func (sdk *flSDK) GetRound(index int) (Round, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.coordinatorURL, roundsEndpoint, index)

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return Round{}, err
	}

	var round Round
	if err := json.Unmarshal(body, &round); err != nil {
		return Round{}, err
	}

	return round, nil
}

func (sdk *flSDK) GetWeights() (WeightSet, error) {
	url := sdk.coordinatorURL + modelEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return WeightSet{}, err
	}

	var ws WeightSet
	if err := json.Unmarshal(body, &ws); err != nil {
		return WeightSet{}, err
	}

	return ws, nil
}

func (sdk *flSDK) GetModelSummary() (ModelSummary, error) {
	url := sdk.coordinatorURL + modelEndpoint + "/summary"

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return ModelSummary{}, err
	}

	var summary ModelSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return ModelSummary{}, err
	}

	return summary, nil
}

func (sdk *flSDK) GetStatus() (Status, error) {
	url := sdk.coordinatorURL + statusEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return Status{}, err
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return Status{}, err
	}

	return status, nil
}

func (sdk *flSDK) GetConsensus() (Consensus, error) {
	url := sdk.coordinatorURL + consensusEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return Consensus{}, err
	}

	var consensus Consensus
	if err := json.Unmarshal(body, &consensus); err != nil {
		return Consensus{}, err
	}

	return consensus, nil
}

func (sdk *flSDK) Configure(cfg TriggerConfig) (TriggerConfig, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return TriggerConfig{}, err
	}

	url := sdk.coordinatorURL + configEndpoint

	body, err := sdk.processRequest(http.MethodPut, url, CTJSON, data, http.StatusOK)
	if err != nil {
		return TriggerConfig{}, err
	}

	var applied TriggerConfig
	if err := json.Unmarshal(body, &applied); err != nil {
		return TriggerConfig{}, err
	}

	return applied, nil
}
