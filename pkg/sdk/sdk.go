package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

const (
	CTJSON string = "application/json"
	CTCBOR string = "application/cbor"
)

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// SubmitUpdate submits one device's local weight update.
	//
	// example:
	//  update := sdk.Update{
	//    DeviceID:    "sensor-1",
	//    SampleCount: 100,
	//  }
	//  res, _ := sdk.SubmitUpdate(update)
	//  fmt.Println(res)
	SubmitUpdate(update Update) (SubmitResult, error)

	// SubmitUpdateCBOR submits a CBOR-encoded device update.
	//
	// example:
	//  res, _ := sdk.SubmitUpdateCBOR(payload)
	//  fmt.Println(res)
	SubmitUpdateCBOR(data []byte) (SubmitResult, error)

	// SendReading feeds one sensor reading into the engine.
	//
	// example:
	//  reading := sdk.Reading{
	//    DeviceID: "sensor-1",
	//    Sensors:  map[string]float64{"temperature": 21.4},
	//  }
	//  res, _ := sdk.SendReading(reading)
	SendReading(reading Reading) (TrainResult, error)

	// Predict returns a device's prediction for the given features.
	//
	// example:
	//  pred, _ := sdk.Predict("sensor-1", map[string]float64{"temperature": 21.4})
	Predict(deviceID string, sensors map[string]float64) (Prediction, error)

	// TriggerRound forces an aggregation round. An empty strategy uses
	// the configured default.
	//
	// example:
	//  round, _ := sdk.TriggerRound("fedavg")
	//  fmt.Println(round.Index)
	TriggerRound(strategy string) (Round, error)

	// ListRounds lists completed aggregation rounds.
	//
	// example:
	//  page, _ := sdk.ListRounds(0, 10)
	//  fmt.Println(page.Total)
	ListRounds(offset, limit uint64) (RoundPage, error)

	// GetRound gets one completed round by index.
	//
	// example:
	//  round, _ := sdk.GetRound(3)
	GetRound(index int) (Round, error)

	// GetWeights gets the current global weight set.
	GetWeights() (WeightSet, error)

	// GetModelSummary gets the global model's layer shapes.
	GetModelSummary() (ModelSummary, error)

	// GetStatus gets the engine status.
	//
	// example:
	//  status, _ := sdk.GetStatus()
	//  fmt.Println(status.PendingCount)
	GetStatus() (Status, error)

	// GetConsensus scores agreement across the pending updates.
	GetConsensus() (Consensus, error)

	// Configure replaces the round trigger policy.
	//
	// example:
	//  cfg := sdk.TriggerConfig{Policy: "count", Threshold: 10}
	//  _ = sdk.Configure(cfg)
	Configure(cfg TriggerConfig) (TriggerConfig, error)
}

type flSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &flSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *flSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCodes ...int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	for _, code := range expectedRespCodes {
		if resp.StatusCode == code {
			return body, nil
		}
	}

	return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
}
