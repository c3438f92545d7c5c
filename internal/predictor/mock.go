package predictor

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is an in-memory implementation of Client for testing. Map a
// symptom set's first element to a canned prediction, or set Err to force a
// failure.
type MockClient struct {
	Predictions map[string]*Prediction
	Err         error

	mu    sync.Mutex
	Calls [][]string
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{Predictions: make(map[string]*Prediction)}
}

// PredictDisease records the call and returns the canned prediction keyed by
// the first symptom.
func (m *MockClient) PredictDisease(ctx context.Context, symptoms []string) (*Prediction, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, symptoms)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("no symptoms given")
	}
	p, ok := m.Predictions[symptoms[0]]
	if !ok {
		return nil, fmt.Errorf("no canned prediction for %q", symptoms[0])
	}
	return p, nil
}
