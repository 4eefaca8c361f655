package component

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeComponent struct {
	started bool
}

func (f *fakeComponent) Meta() Metadata {
	return Metadata{Name: "fake", Type: "input", Version: "1.0"}
}

func (f *fakeComponent) Health() HealthStatus {
	return HealthStatus{Healthy: f.started, LastCheck: time.Now()}
}

func (f *fakeComponent) DataFlow() FlowMetrics {
	return FlowMetrics{}
}

func (f *fakeComponent) Initialize() error { return nil }

func (f *fakeComponent) Start(_ context.Context) error {
	f.started = true
	return nil
}

func (f *fakeComponent) Stop(_ time.Duration) error {
	f.started = false
	return nil
}

type bareComponent struct{}

func (bareComponent) Meta() Metadata        { return Metadata{Name: "bare"} }
func (bareComponent) Health() HealthStatus  { return HealthStatus{} }
func (bareComponent) DataFlow() FlowMetrics { return FlowMetrics{} }

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "initialized", StateInitialized.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestLifecycleDetection(t *testing.T) {
	full := &fakeComponent{}
	assert.True(t, IsLifecycleComponent(full))

	lc, ok := AsLifecycleComponent(full)
	assert.True(t, ok)
	assert.NoError(t, lc.Start(context.Background()))
	assert.True(t, full.Health().Healthy)
	assert.NoError(t, lc.Stop(time.Second))

	assert.False(t, IsLifecycleComponent(bareComponent{}))
	_, ok = AsLifecycleComponent(bareComponent{})
	assert.False(t, ok)
}
