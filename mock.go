package a1335

import "context"

// AngleBehaviorFunc defines the behavior of a mocked angle reading. It
// returns the angle in degrees or an error.
type AngleBehaviorFunc func(ctx context.Context) (float64, error)

// MockAngleSensor is a mock implementation of an angle sensor that uses a
// behavior function to produce results without requiring hardware.
type MockAngleSensor struct {
	behavior AngleBehaviorFunc
}

// NewMockAngleSensor creates a new mock angle sensor with the given
// behavior function. The function is called whenever ReadAngle is invoked.
//
// Example usage:
//
//	sensor := a1335.NewMockAngleSensor(func(ctx context.Context) (float64, error) { return 180.0, nil })
func NewMockAngleSensor(behavior AngleBehaviorFunc) *MockAngleSensor {
	return &MockAngleSensor{behavior: behavior}
}

// ReadAngle returns the angle in degrees by calling the behavior function.
func (m *MockAngleSensor) ReadAngle(ctx context.Context) (float64, error) {
	return m.behavior(ctx)
}
