package a1335

import (
	"context"
	"fmt"
	"testing"
)

func TestMockAngleSensor_StaticValue(t *testing.T) {
	s := NewMockAngleSensor(func(ctx context.Context) (float64, error) { return 180.0, nil })
	ctx := context.Background()
	v, err := s.ReadAngle(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 180.0 {
		t.Errorf("expected 180.0, got %f", v)
	}
}

func TestMockAngleSensor_Dynamic(t *testing.T) {
	val := 90.0
	s := NewMockAngleSensor(func(ctx context.Context) (float64, error) { return val, nil })
	ctx := context.Background()

	v1, _ := s.ReadAngle(ctx)
	if v1 != 90.0 {
		t.Errorf("expected 90.0, got %f", v1)
	}
	val = 270.0
	v2, _ := s.ReadAngle(ctx)
	if v2 != 270.0 {
		t.Errorf("expected 270.0, got %f", v2)
	}
}

func TestMockAngleSensor_Error(t *testing.T) {
	s := NewMockAngleSensor(func(ctx context.Context) (float64, error) { return 0, fmt.Errorf("sensor error") })
	ctx := context.Background()
	_, err := s.ReadAngle(ctx)
	if err == nil || err.Error() != "sensor error" {
		t.Errorf("expected sensor error, got %v", err)
	}
}

func TestMockAngleSensor_ContextPropagation(t *testing.T) {
	var received context.Context
	s := NewMockAngleSensor(func(ctx context.Context) (float64, error) { received = ctx; return 42, nil })
	type ctxKey string
	key := ctxKey("k")
	ctx := context.WithValue(context.Background(), key, "v")
	_, _ = s.ReadAngle(ctx)
	if received.Value(key) != "v" {
		t.Error("context was not propagated")
	}
}
