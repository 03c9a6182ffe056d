// Package signin is the client's authentication front: device trust, attempt limits,
// and the multi-step sign-in, sign-up and recovery flows.
package signin

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"calendasync/internal/domain"
	"calendasync/internal/localstate"
)

// DeviceGate tracks which installations have completed a verified sign-in.
type DeviceGate struct {
	kv domain.KeyValueStore
}

func NewDeviceGate(kv domain.KeyValueStore) *DeviceGate {
	return &DeviceGate{kv: kv}
}

// DeviceID returns this installation's identifier, generating and persisting it on first use.
func (g *DeviceGate) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := g.kv.Get(ctx, domain.KeyDeviceID)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := g.kv.Set(ctx, domain.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to store device id: %w", err)
	}
	return id, nil
}

func (g *DeviceGate) knownDevices(ctx context.Context) ([]string, error) {
	var devices []string
	if _, err := localstate.GetJSON(ctx, g.kv, domain.KeyKnownDevices, &devices); err != nil {
		return nil, fmt.Errorf("failed to read known devices: %w", err)
	}
	return devices, nil
}

func (g *DeviceGate) IsKnownDevice(ctx context.Context) (bool, error) {
	id, err := g.DeviceID(ctx)
	if err != nil {
		return false, err
	}
	devices, err := g.knownDevices(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(devices, id), nil
}

// RegisterDevice adds this installation to the known set. Registering twice is a no-op.
func (g *DeviceGate) RegisterDevice(ctx context.Context) error {
	id, err := g.DeviceID(ctx)
	if err != nil {
		return err
	}
	devices, err := g.knownDevices(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(devices, id) {
		return nil
	}
	return localstate.SetJSON(ctx, g.kv, domain.KeyKnownDevices, append(devices, id))
}
