package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/igraph100/DW-Spectrum/internal/schedule"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

const (
	devicesPath      = APIPrefix + "/devices"
	devicePath       = APIPrefix + "/devices/{id}"
	deviceStatusPath = APIPrefix + "/devices/{id}/status"
)

// GetDevices fetches the whole device inventory.
func (c *SpectrumClient) GetDevices(ctx context.Context) ([]models.Device, error) {
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   devicesPath,
		query:  map[string]string{"_with": models.DeviceFields},
	})
	if err != nil {
		return nil, err
	}

	// Some builds wrap the array in an envelope
	list, ok := unwrapList(body, "items", "data", "devices")
	if !ok {
		return nil, shapeError(http.MethodGet, devicesPath)
	}

	var devices []models.Device
	if err := decodeInto(http.MethodGet, devicesPath, list, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetCameras fetches the inventory and keeps camera-type devices only.
func (c *SpectrumClient) GetCameras(ctx context.Context) ([]models.Device, error) {
	devices, err := c.GetDevices(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterCameras(devices), nil
}

// GetDevice fetches one device including its recording schedule.
func (c *SpectrumClient) GetDevice(ctx context.Context, id string) (models.Device, error) {
	body, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       devicePath,
		pathParams: map[string]string{"id": id},
		query:      map[string]string{"_with": "id,name,schedule"},
	})
	if err != nil {
		return models.Device{}, err
	}
	if !isObject(body) {
		return models.Device{}, shapeError(http.MethodGet, devicePath)
	}

	var dev models.Device
	if err := decodeInto(http.MethodGet, devicePath, body, &dev); err != nil {
		return models.Device{}, err
	}
	return dev, nil
}

// GetDeviceStatus fetches the status payload of one device.
func (c *SpectrumClient) GetDeviceStatus(ctx context.Context, id string) (models.DeviceStatus, error) {
	body, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       deviceStatusPath,
		pathParams: map[string]string{"id": id},
	})
	if err != nil {
		return nil, err
	}
	if !isObject(body) {
		return nil, shapeError(http.MethodGet, deviceStatusPath)
	}

	var status models.DeviceStatus
	if err := decodeInto(http.MethodGet, deviceStatusPath, body, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// PatchDevice applies a partial update. Non-object replies come back
// wrapped as {"raw": ...}.
func (c *SpectrumClient) PatchDevice(ctx context.Context, id string, patch any) (map[string]any, error) {
	body, err := c.do(ctx, request{
		method:     http.MethodPatch,
		path:       devicePath,
		pathParams: map[string]string{"id": id},
		body:       patch,
	})
	if err != nil {
		return nil, err
	}

	var out any
	if len(body) > 0 {
		if err := decodeInto(http.MethodPatch, devicePath, body, &out); err != nil {
			return nil, err
		}
	}
	if m, ok := out.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"raw": out}, nil
}

// SetScheduleEnabled starts or stops recording by toggling the schedule
// without touching its tasks.
func (c *SpectrumClient) SetScheduleEnabled(ctx context.Context, id string, enabled bool) error {
	var patch models.ScheduleEnabledPatch
	patch.Schedule.IsEnabled = enabled

	_, err := c.PatchDevice(ctx, id, patch)
	return err
}

// SetRecordingMode rewrites every task of the camera's schedule to mode and
// enables the schedule. It reads the current schedule first so fields
// unrelated to the mode are preserved.
func (c *SpectrumClient) SetRecordingMode(ctx context.Context, id string, mode schedule.Mode) error {
	if !mode.Valid() {
		return &RequestError{Method: http.MethodPatch, Path: devicePath,
			Err: fmt.Errorf("%w: %q", schedule.ErrUnknownMode, mode)}
	}

	dev, err := c.GetDevice(ctx, id)
	if err != nil {
		return err
	}

	tasks, err := schedule.Rewrite(dev.Schedule, mode)
	if err != nil {
		return &RequestError{Method: http.MethodPatch, Path: devicePath, Err: err}
	}

	patch := models.SchedulePatch{Schedule: models.Schedule{IsEnabled: true, Tasks: tasks}}
	c.log.WithField("device", id).
		WithField("mode", mode).
		WithField("tasks", len(tasks)).
		Debug("applying recording mode")

	_, err = c.PatchDevice(ctx, id, patch)
	return err
}
