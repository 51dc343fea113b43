package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	"github.com/igraph100/DW-Spectrum/internal/decode"
)

// DeviceFields is the `_with` projection requested for GET /devices
const DeviceFields = "id,name,deviceType,type,model,physicalId,logicalId,isOnline,status,schedule"

// Device represents a single device record as returned by /rest/v3/devices
type Device struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DeviceType string    `json:"deviceType,omitempty"`
	Type       string    `json:"type,omitempty"`
	Model      string    `json:"model,omitempty"`
	PhysicalID string    `json:"physicalId,omitempty"` // usually the MAC address
	LogicalID  string    `json:"logicalId,omitempty"`
	IsOnline   *bool     `json:"isOnline,omitempty"` // nil when the server omits it
	Status     string    `json:"status,omitempty"`
	Schedule   *Schedule `json:"schedule,omitempty"`
}

// UnmarshalJSON is lenient: builds disagree on value types, and one odd
// device must not fail the whole inventory. Scalars are rendered as text,
// isOnline accepts any boolean spelling and is nil otherwise.
func (d *Device) UnmarshalJSON(data []byte) error {
	*d = Device{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	text := func(key string) string {
		var v any
		if err := json.Unmarshal(raw[key], &v); err != nil || v == nil {
			return ""
		}
		return cast.ToString(v)
	}

	d.ID = text("id")
	d.Name = text("name")
	d.DeviceType = text("deviceType")
	d.Type = text("type")
	d.Model = text("model")
	d.PhysicalID = text("physicalId")
	d.LogicalID = text("logicalId")
	d.Status = text("status")

	var online any
	if err := json.Unmarshal(raw["isOnline"], &online); err == nil {
		if b, ok := decode.ToBool(online); ok {
			d.IsOnline = &b
		}
	}

	if sch := bytes.TrimSpace(raw["schedule"]); len(sch) > 0 && sch[0] == '{' {
		var s Schedule
		if err := json.Unmarshal(sch, &s); err == nil {
			d.Schedule = &s
		}
	}
	return nil
}

// IsCamera reports whether the device is a camera: deviceType equals "camera"
// or type contains "camera", both case-insensitive.
func (d Device) IsCamera() bool {
	if strings.EqualFold(strings.TrimSpace(d.DeviceType), "camera") {
		return true
	}
	return strings.Contains(strings.ToLower(d.Type), "camera")
}

// DisplayName falls back to the logical id, then the id.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.LogicalID != "" {
		return d.LogicalID
	}
	return d.ID
}

// MAC returns the lower-cased physical id when it looks like a MAC address.
func (d Device) MAC() string {
	if strings.Contains(d.PhysicalID, ":") {
		return strings.ToLower(d.PhysicalID)
	}
	return ""
}

// FilterCameras keeps camera-type devices in their original order.
func FilterCameras(devices []Device) []Device {
	cams := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.IsCamera() {
			cams = append(cams, d)
		}
	}
	return cams
}

// CameraIDs returns the trimmed, non-empty ids of the given devices.
func CameraIDs(devices []Device) []string {
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		if id := strings.TrimSpace(d.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DeviceStatus is the free-form payload of GET /devices/{id}/status
type DeviceStatus map[string]any

// StatusKeys are the status fields surfaced per camera.
var StatusKeys = []string{"status", "init", "media", "stream"}
