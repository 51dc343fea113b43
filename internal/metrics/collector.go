// Package metrics exposes the polled VMS state to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/schedule"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

var (
	upDesc = prometheus.NewDesc(
		"spectrum_up", "Whether the last poll succeeded.", []string{"poller"}, nil,
	)
	snapshotAgeDesc = prometheus.NewDesc(
		"spectrum_snapshot_age_seconds", "Seconds since the last successful poll.", []string{"poller"}, nil,
	)
	cameraCountDesc = prometheus.NewDesc(
		"spectrum_cameras_total", "Number of cameras known to the server.", nil, nil,
	)
	cameraOnlineDesc = prometheus.NewDesc(
		"spectrum_camera_online", "Camera online state.", []string{"id", "name", "model"}, nil,
	)
	recordingEnabledDesc = prometheus.NewDesc(
		"spectrum_camera_recording_enabled", "Whether the recording schedule is enabled.", []string{"id", "name"}, nil,
	)
	recordingModeDesc = prometheus.NewDesc(
		"spectrum_camera_recording_mode", "Active recording mode (1 for the current one).", []string{"id", "name", "mode"}, nil,
	)
	streamBlockedDesc = prometheus.NewDesc(
		"spectrum_camera_stream_blocked", "Whether live media is blocked on the client side.", []string{"id", "name"}, nil,
	)
	statusInfoDesc = prometheus.NewDesc(
		"spectrum_camera_status_info", "Camera status fields.", []string{"id", "key", "value"}, nil,
	)
	licensesDesc = prometheus.NewDesc(
		"spectrum_licenses", "License counts.", []string{"kind"}, nil,
	)
	userEnabledDesc = prometheus.NewDesc(
		"spectrum_user_enabled", "Whether a user account is enabled.", []string{"id", "name", "role"}, nil,
	)
)

var reportedModes = append(append([]schedule.Mode{}, schedule.Modes...), schedule.ModeUnknown)

// health is the view of a poller the collector needs.
type health interface {
	Name() string
	Available() bool
	Updated() time.Time
}

// SpectrumCollector renders the cached snapshots of one instance. A scrape
// never calls the VMS.
type SpectrumCollector struct {
	Instance *integration.Instance
}

func NewCollector(inst *integration.Instance) *SpectrumCollector {
	return &SpectrumCollector{Instance: inst}
}

func (c *SpectrumCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- snapshotAgeDesc
	ch <- cameraCountDesc
	ch <- cameraOnlineDesc
	ch <- recordingEnabledDesc
	ch <- recordingModeDesc
	ch <- streamBlockedDesc
	ch <- statusInfoDesc
	ch <- licensesDesc
	ch <- userEnabledDesc
}

func (c *SpectrumCollector) Collect(ch chan<- prometheus.Metric) {
	inst := c.Instance

	for _, p := range []health{inst.Devices, inst.Server, inst.Status} {
		ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, boolValue(p.Available()), p.Name())
		if updated := p.Updated(); !updated.IsZero() {
			ch <- prometheus.MustNewConstMetric(snapshotAgeDesc, prometheus.GaugeValue, time.Since(updated).Seconds(), p.Name())
		}
	}

	if n, ok := inst.CameraCount(); ok {
		ch <- prometheus.MustNewConstMetric(cameraCountDesc, prometheus.GaugeValue, float64(n))
	}
	for _, cam := range inst.Cameras() {
		c.collectCamera(ch, cam)
	}

	if _, ok := inst.Server.Current(); ok {
		lic := inst.Licenses()
		for kind, v := range map[string]*int{"total": lic.Total, "used": lic.Used, "available": lic.Available} {
			if v != nil {
				ch <- prometheus.MustNewConstMetric(licensesDesc, prometheus.GaugeValue, float64(*v), kind)
			}
		}
	}

	for _, u := range inst.Users() {
		ch <- prometheus.MustNewConstMetric(userEnabledDesc, prometheus.GaugeValue,
			boolValue(u.IsEnabled), u.ID, u.DisplayName(), integration.InferRole(u.Raw))
	}
}

func (c *SpectrumCollector) collectCamera(ch chan<- prometheus.Metric, cam models.Device) {
	inst := c.Instance
	id, name := cam.ID, cam.DisplayName()

	model := cam.Model
	if model == "" {
		model = "unknown"
	}
	ch <- prometheus.MustNewConstMetric(cameraOnlineDesc, prometheus.GaugeValue,
		boolValue(inst.CameraAvailable(id)), id, name, model)
	ch <- prometheus.MustNewConstMetric(recordingEnabledDesc, prometheus.GaugeValue,
		boolValue(!inst.RecordingDisabled(id)), id, name)
	ch <- prometheus.MustNewConstMetric(streamBlockedDesc, prometheus.GaugeValue,
		boolValue(inst.StreamBlocked(id)), id, name)

	if mode, ok := inst.ActiveMode(id); ok {
		for _, m := range reportedModes {
			ch <- prometheus.MustNewConstMetric(recordingModeDesc, prometheus.GaugeValue,
				boolValue(m == mode), id, name, string(m))
		}
	}

	for key, value := range inst.CameraStatus(id) {
		ch <- prometheus.MustNewConstMetric(statusInfoDesc, prometheus.GaugeValue, 1, id, key, value)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
