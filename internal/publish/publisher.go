package publish

import (
	"encoding/json"
	"path"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/igraph100/DW-Spectrum/internal/events"
	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/license"
	"github.com/igraph100/DW-Spectrum/internal/log"
	"github.com/igraph100/DW-Spectrum/internal/poller"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

const DefaultPrefix = "spectrum"

// CameraState is the published view of one camera.
type CameraState struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Model            string            `json:"model,omitempty"`
	MAC              string            `json:"mac,omitempty"`
	Online           bool              `json:"online"`
	RecordingEnabled bool              `json:"recording_enabled"`
	Mode             string            `json:"mode,omitempty"`
	StreamBlocked    bool              `json:"stream_blocked"`
	Status           map[string]string `json:"status,omitempty"`
}

// ServerState is the published view of the server.
type ServerState struct {
	Identity integration.ServerIdentity   `json:"identity"`
	Cameras  int                          `json:"cameras"`
	Licenses license.Counts               `json:"licenses"`
	Users    []integration.UserAttributes `json:"users"`
}

// Publisher pushes a retained message every time a snapshot changes.
type Publisher struct {
	broker Broker
	prefix string
	inst   *integration.Instance
	log    *logrus.Entry

	mu     sync.Mutex
	unsubs []func()
}

func New(broker Broker, prefix string, inst *integration.Instance) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{
		broker: broker,
		prefix: prefix,
		inst:   inst,
		log:    log.WithComponent("publish").WithField("instance", inst.ID),
	}
}

// Topic returns <prefix>/<instance>/<name>.
func (p *Publisher) Topic(name string) string {
	return path.Join(p.prefix, p.inst.ID, name)
}

// Start subscribes to the pollers and the stream block notifier.
func (p *Publisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unsubs = append(p.unsubs,
		p.inst.Devices.Subscribe(func([]models.Device) { p.PublishCameras() }),
		p.inst.Server.Subscribe(func(poller.ServerSnapshot) { p.PublishServer() }),
		p.inst.Status.Subscribe(func(snap poller.StatusSnapshot) {
			p.publish("status", snap)
			p.PublishCameras()
		}),
		p.inst.Notifier.SubscribeStreamBlock(p.inst.ID, func(c events.StreamBlockChange) {
			p.publish("stream_blocked", c)
			p.PublishCameras()
		}),
	)
}

// Stop detaches from every source. The broker is left open.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
}

// PublishCameras publishes the camera list with the derived per-camera state.
func (p *Publisher) PublishCameras() {
	cams := p.inst.Cameras()
	out := make([]CameraState, 0, len(cams))
	for _, c := range cams {
		st := CameraState{
			ID:               c.ID,
			Name:             c.DisplayName(),
			Model:            c.Model,
			MAC:              c.MAC(),
			Online:           p.inst.CameraAvailable(c.ID),
			RecordingEnabled: !p.inst.RecordingDisabled(c.ID),
			StreamBlocked:    p.inst.StreamBlocked(c.ID),
			Status:           p.inst.CameraStatus(c.ID),
		}
		if mode, ok := p.inst.ActiveMode(c.ID); ok {
			st.Mode = string(mode)
		}
		out = append(out, st)
	}
	p.publish("cameras", out)
}

func (p *Publisher) PublishServer() {
	n, _ := p.inst.CameraCount()
	users := p.inst.Users()

	st := ServerState{
		Identity: p.inst.ServerIdentity(),
		Cameras:  n,
		Licenses: p.inst.Licenses(),
		Users:    make([]integration.UserAttributes, 0, len(users)),
	}
	for _, u := range users {
		st.Users = append(st.Users, integration.Attributes(u))
	}
	p.publish("server", st)
}

func (p *Publisher) publish(name string, v any) {
	topic := p.Topic(name)
	payload, err := json.Marshal(v)
	if err != nil {
		p.log.WithError(err).WithField("topic", topic).Error("cannot encode payload")
		return
	}
	if err := p.broker.Publish(topic, payload); err != nil {
		p.log.WithError(err).WithField("topic", topic).Warn("publish failed")
		return
	}
	p.log.WithField("topic", topic).WithField("bytes", len(payload)).Debug("published")
}
