// Package integration ties one VMS connection together: the REST client,
// its pollers, the persisted caches and the change notifier.
package integration

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/igraph100/DW-Spectrum/internal/client"
	"github.com/igraph100/DW-Spectrum/internal/events"
	"github.com/igraph100/DW-Spectrum/internal/log"
	"github.com/igraph100/DW-Spectrum/internal/poller"
	"github.com/igraph100/DW-Spectrum/internal/schedule"
	"github.com/igraph100/DW-Spectrum/internal/store"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

// API is the part of *client.SpectrumClient an Instance drives.
type API interface {
	poller.CameraLister
	poller.ServerSource
	poller.StatusSource

	GetDeviceImage(ctx context.Context, id string) ([]byte, error)
	SetScheduleEnabled(ctx context.Context, id string, enabled bool) error
	SetRecordingMode(ctx context.Context, id string, mode schedule.Mode) error
	SetUserEnabled(ctx context.Context, id string, enabled bool) error
	Logout(ctx context.Context)
}

// Intervals overrides the poll periods; zero keeps the default.
type Intervals struct {
	Devices time.Duration
	Server  time.Duration
	Status  time.Duration
}

type Instance struct {
	ID     string
	Config client.ClientConfig

	API      API
	Devices  *poller.DevicePoller
	Server   *poller.ServerPoller
	Status   *poller.StatusPoller
	Modes    *store.ModeCache
	Blocks   *store.StreamBlockCache
	Notifier *events.Notifier

	log    *logrus.Entry
	unlink func()
	once   sync.Once
}

// InstanceID names a connection by its server address.
func InstanceID(cfg client.ClientConfig) string {
	host := strings.ToLower(strings.TrimSpace(cfg.Host))
	return host + "_" + strconv.Itoa(cfg.Port)
}

// New builds an instance and loads its persisted caches. Nothing is fetched
// until Run or Refresh is called.
func New(id string, cfg client.ClientConfig, api API, db *store.DB, notifier *events.Notifier, iv Intervals) (*Instance, error) {
	if id == "" {
		id = InstanceID(cfg)
	}

	inst := &Instance{
		ID:       id,
		Config:   cfg,
		API:      api,
		Modes:    store.NewModeCache(db, id),
		Blocks:   store.NewStreamBlockCache(db, id),
		Notifier: notifier,
		log:      log.WithComponent("integration").WithField("instance", id),
	}
	if err := inst.Modes.Load(); err != nil {
		return nil, fmt.Errorf("load recording mode cache: %w", err)
	}
	if err := inst.Blocks.Load(); err != nil {
		return nil, fmt.Errorf("load stream block cache: %w", err)
	}

	inst.Devices = poller.NewDevicePoller(api, iv.Devices)
	inst.Server = poller.NewServerPoller(api, iv.Server)
	inst.Status = poller.NewStatusPoller(api, inst.Devices, iv.Status)
	inst.unlink = poller.LinkStatus(inst.Devices, inst.Status)

	return inst, nil
}

// Refresh runs one cycle of every poller, devices first so the status poller
// sees the current cameras. Only the device and server failures are returned.
func (i *Instance) Refresh(ctx context.Context) error {
	if _, err := i.Devices.Refresh(ctx); err != nil {
		return err
	}
	if _, err := i.Server.Refresh(ctx); err != nil {
		return err
	}
	_, err := i.Status.Refresh(ctx)
	return err
}

// Run polls until ctx is cancelled, then closes the session.
func (i *Instance) Run(ctx context.Context) {
	i.log.Info("instance started")

	var wg sync.WaitGroup
	for _, run := range []func(context.Context){i.Devices.Run, i.Server.Run, i.Status.Run} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	wg.Wait()

	// ctx is done, so the logout needs its own.
	i.Close(context.Background())
	i.log.Info("instance stopped")
}

// Close detaches the pollers and ends the VMS session. It is safe to call
// more than once.
func (i *Instance) Close(ctx context.Context) {
	i.once.Do(func() {
		i.unlink()
		i.API.Logout(ctx)
	})
}

// Camera returns the camera from the latest device snapshot.
func (i *Instance) Camera(id string) (models.Device, bool) {
	cams, _ := i.Devices.Current()
	id = strings.TrimSpace(id)
	for _, c := range cams {
		if strings.TrimSpace(c.ID) == id {
			return c, true
		}
	}
	return models.Device{}, false
}

// Cameras returns the latest device snapshot.
func (i *Instance) Cameras() []models.Device {
	cams, _ := i.Devices.Current()
	return cams
}
