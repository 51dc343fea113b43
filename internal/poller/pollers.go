package poller

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/igraph100/DW-Spectrum/internal/log"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

const (
	DeviceInterval = 15 * time.Second
	ServerInterval = 15 * time.Second
	StatusInterval = 30 * time.Second

	// MaxStatusRequests bounds the concurrent per-camera status calls.
	MaxStatusRequests = 8
)

type CameraLister interface {
	GetCameras(ctx context.Context) ([]models.Device, error)
}

type ServerSource interface {
	GetSystemInfo(ctx context.Context) (models.SystemInfo, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetLicenseSummary(ctx context.Context) (models.LicenseSummary, error)
}

type StatusSource interface {
	GetDeviceStatus(ctx context.Context, id string) (models.DeviceStatus, error)
}

// ServerSnapshot is the server-level state. Users and License may be empty
// when the server refused them.
type ServerSnapshot struct {
	SystemInfo models.SystemInfo
	Users      []models.User
	License    models.LicenseSummary
}

// StatusSnapshot maps camera id to its status payload. Cameras whose status
// call failed are absent.
type StatusSnapshot map[string]models.DeviceStatus

type (
	DevicePoller = Cache[[]models.Device]
	ServerPoller = Cache[ServerSnapshot]
	StatusPoller = Cache[StatusSnapshot]
)

// NewDevicePoller polls the camera inventory.
func NewDevicePoller(api CameraLister, interval time.Duration) *DevicePoller {
	if interval <= 0 {
		interval = DeviceInterval
	}
	return NewCache("devices", interval, api.GetCameras)
}

// NewServerPoller polls system info, users and the license summary. Only the
// system info is required for a successful cycle.
func NewServerPoller(api ServerSource, interval time.Duration) *ServerPoller {
	if interval <= 0 {
		interval = ServerInterval
	}
	logger := log.WithComponent("poller").WithField("poller", "server")

	return NewCache("server", interval, func(ctx context.Context) (ServerSnapshot, error) {
		info, err := api.GetSystemInfo(ctx)
		if err != nil {
			return ServerSnapshot{}, err
		}
		snap := ServerSnapshot{SystemInfo: info, Users: []models.User{}, License: models.LicenseSummary{}}

		if users, err := api.GetUsers(ctx); err != nil {
			logger.WithError(err).Warn("users unavailable")
		} else {
			snap.Users = users
		}
		if lic, err := api.GetLicenseSummary(ctx); err != nil {
			logger.WithError(err).Warn("license summary unavailable")
		} else {
			snap.License = lic
		}
		return snap, nil
	})
}

// NewStatusPoller polls the status of every camera currently known to
// devices, at most MaxStatusRequests at a time. A failing camera is left out
// of the snapshot and never fails the cycle.
func NewStatusPoller(api StatusSource, devices *DevicePoller, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = StatusInterval
	}
	logger := log.WithComponent("poller").WithField("poller", "status")

	return NewCache("status", interval, func(ctx context.Context) (StatusSnapshot, error) {
		cams, _ := devices.Current()
		ids := models.CameraIDs(cams)

		var (
			mu  sync.Mutex
			wg  sync.WaitGroup
			out = make(StatusSnapshot, len(ids))
			sem = semaphore.NewWeighted(MaxStatusRequests)
		)
		for _, id := range ids {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer sem.Release(1)

				st, err := api.GetDeviceStatus(ctx, id)
				if err != nil {
					logger.WithError(err).WithField("device", id).Debug("status unavailable")
					return
				}
				mu.Lock()
				out[id] = st
				mu.Unlock()
			}(id)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// LinkStatus makes every device update request a status refresh.
func LinkStatus(devices *DevicePoller, status *StatusPoller) func() {
	return devices.Subscribe(func([]models.Device) { status.RequestRefresh() })
}
