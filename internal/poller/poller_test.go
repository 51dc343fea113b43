package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igraph100/DW-Spectrum/pkg/models"
)

var errBoom = errors.New("boom")

func TestCacheKeepsLastGoodSnapshot(t *testing.T) {
	var fail atomic.Bool
	n := 0
	c := NewCache("test", time.Minute, func(context.Context) (int, error) {
		if fail.Load() {
			return 0, errBoom
		}
		n++
		return n, nil
	})

	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.Available())

	v, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, c.Available())
	assert.False(t, c.Updated().IsZero())

	fail.Store(true)
	v, err = c.Refresh(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, v)
	assert.False(t, c.Available())
	assert.ErrorIs(t, c.LastError(), errBoom)

	cur, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, 1, cur)

	fail.Store(false)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Available())
	assert.NoError(t, c.LastError())
}

func TestCacheNotifiesSubscribers(t *testing.T) {
	c := NewCache("test", time.Minute, func(context.Context) (string, error) { return "snap", nil })

	var got []string
	unsub := c.Subscribe(func(s string) { got = append(got, s) })

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	unsub()
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"snap"}, got)
}

func TestCacheFailureDoesNotNotify(t *testing.T) {
	c := NewCache("test", time.Minute, func(context.Context) (int, error) { return 0, errBoom })
	called := false
	c.Subscribe(func(int) { called = true })

	_, err := c.Refresh(context.Background())
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRunRefreshesOnRequest(t *testing.T) {
	var calls atomic.Int32
	c := NewCache("test", time.Hour, func(context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.RequestRefresh()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunTicks(t *testing.T) {
	var calls atomic.Int32
	c := NewCache("test", 10*time.Millisecond, func(context.Context) (int32, error) {
		return calls.Add(1), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRequestRefreshNeverBlocks(t *testing.T) {
	c := NewCache("test", time.Hour, func(context.Context) (int, error) { return 0, nil })
	for i := 0; i < 10; i++ {
		c.RequestRefresh()
	}
}

type fakeAPI struct {
	cameras    []models.Device
	camerasErr error

	infoErr    error
	usersErr   error
	licenseErr error

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	failIDs  map[string]bool
	delay    time.Duration
}

func (f *fakeAPI) GetCameras(context.Context) ([]models.Device, error) {
	return f.cameras, f.camerasErr
}

func (f *fakeAPI) GetSystemInfo(context.Context) (models.SystemInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return models.SystemInfo{"name": "HQ"}, nil
}

func (f *fakeAPI) GetUsers(context.Context) ([]models.User, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return []models.User{{ID: "u1", Name: "admin"}}, nil
}

func (f *fakeAPI) GetLicenseSummary(context.Context) (models.LicenseSummary, error) {
	if f.licenseErr != nil {
		return nil, f.licenseErr
	}
	return models.LicenseSummary{"total": 4}, nil
}

func (f *fakeAPI) GetDeviceStatus(_ context.Context, id string) (models.DeviceStatus, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.failIDs[id] {
		return nil, errBoom
	}
	return models.DeviceStatus{"status": "Online", "id": id}, nil
}

func cameras(n int) []models.Device {
	out := make([]models.Device, n)
	for i := range out {
		out[i] = models.Device{ID: fmt.Sprintf("cam-%02d", i), DeviceType: "Camera"}
	}
	return out
}

func TestServerPollerDegradesOptionalParts(t *testing.T) {
	api := &fakeAPI{usersErr: errBoom, licenseErr: errBoom}
	p := NewServerPoller(api, 0)
	assert.Equal(t, ServerInterval, p.Interval())

	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HQ", snap.SystemInfo["name"])
	assert.NotNil(t, snap.Users)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.License)
	assert.True(t, p.Available())
}

func TestServerPollerRequiresSystemInfo(t *testing.T) {
	api := &fakeAPI{infoErr: errBoom}
	p := NewServerPoller(api, 0)

	_, err := p.Refresh(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, p.Available())
}

func TestServerPollerFullSnapshot(t *testing.T) {
	p := NewServerPoller(&fakeAPI{}, 0)

	snap, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, 4, snap.License["total"])
}

func TestStatusPollerBoundsConcurrency(t *testing.T) {
	api := &fakeAPI{cameras: cameras(20), delay: 20 * time.Millisecond}
	devices := NewDevicePoller(api, 0)
	_, err := devices.Refresh(context.Background())
	require.NoError(t, err)

	status := NewStatusPoller(api, devices, 0)
	snap, err := status.Refresh(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap, 20)
	assert.LessOrEqual(t, api.maxSeen, MaxStatusRequests)
	assert.Greater(t, api.maxSeen, 1)
}

func TestStatusPollerIsolatesFailures(t *testing.T) {
	api := &fakeAPI{cameras: cameras(3), failIDs: map[string]bool{"cam-01": true}}
	devices := NewDevicePoller(api, 0)
	_, err := devices.Refresh(context.Background())
	require.NoError(t, err)

	snap, err := NewStatusPoller(api, devices, 0).Refresh(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap, "cam-00")
	assert.NotContains(t, snap, "cam-01")
	assert.Contains(t, snap, "cam-02")
}

func TestStatusPollerWithoutDevices(t *testing.T) {
	api := &fakeAPI{}
	devices := NewDevicePoller(api, 0)

	snap, err := NewStatusPoller(api, devices, 0).Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestDeviceUpdateRequestsStatusRefresh(t *testing.T) {
	api := &fakeAPI{cameras: cameras(2)}
	devices := NewDevicePoller(api, 0)
	status := NewStatusPoller(api, devices, time.Hour)
	unlink := LinkStatus(devices, status)
	defer unlink()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go status.Run(ctx)

	// The first status cycle runs before any camera is known.
	require.Eventually(t, status.Available, time.Second, 5*time.Millisecond)

	_, err := devices.Refresh(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, _ := status.Current()
		return len(snap) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDevicePollerFailureKeepsCameras(t *testing.T) {
	api := &fakeAPI{cameras: cameras(2)}
	devices := NewDevicePoller(api, 0)
	_, err := devices.Refresh(context.Background())
	require.NoError(t, err)

	api.camerasErr = errBoom
	_, err = devices.Refresh(context.Background())
	assert.Error(t, err)

	cams, ok := devices.Current()
	assert.True(t, ok)
	assert.Len(t, cams, 2)
	assert.False(t, devices.Available())
}
