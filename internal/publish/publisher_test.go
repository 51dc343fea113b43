package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igraph100/DW-Spectrum/internal/client"
	"github.com/igraph100/DW-Spectrum/internal/events"
	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/schedule"
	"github.com/igraph100/DW-Spectrum/internal/store"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

type memoryBroker struct {
	mu       sync.Mutex
	messages map[string][]byte
	fail     bool
}

func (b *memoryBroker) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker down")
	}
	if b.messages == nil {
		b.messages = map[string][]byte{}
	}
	b.messages[topic] = payload
	return nil
}

func (b *memoryBroker) Close() {}

func (b *memoryBroker) get(topic string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.messages[topic]
	return m, ok
}

type stubAPI struct{}

func (stubAPI) GetCameras(context.Context) ([]models.Device, error) {
	return []models.Device{{ID: "cam-1", Name: "Gate", DeviceType: "Camera", PhysicalID: "AA:BB:CC:DD:EE:FF"}}, nil
}

func (stubAPI) GetSystemInfo(context.Context) (models.SystemInfo, error) {
	return models.SystemInfo{"id": "sys-1", "name": "HQ"}, nil
}

func (stubAPI) GetUsers(context.Context) ([]models.User, error) {
	return []models.User{{ID: "u1", IsEnabled: true, Raw: map[string]any{"name": "ops", "isAdmin": true}}}, nil
}

func (stubAPI) GetLicenseSummary(context.Context) (models.LicenseSummary, error) {
	return models.LicenseSummary{"total": 4.0, "used": 1.0}, nil
}

func (stubAPI) GetDeviceStatus(context.Context, string) (models.DeviceStatus, error) {
	return models.DeviceStatus{"status": "Online"}, nil
}

func (stubAPI) GetDeviceImage(context.Context, string) ([]byte, error) { return nil, nil }
func (stubAPI) SetScheduleEnabled(context.Context, string, bool) error { return nil }
func (stubAPI) SetRecordingMode(context.Context, string, schedule.Mode) error { return nil }
func (stubAPI) SetUserEnabled(context.Context, string, bool) error { return nil }
func (stubAPI) Logout(context.Context) {}

func newInstance(t *testing.T) *integration.Instance {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	n := events.NewNotifier()
	t.Cleanup(func() {
		n.Close()
		db.Close()
	})
	inst, err := integration.New("e1", client.ClientConfig{Host: "vms", Port: 7001}, stubAPI{}, db, n, integration.Intervals{})
	require.NoError(t, err)
	return inst
}

func TestPublisherFollowsSnapshots(t *testing.T) {
	inst := newInstance(t)
	b := &memoryBroker{}
	p := New(b, "", inst)
	p.Start()
	defer p.Stop()

	require.NoError(t, inst.Refresh(context.Background()))

	raw, ok := b.get("spectrum/e1/cameras")
	require.True(t, ok)
	var cams []CameraState
	require.NoError(t, json.Unmarshal(raw, &cams))
	require.Len(t, cams, 1)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cams[0].MAC)
	assert.Equal(t, map[string]string{"status": "Online"}, cams[0].Status)
	assert.False(t, cams[0].RecordingEnabled)

	raw, ok = b.get("spectrum/e1/server")
	require.True(t, ok)
	var srv ServerState
	require.NoError(t, json.Unmarshal(raw, &srv))
	assert.Equal(t, integration.ServerIdentity{ID: "sys-1", Name: "HQ"}, srv.Identity)
	require.NotNil(t, srv.Licenses.Available)
	assert.Equal(t, 3, *srv.Licenses.Available)
	require.Len(t, srv.Users, 1)
	assert.Equal(t, "admin", srv.Users[0].Role)

	_, ok = b.get("spectrum/e1/status")
	assert.True(t, ok)
}

func TestPublisherStreamBlock(t *testing.T) {
	inst := newInstance(t)
	b := &memoryBroker{}
	p := New(b, "home/vms", inst)
	p.Start()
	defer p.Stop()

	require.NoError(t, inst.SetStreamBlocked("cam-1", true))

	require.Eventually(t, func() bool {
		_, ok := b.get("home/vms/e1/stream_blocked")
		return ok
	}, time.Second, 5*time.Millisecond)

	raw, _ := b.get("home/vms/e1/stream_blocked")
	assert.JSONEq(t, `{"instance":"e1","camera_id":"cam-1","blocked":true}`, string(raw))
}

func TestPublisherStop(t *testing.T) {
	inst := newInstance(t)
	b := &memoryBroker{}
	p := New(b, "", inst)
	p.Start()
	p.Stop()

	require.NoError(t, inst.Refresh(context.Background()))
	_, ok := b.get("spectrum/e1/cameras")
	assert.False(t, ok)
}

func TestPublishFailureIsLogged(t *testing.T) {
	inst := newInstance(t)
	b := &memoryBroker{fail: true}
	p := New(b, "", inst)

	assert.NotPanics(t, p.PublishCameras)
	assert.Equal(t, "spectrum/e1/server", p.Topic("server"))
}
