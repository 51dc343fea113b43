package integration

import (
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/igraph100/DW-Spectrum/internal/decode"
	"github.com/igraph100/DW-Spectrum/internal/license"
	"github.com/igraph100/DW-Spectrum/pkg/models"
)

const defaultServerName = "DW Spectrum Server"

// ServerIdentity names the server a connection points at.
type ServerIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity derives the server identity from the system info, falling back
// to host:port and a generic name.
func Identity(info models.SystemInfo, host string, port int) ServerIdentity {
	id := ServerIdentity{Name: defaultServerName}
	if v, ok := decode.Pick(info, "id", "systemId", "system_id"); ok {
		id.ID = cast.ToString(v)
	}
	if id.ID == "" {
		id.ID = net.JoinHostPort(host, strconv.Itoa(port))
	}
	if v, ok := decode.Pick(info, "name", "systemName"); ok {
		if s := cast.ToString(v); s != "" {
			id.Name = s
		}
	}
	return id
}

func (i *Instance) ServerIdentity() ServerIdentity {
	snap, _ := i.Server.Current()
	return Identity(snap.SystemInfo, i.Config.Host, i.Config.Port)
}

// CameraCount is the number of cameras in the device snapshot; ok is false
// before the first successful poll.
func (i *Instance) CameraCount() (n int, ok bool) {
	cams, ok := i.Devices.Current()
	return len(cams), ok
}

// Licenses returns the normalised license counts with Available derived
// from total and used whenever both are known.
func (i *Instance) Licenses() license.Counts {
	snap, _ := i.Server.Current()
	c := license.Extract(snap.License)
	c.Available = c.Remaining()
	return c
}

// CameraStatus returns the status fields of a camera rendered as strings.
// Fields the server did not report are absent.
func (i *Instance) CameraStatus(cameraID string) map[string]string {
	snap, _ := i.Status.Current()
	payload := snap[cameraID]

	out := make(map[string]string, len(models.StatusKeys))
	for _, k := range models.StatusKeys {
		if v, ok := payload[k]; ok && v != nil {
			out[k] = cast.ToString(v)
		}
	}
	return out
}

// Users returns the users of the server snapshot.
func (i *Instance) Users() []models.User {
	snap, _ := i.Server.Current()
	return snap.Users
}

// UserAttributes is the profile of a user as far as the server exposes it.
// Nil fields were not reported.
type UserAttributes struct {
	UserID       string `json:"user_id"`
	FullName     any    `json:"full_name,omitempty"`
	Username     any    `json:"username,omitempty"`
	Email        any    `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Group        any    `json:"group,omitempty"`
	CloudUser    *bool  `json:"cloud_user,omitempty"`
	Enabled      bool   `json:"enabled"`
	IsAdmin      *bool  `json:"is_admin,omitempty"`
	IsPowerUser  *bool  `json:"is_power_user,omitempty"`
	IsLiveViewer *bool  `json:"is_live_viewer,omitempty"`
	CreatedAt    any    `json:"created_at,omitempty"`
	LastLogin    any    `json:"last_login,omitempty"`
	Permissions  any    `json:"permissions,omitempty"`
}

// Attributes probes the raw user object for the fields different server
// builds use.
func Attributes(u models.User) UserAttributes {
	raw := u.Raw
	if raw == nil {
		raw = map[string]any{}
	}
	pick := func(keys ...string) any {
		v, _ := decode.Pick(raw, keys...)
		return v
	}
	flag := func(keys ...string) *bool {
		v, ok := decode.Pick(raw, keys...)
		if !ok {
			return nil
		}
		b, ok := decode.ToBool(v)
		if !ok {
			return nil
		}
		return &b
	}

	attrs := UserAttributes{
		UserID:       u.ID,
		FullName:     pick("fullName", "name", "displayName"),
		Username:     pick("username", "login", "userName"),
		Email:        pick("email", "userEmail", "mail"),
		Role:         InferRole(raw),
		Group:        pick("group", "userGroup"),
		CloudUser:    flag("isCloud", "cloud", "cloudUser", "isCloudUser"),
		Enabled:      u.IsEnabled,
		IsAdmin:      flag("isAdmin", "admin"),
		IsPowerUser:  flag("isPowerUser"),
		IsLiveViewer: flag("isLiveViewer"),
		CreatedAt:    pick("createdAt", "created_at"),
		LastLogin:    pick("lastLogin", "last_login"),
	}
	switch p := pick("permissions", "permission", "access", "rights").(type) {
	case []any, map[string]any:
		attrs.Permissions = p
	}
	return attrs
}

// InferRole returns the first textual role field, then a role implied by the
// admin/power user/live viewer flags, then a numeric role id.
func InferRole(u map[string]any) string {
	for _, k := range []string{"role", "userRole", "user_role", "type", "userType", "group", "userGroup", "accessRole"} {
		if s, ok := u[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	isTrue := func(k string) bool {
		b, ok := decode.ToBool(u[k])
		return ok && b
	}
	switch {
	case isTrue("isAdmin") || isTrue("admin"):
		return "admin"
	case isTrue("isPowerUser"):
		return "power_user"
	case isTrue("isLiveViewer"):
		return "live_viewer"
	}

	for _, k := range []string{"roleId", "role_id", "accessLevel"} {
		switch v := u[k].(type) {
		case float64:
			if v == 0 {
				continue
			}
			return strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			if v == "" {
				continue
			}
			if s := strings.TrimSpace(v); s != "" && isDigits(s) {
				return s
			}
			return ""
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
