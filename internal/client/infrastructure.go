package client

import (
	"context"
	"net/http"

	"github.com/igraph100/DW-Spectrum/pkg/models"
)

const (
	systemInfoPath     = APIPrefix + "/system/info"
	usersPath          = APIPrefix + "/users"
	userPath           = APIPrefix + "/users/{id}"
	licenseSummaryPath = APIPrefix + "/licenses/*/summary"
)

// GetSystemInfo fetches the server/system description.
func (c *SpectrumClient) GetSystemInfo(ctx context.Context) (models.SystemInfo, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: systemInfoPath})
	if err != nil {
		return nil, err
	}
	if !isObject(body) {
		return nil, shapeError(http.MethodGet, systemInfoPath)
	}

	var info models.SystemInfo
	if err := decodeInto(http.MethodGet, systemInfoPath, body, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetUsers fetches the user accounts of the system.
func (c *SpectrumClient) GetUsers(ctx context.Context) ([]models.User, error) {
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   usersPath,
		query:  map[string]string{"_with": models.UserFields},
	})
	if err != nil {
		return nil, err
	}

	list, ok := unwrapList(body, "items", "data", "users")
	if !ok {
		return nil, shapeError(http.MethodGet, usersPath)
	}

	var users []models.User
	if err := decodeInto(http.MethodGet, usersPath, list, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserEnabled enables or disables a user account.
func (c *SpectrumClient) SetUserEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := c.do(ctx, request{
		method:     http.MethodPatch,
		path:       userPath,
		pathParams: map[string]string{"id": id},
		body:       models.UserEnabledPatch{IsEnabled: enabled},
	})
	return err
}

// GetLicenseSummary fetches the license summary. A list reply is wrapped
// as {"items": [...]}, any other non-object as {"raw": ...}.
func (c *SpectrumClient) GetLicenseSummary(ctx context.Context) (models.LicenseSummary, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: licenseSummaryPath})
	if err != nil {
		return nil, err
	}

	var v any
	if len(body) > 0 {
		if err := decodeInto(http.MethodGet, licenseSummaryPath, body, &v); err != nil {
			return nil, err
		}
	}

	switch t := v.(type) {
	case map[string]any:
		return models.LicenseSummary(t), nil
	case []any:
		return models.LicenseSummary{"items": t}, nil
	}
	return models.LicenseSummary{"raw": v}, nil
}
