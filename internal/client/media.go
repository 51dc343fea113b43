package client

import (
	"context"
	"errors"
	"net/http"
)

const deviceImagePath = APIPrefix + "/devices/{id}/image"

// GetDeviceImage downloads the current thumbnail for the given device.
// It follows the same token and retry contract as the JSON calls.
func (c *SpectrumClient) GetDeviceImage(ctx context.Context, id string) ([]byte, error) {
	body, err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       deviceImagePath,
		pathParams: map[string]string{"id": id},
		accept:     "image/jpeg,image/png,*/*",
	})
	if err != nil {
		return nil, err
	}

	if len(body) == 0 {
		return nil, &RequestError{Method: http.MethodGet, Path: deviceImagePath, Err: errors.New("response body is empty")}
	}

	c.log.WithField("device", id).WithField("bytes", len(body)).Debug("image received")
	return body, nil
}
