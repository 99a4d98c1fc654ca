package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"telecall/cmd/internal/ids"
)

type refreshPayload struct {
	SubjectID   string `json:"subject_id"`
	Role        string `json:"role"`
	DeviceClass string `json:"device_class"`
}

// callRefresh issues the refresh call directly on the cookie transport. New
// credentials come back as Set-Cookie headers and land in the jar.
func (c *Client) callRefresh(ctx context.Context) error {
	id, err := c.identity.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session identity: %w", err)
	}
	if err := id.Validate(); err != nil {
		return err
	}

	device := id.DeviceClass
	if device == "" {
		device = c.device
	}
	body, err := json.Marshal(refreshPayload{
		SubjectID:   id.SubjectID,
		Role:        string(id.Role),
		DeviceClass: string(device),
	})
	if err != nil {
		return err
	}

	u, err := c.endpoint(Request{Path: c.refreshPath})
	if err != nil {
		return err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(requestIDHeader, ids.RequestID())
	if c.csrfCookie != "" {
		for _, ck := range c.jar.Cookies(u) {
			if ck.Name == c.csrfCookie {
				hreq.Header.Set(c.csrfHeader, ck.Value)
				break
			}
		}
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		req := Request{Method: http.MethodPost, Path: c.refreshPath}
		return newHTTPError("apiclient.refresh", req, resp.StatusCode, data, ErrHTTPStatus)
	}
	return nil
}
