package eeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
)

const (
	sessionPath   = "/v1/session"
	mapPath       = "/v1/map"
	thumbnailPath = "/v1/thumbnail"
)

// HTTPAPIClient talks JSON over HTTP to the compute service.
type HTTPAPIClient struct {
	baseURL string
	doer    httpextra.Doer
}

func NewHTTPAPIClient(baseURL string, doer httpextra.Doer) *HTTPAPIClient {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HTTPAPIClient{baseURL: baseURL, doer: doer}
}

func (c *HTTPAPIClient) InitializeSession(ctx context.Context, token string) errorsx.Error {
	reqBody := struct {
		Token string `json:"token"`
	}{token}

	resp, err := c.postJSON(ctx, sessionPath, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return eelayer.Errorf(eelayer.ErrAuthRejected, "session initialization refused (status %d): %s",
			resp.StatusCode, httpextra.GetBodyOrErrorMsg(resp))
	default:
		return eelayer.Errorf(eelayer.ErrRemoteService, "session initialization failed (status %d): %s",
			resp.StatusCode, httpextra.GetBodyOrErrorMsg(resp))
	}
}

func (c *HTTPAPIClient) GetMapDescriptor(ctx context.Context, handle *eelayer.ObjectHandle, visParams eelayer.VisParams) (*MapDescriptor, errorsx.Error) {
	reqBody := struct {
		Object    json.RawMessage   `json:"object"`
		VisParams eelayer.VisParams `json:"visParams,omitempty"`
	}{json.RawMessage(handle.Ref), visParams}

	resp, err := c.postJSON(ctx, mapPath, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	statusErr := httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode)
	if statusErr != nil {
		return nil, eelayer.Errorf(eelayer.ErrRemoteService, "map descriptor request failed: %s: %s",
			statusErr, httpextra.GetBodyOrErrorMsg(resp))
	}

	descriptor := new(MapDescriptor)
	decodeErr := json.NewDecoder(resp.Body).Decode(descriptor)
	if decodeErr != nil {
		return nil, eelayer.Errorf(eelayer.ErrRemoteService, "couldn't decode map descriptor response")
	}

	return descriptor, nil
}

func (c *HTTPAPIClient) GetAnimatedThumbnailURL(ctx context.Context, handle *eelayer.ObjectHandle, params ThumbnailParams) (string, errorsx.Error) {
	// vis params first, computed fields afterwards: dimensions, region and
	// crs must not be silently overridden by caller configuration
	reqBody := make(map[string]interface{}, len(params.VisParams)+4)
	for k, v := range params.VisParams {
		reqBody[k] = v
	}
	reqBody["object"] = json.RawMessage(handle.Ref)
	reqBody["dimensions"] = params.Dimensions
	reqBody["region"] = params.Region
	reqBody["crs"] = params.CRS

	resp, err := c.postJSON(ctx, thumbnailPath, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	statusErr := httpextra.CheckResponseCode(http.StatusOK, resp.StatusCode)
	if statusErr != nil {
		return "", eelayer.Errorf(eelayer.ErrRemoteService, "animated thumbnail request failed: %s: %s",
			statusErr, httpextra.GetBodyOrErrorMsg(resp))
	}

	respBody := struct {
		URL string `json:"url"`
	}{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&respBody)
	if decodeErr != nil {
		return "", eelayer.Errorf(eelayer.ErrRemoteService, "couldn't decode animated thumbnail response")
	}

	return respBody.URL, nil
}

func (c *HTTPAPIClient) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, errorsx.Error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, eelayer.Errorf(eelayer.ErrRemoteService, "request to %q failed", path)
	}

	return resp, nil
}
