package eeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geolayers/eelayer/eelayer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HTTPAPIClient_InitializeSession(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantKind   error
	}{
		{"accepted", http.StatusOK, nil},
		{"unauthorized", http.StatusUnauthorized, eelayer.ErrAuthRejected},
		{"forbidden", http.StatusForbidden, eelayer.ErrAuthRejected},
		{"server failure", http.StatusInternalServerError, eelayer.ErrRemoteService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var receivedToken string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body := struct {
					Token string `json:"token"`
				}{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				receivedToken = body.Token

				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewHTTPAPIClient(server.URL, nil)

			err := client.InitializeSession(context.Background(), "my-token")
			if tt.wantKind == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, eelayer.IsKind(err, tt.wantKind))
			}
			assert.Equal(t, "my-token", receivedToken)
		})
	}
}

func Test_HTTPAPIClient_GetMapDescriptor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/map", r.URL.Path)

		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"kind": "Image", "expression": map[string]interface{}{}}, body["object"])
		assert.Equal(t, map[string]interface{}{"min": 0.0}, body["visParams"])

		json.NewEncoder(w).Encode(MapDescriptor{MapID: "map-1", URLTemplate: "https://tiles.example.com/map-1/{z}/{x}/{y}.png"})
	}))
	defer server.Close()

	client := NewHTTPAPIClient(server.URL, nil)
	handle := &eelayer.ObjectHandle{Kind: eelayer.ObjectKindImage, Ref: `{"kind":"Image","expression":{}}`}

	descriptor, err := client.GetMapDescriptor(context.Background(), handle, eelayer.VisParams{"min": 0.0})
	require.NoError(t, err)

	assert.Equal(t, "map-1", descriptor.MapID)
	assert.Equal(t, "https://tiles.example.com/map-1/{z}/{x}/{y}.png", descriptor.URLTemplate)
}

func Test_HTTPAPIClient_GetAnimatedThumbnailURL_computedFieldsWin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/thumbnail", r.URL.Path)

		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		// caller vis params are carried through, but must not override the
		// computed dimensions/region/crs
		assert.Equal(t, "B4", body["bands"])
		assert.Equal(t, "EPSG:3857", body["crs"])
		assert.Equal(t, []interface{}{256.0, 256.0}, body["dimensions"])

		json.NewEncoder(w).Encode(struct {
			URL string `json:"url"`
		}{"https://thumbs.example.com/abc"})
	}))
	defer server.Close()

	client := NewHTTPAPIClient(server.URL, nil)
	handle := &eelayer.ObjectHandle{Kind: eelayer.ObjectKindImageCollection, Ref: `[{"op":"load"}]`}

	url, err := client.GetAnimatedThumbnailURL(context.Background(), handle, ThumbnailParams{
		VisParams:  eelayer.VisParams{"bands": "B4", "crs": "EPSG:4326"},
		Dimensions: [2]int{256, 256},
		Region:     [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		CRS:        "EPSG:3857",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://thumbs.example.com/abc", url)
}
