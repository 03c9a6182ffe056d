package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocRenders(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]map[string]json.RawMessage
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "calendasync API", doc.Info.Title)

	// every route the router mounts, except the swagger UI itself
	routes := map[string][]string{
		"/auth/signup":                 {"post"},
		"/auth/login":                  {"post"},
		"/auth/otp":                    {"post"},
		"/auth/otp/verify":             {"post"},
		"/auth/reset-password":         {"post"},
		"/auth/reset-password/confirm": {"post"},
		"/users/me":                    {"get", "patch"},
		"/events":                      {"get", "post"},
		"/events/{eventID}":            {"get", "put", "delete"},
		"/calendar.ics":                {"get"},
		"/waitlist":                    {"post"},
		"/health":                      {"get"},
	}
	for path, methods := range routes {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
	assert.Len(t, doc.Paths, len(routes))
}
