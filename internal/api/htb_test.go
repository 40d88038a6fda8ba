package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/htb-notion-sync/config"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"github.com/wesm/htb-notion-sync/internal/models"
)

func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.HTBToken = "htb-token"
	cfg.NotionToken = "notion-token"
	cfg.NotionDatabaseID = "db-1"
	cfg.HTBBaseURL = "https://htb.example"
	cfg.HTBAPIBaseURL = serverURL + "/api/v4"
	cfg.NotionAPIBaseURL = serverURL + "/v1"
	return cfg
}

func TestConvertHTBMachine(t *testing.T) {
	m := HTBMachine{
		ID:                 42,
		Name:               "Lame",
		OS:                 "Linux",
		DifficultyText:     "Easy",
		Star:               4.5,
		Difficulty:         20,
		AuthUserInUserOwns: true,
		AuthUserInRootOwns: false,
		Release:            "2017-03-14T19:00:00.000000Z",
		Avatar:             "/storage/avatars/lame.png",
	}

	got := ConvertHTBMachine(m, true, "https://www.hackthebox.com")

	assert.Equal(t, models.Machine{
		ID:               42,
		Name:             "Lame",
		OS:               "Linux",
		Difficulty:       "Easy",
		Rating:           4.5,
		DifficultyRating: 20,
		Retired:          true,
		UserOwn:          true,
		SystemOwn:        false,
		ReleaseDate:      "2017-03-14",
		AvatarURL:        "https://www.hackthebox.com/storage/avatars/lame.png",
	}, got)
}

func TestConvertHTBMachine_DateOnlyRelease(t *testing.T) {
	got := ConvertHTBMachine(HTBMachine{Release: "2024-01-06"}, false, "")
	assert.Equal(t, "2024-01-06", got.ReleaseDate)
}

func TestGetMachines_FollowsNextLinks(t *testing.T) {
	var requests []string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())

		assert.Equal(t, "Bearer htb-token", r.Header.Get("Authorization"))
		assert.Equal(t, config.HTBUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodGet, r.Method)

		switch r.URL.Query().Get("page") {
		case "":
			fmt.Fprintf(w, `{"data":[{"id":1,"name":"One","release":"2020-01-01T00:00:00Z"}],"links":{"next":"%s/api/v4/machine/list/retired/paginated?per_page=50&page=2"}}`, server.URL)
		case "2":
			fmt.Fprint(w, `{"data":[{"id":2,"name":"Two"},{"id":3,"name":"Three"}],"links":{"next":null}}`)
		default:
			t.Errorf("unexpected page request %s", r.URL)
		}
	}))
	defer server.Close()

	m := metrics.New()
	client := NewHTBClient(testConfig(server.URL), zerolog.Nop(), m)

	machines, err := client.GetMachines(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, machines, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{machines[0].ID, machines[1].ID, machines[2].ID})
	for _, machine := range machines {
		assert.True(t, machine.Retired)
	}
	assert.Equal(t, "/api/v4/machine/list/retired/paginated?per_page=50", requests[0])
	assert.Len(t, requests, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MachinesFetched.WithLabelValues("retired")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("htb", "200")))
}

func TestGetMachines_ActiveEndpoint(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"data":[{"id":7,"name":"Active"}],"links":{}}`)
	}))
	defer server.Close()

	client := NewHTBClient(testConfig(server.URL), zerolog.Nop(), nil)
	machines, err := client.GetMachines(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "/api/v4/machine/paginated", path)
	require.Len(t, machines, 1)
	assert.False(t, machines[0].Retired)
}

func TestGetMachines_StopsOnErrorStatus(t *testing.T) {
	calls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprintf(w, `{"data":[{"id":1}],"links":{"next":"%s/api/v4/machine/paginated?page=2"}}`, server.URL)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"slow down"}`)
	}))
	defer server.Close()

	client := NewHTBClient(testConfig(server.URL), zerolog.Nop(), nil)
	machines, err := client.GetMachines(context.Background(), false)

	require.Error(t, err)
	assert.Nil(t, machines)
	assert.Equal(t, 2, calls)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "htb", apiErr.Service)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "slow down")
}

func TestGetMachines_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := NewHTBClient(testConfig(server.URL), zerolog.Nop(), nil)
	_, err := client.GetMachines(context.Background(), false)

	require.Error(t, err)
	_, ok := AsAPIError(err)
	assert.False(t, ok)
}
