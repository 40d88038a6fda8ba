package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wesm/htb-notion-sync/config"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"github.com/wesm/htb-notion-sync/internal/models"
)

// HTBMachine is a machine entry as returned by the HTB list endpoints
type HTBMachine struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	OS                 string  `json:"os"`
	DifficultyText     string  `json:"difficultyText"`
	Star               float64 `json:"star"`
	Difficulty         int     `json:"difficulty"`
	AuthUserInUserOwns bool    `json:"authUserInUserOwns"`
	AuthUserInRootOwns bool    `json:"authUserInRootOwns"`
	Release            string  `json:"release"`
	Avatar             string  `json:"avatar"`
}

// htbListResponse is one page of a paginated machine list
type htbListResponse struct {
	Data  []HTBMachine `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// HTBClient represents a client for the HTB API
type HTBClient struct {
	rest     restClient
	baseURL  string
	apiURL   string
	pageSize int
}

// NewHTBClient creates a new HTB API client
func NewHTBClient(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *HTBClient {
	headers := map[string]string{
		"User-Agent": cfg.HTBUserAgent,
	}

	return &HTBClient{
		rest: restClient{
			service: "htb",
			http:    newHTTPClient(cfg.HTBToken, headers, cfg.Timeout),
			logger:  logger,
			metrics: m,
		},
		baseURL:  strings.TrimSuffix(cfg.HTBBaseURL, "/"),
		apiURL:   strings.TrimSuffix(cfg.HTBAPIBaseURL, "/"),
		pageSize: cfg.HTBPageSize,
	}
}

// GetMachines gets all machines with the given retirement status, following
// the next links until the last page
func (c *HTBClient) GetMachines(ctx context.Context, retired bool) ([]models.Machine, error) {
	status := "active"
	url := fmt.Sprintf("%s/machine/paginated?per_page=%d", c.apiURL, c.pageSize)
	if retired {
		status = "retired"
		url = fmt.Sprintf("%s/machine/list/retired/paginated?per_page=%d", c.apiURL, c.pageSize)
	}

	c.rest.logger.Debug().Str("status", status).Msg("Getting HTB machines")

	var machines []models.Machine
	for {
		var page htbListResponse
		if err := c.rest.do(ctx, http.MethodGet, url, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list %s machines: %w", status, err)
		}

		for _, m := range page.Data {
			machines = append(machines, ConvertHTBMachine(m, retired, c.baseURL))
		}

		if page.Links.Next == "" {
			break
		}
		url = page.Links.Next
	}

	c.rest.metrics.ObserveFetched(retired, len(machines))
	return machines, nil
}

// ConvertHTBMachine converts an HTB list entry to our model.
// The release timestamp is cut to its date and the avatar path is made absolute.
func ConvertHTBMachine(m HTBMachine, retired bool, origin string) models.Machine {
	releaseDate, _, _ := strings.Cut(m.Release, "T")

	return models.Machine{
		ID:               m.ID,
		Name:             m.Name,
		OS:               m.OS,
		Difficulty:       m.DifficultyText,
		Rating:           m.Star,
		DifficultyRating: m.Difficulty,
		Retired:          retired,
		UserOwn:          m.AuthUserInUserOwns,
		SystemOwn:        m.AuthUserInRootOwns,
		ReleaseDate:      releaseDate,
		AvatarURL:        origin + m.Avatar,
	}
}
