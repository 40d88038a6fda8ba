package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wesm/htb-notion-sync/config"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"github.com/wesm/htb-notion-sync/internal/models"
)

// notionQueryPageSize is the largest page size the query endpoint accepts
const notionQueryPageSize = 100

// NotionClient represents a client for the Notion API
type NotionClient struct {
	rest    restClient
	baseURL string
}

// NewNotionClient creates a new Notion API client
func NewNotionClient(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *NotionClient {
	headers := map[string]string{
		"Notion-Version": cfg.NotionVersion,
	}

	return &NotionClient{
		rest: restClient{
			service: "notion",
			http:    newHTTPClient(cfg.NotionToken, headers, cfg.Timeout),
			logger:  logger,
			metrics: m,
		},
		baseURL: strings.TrimSuffix(cfg.NotionAPIBaseURL, "/"),
	}
}

// GetExistingPages queries every page of the database and returns them keyed
// by machine ID. Pages without an ID are skipped; two pages with the same ID
// are rejected with ErrDuplicateMachineID.
func (c *NotionClient) GetExistingPages(ctx context.Context, databaseID string) (map[int64]models.PageRef, error) {
	c.rest.logger.Debug().Str("database", databaseID).Msg("Getting Notion existing pages")

	endpoint := fmt.Sprintf("%s/databases/%s/query", c.baseURL, url.PathEscape(databaseID))
	query := DatabaseQueryRequest{PageSize: notionQueryPageSize}
	existing := make(map[int64]models.PageRef)

	for {
		var resp DatabaseQueryResponse
		if err := c.rest.do(ctx, http.MethodPost, endpoint, query, &resp); err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}

		for _, page := range resp.Results {
			if page.Properties.ID.Number == nil {
				c.rest.logger.Warn().Str("page_id", page.ID).Msg("Skipping page without machine ID")
				continue
			}

			ref := ConvertNotionPage(page)
			if prev, ok := existing[ref.MachineID]; ok {
				return nil, fmt.Errorf("%w: machine %d is on pages %s and %s",
					ErrDuplicateMachineID, ref.MachineID, prev.PageID, ref.PageID)
			}
			existing[ref.MachineID] = ref
		}

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		query.StartCursor = *resp.NextCursor
	}

	return existing, nil
}

// CreatePage creates a page for machine in the database and returns its ID
func (c *NotionClient) CreatePage(ctx context.Context, databaseID string, machine models.Machine, children []Block) (string, error) {
	c.rest.logger.Debug().Str("machine", machine.Name).Msg("Creating page")

	var created Page
	req := BuildCreatePageRequest(databaseID, machine, children)
	if err := c.rest.do(ctx, http.MethodPost, c.baseURL+"/pages", req, &created); err != nil {
		return "", fmt.Errorf("failed to create page for %s: %w", machine.Name, err)
	}
	return created.ID, nil
}

// UpdatePage overwrites the comparable properties of an existing page
func (c *NotionClient) UpdatePage(ctx context.Context, pageID string, machine models.Machine) error {
	c.rest.logger.Debug().Str("machine", machine.Name).Str("page_id", pageID).Msg("Updating page properties")

	endpoint := fmt.Sprintf("%s/pages/%s", c.baseURL, url.PathEscape(pageID))
	req := BuildUpdatePageRequest(machine)
	if err := c.rest.do(ctx, http.MethodPatch, endpoint, req, nil); err != nil {
		return fmt.Errorf("failed to update page for %s: %w", machine.Name, err)
	}
	return nil
}

// BuildCreatePageRequest builds the full initial property set for a new page
func BuildCreatePageRequest(databaseID string, m models.Machine, children []Block) CreatePageRequest {
	id := float64(m.ID)

	return CreatePageRequest{
		Parent: Parent{DatabaseID: databaseID},
		Icon: &Icon{
			Type:     "external",
			External: ExternalFile{URL: m.AvatarURL},
		},
		Properties: PageProperties{
			Name:                 TitleProperty{Title: []RichText{Text(m.Name)}},
			ID:                   NumberProperty{Number: &id},
			OS:                   SelectProperty{Select: &SelectOption{Name: m.OS}},
			ReleaseDate:          DateProperty{Date: &DateValue{Start: m.ReleaseDate}},
			ComparableProperties: ConvertProperties(m.Properties()),
		},
		Children: children,
	}
}

// BuildUpdatePageRequest builds the six-property patch for an existing page
func BuildUpdatePageRequest(m models.Machine) UpdatePageRequest {
	return UpdatePageRequest{Properties: ConvertProperties(m.Properties())}
}

// ConvertProperties converts comparable model properties to their Notion form
func ConvertProperties(p models.Properties) ComparableProperties {
	rating := p.Rating
	difficultyRating := p.DifficultyRating

	return ComparableProperties{
		Difficulty:       SelectProperty{Select: &SelectOption{Name: p.Difficulty}},
		Rating:           NumberProperty{Number: &rating},
		DifficultyRating: NumberProperty{Number: &difficultyRating},
		Retired:          CheckboxProperty{Checkbox: p.Retired},
		UserOwn:          CheckboxProperty{Checkbox: p.UserOwn},
		SystemOwn:        CheckboxProperty{Checkbox: p.SystemOwn},
	}
}

// ConvertNotionPage converts a queried page to our model. Empty select or
// number values mark the reference as incomplete.
func ConvertNotionPage(page Page) models.PageRef {
	props := page.Properties
	ref := models.PageRef{
		PageID: page.ID,
		Properties: models.Properties{
			Retired:   props.Retired.Checkbox,
			UserOwn:   props.UserOwn.Checkbox,
			SystemOwn: props.SystemOwn.Checkbox,
		},
	}

	if props.ID.Number != nil {
		ref.MachineID = int64(*props.ID.Number)
	}

	if props.Difficulty.Select != nil {
		ref.Properties.Difficulty = props.Difficulty.Select.Name
	} else {
		ref.Incomplete = true
	}
	if props.Rating.Number != nil {
		ref.Properties.Rating = *props.Rating.Number
	} else {
		ref.Incomplete = true
	}
	if props.DifficultyRating.Number != nil {
		ref.Properties.DifficultyRating = *props.DifficultyRating.Number
	} else {
		ref.Incomplete = true
	}

	return ref
}
