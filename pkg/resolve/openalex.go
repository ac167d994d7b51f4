package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/citeflex/pkg/cite"
)

const openAlexBaseURL = "https://api.openalex.org/works"

// OpenAlexProvider searches the OpenAlex works API. Open access, broad
// coverage.
type OpenAlexProvider struct {
	httpClient HTTPClient
	baseURL    string
}

// NewOpenAlexProvider creates the provider with a rate-limited default
// client when none is given.
func NewOpenAlexProvider(httpClient HTTPClient) *OpenAlexProvider {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(nil, time.Second)
	}
	return &OpenAlexProvider{
		httpClient: httpClient,
		baseURL:    openAlexBaseURL,
	}
}

func (p *OpenAlexProvider) Name() string { return "OpenAlex" }

type openAlexResponse struct {
	Results []struct {
		Title           string `json:"title"`
		PublicationYear int    `json:"publication_year"`
		DOI             string `json:"doi"`
		Authorships     []struct {
			Author struct {
				DisplayName string `json:"display_name"`
			} `json:"author"`
		} `json:"authorships"`
		PrimaryLocation *struct {
			Source *struct {
				DisplayName string `json:"display_name"`
			} `json:"source"`
			LandingPageURL string `json:"landing_page_url"`
		} `json:"primary_location"`
		Biblio struct {
			Volume    string `json:"volume"`
			Issue     string `json:"issue"`
			FirstPage string `json:"first_page"`
			LastPage  string `json:"last_page"`
		} `json:"biblio"`
	} `json:"results"`
}

// Search issues a plain concatenated query and converts the top work
// into a metadata record.
func (p *OpenAlexProvider) Search(ctx context.Context, query Query) (*cite.Metadata, error) {
	params := url.Values{}
	params.Set("search", query.Simple())
	params.Set("per-page", "5")

	requestURL := fmt.Sprintf("%s?%s", p.baseURL, params.Encode())
	body, err := getJSON(ctx, p.httpClient, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openalex search failed: %w", err)
	}

	var response openAlexResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("openalex response malformed: %w", err)
	}
	if len(response.Results) == 0 {
		return nil, nil
	}

	work := response.Results[0]
	metadata := &cite.Metadata{
		Kind:         cite.KindJournal,
		Title:        strings.TrimSpace(work.Title),
		DOI:          cite.NormalizeDOI(work.DOI),
		Volume:       work.Biblio.Volume,
		Issue:        work.Biblio.Issue,
		SourceEngine: p.Name(),
	}
	if work.PublicationYear > 0 {
		metadata.Year = strconv.Itoa(work.PublicationYear)
	}
	for _, authorship := range work.Authorships {
		if name := strings.TrimSpace(authorship.Author.DisplayName); name != "" {
			metadata.Authors = append(metadata.Authors, name)
		}
	}
	if work.PrimaryLocation != nil {
		if work.PrimaryLocation.Source != nil {
			metadata.Container = work.PrimaryLocation.Source.DisplayName
		}
		metadata.URL = work.PrimaryLocation.LandingPageURL
	}
	if work.Biblio.FirstPage != "" {
		metadata.Pages = work.Biblio.FirstPage
		if work.Biblio.LastPage != "" && work.Biblio.LastPage != work.Biblio.FirstPage {
			metadata.Pages += "-" + work.Biblio.LastPage
		}
	}
	return metadata, nil
}
