package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/citeflex/pkg/cite"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholarProvider searches the Semantic Scholar graph API.
// Strong for psychology and social science literature.
type SemanticScholarProvider struct {
	httpClient HTTPClient
	baseURL    string
}

// NewSemanticScholarProvider creates the provider with a rate-limited
// default client when none is given.
func NewSemanticScholarProvider(httpClient HTTPClient) *SemanticScholarProvider {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(nil, time.Second)
	}
	return &SemanticScholarProvider{
		httpClient: httpClient,
		baseURL:    semanticScholarBaseURL,
	}
}

func (p *SemanticScholarProvider) Name() string { return "Semantic Scholar" }

type semanticScholarResponse struct {
	Data []struct {
		Title   string `json:"title"`
		Year    int    `json:"year"`
		Venue   string `json:"venue"`
		URL     string `json:"url"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
		ExternalIDs struct {
			DOI string `json:"DOI"`
		} `json:"externalIds"`
		Journal *struct {
			Name   string `json:"name"`
			Volume string `json:"volume"`
			Pages  string `json:"pages"`
		} `json:"journal"`
	} `json:"data"`
}

// Search issues a structured author+year query and converts the top
// paper into a metadata record.
func (p *SemanticScholarProvider) Search(ctx context.Context, query Query) (*cite.Metadata, error) {
	searchQuery := query.Simple()
	if query.Text == "" {
		// Semantic Scholar accepts fielded queries.
		searchQuery = fmt.Sprintf("author:%s year:%s", query.Author, query.Year)
	}

	params := url.Values{}
	params.Set("query", searchQuery)
	params.Set("limit", "5")
	params.Set("fields", "title,year,venue,url,authors,externalIds,journal")

	requestURL := fmt.Sprintf("%s/paper/search?%s", p.baseURL, params.Encode())
	body, err := getJSON(ctx, p.httpClient, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar search failed: %w", err)
	}

	var response semanticScholarResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("semantic scholar response malformed: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, nil
	}

	paper := response.Data[0]
	metadata := &cite.Metadata{
		Kind:         cite.KindJournal,
		Title:        strings.TrimSpace(paper.Title),
		URL:          paper.URL,
		DOI:          paper.ExternalIDs.DOI,
		SourceEngine: p.Name(),
	}
	if paper.Year > 0 {
		metadata.Year = strconv.Itoa(paper.Year)
	}
	for _, author := range paper.Authors {
		if name := strings.TrimSpace(author.Name); name != "" {
			metadata.Authors = append(metadata.Authors, name)
		}
	}
	if paper.Journal != nil && paper.Journal.Name != "" {
		metadata.Container = paper.Journal.Name
		metadata.Volume = paper.Journal.Volume
		metadata.Pages = paper.Journal.Pages
	} else {
		metadata.Container = paper.Venue
	}
	return metadata, nil
}

// getJSON performs a GET request with optional headers and returns the
// response body. Non-200 statuses are errors.
func getJSON(ctx context.Context, client HTTPClient, requestURL string, headers map[string]string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "citeflex/1.0 (citation resolver)")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", response.StatusCode, string(body))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
