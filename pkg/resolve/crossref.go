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

const crossrefBaseURL = "https://api.crossref.org/works"

// CrossrefProvider searches the Crossref works API. Comprehensive
// coverage and authoritative DOIs; register it with WithDOIBoost.
type CrossrefProvider struct {
	httpClient HTTPClient
	baseURL    string
}

// NewCrossrefProvider creates the provider with a rate-limited default
// client when none is given.
func NewCrossrefProvider(httpClient HTTPClient) *CrossrefProvider {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(nil, time.Second)
	}
	return &CrossrefProvider{
		httpClient: httpClient,
		baseURL:    crossrefBaseURL,
	}
}

func (p *CrossrefProvider) Name() string { return "Crossref" }

type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	Publisher      string   `json:"publisher"`
	Volume         string   `json:"volume"`
	Issue          string   `json:"issue"`
	Page           string   `json:"page"`
	DOI            string   `json:"DOI"`
	URL            string   `json:"URL"`
	Type           string   `json:"type"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
}

// Search issues a bibliographic query and converts the top item into a
// metadata record.
func (p *CrossrefProvider) Search(ctx context.Context, query Query) (*cite.Metadata, error) {
	params := url.Values{}
	params.Set("query.bibliographic", query.Simple())
	params.Set("rows", "5")

	requestURL := fmt.Sprintf("%s?%s", p.baseURL, params.Encode())
	body, err := getJSON(ctx, p.httpClient, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("crossref search failed: %w", err)
	}

	var response crossrefResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("crossref response malformed: %w", err)
	}
	if len(response.Message.Items) == 0 {
		return nil, nil
	}

	work := response.Message.Items[0]
	metadata := &cite.Metadata{
		Kind:         crossrefKind(work.Type),
		Volume:       work.Volume,
		Issue:        work.Issue,
		Pages:        work.Page,
		DOI:          work.DOI,
		URL:          work.URL,
		SourceEngine: p.Name(),
	}
	if len(work.Title) > 0 {
		metadata.Title = strings.TrimSpace(work.Title[0])
	}
	if len(work.ContainerTitle) > 0 {
		metadata.Container = work.ContainerTitle[0]
	} else if metadata.Kind == cite.KindBook {
		metadata.Container = work.Publisher
	}
	for _, author := range work.Author {
		name := strings.TrimSpace(author.Family)
		if name == "" {
			continue
		}
		if author.Given != "" {
			name += ", " + author.Given
		}
		metadata.Authors = append(metadata.Authors, name)
	}
	if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
		metadata.Year = strconv.Itoa(work.Issued.DateParts[0][0])
	}
	return metadata, nil
}

// crossrefKind maps Crossref work types onto citation kinds.
func crossrefKind(workType string) cite.Kind {
	switch workType {
	case "journal-article", "proceedings-article":
		return cite.KindJournal
	case "book", "monograph", "edited-book", "book-chapter":
		return cite.KindBook
	default:
		return cite.KindGeneric
	}
}
