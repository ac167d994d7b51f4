package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/citeflex/pkg/cite"
)

const braveSearchBaseURL = "https://api.search.brave.com/res/v1/web/search"

// publicationNames maps news and institutional domains to their display
// names for the container field.
var publicationNames = map[string]string{
	"theatlantic.com":    "The Atlantic",
	"nytimes.com":        "New York Times",
	"washingtonpost.com": "Washington Post",
	"wsj.com":            "Wall Street Journal",
	"newyorker.com":      "The New Yorker",
	"economist.com":      "The Economist",
	"theguardian.com":    "The Guardian",
	"bbc.com":            "BBC",
	"bbc.co.uk":          "BBC",
	"reuters.com":        "Reuters",
	"apnews.com":         "Associated Press",
	"politico.com":       "Politico",
	"axios.com":          "Axios",
	"vox.com":            "Vox",
	"slate.com":          "Slate",
	"forbes.com":         "Forbes",
	"bloomberg.com":      "Bloomberg",
	"cnn.com":            "CNN",
	"npr.org":            "NPR",
	"time.com":           "Time",
	"newsweek.com":       "Newsweek",
	"latimes.com":        "Los Angeles Times",
	"chicagotribune.com": "Chicago Tribune",
	"bostonglobe.com":    "Boston Globe",
	"nice.org.uk":        "National Institute for Health and Care Excellence",
	"gov.uk":             "UK Government",
	"nhs.uk":             "NHS",
}

var governmentDomainMarkers = []string{"gov.uk", "nhs.uk", "nice.org.uk", ".gov", "gc.ca", "europa.eu"}

var (
	bylinePattern    = regexp.MustCompile(`(?i)\bby\s+([A-Z][a-z]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z]+)`)
	writesPattern    = regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+)\s+(?:writes|reports|argues|explains)`)
	staffPattern     = regexp.MustCompile(`(?i)([A-Z][a-z]+\s+[A-Z][a-z]+),\s+(?:staff writer|reporter|columnist|editor)`)
	fullDatePattern  = regexp.MustCompile(`([A-Z][a-z]+\s+\d{1,2},?\s+\d{4})`)
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	numericSegment   = regexp.MustCompile(`^\d+$`)
	titleSeparators  = []string{" | ", " - ", " — ", " · "}
	dateYearPattern  = regexp.MustCompile(`\b(\d{4})\b`)
)

// WebSearchProvider resolves citations through the Brave web search
// API. Used for URL-shaped notes and as a general fallback index;
// register it with WithWebIndexPenalty.
type WebSearchProvider struct {
	httpClient HTTPClient
	apiKey     string
	baseURL    string

	// now is injectable so access dates are stable in tests.
	now func() time.Time
}

// NewWebSearchProvider creates the provider. The API key is required
// for live searches; Search fails cleanly without one.
func NewWebSearchProvider(httpClient HTTPClient, apiKey string) *WebSearchProvider {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(nil, time.Second)
	}
	return &WebSearchProvider{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    braveSearchBaseURL,
		now:        time.Now,
	}
}

func (p *WebSearchProvider) Name() string { return "Brave Search" }

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Description   string   `json:"description"`
	Age           string   `json:"age"`
	ExtraSnippets []string `json:"extra_snippets"`
}

// Search resolves either a URL-shaped query (matching results back to
// the original URL) or a plain text query.
func (p *WebSearchProvider) Search(ctx context.Context, query Query) (*cite.Metadata, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("brave search API key not configured")
	}

	searchQuery := query.Simple()
	if query.URL != "" {
		searchQuery = urlToSearchQuery(query.URL)
	}

	results, err := p.search(ctx, searchQuery)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	match := &results[0]
	if query.URL != "" {
		match = findMatchingResult(query.URL, results)
		if match == nil {
			return nil, nil
		}
	}

	return p.resultToMetadata(match, query), nil
}

// search executes one Brave API call.
func (p *WebSearchProvider) search(ctx context.Context, searchQuery string) ([]braveResult, error) {
	params := url.Values{}
	params.Set("q", searchQuery)
	params.Set("count", "5")
	params.Set("text_decorations", "false")
	params.Set("search_lang", "en")
	params.Set("country", "us")

	requestURL := fmt.Sprintf("%s?%s", p.baseURL, params.Encode())
	body, err := getJSON(ctx, p.httpClient, requestURL, map[string]string{
		"X-Subscription-Token": p.apiKey,
		"Accept-Encoding":      "gzip",
	})
	if err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}

	var response braveResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("brave response malformed: %w", err)
	}
	return response.Web.Results, nil
}

// resultToMetadata converts a matched search result into a citation
// record, extracting authors and dates from the snippets.
func (p *WebSearchProvider) resultToMetadata(match *braveResult, query Query) *cite.Metadata {
	allText := match.Title + " " + match.Description + " " + strings.Join(match.ExtraSnippets, " ")

	sourceURL := query.URL
	if sourceURL == "" {
		sourceURL = match.URL
	}
	kind := detectKindFromURL(sourceURL)

	metadata := &cite.Metadata{
		Kind:         kind,
		Title:        cleanResultTitle(match.Title),
		URL:          sourceURL,
		Container:    publicationName(sourceURL),
		Date:         extractDateFromText(allText, match.Age, p.now),
		AccessDate:   p.now().Format("January 2, 2006"),
		SourceEngine: p.Name(),
	}
	if author := extractAuthorFromText(allText); author != "" {
		metadata.Authors = []string{author}
	}
	if metadata.Date != "" {
		if year := dateYearPattern.FindString(metadata.Date); year != "" {
			metadata.Year = year
		}
	}
	return metadata
}

// urlToSearchQuery converts a URL into an effective search query from
// its publication name and path slugs, skipping date segments.
func urlToSearchQuery(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	publication := publicationNames[domain]
	if publication == "" {
		base := strings.SplitN(domain, ".", 2)[0]
		publication = capitalize(strings.TrimPrefix(base, "the"))
	}

	var pathWords []string
	for _, segment := range strings.Split(strings.Trim(parsed.Path, "/"), "/") {
		if segment == "" || numericSegment.MatchString(segment) {
			continue
		}
		if strings.ContainsAny(segment, "-_") {
			segment = strings.NewReplacer("-", " ", "_", " ").Replace(segment)
			pathWords = append(pathWords, segment)
		} else if len(segment) > 3 {
			pathWords = append(pathWords, segment)
		}
	}

	return strings.TrimSpace(publication + " " + strings.Join(pathWords, " "))
}

// findMatchingResult picks the result matching the original URL:
// exact URL first, then same path, then same domain, else the first.
func findMatchingResult(originalURL string, results []braveResult) *braveResult {
	if len(results) == 0 {
		return nil
	}

	normalized := strings.TrimRight(strings.ToLower(originalURL), "/")
	for i := range results {
		if strings.TrimRight(strings.ToLower(results[i].URL), "/") == normalized {
			return &results[i]
		}
	}

	if parsed, err := url.Parse(originalURL); err == nil {
		originalPath := strings.TrimRight(strings.ToLower(parsed.Path), "/")
		if originalPath != "" {
			for i := range results {
				if resultParsed, err := url.Parse(results[i].URL); err == nil {
					resultPath := strings.TrimRight(strings.ToLower(resultParsed.Path), "/")
					if strings.Contains(resultPath, originalPath) {
						return &results[i]
					}
				}
			}
		}

		originalDomain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		for i := range results {
			if resultParsed, err := url.Parse(results[i].URL); err == nil {
				resultDomain := strings.TrimPrefix(strings.ToLower(resultParsed.Host), "www.")
				if originalDomain == resultDomain {
					return &results[i]
				}
			}
		}
	}

	return &results[0]
}

// detectKindFromURL classifies a URL as newspaper, government, or
// generic web content from its domain.
func detectKindFromURL(rawURL string) cite.Kind {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return cite.KindURL
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")

	if name, known := publicationNames[domain]; known {
		switch name {
		case "UK Government", "NHS", "National Institute for Health and Care Excellence":
			return cite.KindGovernment
		default:
			return cite.KindNewspaper
		}
	}
	for _, marker := range governmentDomainMarkers {
		if strings.Contains(domain, marker) {
			return cite.KindGovernment
		}
	}
	return cite.KindURL
}

// publicationName resolves the container name for a URL's domain.
func publicationName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if name, known := publicationNames[domain]; known {
		return name
	}
	return capitalize(strings.SplitN(domain, ".", 2)[0])
}

// capitalize upper-cases the first letter of a lowercase domain label.
func capitalize(label string) string {
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// extractAuthorFromText pulls an author name out of byline-shaped
// snippet text.
func extractAuthorFromText(text string) string {
	for _, pattern := range []*regexp.Regexp{bylinePattern, writesPattern, staffPattern} {
		if groups := pattern.FindStringSubmatch(text); groups != nil {
			return groups[1]
		}
	}
	return ""
}

// extractDateFromText recovers a publication date from the result age
// field or snippet text, converting relative ages to absolute dates.
func extractDateFromText(text, age string, now func() time.Time) string {
	if age != "" {
		if date := fullDatePattern.FindString(age); date != "" {
			return date
		}
		if date := relativeAgeToDate(age, now); date != "" {
			return date
		}
	}
	if date := fullDatePattern.FindString(text); date != "" {
		return date
	}
	if groups := isoDatePattern.FindStringSubmatch(text); groups != nil {
		if parsed, err := time.Parse("2006-01-02", groups[0]); err == nil {
			return parsed.Format("January 2, 2006")
		}
	}
	return ""
}

var relativeAgePattern = regexp.MustCompile(`(?i)(\d+)\s+(day|hour|week|month)s?\s+ago`)

// relativeAgeToDate converts "2 days ago" style ages to absolute dates.
func relativeAgeToDate(age string, now func() time.Time) string {
	groups := relativeAgePattern.FindStringSubmatch(age)
	if groups == nil {
		return ""
	}
	amount, err := strconv.Atoi(groups[1])
	if err != nil {
		return ""
	}

	current := now()
	switch strings.ToLower(groups[2]) {
	case "day":
		current = current.AddDate(0, 0, -amount)
	case "week":
		current = current.AddDate(0, 0, -amount*7)
	case "month":
		current = current.AddDate(0, 0, -amount*30)
	}
	return current.Format("January 2, 2006")
}

// cleanResultTitle strips a trailing site-name suffix from a result
// title when the leading part is long enough to be the article title.
func cleanResultTitle(title string) string {
	for _, separator := range titleSeparators {
		if strings.Contains(title, separator) {
			leading := strings.TrimSpace(strings.Split(title, separator)[0])
			if len(leading) > 20 {
				return leading
			}
		}
	}
	return strings.TrimSpace(title)
}
