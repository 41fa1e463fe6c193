// Package serpapi looks products up through the SerpAPI Amazon engine.
package serpapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/fba-sourcing/business/catalog/app"
	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/business/catalog/infra/transport"
	"github.com/fd1az/fba-sourcing/internal/httpclient"
	"github.com/fd1az/fba-sourcing/internal/logger"
)

const (
	BaseURL       = "https://serpapi.com"
	searchPath    = "/search.json"
	defaultDomain = "amazon.com"
	httpTimeout   = 20 * time.Second
	tracerName    = "github.com/fd1az/fba-sourcing/business/catalog/infra/serpapi"

	bestSellersRank = "Best Sellers Rank"
)

// Config holds configuration for the SerpAPI client.
type Config struct {
	BaseURL string
	APIKey  string
	Domain  string // amazon_domain parameter
	Timeout time.Duration
}

// Client implements app.ProductProvider over SerpAPI.
type Client struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
}

var _ app.ProductProvider = (*Client)(nil)

// New creates a SerpAPI client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Domain == "" {
		cfg.Domain = defaultDomain
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(string(domain.SourceSerpAPI)),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

func (c *Client) Source() domain.Source {
	return domain.SourceSerpAPI
}


type productResult struct {
	ASIN    string         `json:"asin"`
	Title   string         `json:"title"`
	Price   transport.Text `json:"price"`
	Rating  transport.Text `json:"rating"`
	Reviews transport.Text `json:"reviews"`
	URL     string         `json:"url"`
	Link    string         `json:"link"`
}

type infoItem struct {
	Title string         `json:"title"`
	Value transport.Text `json:"value"`
}

// Response is the subset of the SerpAPI Amazon payload the client reads.
type Response struct {
	Error              string          `json:"error"`
	ProductResults     *productResult  `json:"product_results"`
	ProductInformation []infoItem      `json:"product_information"`
	OrganicResults     []productResult `json:"organic_results"`
}

// FetchByIdentifier requests the product page for an ASIN.
func (c *Client) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	ctx, span := c.tracer.Start(ctx, "serpapi.product",
		trace.WithAttributes(attribute.String("asin", id)))
	defer span.End()

	result, err := c.get(ctx, id, map[string]string{"type": "product", "asin": id})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	p := result.ProductResults
	if p == nil || strings.TrimSpace(p.Title) == "" && p.Price.String() == "" {
		return nil, domain.NotFound(domain.SourceSerpAPI, id)
	}

	rec := toRecord(*p)
	if rec.ID == "" {
		rec.ID = id
	}
	for _, item := range result.ProductInformation {
		if strings.Contains(item.Title, bestSellersRank) {
			rec.Rank = domain.NewRankSignal(item.Value.String())
			break
		}
	}

	c.logger.Debug(ctx, "serpapi product fetched", "asin", id, "title", rec.Title)
	return &rec, nil
}

// FetchByKeyword searches and returns the first organic result.
func (c *Client) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	ctx, span := c.tracer.Start(ctx, "serpapi.search",
		trace.WithAttributes(attribute.String("term", text)))
	defer span.End()

	result, err := c.get(ctx, text, map[string]string{"type": "search", "search_term": text})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(result.OrganicResults) == 0 {
		return nil, domain.NotFound(domain.SourceSerpAPI, text)
	}

	rec := toRecord(result.OrganicResults[0])
	span.SetAttributes(attribute.Int("results", len(result.OrganicResults)))
	c.logger.Debug(ctx, "serpapi search matched", "term", text, "asin", rec.ID)
	return &rec, nil
}

func (c *Client) get(ctx context.Context, query string, params map[string]string) (*Response, error) {
	var result Response
	req := c.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("type", params["type"])),
		httpclient.WithRedactedParams("api_key"),
	).
		SetQueryParam("engine", "amazon").
		SetQueryParam("amazon_domain", c.config.Domain).
		SetQueryParam("api_key", c.config.APIKey).
		SetResult(&result)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(ctx, searchPath)
	if ferr := transport.Classify(domain.SourceSerpAPI, query, resp, err); ferr != nil {
		return nil, ferr
	}

	// SerpAPI reports empty searches as 200 with an error message
	if result.Error != "" {
		if strings.Contains(strings.ToLower(result.Error), "any results") {
			return nil, domain.NotFound(domain.SourceSerpAPI, query)
		}
		return nil, domain.NewFetchError(domain.FailureTransport, domain.SourceSerpAPI, query,
			fmt.Errorf("serpapi: %s", result.Error))
	}
	return &result, nil
}

func toRecord(p productResult) domain.ProductRecord {
	link := p.URL
	if link == "" {
		link = p.Link
	}
	return domain.ProductRecord{
		ID:          strings.ToUpper(strings.TrimSpace(p.ASIN)),
		Title:       strings.TrimSpace(p.Title),
		Price:       transport.Price(p.Price.String()),
		Rating:      transport.Rating(p.Rating.String()),
		ReviewCount: transport.Count(p.Reviews.String()),
		URL:         link,
		Source:      domain.SourceSerpAPI,
	}
}
