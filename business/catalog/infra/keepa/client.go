// Package keepa looks products up through the Keepa product API.
package keepa

import (
	"context"
	"fmt"
	"strconv"
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
	BaseURL = "https://api.keepa.com"

	productEndpoint = "/product"
	searchEndpoint  = "/search"

	// DomainUS is Keepa's locale id for amazon.com.
	DomainUS = 1

	httpTimeout = 20 * time.Second
	tracerName  = "github.com/fd1az/fba-sourcing/business/catalog/infra/keepa"
	productURL  = "https://www.amazon.com/dp/"
)

// Config holds configuration for the Keepa client.
type Config struct {
	BaseURL string
	APIKey  string
	Domain  int
	Timeout time.Duration
}

// Client implements app.ProductProvider over Keepa.
type Client struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
}

var _ app.ProductProvider = (*Client)(nil)

// New creates a Keepa client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Domain == 0 {
		cfg.Domain = DomainUS
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(string(domain.SourceKeepa)),
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
	return domain.SourceKeepa
}

type product struct {
	ASIN              string         `json:"asin"`
	Title             string         `json:"title"`
	BuyBoxSellerPrice transport.Text `json:"buyBoxSellerPrice"`
	BuyBoxPrice       transport.Text `json:"buyBoxPrice"`
	Rating            transport.Text `json:"rating"`
	ReviewCount       transport.Text `json:"reviewCount"`
	SalesRank         transport.Text `json:"salesRank"`
}

// Response is the subset of a Keepa product or search payload the client reads.
type Response struct {
	Products    []product `json:"products"`
	TokensLeft  int       `json:"tokensLeft"`
	RefillIn    int       `json:"refillIn"`
	ErrorDetail *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchByIdentifier requests one product by ASIN.
func (c *Client) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	ctx, span := c.tracer.Start(ctx, "keepa.product",
		trace.WithAttributes(attribute.String("asin", id)))
	defer span.End()

	rec, err := c.first(ctx, productEndpoint, id, "asin", id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = id
		rec.URL = productURL + id
	}
	return rec, nil
}

// FetchByKeyword runs a product search and returns the first hit.
func (c *Client) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	ctx, span := c.tracer.Start(ctx, "keepa.search",
		trace.WithAttributes(attribute.String("term", text)))
	defer span.End()

	rec, err := c.first(ctx, searchEndpoint, text, "term", text, "type", "product")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rec, nil
}

func (c *Client) first(ctx context.Context, endpoint, query string, params ...string) (*domain.ProductRecord, error) {
	var result Response
	req := c.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", strings.TrimPrefix(endpoint, "/"))),
		httpclient.WithRedactedParams("key"),
	).
		SetQueryParam("key", c.config.APIKey).
		SetQueryParam("domain", strconv.Itoa(c.config.Domain)).
		SetResult(&result)
	for i := 0; i+1 < len(params); i += 2 {
		req.SetQueryParam(params[i], params[i+1])
	}

	resp, err := req.Get(ctx, endpoint)
	if ferr := transport.Classify(domain.SourceKeepa, query, resp, err); ferr != nil {
		return nil, ferr
	}
	if result.ErrorDetail != nil {
		return nil, domain.NewFetchError(domain.FailureTransport, domain.SourceKeepa, query,
			fmt.Errorf("keepa %s: %s", result.ErrorDetail.Type, result.ErrorDetail.Message))
	}
	if len(result.Products) == 0 {
		return nil, domain.NotFound(domain.SourceKeepa, query)
	}

	c.logger.Debug(ctx, "keepa lookup",
		"endpoint", endpoint,
		"query", query,
		"products", len(result.Products),
		"tokens_left", result.TokensLeft)

	rec := toRecord(result.Products[0])
	return &rec, nil
}

func toRecord(p product) domain.ProductRecord {
	price := p.BuyBoxSellerPrice.String()
	if price == "" {
		price = p.BuyBoxPrice.String()
	}
	asin := strings.ToUpper(strings.TrimSpace(p.ASIN))

	rec := domain.ProductRecord{
		ID:          asin,
		Title:       strings.TrimSpace(p.Title),
		Price:       transport.Price(price),
		Rating:      transport.Rating(p.Rating.String()),
		ReviewCount: transport.Count(p.ReviewCount.String()),
		Rank:        domain.NewRankSignal(p.SalesRank.String()),
		Source:      domain.SourceKeepa,
	}
	if asin != "" {
		rec.URL = productURL + asin
	}
	return rec
}
