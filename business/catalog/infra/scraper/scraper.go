// Package scraper reads product data from storefront HTML pages.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
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
	BaseURL          = "https://www.amazon.com"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) fba-sourcing/1.0"

	httpTimeout = 20 * time.Second
	tracerName  = "github.com/fd1az/fba-sourcing/business/catalog/infra/scraper"

	bestSellersRank = "Best Sellers Rank"
)

// Config holds configuration for the page scraper.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Scraper implements app.ProductProvider by parsing product and search pages.
type Scraper struct {
	client  httpclient.Client
	baseURL string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

var _ app.ProductProvider = (*Scraper)(nil)

// New creates a page scraper.
func New(cfg Config, log logger.LoggerInterface) (*Scraper, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName(string(domain.SourceScraper)),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithHeaders(map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "text/html",
			"Accept-Language": "en-US,en;q=0.9",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Scraper{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  log,
		tracer:  tracer,
	}, nil
}

func (s *Scraper) Source() domain.Source {
	return domain.SourceScraper
}

// FetchByIdentifier parses the product detail page /dp/{id}.
func (s *Scraper) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	ctx, span := s.tracer.Start(ctx, "scraper.product",
		trace.WithAttributes(attribute.String("asin", id)))
	defer span.End()

	doc, err := s.fetchDocument(ctx, id, "product", "/dp/"+id, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rec := parseProductPage(doc)
	if rec.Title == "" {
		return nil, domain.NotFound(domain.SourceScraper, id)
	}
	rec.ID = id
	rec.URL = s.baseURL + "/dp/" + id
	return &rec, nil
}

// FetchByKeyword parses the first result of the search page /s?k=text.
func (s *Scraper) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	ctx, span := s.tracer.Start(ctx, "scraper.search",
		trace.WithAttributes(attribute.String("term", text)))
	defer span.End()

	doc, err := s.fetchDocument(ctx, text, "search", "/s", map[string]string{"k": text})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rec, ok := parseFirstResult(doc)
	if !ok {
		return nil, domain.NotFound(domain.SourceScraper, text)
	}
	rec.URL = s.baseURL + "/dp/" + rec.ID
	s.logger.Debug(ctx, "scraper search matched", "term", text, "asin", rec.ID)
	return &rec, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, query, page, path string, params map[string]string) (*goquery.Document, error) {
	req := s.client.NewRequest(httpclient.WithLabels(httpclient.NewLabel("page", page)))
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(ctx, path)
	if ferr := transport.Classify(domain.SourceScraper, query, resp, err); ferr != nil {
		return nil, ferr
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, domain.NewFetchError(domain.FailureMalformed, domain.SourceScraper, query,
			fmt.Errorf("parse document: %w", err))
	}
	return doc, nil
}

func parseProductPage(doc *goquery.Document) domain.ProductRecord {
	rec := domain.ProductRecord{
		Title:  strings.TrimSpace(doc.Find("#productTitle").First().Text()),
		Source: domain.SourceScraper,
	}

	price := strings.TrimSpace(doc.Find("#corePrice_feature_div .a-offscreen").First().Text())
	if price == "" {
		price = strings.TrimSpace(doc.Find(".a-price .a-offscreen").First().Text())
	}
	rec.Price = transport.Price(price)

	rating := strings.TrimSpace(doc.Find("#acrPopover").AttrOr("title", ""))
	if rating == "" {
		rating = strings.TrimSpace(doc.Find("span.a-icon-alt").First().Text())
	}
	rec.Rating = transport.Rating(rating)
	rec.ReviewCount = transport.Count(doc.Find("#acrCustomerReviewText").First().Text())
	rec.Rank = domain.NewRankSignal(findRank(doc))

	return rec
}

// findRank looks in both detail layouts: the bullet list and the spec table.
func findRank(doc *goquery.Document) string {
	var rank string
	doc.Find("#detailBulletsWrapper_feature_div li, #productDetails_detailBullets_sections1 tr").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.Join(strings.Fields(sel.Text()), " ")
			idx := strings.Index(text, bestSellersRank)
			if idx < 0 {
				return true
			}
			rank = strings.TrimSpace(strings.TrimLeft(text[idx+len(bestSellersRank):], ": "))
			return false
		})
	return rank
}

func parseFirstResult(doc *goquery.Document) (domain.ProductRecord, bool) {
	var (
		rec   domain.ProductRecord
		found bool
	)
	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		asin := strings.ToUpper(strings.TrimSpace(sel.AttrOr("data-asin", "")))
		if asin == "" {
			return true
		}
		rec = domain.ProductRecord{
			ID:          asin,
			Title:       strings.TrimSpace(sel.Find("h2").First().Text()),
			Price:       transport.Price(sel.Find(".a-price .a-offscreen").First().Text()),
			Rating:      transport.Rating(sel.Find("span.a-icon-alt").First().Text()),
			ReviewCount: transport.Count(sel.Find(`[aria-label$="ratings"], span.s-underline-text`).First().Text()),
			Source:      domain.SourceScraper,
		}
		found = true
		return false
	})
	return rec, found
}
