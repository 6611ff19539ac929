package github

import (
	"bytes"
	"context"
	"fmt"
	"github-retriever/internal/components/assert"
	"github-retriever/internal/components/telemetry"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://github.com"

const (
	report_session_extract_features  = "session.extract-features"
	report_session_crawl_discussions = "session.crawl-discussions"
	report_session_extract_posts     = "session.extract-posts"
	report_session_discussion_field  = "session.discussion-field"
	report_session_post_field        = "session.post-field"
	report_session_unknown_feature   = "session.unknown-feature"
)

type Options struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl   string
	UserAgent string
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// Schema defaults to ClassicLayout.
	Schema PageSchema
	// MaxDiscussionPages stops pagination after this many listing pages, 0 means no limit.
	MaxDiscussionPages int
	// HttpDump receives every http exchange when not nil.
	HttpDump telemetry.MessageOutput
}

// Scraper holds everything that is shared between the sessions of a run.
type Scraper struct {
	baseUrl   *url.URL
	opts      Options
	schema    PageSchema
	scheduler *Scheduler
	tel       telemetry.API
}

func NewScraper(opts Options, scheduler *Scheduler, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(scheduler)
	assert.NotNil(tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	schema := opts.Schema
	if schema == nil {
		schema = ClassicLayout{}
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	return &Scraper{
		baseUrl:   baseUrl,
		opts:      opts,
		schema:    schema,
		scheduler: scheduler,
		tel:       telemetry.NewScopedAPI("github_scraper", tel),
	}, nil
}

// Session is one cookie/connection scope, a new one is made for every
// repository.
type Session struct {
	*Scraper
	http *resty.Client
}

func (s *Scraper) NewSession() (*Session, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", s.opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(s.baseUrl.Hostname()))
	client.SetTimeout(s.opts.Timeout)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return s.scheduler.Wait(req.Context())
	})
	telemetry.InstrumentResty(client, s.tel, s.opts.HttpDump)

	return &Session{Scraper: s, http: client}, nil
}

type FetchKind int

const (
	// FetchNetworkFailure means no response was received.
	FetchNetworkFailure FetchKind = iota
	// FetchNotOk means the server answered with a non 2xx status.
	FetchNotOk
	FetchOk
)

func (k FetchKind) String() string {
	switch k {
	case FetchOk:
		return "ok"
	case FetchNotOk:
		return "not ok"
	default:
		return "network failure"
	}
}

type FetchResult struct {
	Kind   FetchKind
	Status int
	Body   []byte
	// Err is set for FetchNetworkFailure.
	Err error
}

// Document parses the body of the result.
func (r FetchResult) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
}

// Fetch makes a single GET request, waiting on the scheduler first. Transport
// errors are returned inside the result, never as an error.
func (s *Session) Fetch(ctx context.Context, uri string) FetchResult {
	res, err := s.http.R().
		SetContext(ctx).
		Get(uri)
	if err != nil {
		return FetchResult{Kind: FetchNetworkFailure, Err: err}
	}
	if !res.IsSuccess() {
		return FetchResult{Kind: FetchNotOk, Status: res.StatusCode(), Body: res.Body()}
	}
	return FetchResult{Kind: FetchOk, Status: res.StatusCode(), Body: res.Body()}
}

// RepositoryUrl is the landing page of `repo`.
func (s *Scraper) RepositoryUrl(repo Repository) string {
	return s.baseUrl.JoinPath(repo.FullName).String()
}

// DiscussionPageUrl is the `page`th page of the discussion listing of `repo`.
func (s *Scraper) DiscussionPageUrl(repo Repository, page int) string {
	u := s.baseUrl.JoinPath(repo.FullName, "discussions")
	u.RawQuery = url.Values{"page": []string{fmt.Sprint(page)}}.Encode()
	return u.String()
}

