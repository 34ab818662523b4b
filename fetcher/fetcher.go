package fetcher

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caffix/cloudflare-roundtripper/cfrt"
	"github.com/gocolly/colly"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:80.0) Gecko/20100101 Firefox/80.0"
	DefaultTimeout   = 100 * time.Second

	// SoftBlockSignature appears in the body of edge-proxy challenge pages
	// served with a 200 status.
	SoftBlockSignature = "cf-error"

	pageKey = "page"
)

// Page is the outcome of a fetch. Body is UTF-8.
type Page struct {
	StatusCode int
	Body       string
}

// OK reports whether the page is a usable 200 response.
func (p Page) OK() bool {
	return p.StatusCode == http.StatusOK && !strings.Contains(p.Body, SoftBlockSignature)
}

type Fetcher struct {
	stats     *Stats
	policy    RetryPolicy
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	collector *colly.Collector
	latin1    *latin1Transport
}

type Option func(*Fetcher)

// WithTransport replaces the cloudflare-aware default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

func New(stats *Stats, opts ...Option) *Fetcher {
	f := new(Fetcher)
	f.stats = stats
	f.policy = DefaultRetryPolicy()
	f.userAgent = DefaultUserAgent
	f.timeout = DefaultTimeout

	for _, opt := range opts {
		opt(f)
	}

	if f.stats == nil {
		f.stats = new(Stats)
	}
	if f.policy.MaxAttempts < 1 {
		f.policy.MaxAttempts = 1
	}
	if f.transport == nil {
		f.transport = newCFRoundTripper()
	}

	f.collector = colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.UserAgent(f.userAgent),
	)
	f.collector.SetRequestTimeout(f.timeout)
	f.latin1 = &latin1Transport{next: f.transport, timeout: f.timeout}
	f.collector.WithTransport(f.latin1)

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(pageKey, Page{StatusCode: r.StatusCode, Body: string(r.Body)})
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		log.WithError(err).WithField("status", r.StatusCode).Debugf("Fetcher got error for %s", r.Request.URL)
		r.Ctx.Put(pageKey, Page{StatusCode: r.StatusCode, Body: string(r.Body)})
	})

	return f
}

func (f *Fetcher) Stats() *Stats {
	return f.stats
}

// Fetch retrieves uri, retrying on non-200 status or soft-block pages up to
// the policy's attempt limit. Exhausting the attempts is not an error: the
// last content is returned and the failure counter is incremented once. The
// only error returned is the context's.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (page Page, err error) {
	for attempt := 1; ; attempt++ {
		if err = ctx.Err(); err != nil {
			return
		}

		page = f.get(ctx, uri)
		if err = ctx.Err(); err != nil {
			return
		}
		if page.OK() {
			return page, nil
		}

		if attempt >= f.policy.MaxAttempts {
			break
		}

		delay := f.policy.delay(attempt)
		log.WithFields(log.Fields{
			"uri":     uri,
			"status":  page.StatusCode,
			"attempt": attempt,
			"delay":   delay,
		}).Debug("Retrying fetch")

		if err = Wait(ctx, delay); err != nil {
			return
		}
	}

	log.Warnf("Failed to download %s after %d attempts", uri, f.policy.MaxAttempts)
	f.stats.Failures.Inc()
	return page, nil
}

// get performs one request. The collector builds requests without a context,
// so ctx reaches the round trip through the transport.
func (f *Fetcher) get(ctx context.Context, uri string) Page {
	f.stats.Requests.Inc()
	f.latin1.bind(ctx)
	defer f.latin1.bind(nil)

	cctx := colly.NewContext()
	if err := f.collector.Request(http.MethodGet, uri, nil, cctx, nil); err != nil {
		log.WithError(err).Debugf("GET %s", uri)
	}
	if page, ok := cctx.GetAny(pageKey).(Page); ok {
		return page
	}
	return Page{}
}

func newCFRoundTripper() http.RoundTripper {
	transport, err :=
		cfrt.New(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   15 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		})
	if err != nil {
		log.Fatal(err)
	}
	return transport
}
