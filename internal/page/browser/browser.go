// Package browser implements page.Page with a chromium instance driven by playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"ifsuap/internal/components/assert"
	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/page"
	"ifsuap/lib/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/publicsuffix"
)

const (
	report_launcher_start    = "launcher.start"
	report_launcher_open     = "launcher.open"
	report_launcher_stop     = "launcher.stop"
	report_page_close        = "page.close"
	report_page_download     = "page.download"
	report_page_download_ok  = "page.download-ok"
	report_page_navigate     = "page.navigate"
	report_page_cookie_parse = "page.cookie-parse"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type Options struct {
	Headless bool
	// Timeout is the default timeout of every playwright action.
	Timeout time.Duration
	// SkipInstall skips downloading the browser drivers on Start.
	SkipInstall bool
	UserAgent   string
	// Output receives the output of the driver installation, it is discarded when nil.
	Output io.Writer
}

// Launcher owns the playwright driver, each page it opens runs in its own
// browser so that no session is ever shared between two operations.
type Launcher struct {
	opts Options
	tel  telemetry.API

	mu      sync.Mutex
	pw      *playwright.Playwright
	started bool
}

func NewLauncher(opts Options, tel telemetry.API) *Launcher {
	assert.NotNil(tel)
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	return &Launcher{
		opts: opts,
		tel:  telemetry.NewScopedAPI("browser", tel),
	}
}

// Start installs (unless skipped) and runs the playwright driver, it is a no-op
// when the driver is already running.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   l.opts.Output,
		Stderr:   l.opts.Output,
	}
	if !l.opts.SkipInstall {
		err := playwright.Install(runOpts)
		if err != nil {
			l.tel.ReportBroken(report_launcher_start, err)
			return fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		l.tel.ReportBroken(report_launcher_start, err)
		return fmt.Errorf("start playwright: %w", err)
	}

	l.pw = pw
	l.started = true
	return nil
}

// Open launches a browser and returns its only page, it satisfies page.Opener.
func (l *Launcher) Open(ctx context.Context) (page.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.Start(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	pw := l.pw
	l.mu.Unlock()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
	})
	if err != nil {
		l.tel.ReportBroken(report_launcher_open, err)
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(l.opts.UserAgent),
	})
	if err != nil {
		browser.Close()
		l.tel.ReportBroken(report_launcher_open, err)
		return nil, fmt.Errorf("create context: %w", err)
	}
	pwpage, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		l.tel.ReportBroken(report_launcher_open, err)
		return nil, fmt.Errorf("create page: %w", err)
	}
	pwpage.SetDefaultTimeout(float64(l.opts.Timeout.Milliseconds()))

	return &Page{
		tel:       l.tel,
		userAgent: l.opts.UserAgent,
		timeout:   l.opts.Timeout,
		browser:   browser,
		context:   bctx,
		page:      pwpage,
	}, nil
}

// Stop stops the playwright driver, pages that are still open are closed with it.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return nil
	}
	l.started = false
	err := l.pw.Stop()
	if err != nil {
		l.tel.ReportWarning(report_launcher_stop, err)
	}
	return err
}

type Page struct {
	tel       telemetry.API
	userAgent string
	timeout   time.Duration

	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	closeOnce sync.Once
	closeErr  error
}

func translate(err error, what string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w (%w)", page.Timeout(what, timeout), err)
	}
	return err
}

func (p *Page) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		p.tel.ReportWarning(report_page_navigate, target, err)
		return translate(err, target, p.timeout)
	}
	return nil
}

func (p *Page) URL() string {
	return p.page.URL()
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err, selector, timeout)
}

func (p *Page) Find(selector string) (page.Element, error) {
	handle, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, page.NotFound(selector)
	}
	return element{handle: handle, timeout: p.timeout}, nil
}

func (p *Page) FindAll(selector string) ([]page.Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(handles, p.timeout), nil
}

func (p *Page) jarFor(target *url.URL) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	cookies, err := p.context.Cookies(target.String())
	if err != nil {
		return nil, err
	}
	converted := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		converted = append(converted, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	jar.SetCookies(target, converted)
	return jar, nil
}

// Download fetches the resource with a plain http client that carries the
// cookies of the browser session, which avoids relying on the browser's own
// download handling for inline pdfs.
func (p *Page) Download(ctx context.Context, target, dest string) error {
	resolved, err := htmlutil.ResolveHref(p.page.URL(), target)
	if err != nil {
		return err
	}
	targetUrl, err := url.Parse(resolved)
	if err != nil {
		p.tel.ReportWarning(report_page_cookie_parse, resolved, err)
		return err
	}
	jar, err := p.jarFor(targetUrl)
	if err != nil {
		p.tel.ReportBroken(report_page_download, err)
		return fmt.Errorf("copy session cookies: %w", err)
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", p.userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(targetUrl.Hostname()))
	client.SetTimeout(p.timeout)
	telemetry.InstrumentResty(client, p.tel)

	res, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(resolved)
	if err != nil {
		p.tel.ReportBroken(report_page_download, err)
		return fmt.Errorf("download %s: %w", resolved, err)
	}
	if res.IsError() {
		p.tel.ReportBroken(report_page_download, resolved, res.Status())
		return fmt.Errorf("download %s: unexpected status %s", resolved, res.Status())
	}
	p.tel.ReportDebug(report_page_download_ok, resolved, dest)
	return nil
}

// Close releases the page together with its browser, it is safe to call more than once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		if err := p.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := p.context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := p.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		p.closeErr = errors.Join(errs...)
		if p.closeErr != nil {
			p.tel.ReportWarning(report_page_close, p.closeErr)
		}
	})
	return p.closeErr
}

type element struct {
	handle  playwright.ElementHandle
	timeout time.Duration
}

func wrapAll(handles []playwright.ElementHandle, timeout time.Duration) []page.Element {
	out := make([]page.Element, len(handles))
	for i, h := range handles {
		out[i] = element{handle: h, timeout: timeout}
	}
	return out
}

func (e element) Text() (string, error) {
	text, err := e.handle.TextContent()
	if err != nil {
		return "", err
	}
	return htmlutil.CleanText(text), nil
}

func (e element) Attribute(name string) (string, error) {
	return e.handle.GetAttribute(name)
}

func (e element) Value() (string, error) {
	return e.handle.InputValue()
}

func (e element) SendKeys(text string) error {
	err := e.handle.Type(text)
	return translate(err, "type", e.timeout)
}

func (e element) Press(key string) error {
	err := e.handle.Press(key)
	return translate(err, "press "+key, e.timeout)
}

func (e element) Clear() error {
	err := e.handle.Fill("")
	return translate(err, "clear", e.timeout)
}

func (e element) Click() error {
	err := e.handle.Click()
	return translate(err, "click", e.timeout)
}

func (e element) Find(selector string) (page.Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, page.NotFound(selector)
	}
	return element{handle: handle, timeout: e.timeout}, nil
}

func (e element) FindAll(selector string) ([]page.Element, error) {
	handles, err := e.handle.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	return wrapAll(handles, e.timeout), nil
}
