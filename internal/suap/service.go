// Package suap sequences the use cases of the cli against the portal: each
// one opens its own page, logs in, navigates and hands the page over to the
// extractors or to the reconciliation engine.
package suap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ifsuap/internal/components/assert"
	"ifsuap/internal/components/chrono"
	"ifsuap/internal/components/telemetry"
	"ifsuap/internal/docwindow"
	"ifsuap/internal/document"
	"ifsuap/internal/extract"
	"ifsuap/internal/gradestore"
	"ifsuap/internal/page"
	"ifsuap/internal/reconcile"
	"ifsuap/lib/htmlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("internal/suap")

const (
	report_service_open  = "service.open"
	report_service_close = "service.close"
	report_service_login = "service.login"
)

var (
	ErrMissingCredentials = errors.New("SUAP_USERNAME and SUAP_PASSWORD must be set in the environment variables")
	ErrLoginRefused       = errors.New("the portal refused the credentials")
)

const DefaultBaseUrl = "https://suap.ifpr.edu.br"

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Missing() bool {
	return c.Username == "" || c.Password == ""
}

type Timeouts struct {
	// Element bounds the wait for an element to appear.
	Element time.Duration
	// PageReady bounds the wait for a navigated page to be ready.
	PageReady time.Duration
}

var DefaultTimeouts = Timeouts{
	Element:   10 * time.Second,
	PageReady: 5 * time.Second,
}

var DefaultMarkers = docwindow.Markers{
	Start: "Conteúdo Programático",
	End:   "Procedimentos Metodológicos",
}

// Journal records the grade batches that were applied.
type Journal interface {
	Push(ctx context.Context, req gradestore.PushRequest) (string, error)
}

type Options struct {
	BaseUrl     string
	Credentials Credentials
	Layout      Layout
	Timeouts    Timeouts
	Markers     docwindow.Markers
	Documents   document.Reader
	// Journal is optional.
	Journal Journal
	// Limiter spaces grade writes, it is optional.
	Limiter *rate.Limiter
	Clock   chrono.API
	// TempDir holds downloaded documents, the os default is used when empty.
	TempDir string
	// SkipLogin is set when the pages are already authenticated, like saved snapshots.
	SkipLogin bool
}

type Service struct {
	open      page.Opener
	opts      Options
	extractor extract.Extractor
	engine    *reconcile.Engine
	tel       telemetry.API
}

func NewService(open page.Opener, opts Options, tel telemetry.API) *Service {
	assert.NotNil(open)
	assert.NotNil(opts.Documents)
	assert.NotNil(opts.Clock)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Markers.Start)
	assert.NotEmptyStr(opts.Markers.End)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeouts.Element == 0 {
		opts.Timeouts.Element = DefaultTimeouts.Element
	}
	if opts.Timeouts.PageReady == 0 {
		opts.Timeouts.PageReady = DefaultTimeouts.PageReady
	}

	tel = telemetry.NewScopedAPI("suap", tel)

	var engineOpts []reconcile.Option
	if opts.Limiter != nil {
		engineOpts = append(engineOpts, reconcile.WithLimiter(opts.Limiter))
	}

	return &Service{
		open:      open,
		opts:      opts,
		extractor: extract.New(opts.Layout.extractSelectors(), tel),
		engine:    reconcile.New(opts.Layout.reconcileSelectors(), tel, engineOpts...),
		tel:       tel,
	}
}

// session runs fn against a freshly opened and logged in page, the page is
// closed when fn returns whatever the outcome.
func (s *Service) session(ctx context.Context, name string, fn func(ctx context.Context, p page.Page) Response) Response {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	res := s.runSession(ctx, fn)
	if !res.OK() {
		span.SetStatus(codes.Error, res.Message)
	}
	return res
}

func (s *Service) runSession(ctx context.Context, fn func(ctx context.Context, p page.Page) Response) Response {
	if !s.opts.SkipLogin && s.opts.Credentials.Missing() {
		return Failure(fmt.Sprintf("Error: %s", ErrMissingCredentials), nil)
	}

	p, err := s.open(ctx)
	if err != nil {
		s.tel.ReportBroken(report_service_open, err)
		return Failure(fmt.Sprintf("Error: could not open the portal: %s", err), nil)
	}
	defer func() {
		err := p.Close()
		if err != nil {
			s.tel.ReportWarning(report_service_close, err)
		}
	}()

	if !s.opts.SkipLogin {
		err = s.login(ctx, p)
		if err != nil {
			s.tel.ReportBroken(report_service_login, err)
			return Failure(fmt.Sprintf("Error: login failed: %s", err), nil)
		}
	}
	return fn(ctx, p)
}

// goTo navigates to a path of the portal and waits for the page to be ready.
func (s *Service) goTo(ctx context.Context, p page.Page, path string) error {
	target, err := htmlutil.ResolveHref(s.opts.BaseUrl, path)
	if err != nil {
		return err
	}
	err = p.Navigate(ctx, target)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", path, err)
	}
	err = p.WaitFor(ctx, "body", s.opts.Timeouts.PageReady)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", path, err)
	}
	return nil
}

// waitFind waits for selector to appear and returns the first element matching it.
func (s *Service) waitFind(ctx context.Context, p page.Page, selector string) (page.Element, error) {
	err := p.WaitFor(ctx, selector, s.opts.Timeouts.Element)
	if err != nil {
		return nil, err
	}
	return p.Find(selector)
}

func (s *Service) fill(ctx context.Context, p page.Page, selector, value string) error {
	field, err := s.waitFind(ctx, p, selector)
	if err != nil {
		return err
	}
	err = field.Clear()
	if err != nil {
		return err
	}
	return field.SendKeys(value)
}

func (s *Service) login(ctx context.Context, p page.Page) error {
	layout := s.opts.Layout
	err := s.goTo(ctx, p, layout.LoginPath)
	if err != nil {
		return err
	}
	err = s.fill(ctx, p, layout.LoginUsername, s.opts.Credentials.Username)
	if err != nil {
		return err
	}
	err = s.fill(ctx, p, layout.LoginPassword, s.opts.Credentials.Password)
	if err != nil {
		return err
	}
	submit, err := s.waitFind(ctx, p, layout.LoginSubmit)
	if err != nil {
		return err
	}
	err = submit.Click()
	if err != nil {
		return err
	}
	err = p.WaitFor(ctx, "body", s.opts.Timeouts.PageReady)
	if err != nil {
		return err
	}

	if layout.LoginError == "" {
		return nil
	}
	_, err = p.Find(layout.LoginError)
	if err == nil {
		return ErrLoginRefused
	}
	if !errors.Is(err, page.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) tempFile(pattern string) (string, error) {
	f, err := os.CreateTemp(s.opts.TempDir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	err = f.Close()
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
