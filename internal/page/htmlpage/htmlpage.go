// Package htmlpage implements page.Page over saved html documents using goquery.
//
// It backs the offline mode of the cli and the fixtures of the tests: form
// fields keep their typed values in the document for as long as the page stays
// loaded, links navigate, and submit controls follow the routes of the Site.
package htmlpage

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"ifsuap/internal/page"
	"ifsuap/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Site is the set of documents a Page can navigate through.
type Site struct {
	// BaseUrl is used to resolve paths, ex. "https://suap.ifpr.edu.br".
	BaseUrl string
	// Pages maps a url path (optionally with "?query") to an html document.
	Pages map[string]string
	// Submits maps the path of a page to the path that is loaded when one of
	// its submit controls is clicked.
	Submits map[string]string
	// Files maps a url path to the bytes that Download writes.
	Files map[string][]byte
}

// Key is a single key press made on a field.
type Key struct {
	Field string
	Key   string
}

// Page is an in-memory page.Page. It is not safe for concurrent use, neither is a browser tab.
type Page struct {
	site    Site
	current string
	doc     *goquery.Document
	closed  bool

	// Visited lists every url navigated to, in order.
	Visited []string
	// Keys lists every key pressed on a field.
	Keys []Key
	// Submissions holds the values of the named form fields at the time of each submit.
	Submissions []map[string]string
}

func New(site Site) *Page {
	return &Page{site: site}
}

// Opener returns a page.Opener that opens a fresh Page over site, the pages it
// opened are appended to opened when it is not nil.
func Opener(site Site, opened *[]*Page) page.Opener {
	return func(ctx context.Context) (page.Page, error) {
		p := New(site)
		if opened != nil {
			*opened = append(*opened, p)
		}
		return p, nil
	}
}

func (p *Page) Closed() bool {
	return p.closed
}

func (p *Page) ensureOpen() error {
	if p.closed {
		return fmt.Errorf("htmlpage: page is closed")
	}
	return nil
}

func (p *Page) lookup(link *url.URL, table map[string]string) (string, bool) {
	if link.RawQuery != "" {
		if v, ok := table[link.Path+"?"+link.RawQuery]; ok {
			return v, true
		}
	}
	v, ok := table[link.Path]
	return v, ok
}

func (p *Page) Navigate(ctx context.Context, target string) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := htmlutil.ResolveHref(p.base(), target)
	if err != nil {
		return fmt.Errorf("htmlpage: parse url: %w", err)
	}
	link, err := url.Parse(resolved)
	if err != nil {
		return fmt.Errorf("htmlpage: parse url: %w", err)
	}
	contents, ok := p.lookup(link, p.site.Pages)
	if !ok {
		return fmt.Errorf("htmlpage: no document for %s", link.Path)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	if err != nil {
		return fmt.Errorf("htmlpage: parse %s: %w", link.Path, err)
	}

	p.doc = doc
	p.current = resolved
	p.Visited = append(p.Visited, resolved)
	return nil
}

func (p *Page) base() string {
	if p.current != "" {
		return p.current
	}
	return p.site.BaseUrl
}

func (p *Page) URL() string {
	return p.current
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	return page.WaitUntil(ctx, timeout, selector, func() (bool, error) {
		return p.doc != nil && p.doc.Find(selector).Length() > 0, nil
	})
}

func (p *Page) root() (*goquery.Selection, error) {
	if err := p.ensureOpen(); err != nil {
		return nil, err
	}
	if p.doc == nil {
		return nil, fmt.Errorf("htmlpage: no document loaded")
	}
	return p.doc.Selection, nil
}

func (p *Page) Find(selector string) (page.Element, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return element{page: p, sel: root}.Find(selector)
}

func (p *Page) FindAll(selector string) ([]page.Element, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}
	return element{page: p, sel: root}.FindAll(selector)
}

func (p *Page) Download(ctx context.Context, target, dest string) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	resolved, err := htmlutil.ResolveHref(p.base(), target)
	if err != nil {
		return err
	}
	link, err := url.Parse(resolved)
	if err != nil {
		return err
	}
	contents, ok := p.site.Files[link.Path]
	if !ok {
		return fmt.Errorf("htmlpage: no file for %s", link.Path)
	}
	return os.WriteFile(dest, contents, 0644)
}

func (p *Page) Close() error {
	p.closed = true
	return nil
}

func (p *Page) submit(form *goquery.Selection) error {
	values := map[string]string{}
	form.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("name", s.AttrOr("id", ""))
		if key == "" {
			return
		}
		values[key] = fieldValue(s)
	})
	p.Submissions = append(p.Submissions, values)

	link, err := url.Parse(p.current)
	if err != nil {
		return err
	}
	next, ok := p.site.Submits[link.Path]
	if !ok {
		return nil
	}
	return p.Navigate(context.Background(), next)
}

func fieldValue(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "textarea":
		return s.AttrOr("value", s.Text())
	case "select":
		selected := s.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = s.Find("option").First()
		}
		return selected.AttrOr("value", htmlutil.CleanText(selected.Text()))
	}
	return s.AttrOr("value", "")
}

type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e element) Text() (string, error) {
	if err := e.page.ensureOpen(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range e.sel.Nodes {
		sb.WriteString(htmlutil.GetText(n))
	}
	return htmlutil.CleanText(sb.String()), nil
}

func (e element) Attribute(name string) (string, error) {
	if err := e.page.ensureOpen(); err != nil {
		return "", err
	}
	return e.sel.AttrOr(name, ""), nil
}

func (e element) Value() (string, error) {
	if err := e.page.ensureOpen(); err != nil {
		return "", err
	}
	return fieldValue(e.sel), nil
}

func (e element) writable() bool {
	_, readonly := e.sel.Attr("readonly")
	_, disabled := e.sel.Attr("disabled")
	return !readonly && !disabled
}

// SendKeys appends text to the value of the field, like typing does. Typing
// into a readonly or disabled field is silently ignored, like in a browser.
func (e element) SendKeys(text string) error {
	if err := e.page.ensureOpen(); err != nil {
		return err
	}
	if !e.writable() {
		return nil
	}
	current, _ := e.sel.Attr("value")
	e.sel.SetAttr("value", current+text)
	return nil
}

func (e element) Press(key string) error {
	if err := e.page.ensureOpen(); err != nil {
		return err
	}
	field := e.sel.AttrOr("name", e.sel.AttrOr("id", ""))
	e.page.Keys = append(e.page.Keys, Key{Field: field, Key: key})
	if key == "Enter" {
		if form := e.sel.Closest("form"); form.Length() > 0 {
			return e.page.submit(form)
		}
	}
	return nil
}

func (e element) Clear() error {
	if err := e.page.ensureOpen(); err != nil {
		return err
	}
	if !e.writable() {
		return nil
	}
	e.sel.SetAttr("value", "")
	return nil
}

func (e element) isSubmit() bool {
	switch goquery.NodeName(e.sel) {
	case "button":
		return e.sel.AttrOr("type", "submit") == "submit"
	case "input":
		kind := e.sel.AttrOr("type", "")
		return kind == "submit" || kind == "image"
	}
	return false
}

func (e element) Click() error {
	if err := e.page.ensureOpen(); err != nil {
		return err
	}
	if href, ok := e.sel.Attr("href"); ok && goquery.NodeName(e.sel) == "a" && !strings.HasPrefix(href, "#") {
		return e.page.Navigate(context.Background(), href)
	}
	if e.isSubmit() {
		form := e.sel.Closest("form")
		if form.Length() == 0 {
			form = e.page.doc.Selection
		}
		return e.page.submit(form)
	}
	return nil
}

func (e element) Find(selector string) (page.Element, error) {
	if err := e.page.ensureOpen(); err != nil {
		return nil, err
	}
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, page.NotFound(selector)
	}
	return element{page: e.page, sel: found}, nil
}

func (e element) FindAll(selector string) ([]page.Element, error) {
	if err := e.page.ensureOpen(); err != nil {
		return nil, err
	}
	found := e.sel.Find(selector)
	out := make([]page.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{page: e.page, sel: s})
	})
	return out, nil
}

// LoadDir builds a Site out of a directory of saved documents, the path of a
// document relative to dir is its url path and "index.html" files stand for
// the directory they are in. Every other file is downloadable.
func LoadDir(dir string, baseUrl string) (Site, error) {
	site := Site{
		BaseUrl: baseUrl,
		Pages:   map[string]string{},
		Submits: map[string]string{},
		Files:   map[string][]byte{},
	}
	err := filepath.WalkDir(dir, func(fpath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, fpath)
		if err != nil {
			return err
		}
		contents, err := os.ReadFile(fpath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if path.Base(rel) == "index.html" {
			site.Pages["/"+strings.TrimSuffix(rel, "index.html")] = string(contents)
			return nil
		}
		site.Files["/"+rel] = contents
		return nil
	})
	if err != nil {
		return Site{}, err
	}
	return site, nil
}
