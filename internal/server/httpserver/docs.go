package httpserver

import (
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docbrowse/internal/events"
	"git.home.luguber.info/inful/docbrowse/internal/logfields"
	"git.home.luguber.info/inful/docbrowse/internal/metrics"
	"git.home.luguber.info/inful/docbrowse/internal/modpath"
	"git.home.luguber.info/inful/docbrowse/internal/page"
	"git.home.luguber.info/inful/docbrowse/internal/site"
	"git.home.luguber.info/inful/docbrowse/internal/version"
)

// handleIndex serves the bare mount path. With a default module configured
// the browser redirects there, matching the behavior of documentation sites
// that open on their main page. Otherwise it lists every known module.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.opts.DefaultModule.IsZero() {
		s.opts.Recorder.IncLookup(metrics.LookupRedirected)
		http.Redirect(w, r, s.localURL(s.opts.DefaultModule), http.StatusFound)
		return
	}

	entries := make([]site.IndexEntry, 0, 64)
	for _, id := range s.opts.Locator.List() {
		if !s.opts.Allow.Permits(id) {
			continue
		}
		entries = append(entries, site.IndexEntry{
			Module: id.Canonical(),
			URL:    s.localURL(id),
		})
	}

	// Case-insensitive, locale-aware ordering keeps Foo::bar next to
	// Foo::Bar in the listing.
	coll := collate.New(language.English, collate.IgnoreCase)
	sort.Slice(entries, func(i, j int) bool {
		return coll.CompareString(entries[i].Module, entries[j].Module) < 0
	})

	html, err := s.opts.Site.Index(site.IndexData{
		Title:   "Module index",
		Entries: entries,
		Version: version.Version,
	})
	if err != nil {
		slog.Error("failed to render index", logfields.Error(err), logfields.Layout("index"))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

// handleModule serves a single module page. Modules outside the allowlist
// and modules without local documentation are redirected to the external
// reference site rather than answered with an error.
func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, s.cfg.Server.Mount+"/")
	if rest == "" {
		s.handleIndex(w, r)
		return
	}

	id, err := modpath.FromPath(rest)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if !s.opts.Allow.Permits(id) {
		s.opts.Recorder.IncLookup(metrics.LookupDenied)
		slog.Debug("module not permitted", logfields.Module(id.Canonical()))
		http.Redirect(w, r, s.externalURL(id), http.StatusFound)
		return
	}

	path, err := s.opts.Locator.Locate(id)
	if err != nil {
		s.opts.Recorder.IncLookup(metrics.LookupNotFound)
		slog.Debug("module not found locally", logfields.Module(id.Canonical()))
		http.Redirect(w, r, s.externalURL(id), http.StatusFound)
		return
	}

	src, err := os.ReadFile(path)
	if err != nil {
		s.opts.Recorder.IncLookup(metrics.LookupNotFound)
		http.Redirect(w, r, s.externalURL(id), http.StatusFound)
		return
	}

	if wantsPlainText(r) {
		s.opts.Recorder.IncLookup(metrics.LookupServed)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(src)
		return
	}

	result := s.renderPage(r, id, path, src)

	body, err := s.opts.Site.Page(s.cfg.Server.Layout, site.PageData{
		Title:       result.Title,
		Module:      id.Canonical(),
		ModulePath:  id.Path(),
		Content:     template.HTML(result.HTML),
		TOC:         result.TOC,
		ExternalURL: s.externalURL(id),
		Version:     version.Version,
	})
	if err != nil {
		slog.Error("failed to render layout", logfields.Layout(s.cfg.Server.Layout), logfields.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.opts.Recorder.IncLookup(metrics.LookupServed)
	s.opts.Events.Publish(events.TypePageRendered, id.Canonical(), path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// renderPage converts markup to the final page fragment, consulting the
// render cache keyed on file path and modification time. Conversion errors
// degrade to the error's text as the page body rather than failing the
// request; such pages are never cached.
func (s *Server) renderPage(r *http.Request, id modpath.Identifier, path string, src []byte) page.Result {
	var mtime int64
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime().Unix()
	}

	if cached, ok := s.opts.Cache.Get(r.Context(), path, mtime); ok {
		s.opts.Recorder.IncCache(true)
		return cached
	}
	s.opts.Recorder.IncCache(false)

	start := time.Now()
	fragment, convErr := s.opts.Converter.Convert(src)
	if convErr != nil {
		slog.Warn("failed to convert markup", logfields.Module(id.Canonical()), logfields.Error(convErr))
		fragment = convErr.Error()
	}
	result := page.Process(fragment, page.Context{
		Current:         id,
		Allow:           s.opts.Allow,
		ExternalBaseURL: s.cfg.Docs.ExternalBaseURL,
		LocalURL:        s.localURL,
	})
	s.opts.Recorder.ObserveRenderDuration(time.Since(start))

	if convErr != nil {
		return result
	}
	if err := s.opts.Cache.Put(r.Context(), path, mtime, result); err != nil {
		slog.Warn("failed to store page in cache", logfields.Path(path), logfields.Error(err))
	}
	return result
}

// wantsPlainText reports whether the client asked for the raw source. A
// browser Accept header lists text/html, which wins over text/plain.
func wantsPlainText(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "text/html")
}
