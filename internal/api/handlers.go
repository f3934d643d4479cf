package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/domain"
	"github.com/ZaguanLabs/invlocale/internal/investment"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Build      invlocale.Build            `json:"build"`
	Components map[string]ComponentHealth `json:"components"`
}

// LocaleInfo describes one served locale.
type LocaleInfo struct {
	Code   invlocale.Locale `json:"code"`
	Name   string           `json:"name"`
	Source bool             `json:"source"`
}

// RefreshResponse reports a synchronous repair.
type RefreshResponse struct {
	State      reconcile.State    `json:"state"`
	Previous   reconcile.State    `json:"previous"`
	SourceHash string             `json:"sourceHash"`
	Translated []invlocale.Locale `json:"translated"`
	Skipped    []invlocale.Locale `json:"skipped"`
	UpToDate   []invlocale.Locale `json:"upToDate"`
	Failed     map[string]string  `json:"failed,omitempty"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Build:      invlocale.BuildInfo(),
		Components: map[string]ComponentHealth{},
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Components["database"] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			resp.Components["database"] = ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
		}
	}

	JSON(w, status, resp, s.logger)
}

func (s *Server) handleListLocales(w http.ResponseWriter, _ *http.Request) {
	locales := make([]LocaleInfo, 0, len(invlocale.SupportedLocales))
	for _, l := range invlocale.SupportedLocales {
		locales = append(locales, LocaleInfo{Code: l, Name: invlocale.GetLanguageName(l), Source: l.IsSource()})
	}
	Success(w, locales, s.logger)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.InvestmentFilter{
		Category: q.Get("category"),
		Status:   domain.InvestmentStatus(q.Get("status")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		BadRequest(w, "limit must be an integer", s.logger)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		BadRequest(w, "offset must be an integer", s.logger)
		return
	}

	result, err := s.service.List(r.Context(), filter, requestLang(r))
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Language", result.Locale.String())
	Success(w, result, s.logger)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var in investment.CreateInput
	if !s.decode(w, r, &in) {
		return
	}

	inv, err := s.service.Create(r.Context(), in)
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}
	Created(w, inv, s.logger)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.Get(r.Context(), chi.URLParam(r, "id"), requestLang(r))
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Language", inv.Locale.String())
	Success(w, inv, s.logger)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var in investment.UpdateInput
	if !s.decode(w, r, &in) {
		return
	}

	inv, err := s.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}
	Success(w, inv, s.logger)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		HandleError(w, err, s.logger)
		return
	}
	NoContent(w)
}

func (s *Server) handleListTranslations(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Translations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}
	Success(w, records, s.logger)
}

func (s *Server) handleCurateTranslation(w http.ResponseWriter, r *http.Request) {
	var in investment.CurateInput
	if !s.decode(w, r, &in) {
		return
	}

	record, err := s.service.CurateTranslation(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lang"), in)
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}
	Success(w, record, s.logger)
}

func (s *Server) handleRefreshTranslations(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.RefreshTranslations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err, s.logger)
		return
	}
	Success(w, refreshResponse(res), s.logger)
}

func refreshResponse(res *reconcile.Result) RefreshResponse {
	out := RefreshResponse{
		State:      res.State,
		Previous:   res.Previous,
		SourceHash: res.Hash,
		Translated: nonNil(res.Translated),
		Skipped:    nonNil(res.Skipped),
		UpToDate:   nonNil(res.UpToDate),
	}
	if len(res.Failed) > 0 {
		out.Failed = make(map[string]string, len(res.Failed))
		for lang, err := range res.Failed {
			out.Failed[lang.String()] = err.Error()
		}
	}
	return out
}

func nonNil(locales []invlocale.Locale) []invlocale.Locale {
	if locales == nil {
		return []invlocale.Locale{}
	}
	return locales
}

// decode reads a JSON body into dst and writes a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		BadRequest(w, "invalid request body: "+err.Error(), s.logger)
		return false
	}
	return true
}

// requestLang picks the lang query parameter, then the preferred
// Accept-Language entry. The service falls back to the source locale for
// anything it does not serve.
func requestLang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return preferredLanguage(r.Header.Get("Accept-Language"))
}

// preferredLanguage returns the highest weighted supported tag of an
// Accept-Language header, or "".
func preferredLanguage(header string) string {
	type candidate struct {
		tag string
		q   float64
	}
	var candidates []candidate
	for _, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if tag == "" || tag == "*" {
			continue
		}
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		if _, ok := invlocale.LookupLocale(tag); ok {
			candidates = append(candidates, candidate{tag: tag, q: q})
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].q > candidates[j].q })
	return candidates[0].tag
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
