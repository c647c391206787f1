package ui

import (
	"net/http"

	"immunostat/domain/cohort"
	domstats "immunostat/domain/stats"
	"immunostat/internal/service"
)

type indexData struct {
	Filter cohort.Filter
	Stats  *cohort.SubsetStats
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	stats, err := a.svc.SubsetStats(r.Context(), filter)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "index.html", indexData{Filter: filter, Stats: stats})
}

type frequenciesData struct {
	Filter cohort.Filter
	Result *service.FrequencyResult
}

func (a *App) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	result, err := a.svc.FrequencyTable(r.Context(), filter)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "frequencies.html", frequenciesData{Filter: filter, Result: result})
}

type analysisData struct {
	Filter cohort.Filter
	Result *service.AnalysisResult
}

func (a *App) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	opts := domstats.AnalysisOptions{}
	if v := r.URL.Query().Get("method"); v != "" {
		opts.Method = domstats.TestMethod(v)
	}
	if v := r.URL.Query().Get("unit"); v != "" {
		opts.Unit = domstats.Unit(v)
	}
	if v := r.URL.Query().Get("transform"); v != "" {
		opts.Transform = domstats.Transform(v)
	}

	result, err := a.svc.RunAnalysis(r.Context(), filter, opts)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "analysis.html", analysisData{Filter: filter, Result: result})
}

type flowData struct {
	Filter cohort.Filter
	Flow   []cohort.FlowStep
}

func (a *App) handleFlow(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	flow, err := a.svc.CohortFlow(r.Context(), filter)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "flow.html", flowData{Filter: filter, Flow: flow})
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	a.log.Error("ui request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func filterFromQuery(r *http.Request) cohort.Filter {
	filter := cohort.DefaultFilter()
	q := r.URL.Query()
	if v := q.Get("condition"); v != "" {
		filter.Condition = v
	}
	if v := q.Get("treatment"); v != "" {
		filter.Treatment = v
	}
	if v := q.Get("sample_type"); v != "" {
		filter.SampleType = v
	}
	if v := q.Get("time"); v != "" {
		filter.Time = cohort.TimeFilter(v)
	}
	return filter
}
