package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joeharson/mushroom-classification/ml"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	tmpl *template.Template
}

func mustParsePages() *pages {
	return &pages{tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

// render executes a page into a buffer first so a failing template never leaves half a page.
func (p *pages) render(w http.ResponseWriter, status int, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// displayName turns "gill-color" into "Gill Color". Casers are stateful, so one is built per call.
func displayName(feature string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(feature, "-", " "))
}

// percent renders a probability the way the result page shows it, e.g. 0.9712 -> "97.12%".
func percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

type homePage struct {
	Title        string
	FeatureCount int
	ActiveCount  int
	Reference    bool
	Rows         int
	Edible       int
	Poisonous    int
}

type option struct {
	Value    string
	Selected bool
}

type formField struct {
	Name    string
	Display string
	Options []option
}

type resultView struct {
	Headline     string
	Poisonous    bool
	EdiblePct    string
	PoisonousPct string
	Warnings     []string
}

type predictPage struct {
	Title       string
	Unavailable string
	Fields      []formField
	Error       string
	Result      *resultView
}

func newResultView(result *ml.Result) *resultView {
	view := &resultView{
		Headline: fmt.Sprintf("Prediction: %s (Probability: %s)",
			result.Label, percent(result.Probabilities.Of(result.Label))),
		Poisonous:    result.Label == ml.Poisonous,
		EdiblePct:    percent(result.Probabilities.Edible),
		PoisonousPct: percent(result.Probabilities.Poisonous),
	}
	for _, w := range result.Warnings {
		view.Warnings = append(view.Warnings,
			fmt.Sprintf("%q is not a known %s value; it was encoded as %d.", w.Value, displayName(w.Feature), ml.DefaultCode))
	}
	return view
}

func (h *Handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	catalog := h.service.Catalog()
	page := homePage{
		Title:        "Mushroom Classification Project",
		FeatureCount: catalog.Len(),
		ActiveCount:  len(catalog.ActiveFeatures()),
		Reference:    h.reference != nil,
	}
	if h.reference != nil {
		balance := h.reference.ClassBalance()
		page.Rows = h.reference.Rows
		page.Edible = balance["edible"]
		page.Poisonous = balance["poisonous"]
	}
	h.renderPage(w, r, http.StatusOK, "home", page)
}

// formFields builds one select per active feature; selected holds the submitted values.
func (h *Handlers) formFields(selected map[string]string) []formField {
	active := h.service.Catalog().ActiveFeatures()
	fields := make([]formField, 0, len(active))
	for _, name := range active {
		field := formField{Name: name, Display: displayName(name)}
		for _, value := range h.reference.Options(name) {
			field.Options = append(field.Options, option{Value: value, Selected: selected[name] == value})
		}
		fields = append(fields, field)
	}
	return fields
}

func (h *Handlers) newPredictPage(selected map[string]string) predictPage {
	page := predictPage{Title: "Mushroom Classification"}
	if h.reference == nil {
		page.Unavailable = "Feature options are unavailable because the reference dataset could not be loaded."
		if h.referenceErr != nil {
			page.Unavailable += " Please check the logs for more details."
		}
		return page
	}
	page.Fields = h.formFields(selected)
	return page
}

func (h *Handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "predict", h.newPredictPage(nil))
}

func (h *Handlers) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.newPredictPage(nil)
		page.Error = "The form could not be read."
		h.renderPage(w, r, http.StatusBadRequest, "predict", page)
		return
	}

	selections := make(map[string]string)
	for _, name := range h.service.Catalog().ActiveFeatures() {
		if value := r.PostForm.Get(name); value != "" {
			selections[name] = value
		}
	}

	page := h.newPredictPage(selections)
	result, err := h.predict(r, selections)
	if err != nil {
		status, message := errorStatus(err)
		page.Error = message
		h.renderPage(w, r, status, "predict", page)
		return
	}
	page.Result = newResultView(result)
	h.renderPage(w, r, http.StatusOK, "predict", page)
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if err := h.pages.render(w, status, name, data); err != nil {
		h.logger.Error("Render page failed",
			zap.String("page", name),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
