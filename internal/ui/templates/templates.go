// Package templates renders the dashboard page and the fragments that the
// SSE endpoints patch into it.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"planogram-dashboard/internal/display"
	"planogram-dashboard/internal/models"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"yen":        display.Yen,
	"count":      display.Count,
	"measure":    display.Measure,
	"efficiency": display.Efficiency,
	"date":       display.Date,
	"period":     display.Period,
	"rating":     display.Rating,
	"since":      display.Since,
	"change": func(c models.ChangeSet, m models.Metric) models.Change {
		return c.Get(m)
	},
	"window": func(d *models.Deployment) models.Window {
		if d == nil {
			return models.Window{}
		}
		return d.Window()
	},
}

var pages = template.Must(template.New("pages").Funcs(funcs).ParseFS(files, "html/*.html"))

// PageData seeds the full page.
type PageData struct {
	Options  Options
	LoadedAt time.Time
	Notices  []models.Notice
}

// Options are the choices offered by the selectors for the current signals.
type Options struct {
	Selection   Signals
	Stores      []string
	Themes      []string
	Deployments []models.Deployment
	Products    []models.ProductOption
	Metrics     []models.MetricInfo
}

// Signals mirror the client-side datastar signals of the page.
type Signals struct {
	Store   string `json:"store"`
	Theme   string `json:"theme"`
	Start   string `json:"start"`
	Metric  string `json:"metric"`
	Product string `json:"product"`
}

// card is one summary card: a metric's current total, prior total and change.
type card struct {
	Info    models.MetricInfo
	Current models.Measures
	Prior   models.Measures
	Change  models.Change
	HasPrev bool
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

func Dashboard(data PageData) templ.Component {
	return render("page", data)
}

func Selectors(opts Options) templ.Component {
	return render("selectors", opts)
}

func DeploymentHeader(d *models.Dashboard) templ.Component {
	return render("header", d)
}

// SummaryCards renders one card per metric, the selected metric first.
func SummaryCards(d *models.Dashboard) templ.Component {
	cards := make([]card, 0, len(models.Metrics))
	order := append([]models.MetricInfo{d.Selection.Metric.Info()}, models.Metrics...)
	seen := make(map[models.Metric]bool)
	for _, info := range order {
		if seen[info.Metric] {
			continue
		}
		seen[info.Metric] = true
		cards = append(cards, card{
			Info:    info,
			Current: d.Current,
			Prior:   d.Prior,
			Change:  d.Changes.Get(info.Metric),
			HasPrev: d.Previous != nil,
		})
	}
	return render("cards", struct {
		Empty bool
		Cards []card
	}{d.Empty, cards})
}

func ShelfTable(d *models.Dashboard) templ.Component {
	return render("shelf", d)
}

func Notices(notices []models.Notice) templ.Component {
	return render("notices", notices)
}

// Fragments renders every dashboard region in one stream of elements, each
// carrying the id it replaces.
func Fragments(d *models.Dashboard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range []templ.Component{
			DeploymentHeader(d),
			SummaryCards(d),
			ShelfTable(d),
			Notices(d.Notices),
		} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
