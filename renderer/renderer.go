// Package renderer turns tradebook reports into markdown.
//
// Each report is an assembly template (trades.md, portfolio.md, heat.md) that
// includes partial templates named after it (trades_table.md, ...). Templates
// are embedded and rendered against a Report.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/tradebook"
)

//go:embed templates/*.md
var templateFS embed.FS

// templates is the templates directory.
var templates, _ = fs.Sub(templateFS, "templates")

var funcs = template.FuncMap{
	// opt renders an optional percentage, "n/a" when undefined.
	"opt": func(p *tradebook.Percent) string {
		if p == nil {
			return "n/a"
		}
		return p.String()
	},
	"ratio": func(f float64) string {
		if f == 0 {
			return "-"
		}
		return fmt.Sprintf("%.2f", f)
	},
	// price renders a price, "-" when it is not set.
	"price": func(m tradebook.Money) string {
		if m.IsZero() {
			return "-"
		}
		return m.String()
	},
}

// RenderTrades renders the trades report: every trade with its figures,
// followed by the realized P/L per month and per year.
func RenderTrades(r *Report) string {
	partials := map[string]string{
		"trades_title":    "trades_title.md",
		"trades_table":    "trades_table.md",
		"trades_rollups":  "trades_rollups.md",
		"trades_warnings": "trades_warnings.md",
	}
	return renderTemplate("trades", "trades.md", partials, r)
}

// RenderPortfolio renders the true portfolio timeline.
func RenderPortfolio(r *Report) string {
	partials := map[string]string{
		"portfolio_title":    "portfolio_title.md",
		"portfolio_timeline": "portfolio_timeline.md",
		"trades_warnings":    "trades_warnings.md",
	}
	return renderTemplate("portfolio", "portfolio.md", partials, r)
}

// RenderHeat renders the risk of the open positions.
func RenderHeat(r *Report) string {
	partials := map[string]string{
		"heat_table":      "heat_table.md",
		"trades_warnings": "trades_warnings.md",
	}
	return renderTemplate("heat", "heat.md", partials, r)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
