// Package ui renders the server's HTML pages as templ components.
package ui

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is the view of one job on the index page
type JobListItem struct {
	ID             string
	State          string
	RefPath        string
	Backend        string
	Genes          int
	Vertices       int
	Generation     int
	BestFitness    float64
	InitialFitness float64
	StartTime      time.Time
	EndTime        *time.Time
	Error          string
}

// Elapsed is the job's wall time so far
func (j JobListItem) Elapsed(now time.Time) time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime).Round(time.Second)
	}
	return now.Sub(j.StartTime).Round(time.Second)
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>evoshapes</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: left; }
.failed { color: #b00; }
.running { background: #f4f9ff; }
img { image-rendering: pixelated; max-width: 96px; }
</style>
</head>
<body>
<h1>Jobs</h1>
`

const (
	pageFoot   = "</body>\n</html>\n"
	emptyList  = "<p>No jobs yet. POST /api/v1/jobs to start one.</p>\n"
	tableHead  = "<table>\n<tr><th>Job</th><th>State</th><th>Reference</th><th>Shapes</th><th>Generation</th><th>Fitness</th><th>Elapsed</th><th>Best</th></tr>\n"
	tableClose = "</table>\n"
)

// JobList renders the index page
func JobList(jobs []JobListItem) templ.Component {
	if len(jobs) == 0 {
		return templ.Join(templ.Raw(pageHead), templ.Raw(emptyList), templ.Raw(pageFoot))
	}

	now := time.Now()
	parts := []templ.Component{templ.Raw(pageHead), templ.Raw(tableHead)}
	for _, j := range jobs {
		parts = append(parts, jobRow(j, now))
	}
	parts = append(parts, templ.Raw(tableClose), templ.Raw(pageFoot))
	return templ.Join(parts...)
}

// jobURL links into the job API; IDs that would not sanitize fall back to
// templ's inert URL
func jobURL(id, suffix string) templ.SafeURL {
	return templ.URL("/api/v1/jobs/" + url.PathEscape(id) + suffix)
}

func jobRow(j JobListItem, now time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rowClass := templ.Classes(
			templ.KV("running", j.State == "running"),
			templ.KV("failed", j.Error != ""),
		)
		if _, err := io.WriteString(w, "<tr"); err != nil {
			return err
		}
		if cls := rowClass.String(); cls != "" {
			if err := templ.RenderAttributes(ctx, w, templ.Attributes{"class": cls}); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "><td><a href=\"%s\">%s</a></td><td>",
			templ.EscapeString(string(jobURL(j.ID, "/status"))), templ.EscapeString(shortID(j.ID))); err != nil {
			return err
		}

		if j.Error != "" {
			if _, err := io.WriteString(w, "<span"); err != nil {
				return err
			}
			attrs := templ.OrderedAttributes{
				templ.KV[string, any]("class", "failed"),
				templ.KV[string, any]("title", j.Error),
			}
			if err := templ.RenderAttributes(ctx, w, attrs); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, ">%s</span>", templ.EscapeString(j.State)); err != nil {
				return err
			}
		} else if _, err := io.WriteString(w, templ.EscapeString(j.State)); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(w, "</td><td>%s</td><td>%d&times;%d (%s)</td><td>%d</td><td>%.2f &rarr; %.2f</td><td>%s</td><td><img",
			templ.EscapeString(j.RefPath),
			j.Genes, j.Vertices, templ.EscapeString(j.Backend),
			j.Generation,
			j.InitialFitness, j.BestFitness,
			j.Elapsed(now),
		); err != nil {
			return err
		}

		img := templ.OrderedAttributes{
			templ.KV[string, any]("src", string(jobURL(j.ID, "/best.png"))),
			templ.KV[string, any]("alt", "best"),
		}
		if err := templ.RenderAttributes(ctx, w, img); err != nil {
			return err
		}
		_, err := io.WriteString(w, "></td></tr>\n")
		return err
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
