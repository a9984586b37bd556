package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"jobdigest-engine/internal/domain"
)

// pipelineOrder is the order statuses appear in the pipeline summary.
var pipelineOrder = []string{"saved", "applied", "interview", "offer", "rejected"}

// FitColor is the badge color for a fit score.
func FitColor(score int) string {
	switch {
	case score >= 85:
		return "#1B7F5D"
	case score >= 75:
		return "#2B6CB0"
	default:
		return "#8A5A0B"
	}
}

type htmlRow struct {
	domain.JobRecord
	RowStyle template.CSS
	FitStyle template.CSS
	IsTop    bool
}

type pipelineCell struct {
	Name  string
	Count int
}

var htmlTmpl = template.Must(template.New("digest").Parse(`<div style="font-family:Arial, sans-serif; max-width:1000px; margin:0 auto;">
<h2 style="color:#0B4F8A; margin-bottom:4px;">Daily Job Digest · Last {{.WindowHours}} hours</h2>
{{- if .Pipeline}}
<div style="background:#EEF2FF; border:1px solid #C7D2FE; padding:12px; border-radius:8px; margin-bottom:14px; font-size:14px; color:#1E1B4B;">
<div style="font-weight:bold; margin-bottom:6px;">Pipeline Summary</div>
<div>{{range $i, $c := .Pipeline}}{{if $i}} | {{end}}<strong>{{$c.Name}}</strong>: {{$c.Count}}{{end}}</div>
</div>
{{- end}}
<p style="color:#555; margin-top:0;">Preferences: {{.Preferences}}</p>
<p style="color:#555; margin-top:0;">Sources checked: {{.SourcesSummary}}</p>
{{- if not .Rows}}
<div style="background:#F7F9FC; padding:16px; border-radius:8px;">
<p style="margin:0;">No roles matched in this window. Scanning continues and the next update follows at the next run.</p>
</div>
{{- else}}
<p style="color:#333; font-weight:bold;">Matches found: {{.Total}}</p>
{{- with .TopPick}}
<div style="border:1px solid #F3C969; border-left:6px solid #F5A623; background:#FFF8E6; padding:12px; border-radius:8px; margin-bottom:14px;">
<div style="font-weight:bold; color:#8A5A0B; margin-bottom:6px;">Top Pick</div>
<div style="font-size:16px; font-weight:bold; color:#0B4F8A;"><a href="{{.Link}}" style="color:#0B4F8A; text-decoration:none;">{{.Role}}</a></div>
<div style="color:#555; margin-top:4px;">{{.Company}} · {{.Location}}</div>
<div style="margin-top:8px; color:#333;"><strong>Released:</strong> {{.Posted}} · <strong>Source:</strong> {{.Source}} · <strong>Fit:</strong> {{.FitScore}}%</div>
<div style="margin-top:8px; color:#333;"><strong>Preference match:</strong> {{.PreferenceMatch}}</div>
<div style="margin-top:8px; color:#333;"><strong>Why you fit:</strong> {{.WhyFit}}</div>
<div style="margin-top:8px; color:#333;"><strong>Potential gaps:</strong> {{.CVGap}}</div>
</div>
{{- end}}
<table style="width:100%; border-collapse:collapse; font-family:Arial, sans-serif; border:1px solid #E5E9F0;">
<thead style="background:#F0F4F8;"><tr>
<th style="text-align:left; padding:10px;">Role</th>
<th style="text-align:left; padding:10px;">Released</th>
<th style="text-align:left; padding:10px;">Source</th>
<th style="text-align:left; padding:10px;">Fit</th>
<th style="text-align:left; padding:10px;">Preference Match</th>
<th style="text-align:left; padding:10px;">Why You Fit</th>
<th style="text-align:left; padding:10px;">Potential Gaps</th>
</tr></thead>
<tbody>
{{- range .Rows}}
<tr style="{{.RowStyle}}">
<td style="padding:10px;"><a href="{{.Link}}" style="color:#0B4F8A; text-decoration:none;"><strong>{{.Role}}</strong></a>
{{- if .IsTop}}<span style="display:inline-block; margin-left:8px; padding:2px 6px; border-radius:10px; background:#F5A623; color:#fff; font-size:11px; font-weight:bold;">Top Pick</span>{{end}}
<div style="color:#666; font-size:12px; margin-top:4px;">{{.Company}} · {{.Location}}</div></td>
<td style="padding:10px; white-space:nowrap;">{{.Posted}}</td>
<td style="padding:10px; color:#333;">{{.Source}}</td>
<td style="padding:10px;"><span style="{{.FitStyle}}">{{.FitScore}}%</span></td>
<td style="padding:10px; color:#333;">{{.PreferenceMatch}}</td>
<td style="padding:10px; color:#333;">{{.WhyFit}}</td>
<td style="padding:10px; color:#333;">{{.CVGap}}</td>
</tr>
{{- end}}
</tbody></table>
{{- end}}
</div>
`))

// HTML renders the email body.
func (d Digest) HTML() (string, error) {
	data := struct {
		Digest
		Rows     []htmlRow
		Pipeline []pipelineCell
	}{Digest: d}

	for i, r := range d.Records {
		row := htmlRow{JobRecord: r}
		row.IsTop = d.TopPick != nil && r.Link == d.TopPick.Link && r.Role == d.TopPick.Role
		bg := "#FFFFFF"
		if i%2 == 1 {
			bg = "#F9FBFD"
		}
		if row.IsTop {
			bg = "#FFF3D6"
		}
		row.RowStyle = template.CSS("background:" + bg + ";")
		row.FitStyle = template.CSS("display:inline-block; padding:4px 8px; border-radius:12px; background:" +
			FitColor(r.FitScore) + "; color:#fff; font-weight:bold;")
		data.Rows = append(data.Rows, row)
	}
	if d.Pipeline != nil {
		for _, s := range pipelineOrder {
			data.Pipeline = append(data.Pipeline, pipelineCell{Name: strings.ToUpper(s[:1]) + s[1:], Count: d.Pipeline[s]})
		}
	}

	var b bytes.Buffer
	if err := htmlTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render digest html: %w", err)
	}
	return b.String(), nil
}

// Text renders the plain-text alternative.
func (d Digest) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily job digest (last %d hours).\n", d.WindowHours)
	fmt.Fprintf(&b, "Preferences: %s\n", d.Preferences)
	fmt.Fprintf(&b, "Sources checked: %s\n", d.SourcesSummary)
	fmt.Fprintf(&b, "Roles found: %d\n\n", d.Total)

	entry := func(r domain.JobRecord) {
		fmt.Fprintf(&b, "- %s | %s | %s | Source %s | Fit %d%%\n", r.Role, r.Company, r.Posted, r.Source, r.FitScore)
		fmt.Fprintf(&b, "  Preference match: %s\n", r.PreferenceMatch)
		fmt.Fprintf(&b, "  Why fit: %s\n", r.WhyFit)
		fmt.Fprintf(&b, "  Potential gaps: %s\n", r.CVGap)
		fmt.Fprintf(&b, "  Link: %s\n\n", r.Link)
	}
	if d.TopPick != nil {
		b.WriteString("Top pick:\n")
		entry(*d.TopPick)
	}
	for _, r := range d.Records {
		entry(r)
	}
	return b.String()
}
