package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/threat-response/pkg/models/domain"
)

type TableConfig struct {
	FieldWidth int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		FieldWidth: 24,
		ValueWidth: 64,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type outcomeReport struct {
	Finding domain.Finding
	Outcome domain.RemediationOutcome
}

const outcomeTemplate = `
Finding {{.Finding.ID}} ({{.Finding.Type}})

Account: {{.Finding.AccountID}}
Region: {{.Finding.Region}}
Severity: {{severity .Finding.Severity}} ({{score .Finding.Severity}})
Outcome: {{.Outcome.Status}}

{{separator}}
{{formatRow "Field" "Value"}}
{{separator}}
{{formatRow "Resource Type" .Outcome.ResourceType}}
{{formatRow "Action" .Outcome.Action}}
{{if .Outcome.Target}}{{formatRow "Target" .Outcome.Target}}
{{end}}{{if .Outcome.Step}}{{formatRow "Failed Step" .Outcome.Step}}
{{end}}{{if .Outcome.ErrorDetail}}{{formatRow "Error" .Outcome.ErrorDetail}}
{{end}}{{range $key, $value := .Outcome.Details}}{{formatRow $key $value}}
{{end}}{{separator}}
`

// Handle renders the result of one remediation as a two column table.
func (c *Reporter) Handle(f domain.Finding, o domain.RemediationOutcome) error {
	funcMap := template.FuncMap{
		"formatRow": func(field string, value interface{}) string {
			return fmt.Sprintf("| %-*s | %-*v |",
				c.config.FieldWidth, field,
				c.config.ValueWidth, value)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+",
				strings.Repeat("-", c.config.FieldWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"severity": func(score float64) string {
			return domain.SeverityFromScore(score).String()
		},
		"score": domain.FormatScore,
	}

	t, err := template.New("outcome").Funcs(funcMap).Parse(outcomeTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, outcomeReport{Finding: f, Outcome: o})
}
