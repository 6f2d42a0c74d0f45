package docrender

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/leasedesk/leasedesk/internal/domain"
)

// Renderer turns a lease and its signature set into a durable document
// artifact. A real deployment plugs a PDF engine in behind this interface;
// the shipped implementation produces a plain-text signing certificate.
type Renderer interface {
	Render(ctx context.Context, lease *domain.Lease, agreement *domain.Agreement, sigs []*domain.Signature) ([]byte, error)
}

// defaultTemplate is used when the agreement carries no template content.
const defaultTemplate = `LEASE AGREEMENT
===============

Property: {{.Lease.PropertyAddress}} {{.Lease.UnitLabel}}
Landlord: {{.Lease.LandlordName}}
Monthly rent: {{.Rent}}
Term: {{.Lease.StartDate.Format "2006-01-02"}} to {{.Lease.EndDate.Format "2006-01-02"}}
`

const signatureBlock = `
SIGNATURES
----------
{{range .Signatures}}
{{.SignerRole}}: {{.SignerName}} <{{.SignerEmail}}> ({{.Method}}) signed {{.SignedAt.Format "2006-01-02 15:04:05 MST"}}
{{- end}}

Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}
`

type templateData struct {
	Lease       *domain.Lease
	Agreement   *domain.Agreement
	Signatures  []*domain.Signature
	Rent        string
	GeneratedAt time.Time
}

// TemplateRenderer renders the agreement body with text/template and appends
// the signature block. The agreement's TemplateContent, when set, replaces
// the default body.
type TemplateRenderer struct{}

func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

func (r *TemplateRenderer) Render(_ context.Context, lease *domain.Lease, agreement *domain.Agreement, sigs []*domain.Signature) ([]byte, error) {
	body := agreement.TemplateContent
	if body == "" {
		body = defaultTemplate
	}

	tmpl, err := template.New("agreement").Parse(body + signatureBlock)
	if err != nil {
		return nil, fmt.Errorf("docrender.TemplateRenderer.Render: parse: %w", err)
	}

	data := templateData{
		Lease:       lease,
		Agreement:   agreement,
		Signatures:  sigs,
		Rent:        formatCents(lease.RentCents),
		GeneratedAt: time.Now(),
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("docrender.TemplateRenderer.Render: execute: %w", err)
	}

	return buf.Bytes(), nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
