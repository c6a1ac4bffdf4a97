package compose

import (
	"context"
	"strings"

	"github.com/bhujal-ai/bhujal/internal/i18n"
)

// Template is the deterministic composition service. It joins the
// grounded segments verbatim, so its output carries exactly the numbers
// retrieval produced and nothing else. It needs no credential, never
// errors, and backs every hosted service as the fallback.
type Template struct{}

// Name implements Service.
func (Template) Name() string { return "template" }

// Available implements Service. The template always works.
func (Template) Available() bool { return true }

// Complete implements Service.
func (Template) Complete(_ context.Context, req Request) (string, error) {
	segments := make([]string, 0, len(req.Segments))
	for _, seg := range req.Segments {
		if s := strings.TrimSpace(seg); s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return i18n.T(i18n.Normalize(req.Language), "answer.insufficient.generic"), nil
	}
	return strings.Join(segments, "\n\n"), nil
}
