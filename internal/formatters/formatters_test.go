package formatters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumecoach/internal/session"
	"resumecoach/internal/synth"
	"resumecoach/internal/types"
)

func TestFormatAnalysisReport(t *testing.T) {
	report := types.AnalysisReport{
		Source:          "resume.pdf",
		Mode:            session.ModeTargeted,
		ATSScore:        81,
		HasScore:        true,
		TotalWeaknesses: 3,
		Summary:         "Strong backend profile.",
	}

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"=== RESUME ANALYSIS ===", "ATS Score: 81/100", "Weaknesses to address: 3", "Strong backend profile."}},
		{"markdown", []string{"# Resume Analysis", "**ATS Score:** 81/100", "## Summary"}},
		{"json", []string{`"ats_score": 81`, `"mode": "targeted"`}},
		{"yaml", []string{"ats_score: 81", "mode: targeted", "source: resume.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := GlobalRegistry.Format(report, tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestGeneralModeOmitsScore(t *testing.T) {
	out, err := GlobalRegistry.Format(types.AnalysisReport{Mode: session.ModeGeneral, TotalWeaknesses: 1}, "text")
	require.NoError(t, err)
	assert.NotContains(t, out, "ATS Score")
}

func TestFormatTemplateList(t *testing.T) {
	list := types.TemplateList{Templates: synth.Catalog(false)}

	out, err := GlobalRegistry.Format(list, "text")
	require.NoError(t, err)
	for _, tmpl := range session.Templates() {
		assert.Contains(t, out, string(tmpl))
		assert.Contains(t, out, tmpl.Label())
	}

	out, err = GlobalRegistry.Format(types.TemplateList{Templates: synth.Catalog(true)}, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "```")
}

func TestFormatRenderReport(t *testing.T) {
	out, err := GlobalRegistry.Format(types.RenderReport{Output: "out.pdf", Template: session.TemplateModern, Bytes: 1024}, "text")
	require.NoError(t, err)
	assert.Equal(t, "Wrote out.pdf (modern template, 1024 bytes)\n", out)
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(types.RenderReport{}, "xml")
	assert.ErrorContains(t, err, "no formatter found for format 'xml'")
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, GlobalRegistry.GetSupportedFormats())
}
