package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
)

func testForm(fields string) *model.Form {
	return &model.Form{
		ID:          12,
		Name:        "Bug <Report>",
		Description: "Tell us what broke",
		IsActive:    true,
		FieldConfig: datatypes.JSON(fields),
	}
}

func newRenderer(uploads bool) *Renderer {
	cfg := config.Default().Upload
	cfg.Enabled = &uploads
	cfg.AllowedFileTypes = "png,jpg"
	cfg.MaxFileSizeMB = 8
	return New(cfg, "/api/v1/feedback/submit")
}

func TestFormNotices(t *testing.T) {
	r := newRenderer(true)

	out, err := r.Form(nil, "")
	require.NoError(t, err)
	assert.Contains(t, string(out), MsgFormUnavailable)

	inactive := testForm(`{"fields":[{"id":0,"type":"text","name":"a","label":"A","required":false}]}`)
	inactive.IsActive = false
	out, err = r.Form(inactive, "")
	require.NoError(t, err)
	assert.Contains(t, string(out), MsgFormUnavailable)

	out, err = r.Form(testForm(`{"fields":[]}`), "")
	require.NoError(t, err)
	assert.Contains(t, string(out), MsgNoFields)

	_, err = r.Form(testForm(`{broken`), "")
	assert.Error(t, err)
}

func TestFormFields(t *testing.T) {
	r := newRenderer(true)
	out, err := r.Form(testForm(`{"fields":[
		{"id":0,"type":"select","name":"severity","label":"Severity","required":true,"options":["Low","High & Bad"]},
		{"id":1,"type":"text","name":"","label":"","required":false,"placeholder":"short title"},
		{"id":2,"type":"textarea","name":"steps","label":"Steps","required":false},
		{"id":3,"type":"file","name":"shot","label":"Screenshot","required":false},
		{"id":4,"type":"color","name":"c","label":"Colour","required":false}
	],"next_id":5}`), "lvl-1")
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `data-form-id="12"`)
	assert.Contains(t, html, `data-context-id="lvl-1"`)
	assert.Contains(t, html, "<h3>Bug &lt;Report&gt;</h3>")
	assert.Contains(t, html, "Tell us what broke")

	assert.Contains(t, html, "Severity *</label>")
	assert.Contains(t, html, `<option value="">-- Select --</option>`)
	assert.Contains(t, html, `<option value="High &amp; Bad">High &amp; Bad</option>`)

	assert.Contains(t, html, `name="field_1"`)
	assert.Contains(t, html, "Field 2</label>")
	assert.Contains(t, html, `<p class="description">short title</p>`)

	assert.Contains(t, html, `rows="6"`)
	assert.Contains(t, html, `accept=".png,.jpg"`)
	assert.Contains(t, html, "Attach a file (max 8 MB)")
	assert.NotContains(t, html, "Colour")
	assert.Contains(t, html, "Submit Feedback")

	// 必填标记只出现在必填字段
	assert.Equal(t, 1, strings.Count(html, " *</label>"))
}

func TestFileFieldHiddenWhenUploadsDisabled(t *testing.T) {
	r := newRenderer(false)
	out, err := r.Form(testForm(`{"fields":[
		{"id":0,"type":"text","name":"a","label":"A","required":false},
		{"id":1,"type":"file","name":"shot","label":"Screenshot","required":false}
	]}`), "")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Screenshot")
	assert.NotContains(t, string(out), `type="file"`)
}

func TestChangelog(t *testing.T) {
	r := newRenderer(true)

	out, err := r.Changelog(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No resolved bugs to display.")

	resolved := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	notes := "patched"
	out, err = r.Changelog([]model.Submission{{Subject: "Crash", ResolvedAt: &resolved, ResolutionNotes: &notes}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Mar 05, 2024")
	assert.Contains(t, string(out), "<strong>Crash</strong>")
	assert.Contains(t, string(out), "patched")
}
