package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DroppedLink/feedback/internal/pkg/formschema"
	"github.com/DroppedLink/feedback/internal/types"
)

func TestCategorySave(t *testing.T) {
	setup(t)
	ctx := context.Background()

	_, err := Category.Save(ctx, &types.CategoryRequest{Name: "  "})
	assertKind(t, err, KindValidation, "Category name is required.")

	id, err := Category.Save(ctx, &types.CategoryRequest{Name: "Café Bugs"})
	require.NoError(t, err)
	cat, err := Category.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cafe-bugs", cat.Slug)

	_, err = Category.Save(ctx, &types.CategoryRequest{Name: "Other", Slug: "Cafe Bugs"})
	assertKind(t, err, KindConflict, "A category with this slug already exists.")

	// 更新自身时不和自己冲突
	_, err = Category.Save(ctx, &types.CategoryRequest{ID: id, Name: "Cafe Bugs", Description: "renamed"})
	require.NoError(t, err)

	_, err = Category.Save(ctx, &types.CategoryRequest{ID: 9999, Name: "Ghost"})
	assertKind(t, err, KindNotFound, "Category not found.")

	found, err := Category.GetBySlug(ctx, "cafe-bugs")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
}

func TestCategoryDeleteWithForms(t *testing.T) {
	setup(t)
	ctx := context.Background()
	catID := createCategory(t, "Support")
	formID := createForm(t, catID, "Support Form", `{"fields":[]}`, true)

	assertKind(t, Category.Delete(ctx, catID), KindIntegrity, "Cannot delete category with forms. Delete the forms first.")

	require.NoError(t, Form.Delete(ctx, formID))
	require.NoError(t, Category.Delete(ctx, catID))
	assertKind(t, Category.Delete(ctx, catID), KindNotFound, "")
	assertKind(t, Category.Delete(ctx, 0), KindValidation, "Invalid category ID.")
}

func TestFormSave(t *testing.T) {
	setup(t)
	ctx := context.Background()
	catID := createCategory(t, "Bugs")

	t.Run("checks in order", func(t *testing.T) {
		_, err := Form.Save(ctx, &types.FormRequest{CategoryID: catID})
		assertKind(t, err, KindValidation, "Form name is required.")

		_, err = Form.Save(ctx, &types.FormRequest{Name: "Report"})
		assertKind(t, err, KindValidation, "Category is required.")

		_, err = Form.Save(ctx, &types.FormRequest{Name: "Report", CategoryID: catID, FieldConfig: []byte(`{"fields":`)})
		assertKind(t, err, KindValidation, "Invalid field configuration JSON.")

		_, err = Form.Save(ctx, &types.FormRequest{Name: "Report", CategoryID: 9999})
		assertKind(t, err, KindValidation, "Category not found.")
	})

	id, err := Form.Save(ctx, &types.FormRequest{
		Name:        "Bug Report",
		CategoryID:  catID,
		FieldConfig: []byte(`"{\"fields\":[{\"id\":4,\"type\":\"text\",\"name\":\"title\",\"label\":\"Title\"}]}"`),
	})
	require.NoError(t, err)

	form, err := Form.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bug-report", form.Shortcode)
	assert.Equal(t, "bug-report", form.Slug)
	assert.True(t, form.IsActive)
	assert.Equal(t, 1, form.Version)
	cfg, err := formschema.Parse(form.FieldConfig)
	require.NoError(t, err)
	require.Len(t, cfg.Fields, 1)
	assert.Equal(t, 5, cfg.NextID)

	t.Run("shortcode conflict includes inactive forms", func(t *testing.T) {
		createForm(t, catID, "Hidden", `{"fields":[]}`, false)
		_, err := Form.Save(ctx, &types.FormRequest{Name: "Other", Shortcode: "hidden", CategoryID: catID})
		assertKind(t, err, KindConflict, "A form with this shortcode already exists.")
	})

	t.Run("optimistic version", func(t *testing.T) {
		_, err := Form.Save(ctx, &types.FormRequest{ID: id, Name: "Bug Report", CategoryID: catID, Version: 1})
		require.NoError(t, err)

		_, err = Form.Save(ctx, &types.FormRequest{ID: id, Name: "Bug Report", CategoryID: catID, Version: 1})
		assertKind(t, err, KindConflict, msgFormModified)

		// 不带版本号时后写覆盖
		_, err = Form.Save(ctx, &types.FormRequest{ID: id, Name: "Bug Report", CategoryID: catID, IsActive: boolPtr(false)})
		require.NoError(t, err)

		form, err := Form.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 3, form.Version)
		assert.False(t, form.IsActive)
	})

	_, err = Form.GetByShortcode(ctx, "bug-report")
	assertKind(t, err, KindNotFound, "Form not found or inactive.")
}

func TestFormFieldOps(t *testing.T) {
	setup(t)
	ctx := context.Background()
	formID := createForm(t, createCategory(t, "Bugs"), "Report", `{"fields":[]}`, true)

	cfg, err := Form.ApplyFieldOps(ctx, formID, []formschema.Op{
		{Kind: formschema.OpAdd, Type: formschema.TypeSelect},
		{Kind: formschema.OpAdd, Type: formschema.TypeTextarea},
	}, 1)
	require.NoError(t, err)
	require.Len(t, cfg.Fields, 2)
	assert.Equal(t, []string{"Option 1", "Option 2"}, cfg.Fields[0].Options)
	assert.Equal(t, formschema.DefaultRows, cfg.Fields[1].Rows)

	// 过期的版本号被拒绝，字段不变
	_, err = Form.ApplyFieldOps(ctx, formID, []formschema.Op{{Kind: formschema.OpRemove, ID: cfg.Fields[0].ID}}, 1)
	assertKind(t, err, KindConflict, msgFormModified)

	cfg, err = Form.ApplyFieldOps(ctx, formID, []formschema.Op{{Kind: formschema.OpMoveDown, ID: cfg.Fields[0].ID}}, 0)
	require.NoError(t, err)
	assert.Equal(t, formschema.TypeTextarea, cfg.Fields[0].Type)

	form, err := Form.Get(ctx, formID)
	require.NoError(t, err)
	assert.Equal(t, 3, form.Version)
	stored, err := formschema.Parse(form.FieldConfig)
	require.NoError(t, err)
	assert.Equal(t, cfg.Fields, stored.Fields)

	_, err = Form.ApplyFieldOps(ctx, 9999, nil, 0)
	assertKind(t, err, KindNotFound, "Form not found.")
}

func TestFormDeleteWithSubmissions(t *testing.T) {
	setup(t)
	ctx := context.Background()
	user := createUser(t, "alice", false)
	formID := createForm(t, createCategory(t, "Bugs"), "Report", `{"fields":[]}`, true)

	_, err := Submission.Submit(ctx, user.ID, &types.SubmitRequest{FormID: uintPtr(formID), Subject: "x"})
	require.NoError(t, err)

	assertKind(t, Form.Delete(ctx, formID), KindIntegrity, "Cannot delete form with submissions. Archive it instead by setting it to inactive.")
}

func TestFormListByCategory(t *testing.T) {
	setup(t)
	ctx := context.Background()
	a := createCategory(t, "A")
	b := createCategory(t, "B")
	createForm(t, a, "Zeta", `{"fields":[]}`, true)
	createForm(t, a, "Alpha", `{"fields":[]}`, false)
	createForm(t, b, "Beta", `{"fields":[]}`, true)

	forms, err := Form.ListByCategory(ctx, a)
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "Alpha", forms[0].Name)

	forms, err = Form.ListByCategory(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, forms)

	forms, err = Form.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, forms, 3)
}

func TestFormRender(t *testing.T) {
	setup(t)
	ctx := context.Background()
	catID := createCategory(t, "Bugs")
	createForm(t, catID, "Report", bugFormFields, true)
	createForm(t, catID, "Empty", `{"fields":[]}`, true)

	html, err := Form.Render(ctx, "report", "ctx-9")
	require.NoError(t, err)
	assert.Contains(t, string(html), `name="severity"`)
	assert.Contains(t, string(html), `value="ctx-9"`)

	html, err = Form.Render(ctx, "missing", "")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Error: Form not found or inactive.")

	html, err = Form.Render(ctx, "empty", "")
	require.NoError(t, err)
	assert.Contains(t, string(html), "This form has no fields configured yet.")
}

func TestCanned(t *testing.T) {
	setup(t)
	ctx := context.Background()

	_, err := Canned.Save(ctx, &types.CannedRequest{Title: "Only title"})
	assertKind(t, err, KindValidation, "Title and content are required.")

	b, err := Canned.Save(ctx, &types.CannedRequest{Title: "Beta", Content: "b"})
	require.NoError(t, err)
	_, err = Canned.Save(ctx, &types.CannedRequest{Title: "Alpha", Content: "a"})
	require.NoError(t, err)

	items, err := Canned.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].Title)

	_, err = Canned.Save(ctx, &types.CannedRequest{ID: b, Title: "Beta", Content: "updated"})
	require.NoError(t, err)
	item, err := Canned.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "updated", item.Content)

	require.NoError(t, Canned.Delete(ctx, b))
	assertKind(t, Canned.Delete(ctx, b), KindNotFound, "Canned response not found.")
}
