package templates

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, id := range []string{"meeting-notes", "daily-journal", "project-plan", "task-list"} {
		_, ok := r.Get(id)
		assert.True(t, ok, "missing builtin %s", id)
	}

	list := r.List()
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Name, list[i].Name)
	}
}

func TestLoadCustom(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	n, err := r.LoadCustom([]byte(`[
		{"id": "standup", "name": "Standup", "content": "# {{date}} standup", "tags": ["meeting"]},
		{"id": "retro", "name": "Retro", "content": "# Retro", "description": "Sprint retro"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tpl, ok := r.Get("standup")
	require.True(t, ok)
	assert.Equal(t, "Standup", tpl.Name)
	assert.Equal(t, []string{"meeting"}, tpl.Tags)
}

func TestLoadCustomShadowsBuiltin(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.LoadCustom([]byte(`[{"id": "task-list", "name": "My Tasks", "content": "- [ ] "}]`))
	require.NoError(t, err)

	tpl, _ := r.Get("task-list")
	assert.Equal(t, "My Tasks", tpl.Name)
	assert.Len(t, r.List(), 4)
}

func TestLoadCustomRejectsInvalid(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	cases := map[string]string{
		"missing content": `[{"id": "x", "name": "X"}]`,
		"empty id":        `[{"id": "", "name": "X", "content": "c"}]`,
		"extra field":     `[{"id": "x", "name": "X", "content": "c", "owner": "me"}]`,
		"not an array":    `{"id": "x", "name": "X", "content": "c"}`,
	}
	for name, body := range cases {
		_, err := r.LoadCustom([]byte(body))
		assert.Error(t, err, name)
	}

	_, err = r.LoadCustom([]byte(`{broken`))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	tpl := Template{Content: "# {{title}}\n{{date}} {{time}} in {{workspace}}"}
	got := Render(tpl, Vars{
		Title:     "Kickoff",
		Workspace: "Personal",
		Now:       time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	assert.Equal(t, "# Kickoff\n2025-03-14 09:30 in Personal", got)
}

func TestRenderDefaultsToNow(t *testing.T) {
	tpl := Template{Content: "{{date}}"}
	got := Render(tpl, Vars{})
	assert.False(t, strings.Contains(got, "{{"))
	assert.Len(t, got, len("2006-01-02"))
}
