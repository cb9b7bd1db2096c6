package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/chatvault/internal/store"
)

func TestDiaries(t *testing.T) {
	c := store.Character{ID: "c1", Name: "Aster", Avatar: "data:image/png;base64,QUFB"}
	diaries := []store.Diary{
		{ID: "d2", CharID: "c1", Date: "2024-05-02", Title: "Sun", Body: "It was **bright**."},
		{ID: "d1", CharID: "c1", Date: "2024-05-01", Body: "# Rain\n\n- umbrella\n- tea", Mood: "calm"},
		{ID: "x1", CharID: "c2", Date: "2024-05-01", Body: "someone else"},
	}

	var buf bytes.Buffer
	require.NoError(t, Diaries(&buf, c, diaries))
	out := buf.String()

	assert.Contains(t, out, "<title>Aster's diary</title>")
	assert.Contains(t, out, "2 entries")
	assert.Contains(t, out, "<strong>bright</strong>")
	assert.Contains(t, out, "<li>umbrella</li>")
	assert.Contains(t, out, "calm")
	assert.Contains(t, out, `src="data:image/png;base64,QUFB"`)
	assert.NotContains(t, out, "someone else")

	assert.Less(t, strings.Index(out, `id="d1"`), strings.Index(out, `id="d2"`), "oldest first")
}

func TestDiaries_UntitledUsesDate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Diaries(&buf, store.Character{ID: "c1", Name: "A"}, []store.Diary{
		{ID: "d1", CharID: "c1", Date: "2024-06-01", Body: "plain"},
	}))

	assert.Contains(t, buf.String(), "<h2>2024-06-01</h2>")
	assert.Contains(t, buf.String(), "1 entry")
}

func TestDiaries_DropsRawHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Diaries(&buf, store.Character{ID: "c1", Name: "A"}, []store.Diary{
		{ID: "d1", CharID: "c1", Date: "2024-06-01", Body: "hi <script>alert(1)</script>"},
	}))

	assert.NotContains(t, buf.String(), "<script>")
}

func TestDiaries_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Diaries(&buf, store.Character{ID: "c1", Name: "A", Avatar: "asset:a1"}, nil))

	assert.Contains(t, buf.String(), "No entries yet.")
	assert.NotContains(t, buf.String(), "<img")
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t, "https://x/a.png", string(avatarURL("https://x/a.png")))
	assert.Empty(t, avatarURL("asset:a1"))
	assert.Empty(t, avatarURL("javascript:alert(1)"))
}
