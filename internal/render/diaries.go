// ABOUTME: Renders a character's diaries as a single readable HTML archive page
// ABOUTME: Diary bodies are Markdown converted with goldmark; raw HTML in bodies is dropped

package render

import (
	"bytes"
	"cmp"
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/chatvault/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var diaryPage = template.Must(template.ParseFS(templateFS, "templates/diaries.html"))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type diaryEntry struct {
	ID    string
	Date  string
	Title string
	Mood  string
	Body  template.HTML
}

type diaryPageData struct {
	Character store.Character
	Avatar    template.URL
	Entries   []diaryEntry
}

// Diaries writes an archive page of c's diaries, oldest first. Diaries that
// belong to other characters are ignored.
func Diaries(w io.Writer, c store.Character, diaries []store.Diary) error {
	own := make([]store.Diary, 0, len(diaries))
	for _, d := range diaries {
		if d.CharID == c.ID {
			own = append(own, d)
		}
	}
	slices.SortStableFunc(own, func(a, b store.Diary) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.CreatedAt, b.CreatedAt))
	})

	data := diaryPageData{Character: c, Avatar: avatarURL(c.Avatar)}
	for _, d := range own {
		var body bytes.Buffer
		if err := markdown.Convert([]byte(d.Body), &body); err != nil {
			return fmt.Errorf("converting diary %s: %w", d.ID, err)
		}
		data.Entries = append(data.Entries, diaryEntry{
			ID:    d.ID,
			Date:  d.Date,
			Title: d.Title,
			Mood:  d.Mood,
			Body:  template.HTML(body.String()),
		})
	}

	if err := diaryPage.Execute(w, data); err != nil {
		return fmt.Errorf("rendering diary page: %w", err)
	}
	return nil
}

// avatarURL allows inline image data and web URLs. Asset references and
// anything else render without an avatar.
func avatarURL(avatar string) template.URL {
	switch {
	case strings.HasPrefix(avatar, "data:image/"),
		strings.HasPrefix(avatar, "https://"),
		strings.HasPrefix(avatar, "http://"):
		return template.URL(avatar)
	}
	return ""
}
