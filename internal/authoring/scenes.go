package authoring

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tatianab/mystic-stories/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	summaryLimit = 96
	summaryKeep  = 93
)

// SceneSummary is one row of the scene list.
type SceneSummary struct {
	ID      string
	Title   string
	Choices string
	Ending  bool
	Summary string
}

// Scenes lists the story's scenes sorted by title, keeping those whose title
// or id contains filter (case-insensitive).
func (p *Panel) Scenes(filter string) []SceneSummary {
	filter = strings.ToLower(strings.TrimSpace(filter))
	nodes := make([]models.Node, 0, len(p.engine.Story().Nodes))
	for _, n := range p.engine.Story().Nodes {
		nodes = append(nodes, n)
	}

	col := collate.New(language.Russian)
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := sortKey(nodes[i]), sortKey(nodes[j])
		if c := col.CompareString(a, b); c != 0 {
			return c < 0
		}
		return nodes[i].ID < nodes[j].ID
	})

	var out []SceneSummary
	for _, n := range nodes {
		searchable := strings.ToLower(n.Title + " " + n.ID)
		if filter != "" && !strings.Contains(searchable, filter) {
			continue
		}
		title := n.Title
		if title == "" {
			title = "Без названия"
		}
		out = append(out, SceneSummary{
			ID:      n.ID,
			Title:   title,
			Choices: FormatChoiceCount(len(n.Options)),
			Ending:  p.engine.IsEnding(n),
			Summary: truncate(n.Text),
		})
	}
	return out
}

func sortKey(n models.Node) string {
	if n.Title != "" {
		return strings.ToLower(n.Title)
	}
	return strings.ToLower(n.ID)
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	return string([]rune(text)[:summaryKeep]) + "…"
}

// FormatChoiceCount renders a choice count with the matching Russian plural.
func FormatChoiceCount(n int) string {
	switch {
	case n == 1:
		return "1 выбор"
	case n > 1 && n < 5:
		return fmt.Sprintf("%d выбора", n)
	}
	return fmt.Sprintf("%d выборов", n)
}
