package tui

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/mystic-stories/internal/authoring"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/notify"
)

const (
	historyLimit = 6
	meterWidth   = 12
	restartLabel = "Вернуться к началу"
)

var (
	sceneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C9A0FF")).
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ghostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A5A5A")).
			Strikethrough(true)

	endingStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFA500")).
			Padding(0, 1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	meterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A5CF5"))

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#3A5F3A")).
			PaddingLeft(1).
			PaddingRight(1)

	toastWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1E1E1E")).
				Background(lipgloss.Color("#FFB347")).
				PaddingLeft(1).
				PaddingRight(1)
)

// describeStatLevel names a stat value.
func describeStatLevel(v float64) string {
	switch {
	case v >= 5:
		return "Легендарно"
	case v >= 3:
		return "Опытно"
	case v >= 1:
		return "Новичок"
	}
	return "Слабый"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// meter draws v as a share of max.
func meter(v, max float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	percent := math.Max(0, math.Min(1, v/max))
	filled := int(math.Round(percent * meterWidth))
	return meterStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", meterWidth-filled)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m model) renderScene(width int) string {
	id := m.engine.CurrentNode()
	node, ok := m.engine.GetNode(id)
	if !ok {
		return errorStyle.Width(width).Render(fmt.Sprintf(
			"Сцена «%s» не найдена. История не может продолжиться: используйте /restart или /reset-story.", id))
	}

	title := node.Title
	if title == "" {
		title = "Сцена"
	}
	var b strings.Builder
	b.WriteString(sceneTitleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(node.Text))
	b.WriteString("\n\n")

	if m.engine.IsEnding(node) {
		card := fmt.Sprintf("Финал: %s\n%s", node.Ending.Type, node.Ending.Summary)
		b.WriteString(endingStyle.Width(width - 4).Render(card))
		b.WriteString("\n\n")
		b.WriteString(optionStyle.Render("1. " + restartLabel))
		return b.String()
	}

	if len(node.Options) == 0 {
		b.WriteString(emptyStyle.Width(width).Render("Здесь нет доступных действий. Вернитесь назад или перезапустите историю."))
		return b.String()
	}

	for i, opt := range node.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt.Text)
		if m.engine.CanUseOption(opt) {
			b.WriteString(optionStyle.Width(width).Render(line))
		} else {
			b.WriteString(ghostStyle.Width(width).Render(line + " (Требования не выполнены)"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderState(width int) string {
	doc := m.engine.Story()
	player := m.engine.Player()
	var b strings.Builder

	name := doc.Metadata.Title
	if name == "" {
		name = "Неизвестная история"
	}
	role := "Mystic storyteller"
	if doc.Metadata.Author != "" {
		role = "Автор: " + doc.Metadata.Author
	}
	b.WriteString(titleStyle.Render("ПРОФИЛЬ") + "\n" + name + "\n" + role + "\n\n")

	b.WriteString(titleStyle.Render("ХАРАКТЕРИСТИКИ") + "\n")
	if len(player.Stats) == 0 {
		b.WriteString(emptyStyle.Render("Характеристики пока не заданы.") + "\n")
	} else {
		max := 1.0
		for _, v := range player.Stats {
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v > max {
				max = v
			}
		}
		for _, stat := range sortedKeys(player.Stats) {
			v := player.Stats[stat]
			fmt.Fprintf(&b, "%s: %s (%s)\n%s\n", stat, formatNumber(v), describeStatLevel(v), meter(v, max))
		}
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("ИНВЕНТАРЬ") + "\n")
	if len(player.Inventory) == 0 {
		b.WriteString(emptyStyle.Render("Инвентарь пуст.") + "\n")
	}
	for _, item := range player.Inventory {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("НАВЫКИ") + "\n")
	var active []string
	for _, flag := range sortedKeys(player.Flags) {
		if player.Flags[flag] {
			active = append(active, flag)
		}
	}
	if len(player.Stats) == 0 && len(active) == 0 {
		b.WriteString(emptyStyle.Render("Навыки появятся по мере прохождения истории.") + "\n")
	}
	for _, flag := range active {
		b.WriteString(flag + ": Активно\n")
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("ИСТОРИЯ") + "\n")
	recent := m.recentNodes()
	if len(recent) == 0 {
		b.WriteString(emptyStyle.Render("Вы ещё не делали выборов в этой сессии.") + "\n")
	}
	for _, n := range recent {
		title := n.Title
		if title == "" {
			title = n.ID
		}
		b.WriteString(fmt.Sprintf("%s · %s\n", title, n.ID))
	}
	b.WriteString("\n")

	description := doc.Metadata.Description
	if description == "" {
		description = "Описание истории пока не задано."
	}
	b.WriteString(titleStyle.Render("О ИСТОРИИ") + "\n" + description + "\n")
	fmt.Fprintf(&b, "Автор: %s\nВерсия: %s\nСтарт: %s\n",
		orDash(doc.Metadata.Author), orDash(doc.Metadata.Version), orDash(doc.StartNodeID))

	return stateStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

// recentNodes returns up to six visited nodes that still exist, newest first.
func (m model) recentNodes() []models.Node {
	timeline := append(m.engine.History(), m.engine.CurrentNode())
	var nodes []models.Node
	for _, id := range timeline {
		if id == "" {
			continue
		}
		if n, ok := m.engine.GetNode(id); ok {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) > historyLimit {
		nodes = nodes[len(nodes)-historyLimit:]
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}

func renderSceneList(scenes []authoring.SceneSummary, filter string, width int) string {
	var b strings.Builder
	b.WriteString(sceneTitleStyle.Render(fmt.Sprintf("Сцены (%d)", len(scenes))))
	b.WriteString("\n\n")
	if len(scenes) == 0 {
		if filter != "" {
			return b.String() + emptyStyle.Render("Сцены по запросу не найдены.")
		}
		return b.String() + emptyStyle.Render("Добавьте первую сцену, чтобы начать историю.")
	}
	for _, s := range scenes {
		meta := fmt.Sprintf("ID: %s · %s", s.ID, s.Choices)
		if s.Ending {
			meta += " · Финал"
		}
		b.WriteString(optionStyle.Render(s.Title) + "\n")
		b.WriteString(helpStyle.Render(meta) + "\n")
		if s.Summary != "" {
			b.WriteString(lipgloss.NewStyle().Width(width).Render(s.Summary) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderToasts(toasts []notify.Toast, now func() time.Time) string {
	var lines []string
	for _, t := range toasts {
		style := toastInfoStyle
		if t.Level == notify.Warning {
			style = toastWarningStyle
		}
		if t.Fading(now()) {
			style = style.Faint(true)
		}
		lines = append(lines, style.Render(t.Message))
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
