// Package authoring implements the story editor: scenes and choices are added
// by building a new document and handing it to the engine.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tatianab/mystic-stories/internal/drafter"
	"github.com/tatianab/mystic-stories/internal/engine"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/notify"
	"github.com/tatianab/mystic-stories/internal/story"
	"github.com/tatianab/mystic-stories/internal/storybook"
)

var (
	// ErrMissingFields is returned when a required form field is blank.
	ErrMissingFields = errors.New("authoring: required fields are empty")
	// ErrUnknownScene is returned when a scene id does not exist.
	ErrUnknownScene = errors.New("authoring: scene not found")
	// ErrNoDrafter is returned by DraftScene when drafting is not configured.
	ErrNoDrafter = errors.New("authoring: scene drafting is not configured")
	// ErrRender is returned by ExportPDF when the storybook cannot be rendered.
	ErrRender = errors.New("authoring: export pdf")
)

// Panel is the authoring side of the application.
type Panel struct {
	engine  *engine.Engine
	store   *story.Store
	toasts  *notify.Center
	drafter drafter.Drafter
	pdf     storybook.Options
	now     func() time.Time
}

// Option configures a [Panel].
type Option func(*Panel)

// WithDrafter enables DraftScene.
func WithDrafter(d drafter.Drafter) Option {
	return func(p *Panel) { p.drafter = d }
}

// WithPDFFont sets the TrueType font used by ExportPDF.
func WithPDFFont(path string) Option {
	return func(p *Panel) { p.pdf.FontFile = path }
}

// WithClock overrides the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(p *Panel) { p.now = now }
}

// NewPanel creates an authoring panel editing the engine's story.
func NewPanel(eng *engine.Engine, store *story.Store, toasts *notify.Center, opts ...Option) *Panel {
	p := &Panel{
		engine: eng,
		store:  store,
		toasts: toasts,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SaveScene creates the scene id or updates its title and text. An existing
// scene keeps its choices and ending.
func (p *Panel) SaveScene(id, title, text string) error {
	id, title, text = strings.TrimSpace(id), strings.TrimSpace(title), strings.TrimSpace(text)
	if id == "" || title == "" || text == "" {
		p.toasts.Show("Заполните все поля сцены", notify.Warning)
		return ErrMissingFields
	}

	doc := p.engine.Story()
	node, ok := doc.Nodes[id]
	if !ok {
		node = models.Node{ID: id, Options: []models.Option{}}
	}
	node.Title = title
	node.Text = text
	if node.Options == nil {
		node.Options = []models.Option{}
	}

	if err := p.engine.SetStory(doc.WithNode(id, node)); err != nil {
		return fmt.Errorf("authoring: save scene %q: %w", id, err)
	}
	p.toasts.Show(fmt.Sprintf("Сцена «%s» сохранена", title), notify.Info)
	return nil
}

// ChoiceInput is the choice form.
type ChoiceInput struct {
	From        string
	Text        string
	To          string
	StatChanges string // "courage:1, brave:true"
	Inventory   string // "+amulet, -map"
}

// AddChoice appends a choice to the scene in.From.
func (p *Panel) AddChoice(in ChoiceInput) error {
	from := strings.TrimSpace(in.From)
	text := strings.TrimSpace(in.Text)
	to := strings.TrimSpace(in.To)
	stats := strings.TrimSpace(in.StatChanges)
	inventory := strings.TrimSpace(in.Inventory)

	if from == "" || text == "" || to == "" {
		p.toasts.Show("Заполните обязательные поля выбора", notify.Warning)
		return ErrMissingFields
	}

	doc := p.engine.Story()
	node, ok := doc.Nodes[from]
	if !ok {
		p.toasts.Show(fmt.Sprintf("Сцена %s не найдена", from), notify.Warning)
		return fmt.Errorf("%w: %s", ErrUnknownScene, from)
	}

	opt := models.Option{Text: text, Next: to}
	if stats != "" {
		opt.Effects = ParseStatChanges(stats)
	}
	if inventory != "" {
		opt.Inventory = splitList(inventory)
	}

	options := make([]models.Option, 0, len(node.Options)+1)
	options = append(options, node.Options...)
	node.Options = append(options, opt)

	if err := p.engine.SetStory(doc.WithNode(from, node)); err != nil {
		return fmt.Errorf("authoring: add choice to %q: %w", from, err)
	}
	p.toasts.Show("Выбор добавлен", notify.Info)
	return nil
}

// ParseStatChanges parses "key:value" pairs separated by commas. Numbers
// become stat deltas and true/false become flags; anything else is skipped.
func ParseStatChanges(input string) map[string]models.EffectValue {
	out := map[string]models.EffectValue{}
	for _, pair := range strings.Split(input, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) < 2 {
			continue
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil && n == n {
			out[key] = models.Number(n)
		} else if value == "true" || value == "false" {
			out[key] = models.Flag(value == "true")
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadScene returns a scene for editing.
func (p *Panel) LoadScene(id string) (models.Node, error) {
	node, ok := p.engine.GetNode(id)
	if !ok {
		p.toasts.Show(fmt.Sprintf("Сцена %s не найдена", id), notify.Warning)
		return models.Node{}, fmt.Errorf("%w: %s", ErrUnknownScene, id)
	}
	return node, nil
}

// Export returns the current story as indented JSON. The caller reports
// success once the data is saved.
func (p *Panel) Export() ([]byte, error) {
	return models.MarshalDocument(p.engine.Story())
}

// ExportFileName is the suggested file name for an export made now.
func (p *Panel) ExportFileName() string {
	return fmt.Sprintf("mystic-stories-%d.json", p.now().UnixMilli())
}

// Import replaces the story with the JSON document in data. An invalid
// document leaves the engine untouched.
func (p *Panel) Import(data []byte) error {
	doc, err := models.ParseDocument(data)
	if err != nil {
		p.toasts.Show("Не удалось импортировать историю", notify.Warning)
		return fmt.Errorf("authoring: import: %w", err)
	}
	if err := p.engine.SetStory(doc); err != nil {
		p.toasts.Show("Не удалось импортировать историю", notify.Warning)
		return fmt.Errorf("authoring: import: %w", err)
	}
	p.toasts.Show("История импортирована", notify.Info)
	return nil
}

// ResetStory replaces the story with the bundled default.
func (p *Panel) ResetStory() {
	p.engine.SetStory(p.store.ResetToDefault())
	p.toasts.Show("История сброшена к версии по умолчанию", notify.Info)
}

// ExportPDF writes the current story as a printable storybook. Rendering
// failures are reported here; success is left to the caller.
func (p *Panel) ExportPDF(w io.Writer) error {
	if err := storybook.Write(w, p.engine.Story(), p.pdf); err != nil {
		p.toasts.Show("Не удалось создать PDF", notify.Warning)
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// DraftScene asks the drafter for a scene and saves it under id.
func (p *Panel) DraftScene(ctx context.Context, id, hint string) (models.Node, error) {
	draft, err := p.RequestDraft(ctx, p.engine.Story(), id, hint)
	if err != nil {
		return models.Node{}, err
	}
	return p.SaveDraft(id, draft), nil
}

// RequestDraft asks the drafter for a scene without changing the story. doc
// is only read, so it may be called off the UI loop with a snapshot.
func (p *Panel) RequestDraft(ctx context.Context, doc *models.StoryDocument, id, hint string) (models.Node, error) {
	if p.drafter == nil {
		return models.Node{}, ErrNoDrafter
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.TrimSpace(hint) == "" {
		p.toasts.Show("Заполните все поля сцены", notify.Warning)
		return models.Node{}, ErrMissingFields
	}

	draft, err := p.drafter.DraftScene(ctx, doc, id, hint)
	if err != nil {
		p.toasts.Show("Не удалось сочинить сцену", notify.Warning)
		return models.Node{}, fmt.Errorf("authoring: draft scene %q: %w", id, err)
	}
	return draft, nil
}

// SaveDraft stores a drafted scene under id. An existing scene keeps its
// choices unless the draft brings its own.
func (p *Panel) SaveDraft(id string, draft models.Node) models.Node {
	id = strings.TrimSpace(id)
	doc := p.engine.Story()
	node := draft
	node.ID = id
	if existing, ok := doc.Nodes[id]; ok && len(draft.Options) == 0 && draft.Ending == nil {
		node.Options = existing.Options
	}
	if node.Options == nil && node.Ending == nil {
		node.Options = []models.Option{}
	}

	p.engine.SetStory(doc.WithNode(id, node))
	p.toasts.Show(fmt.Sprintf("Сцена «%s» сохранена", node.Title), notify.Info)
	return node
}
