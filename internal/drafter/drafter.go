// Package drafter produces first drafts of scenes for authors.
package drafter

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/mystic-stories/internal/models"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/draft_scene.txt
var draftScenePrompt string

var draftTemplate = template.Must(template.New("draft_scene").Parse(draftScenePrompt))

// Drafter writes a draft of the scene id for doc from a short hint.
type Drafter interface {
	DraftScene(ctx context.Context, doc *models.StoryDocument, id, hint string) (models.Node, error)
}

// Gemini drafts scenes with a Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini connects to Gemini with apiKey.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("drafter: create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Close releases the client.
func (g *Gemini) Close() {
	g.client.Close()
}

// DraftScene implements [Drafter].
func (g *Gemini) DraftScene(ctx context.Context, doc *models.StoryDocument, id, hint string) (models.Node, error) {
	prompt, err := BuildPrompt(doc, id, hint)
	if err != nil {
		return models.Node{}, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.Node{}, fmt.Errorf("drafter: generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return models.Node{}, fmt.Errorf("drafter: no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return models.Node{}, fmt.Errorf("drafter: unexpected response type from Gemini")
	}

	node, err := ParseDraft(string(text))
	if err != nil {
		return models.Node{}, err
	}
	node.ID = id
	return node, nil
}

// BuildPrompt renders the drafting prompt for doc.
func BuildPrompt(doc *models.StoryDocument, id, hint string) (string, error) {
	data := struct {
		Title       string
		Description string
		Scenes      []string
		Stats       string
		ID          string
		Hint        string
	}{ID: id, Hint: hint}

	if doc != nil {
		data.Title = doc.Metadata.Title
		data.Description = doc.Metadata.Description
		for sid, n := range doc.Nodes {
			data.Scenes = append(data.Scenes, sid+": "+n.Title)
		}
		sort.Strings(data.Scenes)
		stats := make([]string, 0, len(doc.InitialStats))
		for name := range doc.InitialStats {
			stats = append(stats, name)
		}
		sort.Strings(stats)
		data.Stats = strings.Join(stats, ", ")
	}

	var buf bytes.Buffer
	if err := draftTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("drafter: render prompt: %w", err)
	}
	return buf.String(), nil
}

// ParseDraft decodes a YAML scene, tolerating a surrounding code fence.
func ParseDraft(text string) (models.Node, error) {
	cleanYAML := strings.TrimSpace(text)
	cleanYAML = strings.TrimPrefix(cleanYAML, "```yaml")
	cleanYAML = strings.TrimPrefix(cleanYAML, "```")
	cleanYAML = strings.TrimSuffix(cleanYAML, "```")

	var node models.Node
	if err := yaml.Unmarshal([]byte(cleanYAML), &node); err != nil {
		return models.Node{}, fmt.Errorf("drafter: failed to parse YAML: %w\nOutput was: %s", err, cleanYAML)
	}
	if strings.TrimSpace(node.Title) == "" || strings.TrimSpace(node.Text) == "" {
		return models.Node{}, fmt.Errorf("drafter: draft is missing a title or text")
	}
	if node.Ending != nil {
		node.Options = nil
	}
	return node, nil
}
