// Package storybook renders a story document as a printable PDF.
package storybook

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/tatianab/mystic-stories/internal/models"
)

// Options controls rendering.
type Options struct {
	// FontFile is a UTF-8 TrueType font. Without it the bundled cp1251
	// Helvetica is used, which covers Latin and Cyrillic text.
	FontFile string
}

var (
	//go:embed fonts/helvetica_1251.json
	helvetica1251JSON []byte
	//go:embed fonts/helvetica_1251.z
	helvetica1251Z []byte
	//go:embed fonts/cp1251.map
	cp1251Map []byte
)

const (
	lineHeight = 6
	family     = "story"
)

// Write renders doc to w.
func Write(w io.Writer, doc *models.StoryDocument, opts Options) error {
	if doc == nil {
		return fmt.Errorf("storybook: nil document")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := func(s string) string { return s }
	if opts.FontFile != "" {
		pdf.AddUTF8Font(family, "", opts.FontFile)
	} else {
		pdf.AddFontFromBytes(family, "", helvetica1251JSON, helvetica1251Z)
		tr = cp1251Translator()
	}
	pdf.SetTitle(doc.Metadata.Title, true)
	pdf.SetAuthor(doc.Metadata.Author, true)

	pdf.AddPage()
	pdf.SetFont(family, "", 22)
	pdf.MultiCell(0, 10, tr(orDefault(doc.Metadata.Title, "Без названия")), "", "C", false)
	pdf.SetFont(family, "", 11)
	if doc.Metadata.Author != "" || doc.Metadata.Version != "" {
		pdf.MultiCell(0, lineHeight, tr(strings.TrimSpace(doc.Metadata.Author+" "+doc.Metadata.Version)), "", "C", false)
	}
	pdf.Ln(lineHeight)
	if doc.Metadata.Description != "" {
		pdf.MultiCell(0, lineHeight, tr(doc.Metadata.Description), "", "L", false)
		pdf.Ln(lineHeight)
	}

	for _, id := range nodeOrder(doc) {
		n := doc.Nodes[id]
		pdf.SetFont(family, "", 15)
		pdf.SetTextColor(40, 40, 90)
		heading := fmt.Sprintf("%s  [%s]", orDefault(n.Title, "Сцена"), id)
		if id == doc.StartNodeID {
			heading += "  *"
		}
		pdf.MultiCell(0, 8, tr(heading), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(family, "", 11)
		if n.Text != "" {
			pdf.MultiCell(0, lineHeight, tr(n.Text), "", "L", false)
		}
		if n.Ending != nil {
			pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("Финал: %s. %s", n.Ending.Type, n.Ending.Summary)), "", "L", false)
		} else {
			for i, opt := range n.Options {
				pdf.MultiCell(0, lineHeight, tr(optionLine(i+1, opt)), "", "L", false)
			}
		}
		pdf.Ln(lineHeight)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("storybook: render: %w", err)
	}
	return nil
}

// cp1251Translator maps UTF-8 text onto the code page of the bundled font.
// Characters outside it print as '.'.
func cp1251Translator() func(string) string {
	tr, _ := gofpdf.UnicodeTranslator(bytes.NewReader(cp1251Map))
	return tr
}

func nodeOrder(doc *models.StoryDocument) []string {
	ids := make([]string, 0, len(doc.Nodes))
	for id := range doc.Nodes {
		if id != doc.StartNodeID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if _, ok := doc.Nodes[doc.StartNodeID]; ok {
		ids = append([]string{doc.StartNodeID}, ids...)
	}
	return ids
}

func optionLine(n int, opt models.Option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", n, opt.Text)
	if opt.Next != "" {
		fmt.Fprintf(&b, " -> %s", opt.Next)
	}

	var notes []string
	for _, k := range sortedKeys(opt.Effects) {
		v := opt.Effects[k]
		switch v.Kind {
		case models.EffectNumber:
			if v.Number >= 0 {
				notes = append(notes, fmt.Sprintf("%s +%s", k, v))
			} else {
				notes = append(notes, fmt.Sprintf("%s %s", k, v))
			}
		case models.EffectFlag:
			notes = append(notes, fmt.Sprintf("%s=%s", k, v))
		}
	}
	notes = append(notes, opt.Inventory...)
	if r := opt.Requires; r != nil {
		for _, item := range r.Inventory {
			notes = append(notes, "нужно: "+item)
		}
		for _, stat := range sortedKeys(r.Stats) {
			notes = append(notes, fmt.Sprintf("%s >= %s", stat, strconv.FormatFloat(r.Stats[stat], 'f', -1, 64)))
		}
		for _, flag := range sortedKeys(r.Flags) {
			notes = append(notes, fmt.Sprintf("%s=%t", flag, r.Flags[flag]))
		}
		if r.Phrase != nil && *r.Phrase {
			notes = append(notes, "нужна фраза")
		}
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
