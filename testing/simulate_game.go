// Command simulate_game plays every choice sequence of a story offline and
// reports which endings are reachable, which choices lead to missing scenes,
// and which scenes are never visited.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/tatianab/mystic-stories/internal/engine"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/storage"
	"github.com/tatianab/mystic-stories/internal/story"
)

const (
	defaultMaxDepth = 50
	defaultMaxPaths = 100000
)

type report struct {
	Paths     int
	Endings   map[string]int
	Missing   map[string]int
	DeadEnds  map[string]int
	Truncated int
	Visited   map[string]bool
}

type simulator struct {
	engine   *engine.Engine
	maxDepth int
	maxPaths int
	report   report
}

func main() {
	file := flag.String("story", "", "story JSON to simulate (default: bundled story)")
	maxDepth := flag.Int("depth", defaultMaxDepth, "maximum choices per playthrough")
	flag.Parse()

	store := story.NewStore(storage.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	eng := engine.NewEngine(store)
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read story: %v", err)
		}
		doc, err := models.ParseDocument(data)
		if err != nil {
			log.Fatalf("Failed to parse story: %v", err)
		}
		if err := eng.SetStory(doc); err != nil {
			log.Fatalf("Failed to load story: %v", err)
		}
	}

	r := simulate(eng, *maxDepth, defaultMaxPaths)
	printReport(os.Stdout, eng.Story(), r)
}

// simulate explores every sequence of usable choices from the start node.
func simulate(eng *engine.Engine, maxDepth, maxPaths int) report {
	s := &simulator{
		engine:   eng,
		maxDepth: maxDepth,
		maxPaths: maxPaths,
		report: report{
			Endings:  map[string]int{},
			Missing:  map[string]int{},
			DeadEnds: map[string]int{},
			Visited:  map[string]bool{},
		},
	}
	s.explore(nil)
	eng.ResetState()
	return s.report
}

// replay restarts the playthrough and applies path, one option index per step.
func (s *simulator) replay(path []int) {
	s.engine.ResetState()
	for _, i := range path {
		node, _ := s.engine.GetNode(s.engine.CurrentNode())
		opt := node.Options[i]
		s.engine.ApplyOption(&opt)
	}
}

func (s *simulator) explore(path []int) {
	if s.report.Paths >= s.maxPaths {
		return
	}
	s.replay(path)
	id := s.engine.CurrentNode()
	node, ok := s.engine.GetNode(id)
	if !ok {
		s.report.Missing[id]++
		s.report.Paths++
		return
	}
	s.report.Visited[id] = true
	if s.engine.IsEnding(node) {
		s.report.Endings[id]++
		s.report.Paths++
		return
	}
	if len(path) >= s.maxDepth {
		s.report.Truncated++
		s.report.Paths++
		return
	}

	var usable []int
	for i, opt := range node.Options {
		if s.engine.CanUseOption(opt) {
			usable = append(usable, i)
		}
	}
	if len(usable) == 0 {
		s.report.DeadEnds[id]++
		s.report.Paths++
		return
	}
	for _, i := range usable {
		s.explore(append(slices.Clone(path), i))
	}
}

// unvisited lists the scenes no playthrough reached.
func (r report) unvisited(doc *models.StoryDocument) []string {
	var ids []string
	for id := range doc.Nodes {
		if !r.Visited[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func printReport(w io.Writer, doc *models.StoryDocument, r report) {
	fmt.Fprintf(w, "--- %s: %d playthroughs ---\n", doc.Metadata.Title, r.Paths)

	fmt.Fprintln(w, "Endings:")
	for _, id := range sortedKeys(r.Endings) {
		node := doc.Nodes[id]
		fmt.Fprintf(w, "  %s (%s): %d\n", id, node.Ending.Type, r.Endings[id])
	}
	if len(r.Missing) > 0 {
		fmt.Fprintln(w, "Missing scenes:")
		for _, id := range sortedKeys(r.Missing) {
			fmt.Fprintf(w, "  %s: %d\n", id, r.Missing[id])
		}
	}
	if len(r.DeadEnds) > 0 {
		fmt.Fprintln(w, "Dead ends:")
		for _, id := range sortedKeys(r.DeadEnds) {
			fmt.Fprintf(w, "  %s: %d\n", id, r.DeadEnds[id])
		}
	}
	if ids := r.unvisited(doc); len(ids) > 0 {
		fmt.Fprintf(w, "Never visited: %v\n", ids)
	}
	if r.Truncated > 0 {
		fmt.Fprintf(w, "Stopped %d playthroughs at the depth limit\n", r.Truncated)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
