package patch

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mockery-backend/internal/models"
)

// Apply runs ops against doc in order. A failing operation is recorded and
// never stops the rest of the batch, so partial application is normal.
func Apply(doc *goquery.Document, ops []models.ChangeOperation) []models.OpResult {
	results := make([]models.OpResult, 0, len(ops))
	for i, op := range ops {
		results = append(results, applyOne(doc, i, op))
	}
	return results
}

// Summarize counts results per status.
func Summarize(results []models.OpResult) (applied, skipped, failed int) {
	for _, r := range results {
		switch r.Status {
		case models.OpApplied:
			applied++
		case models.OpSkipped:
			skipped++
		case models.OpFailed:
			failed++
		}
	}
	return applied, skipped, failed
}

func applyOne(doc *goquery.Document, index int, op models.ChangeOperation) (res models.OpResult) {
	res = models.OpResult{Index: index, Action: op.Action, Selector: op.Selector}

	defer func() {
		if r := recover(); r != nil {
			res.Status = models.OpFailed
			res.Highlight = false
			res.Error = fmt.Sprint(r)
			log.Printf("patch: op %d (%s %q) panicked: %v", index, op.Action, op.Selector, r)
		}
	}()

	fail := func(err error) models.OpResult {
		res.Status = models.OpFailed
		res.Error = err.Error()
		log.Printf("patch: op %d (%s %q) failed: %v", index, op.Action, op.Selector, err)
		return res
	}

	if strings.TrimSpace(op.Selector) == "" {
		return fail(errors.New("empty selector"))
	}
	matcher, err := cascadia.Compile(op.Selector)
	if err != nil {
		return fail(fmt.Errorf("invalid selector: %w", err))
	}

	sel := doc.FindMatcher(matcher)
	res.Matched = sel.Length()
	if res.Matched == 0 {
		res.Status = models.OpSkipped
		log.Printf("patch: op %d (%s) selector %q matched nothing, skipping", index, op.Action, op.Selector)
		return res
	}

	if err := mutate(sel, op); err != nil {
		return fail(err)
	}

	res.Status = models.OpApplied
	res.Highlight = op.Action != models.ActionRemove
	return res
}

func mutate(sel *goquery.Selection, op models.ChangeOperation) error {
	switch op.Action {
	case models.ActionReplace:
		sel.SetHtml(op.Content)

	case models.ActionInsert:
		nodes, err := fragmentNodes(op.Content)
		if err != nil {
			return err
		}
		switch op.Position {
		case models.PositionBefore:
			sel.BeforeNodes(nodes...)
		case models.PositionAfter:
			sel.AfterNodes(nodes...)
		case models.PositionPrepend:
			sel.PrependNodes(nodes...)
		default:
			sel.AppendNodes(nodes...)
		}

	case models.ActionRemove:
		sel.Remove()

	case models.ActionSetAttribute:
		if strings.TrimSpace(op.Attribute) == "" {
			return errors.New("setAttribute without attribute name")
		}
		sel.SetAttr(strings.TrimSpace(op.Attribute), op.Value)

	case models.ActionAddClass, models.ActionRemoveClass:
		classes := strings.Fields(op.Class)
		if len(classes) == 0 {
			return fmt.Errorf("%s without class", op.Action)
		}
		if op.Action == models.ActionAddClass {
			sel.AddClass(classes...)
		} else {
			sel.RemoveClass(classes...)
		}
		sel.Each(func(_ int, s *goquery.Selection) {
			if cls, ok := s.Attr("class"); ok {
				s.SetAttr("class", strings.Join(strings.Fields(cls), " "))
			}
		})

	case models.ActionSetStyle:
		if strings.TrimSpace(op.Attribute) == "" {
			return errors.New("setStyle without property name")
		}
		sel.Each(func(_ int, s *goquery.Selection) {
			style := setStyleProperty(s.AttrOr("style", ""), op.Attribute, op.Value)
			if style == "" {
				s.RemoveAttr("style")
				return
			}
			s.SetAttr("style", style)
		})

	default:
		return fmt.Errorf("unknown action %q", op.Action)
	}
	return nil
}

// fragmentNodes parses content in a body context and keeps its first
// element. Content without any element (plain text) is inserted whole.
func fragmentNodes(content string) ([]*html.Node, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), parent)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return []*html.Node{n}, nil
		}
	}
	if len(nodes) == 0 {
		return nil, errors.New("insert without content")
	}
	return nodes, nil
}
