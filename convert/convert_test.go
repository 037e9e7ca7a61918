package convert

import (
	"strings"
	"testing"

	"github.com/hazyhaar/plume/block"
)

func TestLegacy_ToMarkup(t *testing.T) {
	l := NewLegacy()

	md, err := l.ToMarkup(`<h2>Old Post</h2><p>Written in <strong>2014</strong>.</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "## Old Post") {
		t.Fatalf("markup = %q", md)
	}
	if !strings.Contains(md, "**2014**") {
		t.Fatalf("markup = %q", md)
	}
}

func TestLegacy_ToBlocks(t *testing.T) {
	l := NewLegacy()

	wire, err := l.ToBlocks(`<h1>Title</h1><p>Body text</p>`)
	if err != nil {
		t.Fatal(err)
	}

	blocks, err := block.Parse(wire)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d: %q", len(blocks), wire)
	}
	if blocks[0].Type != "core/heading" || blocks[1].Type != "core/paragraph" {
		t.Fatalf("types = %s, %s", blocks[0].Type, blocks[1].Type)
	}
	if blocks[1].Content != "<p>Body text</p>" {
		t.Fatalf("content = %q", blocks[1].Content)
	}
}

func TestLegacy_ListSurvivesRoundTrip(t *testing.T) {
	l := NewLegacy()

	wire, err := l.ToBlocks(`<ul><li>alpha</li><li>beta</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	blocks, err := block.Parse(wire)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Type != "core/list" {
		t.Fatalf("blocks = %+v", blocks)
	}
	if !strings.Contains(blocks[0].Content, "<li>alpha</li>") {
		t.Fatalf("content = %q", blocks[0].Content)
	}
}
