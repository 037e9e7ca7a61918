// CLAUDE:SUMMARY Legacy raw-HTML import: classic content → markup dialect → block wire format.
// Package convert bridges content that predates the block convention.
// Classic raw HTML has no markers to parse, so it goes HTML → markup
// dialect → blocks, reusing the same forward converter every session uses.
package convert

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/plume/markup"
)

// Legacy converts classic raw-HTML content into the markup dialect.
type Legacy struct {
	conv *converter.Converter
}

// NewLegacy creates a converter for classic HTML content.
func NewLegacy() *Legacy {
	return &Legacy{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// ToMarkup converts raw HTML to the markup dialect.
func (l *Legacy) ToMarkup(html string) (string, error) {
	md, err := l.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert: html to markup: %w", err)
	}
	return md, nil
}

// ToBlocks converts raw HTML all the way to block wire format, so legacy
// content can seed an editing session directly.
func (l *Legacy) ToBlocks(html string) (string, error) {
	md, err := l.ToMarkup(html)
	if err != nil {
		return "", err
	}
	return markup.ToBlocks(md), nil
}
