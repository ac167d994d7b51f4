package docx

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var urlRunPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// trailing punctuation that belongs to the prose, not the URL
const urlTrailingPunct = `.,;:)]'"`

// ActivateLinks turns bare URLs in the body, endnotes, and footnotes
// into clickable hyperlinks backed by relationship entries. Runs that
// already sit inside a hyperlink are left alone, so the pass is
// idempotent.
func (a *Archive) ActivateLinks() error {
	targets := []struct {
		partName string
		relsName string
	}{
		{documentPart, documentRelsPart},
		{endnotesPart, endnotesRelsPart},
		{footnotesPart, footnotesRelsPart},
	}

	for _, target := range targets {
		if !a.HasPart(target.partName) {
			continue
		}
		doc, err := a.xmlPart(target.partName)
		if err != nil {
			return err
		}
		if !partHasURL(doc) {
			continue
		}

		rels, err := a.relsFor(target.relsName)
		if err != nil {
			return err
		}
		for _, paragraph := range doc.FindElements("//w:p") {
			activateParagraphLinks(paragraph, rels)
		}
	}
	return nil
}

// partHasURL avoids creating a rels sidecar for parts with nothing to
// link.
func partHasURL(doc *etree.Document) bool {
	for _, textElement := range doc.FindElements("//w:t") {
		if urlRunPattern.MatchString(textElement.Text()) {
			return true
		}
	}
	return false
}

// activateParagraphLinks rewrites each direct-child run whose text
// contains URLs into a before-run, a w:hyperlink wrapping the styled
// URL run, and an after-run. Formatting on the original run carries
// over to the split runs.
func activateParagraphLinks(paragraph *etree.Element, rels *relsManager) {
	for _, child := range paragraph.ChildElements() {
		if child.Tag != "r" || child.Space != "w" {
			continue
		}
		textElement := child.FindElement("w:t")
		if textElement == nil {
			continue
		}
		text := textElement.Text()

		matches := urlRunPattern.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}

		var template *etree.Element
		if properties := child.FindElement("w:rPr"); properties != nil {
			template = properties.Copy()
		}

		var replacements []*etree.Element
		last := 0
		for _, match := range matches {
			raw := text[match[0]:match[1]]
			url := strings.TrimRight(raw, urlTrailingPunct)

			if match[0] > last {
				replacements = append(replacements, plainRun(text[last:match[0]], template))
			}

			hyperlink := etree.NewElement("w:hyperlink")
			hyperlink.CreateAttr("r:id", rels.HyperlinkID(url))
			hyperlink.CreateAttr("w:history", "1")
			hyperlink.AddChild(hyperlinkRun(url, template))
			replacements = append(replacements, hyperlink)

			// trailing punctuation flows into the after text
			last = match[0] + len(url)
		}
		if last < len(text) {
			replacements = append(replacements, plainRun(text[last:], template))
		}

		index := child.Index()
		paragraph.RemoveChild(child)
		for offset, element := range replacements {
			paragraph.InsertChildAt(index+offset, element)
		}
	}
}

func plainRun(text string, template *etree.Element) *etree.Element {
	run := etree.NewElement("w:r")
	if template != nil {
		run.AddChild(template.Copy())
	}
	textElement := run.CreateElement("w:t")
	textElement.CreateAttr("xml:space", "preserve")
	textElement.SetText(text)
	return run
}

// hyperlinkRun styles the URL text blue and underlined, keeping any
// other formatting from the original run.
func hyperlinkRun(url string, template *etree.Element) *etree.Element {
	run := etree.NewElement("w:r")
	properties := run.CreateElement("w:rPr")

	if template != nil {
		for _, child := range template.ChildElements() {
			if child.Tag == "color" || child.Tag == "u" {
				continue
			}
			properties.AddChild(child.Copy())
		}
	}

	color := properties.CreateElement("w:color")
	color.CreateAttr("w:val", "0000FF")
	underline := properties.CreateElement("w:u")
	underline.CreateAttr("w:val", "single")

	textElement := run.CreateElement("w:t")
	textElement.SetText(url)
	return run
}
