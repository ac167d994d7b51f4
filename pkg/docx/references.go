package docx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var referenceHeadingPattern = regexp.MustCompile(`(?i)^(references|references cited|bibliography)$`)

// BodyText returns the running text of the document body, one line per
// paragraph. Note marks and formatting are dropped.
func (a *Archive) BodyText() (string, error) {
	doc, err := a.xmlPart(documentPart)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, paragraph := range doc.FindElements("//w:body/w:p") {
		if text := paragraphText(paragraph); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func paragraphText(paragraph *etree.Element) string {
	var builder strings.Builder
	for _, textElement := range paragraph.FindElements(".//w:t") {
		builder.WriteString(textElement.Text())
	}
	return strings.TrimSpace(builder.String())
}

// SpliceReferences replaces the document's reference section with the
// given heading and entries. Everything from the existing heading
// paragraph to the end of the body is removed, except the section
// properties, which must stay last. A document without a reference
// heading gets the section appended.
func (a *Archive) SpliceReferences(heading string, references []string) error {
	doc, err := a.xmlPart(documentPart)
	if err != nil {
		return err
	}
	body := doc.FindElement("//w:body")
	if body == nil {
		return fmt.Errorf("part %s has no body element", documentPart)
	}

	removeReferenceSection(body)

	var sectionProperties *etree.Element
	for _, child := range body.ChildElements() {
		if child.Tag == "sectPr" {
			sectionProperties = child
			break
		}
	}

	insert := func(element *etree.Element) {
		if sectionProperties != nil {
			body.InsertChildAt(sectionProperties.Index(), element)
		} else {
			body.AddChild(element)
		}
	}

	insert(headingParagraph(heading))
	for _, reference := range references {
		paragraph := etree.NewElement("w:p")
		appendCitationRuns(paragraph, reference)
		insert(paragraph)
	}
	return nil
}

// removeReferenceSection deletes the existing heading paragraph and
// everything after it, sparing the trailing section properties.
func removeReferenceSection(body *etree.Element) {
	found := false
	for _, child := range body.ChildElements() {
		if !found && child.Tag == "p" && referenceHeadingPattern.MatchString(paragraphText(child)) {
			found = true
		}
		if found && child.Tag != "sectPr" {
			body.RemoveChild(child)
		}
	}
}

func headingParagraph(heading string) *etree.Element {
	paragraph := etree.NewElement("w:p")
	properties := paragraph.CreateElement("w:pPr")
	style := properties.CreateElement("w:pStyle")
	style.CreateAttr("w:val", "Heading1")

	run := paragraph.CreateElement("w:r")
	textElement := run.CreateElement("w:t")
	textElement.SetText(heading)
	return paragraph
}
