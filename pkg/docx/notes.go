package docx

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// NoteKind selects which note stream of the document to operate on.
type NoteKind struct {
	partName string
	noteTag  string
	refTag   string
	refStyle string
	relsName string
	label    string
}

var (
	Endnotes = NoteKind{
		partName: endnotesPart,
		noteTag:  "w:endnote",
		refTag:   "w:endnoteRef",
		refStyle: "EndnoteReference",
		relsName: endnotesRelsPart,
		label:    "endnote",
	}
	Footnotes = NoteKind{
		partName: footnotesPart,
		noteTag:  "w:footnote",
		refTag:   "w:footnoteRef",
		refStyle: "FootnoteReference",
		relsName: footnotesRelsPart,
		label:    "footnote",
	}
)

// String returns the human-readable note kind name.
func (k NoteKind) String() string { return k.label }

// Note is one user note: its document ID and concatenated text.
type Note struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Notes lists the user notes of the given kind in document order.
// Separator and continuation notes (IDs below 1) are never returned.
// A document without the note part simply has no notes.
func (a *Archive) Notes(kind NoteKind) ([]Note, error) {
	if !a.HasPart(kind.partName) {
		return nil, nil
	}
	doc, err := a.xmlPart(kind.partName)
	if err != nil {
		return nil, err
	}

	var notes []Note
	for _, element := range doc.FindElements("//" + kind.noteTag) {
		id, err := strconv.Atoi(element.SelectAttrValue("w:id", ""))
		if err != nil || id < 1 {
			continue
		}

		var builder strings.Builder
		for _, textElement := range element.FindElements(".//w:t") {
			builder.WriteString(textElement.Text())
		}
		text := strings.TrimSpace(builder.String())
		if text == "" {
			continue
		}
		notes = append(notes, Note{ID: id, Text: text})
	}
	return notes, nil
}

// WriteNote replaces the content of one note with a formatted citation.
// The paragraph properties and the note reference mark survive the
// rewrite so numbering and backlinks stay intact; a reference mark is
// synthesized when the original paragraph lacks one.
func (a *Archive) WriteNote(kind NoteKind, id int, formatted string) error {
	doc, err := a.xmlPart(kind.partName)
	if err != nil {
		return err
	}

	target := findNoteElement(doc, kind, id)
	if target == nil {
		return fmt.Errorf("%s %d not found", kind.label, id)
	}

	paragraph := target.FindElement(".//w:p")
	if paragraph == nil {
		paragraph = target.CreateElement("w:p")
	}
	prepareNoteParagraph(paragraph, kind)

	appendCitationRuns(paragraph, formatted)
	return nil
}

func findNoteElement(doc *etree.Document, kind NoteKind, id int) *etree.Element {
	wanted := strconv.Itoa(id)
	for _, element := range doc.FindElements("//" + kind.noteTag) {
		if element.SelectAttrValue("w:id", "") == wanted {
			return element
		}
	}
	return nil
}

// prepareNoteParagraph strips the paragraph down to its properties and
// reference-mark run, creating the mark if the paragraph has none.
func prepareNoteParagraph(paragraph *etree.Element, kind NoteKind) {
	var properties *etree.Element
	var refRun *etree.Element

	for _, child := range paragraph.ChildElements() {
		switch child.Tag {
		case "pPr":
			properties = child
			continue
		case "r":
			if child.FindElement(".//"+kind.refTag) != nil && refRun == nil {
				refRun = child
				continue
			}
		}
		paragraph.RemoveChild(child)
	}

	if refRun != nil {
		return
	}

	ref := etree.NewElement("w:r")
	runProperties := ref.CreateElement("w:rPr")
	style := runProperties.CreateElement("w:rStyle")
	style.CreateAttr("w:val", kind.refStyle)
	ref.CreateElement(kind.refTag)

	if properties != nil {
		paragraph.InsertChildAt(properties.Index()+1, ref)
	} else {
		paragraph.InsertChildAt(0, ref)
	}
}

var italicSegmentPattern = regexp.MustCompile(`<i>(.*?)</i>`)

// appendCitationRuns renders formatted citation text as runs, turning
// <i> spans into italic runs. Text whitespace is significant, so every
// text node carries xml:space.
func appendCitationRuns(paragraph *etree.Element, formatted string) {
	for _, segment := range splitItalicSegments(html.UnescapeString(formatted)) {
		if segment.text == "" {
			continue
		}
		run := paragraph.CreateElement("w:r")
		if segment.italic {
			runProperties := run.CreateElement("w:rPr")
			runProperties.CreateElement("w:i")
		}
		textElement := run.CreateElement("w:t")
		textElement.CreateAttr("xml:space", "preserve")
		textElement.SetText(segment.text)
	}
}

type textSegment struct {
	text   string
	italic bool
}

func splitItalicSegments(s string) []textSegment {
	var segments []textSegment
	last := 0
	for _, match := range italicSegmentPattern.FindAllStringSubmatchIndex(s, -1) {
		if match[0] > last {
			segments = append(segments, textSegment{text: s[last:match[0]]})
		}
		segments = append(segments, textSegment{text: s[match[2]:match[3]], italic: true})
		last = match[1]
	}
	if last < len(s) {
		segments = append(segments, textSegment{text: s[last:]})
	}
	return segments
}
