// Package docx mutates word-processing documents in place: reading and
// rewriting note contents, splicing reference lists, and activating
// URLs as relationship-backed hyperlinks. The document is treated as a
// zip archive of XML parts; parts are parsed only when mutated and the
// rest pass through byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

const (
	documentPart  = "word/document.xml"
	endnotesPart  = "word/endnotes.xml"
	footnotesPart = "word/footnotes.xml"

	documentRelsPart  = "word/_rels/document.xml.rels"
	endnotesRelsPart  = "word/_rels/endnotes.xml.rels"
	footnotesRelsPart = "word/_rels/footnotes.xml.rels"
)

// part is one archive entry. doc is non-nil once the part has been
// parsed for mutation; Bytes serializes it back in place.
type part struct {
	name string
	data []byte
	doc  *etree.Document
}

// Archive is an opened document. Mutations happen on parsed XML parts;
// untouched parts are repackaged unchanged.
type Archive struct {
	parts []*part
	index map[string]*part
}

// OpenArchive parses the document bytes as a zip archive. The main body
// part must exist; note parts are optional.
func OpenArchive(fileBytes []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("not a valid document archive: %w", err)
	}

	archive := &Archive{index: make(map[string]*part)}
	for _, file := range reader.File {
		handle, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(handle)
		handle.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", file.Name, err)
		}

		entry := &part{name: file.Name, data: data}
		archive.parts = append(archive.parts, entry)
		archive.index[file.Name] = entry
	}

	if _, exists := archive.index[documentPart]; !exists {
		return nil, fmt.Errorf("archive lacks the main body part %s", documentPart)
	}
	return archive, nil
}

// HasPart reports whether the archive contains the named part.
func (a *Archive) HasPart(name string) bool {
	_, exists := a.index[name]
	return exists
}

// xmlPart returns the parsed XML tree for a part, parsing and caching
// it on first access.
func (a *Archive) xmlPart(name string) (*etree.Document, error) {
	entry, exists := a.index[name]
	if !exists {
		return nil, fmt.Errorf("part %s not present", name)
	}
	if entry.doc == nil {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(entry.data); err != nil {
			return nil, fmt.Errorf("part %s is not well-formed XML: %w", name, err)
		}
		entry.doc = doc
	}
	return entry.doc, nil
}

// createPart adds a new XML part (used for relationship sidecars that
// do not exist yet). The part carries an XML declaration.
func (a *Archive) createPart(name string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	entry := &part{name: name, doc: doc}
	a.parts = append(a.parts, entry)
	a.index[name] = entry
	return doc
}

// Bytes repackages the archive, serializing any mutated XML parts and
// copying everything else through untouched. The original part order is
// preserved.
func (a *Archive) Bytes() ([]byte, error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	for _, entry := range a.parts {
		data := entry.data
		if entry.doc != nil {
			serialized, err := entry.doc.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("failed to serialize part %s: %w", entry.name, err)
			}
			data = serialized
		}

		partWriter, err := writer.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", entry.name, err)
		}
		if _, err := partWriter.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", entry.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buffer.Bytes(), nil
}
