package docx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/coolbeans/citeflex/pkg/cite"
)

const (
	relationshipsNS = "http://schemas.openxmlformats.org/package/2006/relationships"
	hyperlinkType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
)

// relsManager hands out relationship IDs for one part's sidecar,
// reusing an existing hyperlink relationship when the same URL comes up
// again. URLs differing only in case, scheme, or a trailing slash share
// one relationship.
type relsManager struct {
	root   *etree.Element
	nextID int
	urlIDs map[string]string
}

// relsFor opens the relationship sidecar of the named part, creating it
// when the part has never carried relationships.
func (a *Archive) relsFor(relsName string) (*relsManager, error) {
	var doc *etree.Document
	if a.HasPart(relsName) {
		parsed, err := a.xmlPart(relsName)
		if err != nil {
			return nil, err
		}
		doc = parsed
	} else {
		doc = a.createPart(relsName)
	}

	root := doc.Root()
	if root == nil {
		root = doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", relationshipsNS)
	}

	manager := &relsManager{root: root, nextID: 1, urlIDs: make(map[string]string)}
	for _, rel := range root.ChildElements() {
		id := rel.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n >= manager.nextID {
			manager.nextID = n + 1
		}
		if rel.SelectAttrValue("Type", "") == hyperlinkType {
			manager.urlIDs[cite.NormalizeURL(rel.SelectAttrValue("Target", ""))] = id
		}
	}
	return manager, nil
}

// HyperlinkID returns the relationship ID for a URL, registering a new
// external hyperlink relationship on first sight.
func (m *relsManager) HyperlinkID(url string) string {
	key := cite.NormalizeURL(url)
	if id, exists := m.urlIDs[key]; exists {
		return id
	}

	id := fmt.Sprintf("rId%d", m.nextID)
	m.nextID++

	rel := m.root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", hyperlinkType)
	rel.CreateAttr("Target", url)
	rel.CreateAttr("TargetMode", "External")

	m.urlIDs[key] = id
	m.sortRelationships()
	return id
}

// sortRelationships keeps entries in rId order so the sidecar stays
// diff-friendly. Numeric order is length-then-lexicographic for rIdN.
func (m *relsManager) sortRelationships() {
	children := m.root.ChildElements()
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i].SelectAttrValue("Id", ""), children[j].SelectAttrValue("Id", "")
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	for _, child := range children {
		m.root.RemoveChild(child)
	}
	for _, child := range children {
		m.root.AddChild(child)
	}
}
