// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pmc

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/BMiao10/DigitalHealthNotes/pkg/types"
)

// blockElements are JATS elements whose end marks a text break. A newline is
// inserted so body text does not run paragraphs together.
var blockElements = map[string]bool{
	"p":         true,
	"sec":       true,
	"title":     true,
	"label":     true,
	"caption":   true,
	"td":        true,
	"list-item": true,
}

// parseArticleSet walks an efetch pmc-articleset token stream and extracts
// one Article per <article> element. For each article it captures the first
// <article-title>, the first <abstract>, the <body>, and the <article-id>
// with pub-id-type="pmc", in document order, ignoring everything else (the
// back matter's citation titles in particular). Malformed markup inside an
// article never fails the whole set; the decoder runs in permissive mode the
// way browsers read these files.
func parseArticleSet(r io.Reader) ([]types.Article, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose

	var articles []types.Article
	var cur *articleState

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "article" {
				cur = &articleState{}
				continue
			}
			if cur == nil {
				continue
			}
			if cur.depth > 0 {
				cur.depth++
				continue
			}
			switch t.Name.Local {
			case "article-title":
				if !cur.titleDone {
					cur.open(&cur.title)
				}
			case "abstract":
				if !cur.abstractDone {
					cur.open(&cur.abstract)
				}
			case "body":
				if !cur.bodyDone {
					cur.open(&cur.body)
				}
			case "article-id":
				if !cur.pmcIDDone && attrValue(t, "pub-id-type") == "pmc" {
					cur.open(&cur.pmcID)
				}
			}

		case xml.EndElement:
			if cur == nil {
				continue
			}
			switch {
			case t.Name.Local == "article":
				articles = append(articles, cur.article())
				cur = nil
			case cur.depth == 1:
				cur.close()
			case cur.depth > 1:
				cur.depth--
				if blockElements[t.Name.Local] {
					cur.target.WriteByte('\n')
				}
			}

		case xml.CharData:
			if cur != nil && cur.depth > 0 {
				cur.target.Write(t)
			}
		}
	}

	return articles, nil
}

// articleState tracks which captured region, if any, the token walk is
// currently inside. depth counts element nesting from the region's root so
// the matching end element can be recognized.
type articleState struct {
	title    strings.Builder
	abstract strings.Builder
	body     strings.Builder
	pmcID    strings.Builder

	target *strings.Builder
	depth  int

	titleDone    bool
	abstractDone bool
	bodyDone     bool
	pmcIDDone    bool
}

func (s *articleState) open(target *strings.Builder) {
	s.target = target
	s.depth = 1
}

func (s *articleState) close() {
	switch s.target {
	case &s.title:
		s.titleDone = true
	case &s.abstract:
		s.abstractDone = true
	case &s.body:
		s.bodyDone = true
	case &s.pmcID:
		s.pmcIDDone = true
	}
	s.target = nil
	s.depth = 0
}

func (s *articleState) article() types.Article {
	return types.Article{
		PMCID:    strings.TrimSpace(s.pmcID.String()),
		Title:    collapseSpace(s.title.String()),
		Abstract: strings.TrimSpace(s.abstract.String()),
		Text:     strings.TrimSpace(s.body.String()),
	}
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// collapseSpace squeezes runs of whitespace to single spaces; titles in
// pretty-printed JATS span indented lines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
