package annotate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Record is one token as serialized by spaCy-style annotators
// (Doc.to_json-like token lists).
type Record struct {
	Text    string `json:"text"`
	Idx     int    `json:"idx"`
	IsPunct bool   `json:"is_punct"`
	LikeNum bool   `json:"like_num"`
	Lower   string `json:"lower"`
	Lemma   string `json:"lemma"`

	// Morph is the feature string, e.g. "Abbr=Yes|NumForm=Roman".
	Morph string `json:"morph"`
}

// Doc is one annotated document.
type Doc struct {
	Text   string   `json:"text"`
	Tokens []Record `json:"tokens"`
}

// DecodeJSONDoc reads one JSON document from r and links its tokens into a
// stream. An empty token list yields a nil [Token].
func DecodeJSONDoc(r io.Reader) (Token, error) {
	var doc Doc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("annotate: decode document: %w", err)
	}
	return Link(doc.Tokens), nil
}

// Link turns records into a token stream and returns its first token, or nil
// when records is empty.
func Link(records []Record) Token {
	if len(records) == 0 {
		return nil
	}
	toks := make([]linked, len(records))
	for i := range records {
		toks[i] = linked{rec: records[i], morph: ParseMorph(records[i].Morph)}
		if i+1 < len(records) {
			toks[i].next = &toks[i+1]
		}
	}
	return &toks[0]
}

// ParseMorph parses a Universal Dependencies feature string. Unknown
// features are ignored.
func ParseMorph(s string) Morph {
	var m Morph
	for _, feat := range strings.Split(s, "|") {
		key, value, ok := strings.Cut(feat, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Abbr":
			m.Abbr = strings.TrimSpace(value) == "Yes"
		case "NumForm":
			m.NumForm = strings.TrimSpace(value)
		}
	}
	return m
}

type linked struct {
	rec   Record
	morph Morph
	next  *linked
}

var _ Token = (*linked)(nil)

func (t *linked) Text() string   { return t.rec.Text }
func (t *linked) Start() int     { return t.rec.Idx }
func (t *linked) End() int       { return t.rec.Idx + utf8.RuneCountInString(t.rec.Text) }
func (t *linked) IsPunct() bool  { return t.rec.IsPunct }
func (t *linked) LikeNum() bool  { return t.rec.LikeNum }
func (t *linked) Lower() string  { return t.rec.Lower }
func (t *linked) Lemma() string  { return t.rec.Lemma }
func (t *linked) Morph() Morph   { return t.morph }

func (t *linked) Next() (Token, bool) {
	if t.next == nil {
		return nil, false
	}
	return t.next, true
}
