package valueobjects

import (
	"errors"
	"fmt"
)

// NodeKind identifies the variant of a node's payload
type NodeKind string

const (
	KindChat  NodeKind = "chat"
	KindNote  NodeKind = "note"
	KindText  NodeKind = "text"
	KindTitle NodeKind = "title"
	KindMedia NodeKind = "media"
)

// ParseNodeKind converts a string into a NodeKind
func ParseNodeKind(s string) (NodeKind, error) {
	switch NodeKind(s) {
	case KindChat, KindNote, KindText, KindTitle, KindMedia:
		return NodeKind(s), nil
	default:
		return "", fmt.Errorf("invalid node kind: %q", s)
	}
}

// IsValid reports whether the kind is a known variant
func (k NodeKind) IsValid() bool {
	switch k {
	case KindChat, KindNote, KindText, KindTitle, KindMedia:
		return true
	default:
		return false
	}
}

// ChatPayload holds a single AI conversation turn
type ChatPayload struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}

// NotePayload holds a titled note
type NotePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// TextPayload holds free-standing text placed directly on the canvas
type TextPayload struct {
	Text string `json:"text"`
}

// TitlePayload holds a section heading
type TitlePayload struct {
	Text string `json:"text"`
}

// MediaPayload references embedded media by URL
type MediaPayload struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Payload is the tagged variant carried by every node. Exactly the field
// matching Kind is set; all variant dispatch is an exhaustive switch on Kind.
type Payload struct {
	Kind  NodeKind      `json:"kind"`
	Chat  *ChatPayload  `json:"chat,omitempty"`
	Note  *NotePayload  `json:"note,omitempty"`
	Text  *TextPayload  `json:"text,omitempty"`
	Title *TitlePayload `json:"title,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
}

// NewPayload creates an empty payload of the given kind
func NewPayload(kind NodeKind) (Payload, error) {
	switch kind {
	case KindChat:
		return Payload{Kind: kind, Chat: &ChatPayload{}}, nil
	case KindNote:
		return Payload{Kind: kind, Note: &NotePayload{}}, nil
	case KindText:
		return Payload{Kind: kind, Text: &TextPayload{}}, nil
	case KindTitle:
		return Payload{Kind: kind, Title: &TitlePayload{}}, nil
	case KindMedia:
		return Payload{Kind: kind, Media: &MediaPayload{}}, nil
	default:
		return Payload{}, fmt.Errorf("invalid node kind: %q", kind)
	}
}

// Validate checks the variant tag matches the populated field
func (p Payload) Validate() error {
	switch p.Kind {
	case KindChat:
		if p.Chat == nil {
			return errors.New("chat payload missing")
		}
	case KindNote:
		if p.Note == nil {
			return errors.New("note payload missing")
		}
	case KindText:
		if p.Text == nil {
			return errors.New("text payload missing")
		}
	case KindTitle:
		if p.Title == nil {
			return errors.New("title payload missing")
		}
	case KindMedia:
		if p.Media == nil {
			return errors.New("media payload missing")
		}
	default:
		return fmt.Errorf("invalid node kind: %q", p.Kind)
	}
	return nil
}

// DisplayTitle returns the text shown for the node in outline rows
func (p Payload) DisplayTitle() string {
	switch p.Kind {
	case KindChat:
		if p.Chat != nil && p.Chat.Prompt != "" {
			return p.Chat.Prompt
		}
		return "Chat"
	case KindNote:
		if p.Note != nil && p.Note.Title != "" {
			return p.Note.Title
		}
		return "Note"
	case KindText:
		if p.Text != nil && p.Text.Text != "" {
			return p.Text.Text
		}
		return "Text"
	case KindTitle:
		if p.Title != nil && p.Title.Text != "" {
			return p.Title.Text
		}
		return "Title"
	case KindMedia:
		if p.Media != nil && p.Media.Caption != "" {
			return p.Media.Caption
		}
		return "Media"
	default:
		return string(p.Kind)
	}
}

// Clone returns a deep copy of the payload
func (p Payload) Clone() Payload {
	out := Payload{Kind: p.Kind}
	if p.Chat != nil {
		c := *p.Chat
		out.Chat = &c
	}
	if p.Note != nil {
		n := *p.Note
		out.Note = &n
	}
	if p.Text != nil {
		t := *p.Text
		out.Text = &t
	}
	if p.Title != nil {
		t := *p.Title
		out.Title = &t
	}
	if p.Media != nil {
		m := *p.Media
		out.Media = &m
	}
	return out
}
