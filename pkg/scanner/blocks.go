// Package scanner finds and neutralizes oversized embedded payloads inside
// newline-delimited JSON conversation logs. Each log line is one JSON record;
// records may carry a message.content array of typed blocks and/or a sibling
// toolUseResult.content of the same shape. The scanner reports issues by
// (line, location, address) and the fixer rewrites only the addressed entries,
// leaving every other byte of the file untouched.
package scanner

import (
	"bytes"
	"encoding/json"
)

// BlockType tags one entry of a content array.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockDocument   BlockType = "document"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockUnknown    BlockType = "unknown"
)

// Base64Source holds an embedded base64 payload and its declared media type.
type Base64Source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Block is one entry of a content array, decoded as a closed tagged union.
// Unrecognized type tags decode as BlockUnknown rather than failing the line.
// A tool_result block's own content is decoded exactly one level deep.
type Block struct {
	Type    BlockType
	Text    string
	Source  *Base64Source
	Content *Content // tool_result only
	Raw     json.RawMessage
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var aux struct {
		Type    string          `json:"type"`
		Text    string          `json:"text"`
		Source  *Base64Source   `json:"source"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Raw = append([]byte(nil), data...)
	switch BlockType(aux.Type) {
	case BlockText:
		b.Type = BlockText
		b.Text = aux.Text
	case BlockImage:
		b.Type = BlockImage
		b.Source = aux.Source
	case BlockDocument:
		b.Type = BlockDocument
		b.Source = aux.Source
	case BlockToolUse:
		b.Type = BlockToolUse
	case BlockToolResult:
		b.Type = BlockToolResult
		if len(aux.Content) > 0 {
			var c Content
			if err := json.Unmarshal(aux.Content, &c); err == nil {
				b.Content = &c
			}
		}
	default:
		b.Type = BlockUnknown
	}
	return nil
}

// Content is a message content value: either a plain string or an array of
// typed blocks. Non-array content never carries embedded payloads.
type Content struct {
	IsArray bool
	Blocks  []Block
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.IsArray = false
		c.Blocks = nil
		return nil
	}
	c.IsArray = true
	return json.Unmarshal(trimmed, &c.Blocks)
}

// payloadSection is the content-bearing slice of a message or toolUseResult
// value. Either may appear as a plain string rather than an object; non-object
// shapes decode to an empty section so an odd sibling cannot fail the whole
// line and mask a real oversized payload next to it.
type payloadSection struct {
	Content Content `json:"content"`
}

func (p *payloadSection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	type section payloadSection
	return json.Unmarshal(trimmed, (*section)(p))
}

// lineRecord is the slice of one log record the scanner cares about.
// Everything else in the record is left alone.
type lineRecord struct {
	Message       *payloadSection `json:"message"`
	ToolUseResult *payloadSection `json:"toolUseResult"`
}
