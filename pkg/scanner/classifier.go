package scanner

import "strings"

// ContentType labels what kind of oversized payload an address points at.
type ContentType string

const (
	ContentImage     ContentType = "image"
	ContentDocument  ContentType = "document"
	ContentPDF       ContentType = "pdf"
	ContentLargeText ContentType = "large_text"
	ContentUnknown   ContentType = "unknown"
)

// Thresholds are the size limits above which an embedded payload is
// considered large enough to pollute a model's working context. They measure
// encoded length (base64 or literal characters), not decoded bytes.
type Thresholds struct {
	MaxBase64Len int // image and document payloads
	MaxTextLen   int // literal text blocks and unrecognized blocks
}

// DefaultThresholds are the policy defaults.
var DefaultThresholds = Thresholds{
	MaxBase64Len: 100_000,
	MaxTextLen:   500_000,
}

// Address identifies one entry of a content array: a top-level index, or an
// (outer, inner) pair when the entry sits one level inside a tool_result
// block. An address is only valid against the content shape observed in the
// same pass that computed it.
type Address struct {
	Outer  int
	Inner  int
	Nested bool
	Type   ContentType
}

// Findings is the classifier's verdict for one content value: every address
// over threshold plus a size estimate for the whole value.
type Findings struct {
	Addresses     []Address
	EstimatedSize int
}

// ClassifyContent inspects one content value and returns every entry
// exceeding its type-specific threshold. tool_result blocks are descended
// into exactly one level; nothing else is descended into. Non-array content
// classifies as no findings, size 0.
func ClassifyContent(c *Content, th Thresholds) Findings {
	var f Findings
	if c == nil || !c.IsArray {
		return f
	}
	for i, b := range c.Blocks {
		if b.Type == BlockToolResult {
			if b.Content == nil || !b.Content.IsArray {
				continue
			}
			for j := range b.Content.Blocks {
				size, ct, over := measureBlock(&b.Content.Blocks[j], th)
				f.EstimatedSize += size
				if over {
					f.Addresses = append(f.Addresses, Address{Outer: i, Inner: j, Nested: true, Type: ct})
				}
			}
			continue
		}
		size, ct, over := measureBlock(&c.Blocks[i], th)
		f.EstimatedSize += size
		if over {
			f.Addresses = append(f.Addresses, Address{Outer: i, Type: ct})
		}
	}
	return f
}

// measureBlock sizes a single block without descending into it. A block
// missing its data/text field contributes size 0.
func measureBlock(b *Block, th Thresholds) (size int, ct ContentType, over bool) {
	switch b.Type {
	case BlockText:
		size = len(b.Text)
		return size, ContentLargeText, size > th.MaxTextLen
	case BlockImage:
		if b.Source != nil {
			size = len(b.Source.Data)
		}
		return size, ContentImage, size > th.MaxBase64Len
	case BlockDocument:
		ct = ContentDocument
		if b.Source != nil {
			size = len(b.Source.Data)
			if strings.Contains(strings.ToLower(b.Source.MediaType), "pdf") {
				ct = ContentPDF
			}
		}
		return size, ct, size > th.MaxBase64Len
	case BlockToolUse, BlockToolResult:
		return 0, ContentUnknown, false
	default:
		size = len(b.Raw)
		return size, ContentUnknown, size > th.MaxTextLen
	}
}
