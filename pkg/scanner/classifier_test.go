package scanner

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentFromJSON(t *testing.T, raw string) *Content {
	t.Helper()
	var c Content
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return &c
}

func TestClassifyContentUnderThreshold(t *testing.T) {
	c := contentFromJSON(t, `[
		{"type":"text","text":"hello"},
		{"type":"image","source":{"type":"base64","media_type":"image/png","data":"AAAA"}},
		{"type":"tool_use","id":"t1","name":"read_file","input":{}}
	]`)
	f := ClassifyContent(c, DefaultThresholds)
	assert.Empty(t, f.Addresses)
	assert.Equal(t, 9, f.EstimatedSize) // 5 text chars + 4 base64 chars
}

func TestClassifyContentNonArray(t *testing.T) {
	c := contentFromJSON(t, `"just a plain string"`)
	f := ClassifyContent(c, DefaultThresholds)
	assert.Empty(t, f.Addresses)
	assert.Zero(t, f.EstimatedSize)

	f = ClassifyContent(nil, DefaultThresholds)
	assert.Empty(t, f.Addresses)
}

func TestClassifyContentOversizedImage(t *testing.T) {
	data := strings.Repeat("A", 120_000)
	c := contentFromJSON(t, fmt.Sprintf(
		`[{"type":"image","source":{"type":"base64","media_type":"image/png","data":"%s"}}]`, data))

	f := ClassifyContent(c, DefaultThresholds)
	require.Len(t, f.Addresses, 1)
	assert.Equal(t, Address{Outer: 0, Type: ContentImage}, f.Addresses[0])
	assert.GreaterOrEqual(t, f.EstimatedSize, 120_000)
}

func TestClassifyContentDocumentTypes(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		want      ContentType
	}{
		{name: "pdf media type", mediaType: "application/pdf", want: ContentPDF},
		{name: "pdf uppercase", mediaType: "application/PDF", want: ContentPDF},
		{name: "plain document", mediaType: "text/csv", want: ContentDocument},
	}
	data := strings.Repeat("B", 100_001)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contentFromJSON(t, fmt.Sprintf(
				`[{"type":"document","source":{"type":"base64","media_type":"%s","data":"%s"}}]`, tt.mediaType, data))
			f := ClassifyContent(c, DefaultThresholds)
			require.Len(t, f.Addresses, 1)
			assert.Equal(t, tt.want, f.Addresses[0].Type)
		})
	}
}

func TestClassifyContentLargeText(t *testing.T) {
	c := contentFromJSON(t, fmt.Sprintf(`[{"type":"text","text":"%s"}]`, strings.Repeat("x", 500_001)))
	f := ClassifyContent(c, DefaultThresholds)
	require.Len(t, f.Addresses, 1)
	assert.Equal(t, ContentLargeText, f.Addresses[0].Type)
}

func TestClassifyContentToolResultOneLevel(t *testing.T) {
	big := strings.Repeat("C", 150_000)
	c := contentFromJSON(t, fmt.Sprintf(`[
		{"type":"text","text":"small"},
		{"type":"tool_result","tool_use_id":"t1","content":[
			{"type":"text","text":"inner small"},
			{"type":"image","source":{"type":"base64","media_type":"image/png","data":"%s"}}
		]}
	]`, big))

	f := ClassifyContent(c, DefaultThresholds)
	require.Len(t, f.Addresses, 1)
	assert.Equal(t, Address{Outer: 1, Inner: 1, Nested: true, Type: ContentImage}, f.Addresses[0])
}

func TestClassifyContentToolResultStringContent(t *testing.T) {
	c := contentFromJSON(t, `[{"type":"tool_result","tool_use_id":"t1","content":"plain output"}]`)
	f := ClassifyContent(c, DefaultThresholds)
	assert.Empty(t, f.Addresses)
	assert.Zero(t, f.EstimatedSize)
}

func TestClassifyContentMissingDataField(t *testing.T) {
	c := contentFromJSON(t, `[{"type":"image","source":null},{"type":"text"}]`)
	f := ClassifyContent(c, DefaultThresholds)
	assert.Empty(t, f.Addresses)
	assert.Zero(t, f.EstimatedSize)
}

func TestClassifyContentUnknownBlock(t *testing.T) {
	big := strings.Repeat("y", 500_100)
	c := contentFromJSON(t, fmt.Sprintf(`[{"type":"mystery","payload":"%s"}]`, big))
	f := ClassifyContent(c, DefaultThresholds)
	require.Len(t, f.Addresses, 1)
	assert.Equal(t, ContentUnknown, f.Addresses[0].Type)
}

func TestClassifyContentCustomThresholds(t *testing.T) {
	c := contentFromJSON(t, `[{"type":"text","text":"0123456789"}]`)
	f := ClassifyContent(c, Thresholds{MaxBase64Len: 5, MaxTextLen: 5})
	require.Len(t, f.Addresses, 1)
	assert.Equal(t, ContentLargeText, f.Addresses[0].Type)
}
