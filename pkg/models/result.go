package models

import (
	"encoding/json"
	"fmt"
)

// BlockType tags a ContentBlock.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockToolUse BlockType = "tool_use"
)

// ContentBlock is either a text block or a tool invocation requested by the
// model.
type ContentBlock struct {
	Type  BlockType
	Text  string
	Name  string
	Input map[string]any
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock returns a tool invocation content block.
func ToolUseBlock(name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, Name: name, Input: input}
}

type textBlockJSON struct {
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

type toolUseBlockJSON struct {
	Type  BlockType      `json:"type"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// MarshalJSON encodes the block in the result envelope shape: text blocks
// carry only text, tool_use blocks carry name and input.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BlockText:
		return json.Marshal(textBlockJSON{Type: b.Type, Text: b.Text})
	case BlockToolUse:
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		return json.Marshal(toolUseBlockJSON{Type: b.Type, Name: b.Name, Input: input})
	default:
		return nil, fmt.Errorf("unknown content block type %q", b.Type)
	}
}

// UnmarshalJSON decodes a block from the envelope shape.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  BlockType      `json:"type"`
		Text  string         `json:"text"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case BlockText:
		*b = TextBlock(raw.Text)
	case BlockToolUse:
		*b = ToolUseBlock(raw.Name, raw.Input)
	default:
		return fmt.Errorf("unknown content block type %q", raw.Type)
	}
	return nil
}

// Usage reports token counts for one model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ModelResult is the normalized reply of one dispatch.
type ModelResult struct {
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Text concatenates the text blocks of the result, separated by blank lines.
func (r *ModelResult) Text() string {
	var out string
	for _, b := range r.Content {
		if b.Type != BlockText {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += b.Text
	}
	return out
}
