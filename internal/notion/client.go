package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	pageSize      = 100
	maxChildren   = 100
	maxTextLength = 2000
)

// Client talks to the Notion blocks API.
type Client struct {
	BaseURL string
	Token   string
	Version string
	HTTP    *http.Client
}

func NewClient(baseURL, token, version string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Version: version,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

var _ BlockClient = (*Client)(nil)

// APIError is a non-2xx answer from Notion.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrBlockNotFound && e.Status == http.StatusNotFound
}

type richText struct {
	Type      string `json:"type,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

type textPayload struct {
	RichText []richText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

func (c *Client) ListBlocks(ctx context.Context, pageID string) ([]Block, error) {
	var out []Block
	cursor := ""
	for {
		q := url.Values{"page_size": {fmt.Sprint(pageSize)}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var res listResponse
		if err := c.do(ctx, http.MethodGet, "/blocks/"+url.PathEscape(pageID)+"/children?"+q.Encode(), nil, &res); err != nil {
			return nil, err
		}
		for _, raw := range res.Results {
			b, err := decodeBlock(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		if !res.HasMore || res.NextCursor == nil || *res.NextCursor == "" {
			return out, nil
		}
		cursor = *res.NextCursor
	}
}

func (c *Client) UpdateBlock(ctx context.Context, b Block) error {
	body := map[string]any{string(b.Type): payloadFor(b)}
	return c.do(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(b.ID), body, nil)
}

func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/blocks/"+url.PathEscape(blockID), nil, nil)
}

func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []Block, after string) ([]Block, error) {
	var created []Block
	for len(blocks) > 0 {
		n := min(len(blocks), maxChildren)
		children := make([]map[string]any, 0, n)
		for _, b := range blocks[:n] {
			children = append(children, encodeBlock(b))
		}
		body := map[string]any{"children": children}
		if after != "" {
			body["after"] = after
		}

		var res listResponse
		if err := c.do(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(pageID)+"/children", body, &res); err != nil {
			return created, err
		}
		for _, raw := range res.Results {
			b, err := decodeBlock(raw)
			if err != nil {
				return created, err
			}
			created = append(created, b)
		}
		if after != "" && len(created) > 0 {
			after = created[len(created)-1].ID
		}
		blocks = blocks[n:]
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", c.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeBlock(raw json.RawMessage) (Block, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Block{}, fmt.Errorf("notion: decode block: %w", err)
	}
	var b Block
	_ = json.Unmarshal(fields["id"], &b.ID)
	_ = json.Unmarshal(fields["type"], &b.Type)
	if !b.Type.HasText() {
		return b, nil
	}

	var p textPayload
	if content, ok := fields[string(b.Type)]; ok {
		if err := json.Unmarshal(content, &p); err != nil {
			return Block{}, fmt.Errorf("notion: decode %s block %s: %w", b.Type, b.ID, err)
		}
	}
	var sb strings.Builder
	for _, rt := range p.RichText {
		switch {
		case rt.PlainText != "":
			sb.WriteString(rt.PlainText)
		case rt.Text != nil:
			sb.WriteString(rt.Text.Content)
		}
	}
	b.Text = sb.String()
	return b, nil
}

func encodeBlock(b Block) map[string]any {
	if b.Type == Divider {
		return map[string]any{"object": "block", "type": Divider, string(Divider): map[string]any{}}
	}
	return map[string]any{"object": "block", "type": b.Type, string(b.Type): payloadFor(b)}
}

// payloadFor splits text into rich text runs within Notion's length limit.
func payloadFor(b Block) textPayload {
	p := textPayload{RichText: []richText{}}
	if b.Type == Code {
		p.Language = "plain text"
	}
	runes := []rune(b.Text)
	for len(runes) > 0 {
		n := min(len(runes), maxTextLength)
		rt := richText{Type: "text", Text: &struct {
			Content string `json:"content"`
		}{Content: string(runes[:n])}}
		p.RichText = append(p.RichText, rt)
		runes = runes[n:]
	}
	return p
}
