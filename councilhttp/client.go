package councilhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mstolarz/council"
)

// Interface compliance checks.
var (
	_ council.Orchestrator = (*Client)(nil)
	_ council.Store        = (*Client)(nil)
)

// Client talks to the orchestrator's HTTP API. It implements both the
// streaming turn interface and conversation CRUD.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the diagnostic logger. Defaults to the logrus standard
// logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a new Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OpenTurn submits one turn and returns the decoded event stream. The
// stream stays open until the orchestrator finishes the turn or ctx is
// cancelled.
func (c *Client) OpenTurn(ctx context.Context, conversationID, content string) (council.EventStream, error) {
	body, err := json.Marshal(sendMessageRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("councilhttp: %w", err)
	}

	url := c.baseURL + conversationsPath + "/" + conversationID + "/message/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("councilhttp: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("councilhttp: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.parseHTTPError(resp)
	}

	return newStream(ctx, resp.Body, c.log), nil
}

// Cancel sends the best-effort cancellation notice for the conversation's
// active turn. A "no active request" reply is not an error: the turn ended
// before the notice arrived.
func (c *Client) Cancel(ctx context.Context, conversationID string) error {
	var out cancelResponse
	path := conversationsPath + "/" + conversationID + "/cancel"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return err
	}
	if !out.Success {
		c.log.WithField("conversation", conversationID).Debugf("cancel notice: %s", out.Message)
	}
	return nil
}

// List fetches conversation summaries, newest first.
func (c *Client) List(ctx context.Context) ([]council.ConversationSummary, error) {
	var metas []conversationMeta
	if err := c.doJSON(ctx, http.MethodGet, conversationsPath, nil, &metas); err != nil {
		return nil, err
	}
	out := make([]council.ConversationSummary, len(metas))
	for i, m := range metas {
		out[i] = council.ConversationSummary{
			ID:           m.ID,
			Title:        m.Title,
			CreatedAt:    parseTime(m.CreatedAt),
			MessageCount: m.MessageCount,
		}
	}
	return out, nil
}

// Create creates a new empty conversation.
func (c *Client) Create(ctx context.Context) (*council.Conversation, error) {
	var body conversationBody
	if err := c.doJSON(ctx, http.MethodPost, conversationsPath, struct{}{}, &body); err != nil {
		return nil, err
	}
	return body.conversation()
}

// Get fetches a conversation with its full message history.
func (c *Client) Get(ctx context.Context, id string) (*council.Conversation, error) {
	var body conversationBody
	if err := c.doJSON(ctx, http.MethodGet, conversationsPath+"/"+id, nil, &body); err != nil {
		return nil, err
	}
	return body.conversation()
}

// Delete removes a conversation.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, conversationsPath+"/"+id, nil, nil)
}

// Settings fetches the orchestrator's answering configuration.
func (c *Client) Settings(ctx context.Context) (council.Settings, error) {
	var ws wireSettings
	if err := c.doJSON(ctx, http.MethodGet, settingsPath, nil, &ws); err != nil {
		return council.Settings{}, err
	}
	return council.Settings{
		Chairman: ws.Chairman,
		Experts:  ws.Experts,
		APIKeys:  ws.APIKeys,
	}, nil
}

// UpdateSettings replaces the orchestrator's answering configuration. An
// empty expert list selects single-model mode.
func (c *Client) UpdateSettings(ctx context.Context, s council.Settings) error {
	in := wireSettings{
		Chairman: s.Chairman,
		Experts:  s.Experts,
		APIKeys:  s.APIKeys,
	}
	return c.doJSON(ctx, http.MethodPost, settingsPath, in, nil)
}

// doJSON performs one request/response call. in is marshalled as the body
// when non-nil; out is unmarshalled from the response when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("councilhttp: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("councilhttp: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("councilhttp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseHTTPError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("councilhttp: decode response: %w", err)
	}
	return nil
}

func (c *Client) parseHTTPError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return council.ErrNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("councilhttp: HTTP %d (failed to read body: %v)", resp.StatusCode, err)
	}
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("councilhttp: HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		if apiErr.Detail != "" {
			return fmt.Errorf("councilhttp: HTTP %d: %s", resp.StatusCode, apiErr.Detail)
		}
	}
	return fmt.Errorf("councilhttp: HTTP %d: %s", resp.StatusCode, string(body))
}

// conversation maps the wire body to the domain aggregate. Assistant
// messages with no stage 1 data and a synthesis are single-model answers.
func (b conversationBody) conversation() (*council.Conversation, error) {
	conv := &council.Conversation{
		ID:        b.ID,
		Title:     b.Title,
		CreatedAt: parseTime(b.CreatedAt),
		Messages:  make([]council.Message, 0, len(b.Messages)),
	}
	for i, m := range b.Messages {
		msg, err := m.message()
		if err != nil {
			return nil, fmt.Errorf("councilhttp: message %d: %w", i, err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, nil
}

func (m wireMessage) message() (council.Message, error) {
	switch m.Role {
	case "user":
		return council.UserMessage{Content: m.Content}, nil
	case "assistant":
		if len(m.Stage1) == 0 && m.Stage3 != nil {
			return council.AssistantSimple{Final: m.Stage3.final()}, nil
		}
		staged := council.AssistantStaged{
			Stage1:   make([]council.Response, len(m.Stage1)),
			Stage2:   make([]council.Ranking, len(m.Stage2)),
			Metadata: m.Metadata.metadata(),
		}
		for i, r := range m.Stage1 {
			staged.Stage1[i] = r.response()
		}
		for i, r := range m.Stage2 {
			staged.Stage2[i] = r.ranking()
		}
		if m.Stage3 != nil {
			f := m.Stage3.final()
			staged.Stage3 = &f
		}
		return staged, nil
	default:
		return nil, fmt.Errorf("unknown message role: %q", m.Role)
	}
}

// parseTime parses the backend's timestamp formats, returning the zero time
// when none match.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
