// Package councilhttp implements [council.Orchestrator] and [council.Store]
// over the orchestrator's HTTP API.
//
// A turn is opened as a streaming POST whose response body carries
// newline-delimited `data: {json}` records; the package decodes them into
// semantic events through the pull-based [council.EventStream] interface.
// Conversation CRUD and the cancellation side channel are plain
// request/response calls.
package councilhttp

import "encoding/json"

const (
	defaultBaseURL    = "http://localhost:8001"
	conversationsPath = "/api/conversations"
	settingsPath      = "/api/settings"
)

// sseEnvelope is the decoded form of one `data:` record. Only the fields
// relevant to the record's type are populated.
type sseEnvelope struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata *wireMetadata   `json:"metadata,omitempty"`
	Models   []string        `json:"models,omitempty"`
	Message  string          `json:"message,omitempty"`
	Title    string          `json:"title,omitempty"`
}

// wireStageResponse carries one model's stage 1 or stage 2 payload.
// Stage 1 populates Response; stage 2 populates Ranking and ParsedRanking.
type wireStageResponse struct {
	Model               string   `json:"model"`
	DisplayName         string   `json:"display_name"`
	Response            string   `json:"response,omitempty"`
	Ranking             string   `json:"ranking,omitempty"`
	ParsedRanking       []string `json:"parsed_ranking,omitempty"`
	IsFailover          bool     `json:"is_failover,omitempty"`
	OriginalProvider    string   `json:"original_provider,omitempty"`
	OriginalDisplayName string   `json:"original_display_name,omitempty"`
}

type wireFinal struct {
	Model       string `json:"model"`
	DisplayName string `json:"display_name"`
	Response    string `json:"response"`
}

type wireMetadata struct {
	LabelToModel      map[string]string      `json:"label_to_model"`
	AggregateRankings []wireAggregateRanking `json:"aggregate_rankings"`
}

type wireAggregateRanking struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

type wireTitle struct {
	Title string `json:"title"`
}

// REST DTOs.

type conversationMeta struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
}

type conversationBody struct {
	ID        string        `json:"id"`
	CreatedAt string        `json:"created_at"`
	Title     string        `json:"title"`
	Messages  []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role     string              `json:"role"`
	Content  string              `json:"content,omitempty"`
	Stage1   []wireStageResponse `json:"stage1,omitempty"`
	Stage2   []wireStageResponse `json:"stage2,omitempty"`
	Stage3   *wireFinal          `json:"stage3,omitempty"`
	Metadata *wireMetadata       `json:"metadata,omitempty"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorResponse is the JSON body returned on non-200 responses. Backends
// disagree on the field name, so both are accepted.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type wireSettings struct {
	Chairman string            `json:"chairman"`
	Experts  []string          `json:"experts"`
	APIKeys  map[string]string `json:"api_keys,omitempty"`
}
