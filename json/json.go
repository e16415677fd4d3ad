// Package json serializes conversations to a versioned JSON envelope for
// local export and resume.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mstolarz/council"
)

// envelope is the v1 wire format for an exported conversation.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
	Messages  []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a Message with a type
// discriminator.
type messageDTO struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	// user
	Content string `json:"content,omitempty"`

	// assistant_simple / assistant_staged
	Final    *finalDTO     `json:"final,omitempty"`
	Stage1   []responseDTO `json:"stage1,omitempty"`
	Stage2   []rankingDTO  `json:"stage2,omitempty"`
	Stage3   *finalDTO     `json:"stage3,omitempty"`
	Metadata *metadataDTO  `json:"metadata,omitempty"`
}

type responseDTO struct {
	Model               string `json:"model"`
	DisplayName         string `json:"display_name"`
	Text                string `json:"text"`
	IsFailover          bool   `json:"is_failover,omitempty"`
	OriginalProvider    string `json:"original_provider,omitempty"`
	OriginalDisplayName string `json:"original_display_name,omitempty"`
}

type rankingDTO struct {
	Model               string   `json:"model"`
	DisplayName         string   `json:"display_name"`
	Text                string   `json:"text"`
	ParsedOrder         []string `json:"parsed_order,omitempty"`
	IsFailover          bool     `json:"is_failover,omitempty"`
	OriginalProvider    string   `json:"original_provider,omitempty"`
	OriginalDisplayName string   `json:"original_display_name,omitempty"`
}

type finalDTO struct {
	Model       string `json:"model"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
}

type metadataDTO struct {
	LabelToModel      map[string]string     `json:"label_to_model,omitempty"`
	AggregateRankings []aggregateRankingDTO `json:"aggregate_rankings,omitempty"`
}

type aggregateRankingDTO struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// MarshalConversation serializes a Conversation to JSON in v1 envelope
// format. An in-flight pending message is skipped: a turn in progress is
// not durable state.
func MarshalConversation(c council.Conversation) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		Messages:  make([]messageDTO, 0, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		if _, ok := msg.(council.AssistantPending); ok {
			continue
		}
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages = append(env.Messages, dto)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalConversation deserializes a Conversation from JSON in v1
// envelope format.
func UnmarshalConversation(data []byte) (council.Conversation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return council.Conversation{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return council.Conversation{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]council.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return council.Conversation{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return council.Conversation{
		ID:        env.ID,
		Title:     env.Title,
		CreatedAt: env.CreatedAt,
		Messages:  msgs,
	}, nil
}

// Save writes a Conversation to a JSON file, creating parent directories as
// needed. The write is atomic: data lands in a temp file first.
func Save(path string, c council.Conversation) error {
	data, err := MarshalConversation(c)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Conversation from a JSON file.
func Load(path string) (council.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return council.Conversation{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalConversation(data)
}

func marshalMessage(msg council.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case council.UserMessage:
		return messageDTO{
			Type:      "user",
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}, nil
	case council.AssistantSimple:
		f := finalFromDomain(m.Final)
		return messageDTO{
			Type:      "assistant_simple",
			Final:     &f,
			Timestamp: m.Timestamp,
		}, nil
	case council.AssistantStaged:
		dto := messageDTO{
			Type:      "assistant_staged",
			Timestamp: m.Timestamp,
		}
		for _, r := range m.Stage1 {
			dto.Stage1 = append(dto.Stage1, responseDTO{
				Model:               r.Model,
				DisplayName:         r.DisplayName,
				Text:                r.Text,
				IsFailover:          r.IsFailover,
				OriginalProvider:    r.OriginalProvider,
				OriginalDisplayName: r.OriginalDisplayName,
			})
		}
		for _, r := range m.Stage2 {
			dto.Stage2 = append(dto.Stage2, rankingDTO{
				Model:               r.Model,
				DisplayName:         r.DisplayName,
				Text:                r.Text,
				ParsedOrder:         r.ParsedOrder,
				IsFailover:          r.IsFailover,
				OriginalProvider:    r.OriginalProvider,
				OriginalDisplayName: r.OriginalDisplayName,
			})
		}
		if m.Stage3 != nil {
			f := finalFromDomain(*m.Stage3)
			dto.Stage3 = &f
		}
		if md := metadataFromDomain(m.Metadata); md != nil {
			dto.Metadata = md
		}
		return dto, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T", msg)
	}
}

func unmarshalMessage(dto messageDTO) (council.Message, error) {
	switch dto.Type {
	case "user":
		return council.UserMessage{
			Content:   dto.Content,
			Timestamp: dto.Timestamp,
		}, nil
	case "assistant_simple":
		var f council.FinalResponse
		if dto.Final != nil {
			f = dto.Final.toDomain()
		}
		return council.AssistantSimple{
			Final:     f,
			Timestamp: dto.Timestamp,
		}, nil
	case "assistant_staged":
		msg := council.AssistantStaged{Timestamp: dto.Timestamp}
		for _, r := range dto.Stage1 {
			msg.Stage1 = append(msg.Stage1, council.Response{
				Model:               r.Model,
				DisplayName:         r.DisplayName,
				Text:                r.Text,
				IsFailover:          r.IsFailover,
				OriginalProvider:    r.OriginalProvider,
				OriginalDisplayName: r.OriginalDisplayName,
			})
		}
		for _, r := range dto.Stage2 {
			msg.Stage2 = append(msg.Stage2, council.Ranking{
				Model:               r.Model,
				DisplayName:         r.DisplayName,
				Text:                r.Text,
				ParsedOrder:         r.ParsedOrder,
				IsFailover:          r.IsFailover,
				OriginalProvider:    r.OriginalProvider,
				OriginalDisplayName: r.OriginalDisplayName,
			})
		}
		if dto.Stage3 != nil {
			f := dto.Stage3.toDomain()
			msg.Stage3 = &f
		}
		if dto.Metadata != nil {
			msg.Metadata = dto.Metadata.toDomain()
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", dto.Type)
	}
}

func finalFromDomain(f council.FinalResponse) finalDTO {
	return finalDTO{Model: f.Model, DisplayName: f.DisplayName, Text: f.Text}
}

func (f finalDTO) toDomain() council.FinalResponse {
	return council.FinalResponse{Model: f.Model, DisplayName: f.DisplayName, Text: f.Text}
}

func metadataFromDomain(m council.Metadata) *metadataDTO {
	if len(m.LabelToModel) == 0 && len(m.AggregateRankings) == 0 {
		return nil
	}
	dto := &metadataDTO{LabelToModel: m.LabelToModel}
	for _, a := range m.AggregateRankings {
		dto.AggregateRankings = append(dto.AggregateRankings, aggregateRankingDTO{
			Model:         a.Model,
			AverageRank:   a.AverageRank,
			RankingsCount: a.RankingsCount,
		})
	}
	return dto
}

func (m *metadataDTO) toDomain() council.Metadata {
	out := council.Metadata{LabelToModel: m.LabelToModel}
	for _, a := range m.AggregateRankings {
		out.AggregateRankings = append(out.AggregateRankings, council.AggregateRanking{
			Model:         a.Model,
			AverageRank:   a.AverageRank,
			RankingsCount: a.RankingsCount,
		})
	}
	return out
}
