package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
)

var (
	ErrSuggestionTextRequired = errors.New("text is required")
	ErrNoSuggestions          = errors.New("no tasks could be extracted from the text")
)

// ChatCompleter is the subset of the OpenAI client used for suggestions
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// TaskDraft is a suggested task that has not been stored
type TaskDraft struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// SuggestionService turns free text into task drafts with an LLM
type SuggestionService struct {
	client ChatCompleter
	model  string
	now    func() time.Time
}

// NewSuggestionService creates a SuggestionService backed by OpenAI
func NewSuggestionService(apiKey string) *SuggestionService {
	return NewSuggestionServiceWithClient(openai.NewClient(apiKey))
}

// NewSuggestionServiceWithClient creates a SuggestionService with a custom client
func NewSuggestionServiceWithClient(client ChatCompleter) *SuggestionService {
	return &SuggestionService{
		client: client,
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

const suggestionPrompt = `You extract actionable tasks from text.

Current time: %s

Text:
%s

Reply with a JSON array only, no prose:
[
  {
    "title": "short task title",
    "description": "details",
    "category": "one or two word category, or empty",
    "priority": "High, Medium or Low",
    "due_date": "ISO8601 timestamp such as 2025-10-28T23:59:59Z, or null when no deadline is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into absolute timestamps`

// Suggest asks the model for task drafts and normalises the answer
func (s *SuggestionService) Suggest(ctx context.Context, text string) ([]TaskDraft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrSuggestionTextRequired
	}

	now := s.now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(suggestionPrompt, now.Format(time.RFC3339), text),
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(content), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return normalizeDrafts(drafts, now)
}

// stripCodeFence removes a surrounding ```json fence that models like to add
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func normalizeDrafts(drafts []TaskDraft, now time.Time) ([]TaskDraft, error) {
	valid := make([]TaskDraft, 0, len(drafts))

	for _, d := range drafts {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			continue
		}
		if !d.Priority.Valid() {
			d.Priority = models.TaskPriorityMedium
		}
		if d.DueDate != nil && d.DueDate.Before(now) {
			d.DueDate = nil
		}
		valid = append(valid, d)
		if len(valid) == constants.MaxSuggestedTasks {
			break
		}
	}

	if len(valid) == 0 {
		return nil, ErrNoSuggestions
	}
	return valid, nil
}
