package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// Greeting opens every conversation
const Greeting = "Hello! I'm your AI health assistant. I have specialized agents to help with different aspects of your health. How can I assist you today?"

// maxChatHistory bounds the in-memory transcript
const maxChatHistory = 200

// AgentInfo describes a selectable chat agent
type AgentInfo struct {
	ID   model.AgentType `json:"id"`
	Name string          `json:"name"`
}

// Agents lists the chat agents in display order
var Agents = []AgentInfo{
	{ID: model.AgentGeneral, Name: "General Health"},
	{ID: model.AgentSymptom, Name: "Symptom Checker"},
	{ID: model.AgentNutrition, Name: "Nutrition"},
	{ID: model.AgentMentalHealth, Name: "Mental Health"},
}

var agentPrompts = map[model.AgentType]string{
	model.AgentGeneral:      "You are a helpful general health assistant. Use markdown headings, bullet points and bold keywords.",
	model.AgentSymptom:      "You are a symptom checker. Structure answers as ## Symptoms, ## Possible Causes and ## Next Steps in markdown.",
	model.AgentNutrition:    "You are a nutrition expert. Structure answers as ## Diet Tips, ## Foods to Include and ## Foods to Avoid in markdown.",
	model.AgentMentalHealth: "You are a supportive mental health coach. Structure answers as ## Coping Strategies, ## Resources and ## Self-Care in markdown.",
}

var stylePrompts = map[model.ResponseStyle]string{
	model.StyleConcise:  "Keep the answer brief: two or three sentences at most.",
	model.StyleDetailed: "Give a comprehensive answer with examples and explanations.",
}

// SystemPrompt is the instruction sent ahead of a conversation for providers
// that do not carry their own agent prompts
func SystemPrompt(agent model.AgentType, style model.ResponseStyle) string {
	prompt, ok := agentPrompts[agent]
	if !ok {
		prompt = agentPrompts[model.AgentGeneral]
	}
	return prompt + " " + stylePrompts[style] + " You do not replace a doctor."
}

// ChatTurn is one user message with its conversation context
type ChatTurn struct {
	Message string
	Agent   model.AgentType
	Style   model.ResponseStyle
	History []model.ChatMessage
}

// ChatProvider produces the assistant reply for a turn
type ChatProvider interface {
	Reply(ctx context.Context, turn ChatTurn) (string, error)
}

// ChatBackend is the remote chat endpoint
type ChatBackend interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

// BackendChatProvider delegates replies to the HealthMate backend
type BackendChatProvider struct {
	client ChatBackend
}

// NewBackendChatProvider creates a new BackendChatProvider
func NewBackendChatProvider(client ChatBackend) *BackendChatProvider {
	return &BackendChatProvider{client: client}
}

// Reply implements ChatProvider
func (p *BackendChatProvider) Reply(ctx context.Context, turn ChatTurn) (string, error) {
	resp, err := p.client.Chat(ctx, backend.ChatRequest{
		Message:       turn.Message,
		AgentType:     turn.Agent,
		ResponseStyle: turn.Style,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("empty chat response")
	}
	return resp.Response, nil
}

// Conversational is a model that answers with the full transcript in view
type Conversational interface {
	Converse(ctx context.Context, systemPrompt string, history []model.ChatMessage, message string) (string, error)
}

// OpenAIChatProvider answers through an Azure OpenAI deployment
type OpenAIChatProvider struct {
	client Conversational
}

// NewOpenAIChatProvider creates a new OpenAIChatProvider
func NewOpenAIChatProvider(client Conversational) *OpenAIChatProvider {
	return &OpenAIChatProvider{client: client}
}

// Reply implements ChatProvider
func (p *OpenAIChatProvider) Reply(ctx context.Context, turn ChatTurn) (string, error) {
	return p.client.Converse(ctx, SystemPrompt(turn.Agent, turn.Style), turn.History, turn.Message)
}

// ChatService keeps the conversation and relays messages to a provider
type ChatService struct {
	mu      sync.Mutex
	history []model.ChatMessage

	provider ChatProvider
	session  SessionInvalidator
	now      func() time.Time
	logger   *zap.Logger
}

// NewChatService creates a chat service seeded with the greeting. session may be nil.
func NewChatService(provider ChatProvider, session SessionInvalidator, logger *zap.Logger) *ChatService {
	s := &ChatService{
		provider: provider,
		session:  session,
		now:      time.Now,
		logger:   logger,
	}
	s.history = []model.ChatMessage{s.greeting()}
	return s
}

func (s *ChatService) greeting() model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   Greeting,
		Sender:    model.SenderAI,
		Timestamp: s.now(),
		AgentType: model.AgentGeneral,
	}
}

// History returns the conversation, oldest first
func (s *ChatService) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.history...)
}

// Reset starts a new conversation
func (s *ChatService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []model.ChatMessage{s.greeting()}
}

// Send appends the user message, asks the provider and appends the reply.
// The user message stays in the history when the provider fails.
func (s *ChatService) Send(ctx context.Context, message string, agent model.AgentType, style model.ResponseStyle) (*model.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, newValidationError("message", "message must not be empty")
	}
	if agent == "" {
		agent = model.AgentGeneral
	}
	if _, ok := agentPrompts[agent]; !ok {
		return nil, newValidationError("agentType", "unknown agent type %q", agent)
	}
	if style == "" {
		style = model.StyleConcise
	}
	if _, ok := stylePrompts[style]; !ok {
		return nil, newValidationError("responseStyle", "unknown response style %q", style)
	}

	s.mu.Lock()
	prior := append([]model.ChatMessage(nil), s.history...)
	s.appendLocked(model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   message,
		Sender:    model.SenderUser,
		Timestamp: s.now(),
		AgentType: agent,
	})
	s.mu.Unlock()

	reply, err := s.provider.Reply(ctx, ChatTurn{
		Message: message,
		Agent:   agent,
		Style:   style,
		History: prior,
	})
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) && s.session != nil {
			s.session.Invalidate(ctx, "chat request rejected")
		}
		s.logger.Error("chat request failed",
			zap.Error(err),
			zap.String("agent_type", string(agent)),
		)
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	answer := model.ChatMessage{
		ID:        uuid.New().String(),
		Content:   reply,
		Sender:    model.SenderAI,
		Timestamp: s.now(),
		AgentType: agent,
	}

	s.mu.Lock()
	s.appendLocked(answer)
	s.mu.Unlock()

	return &answer, nil
}

func (s *ChatService) appendLocked(m model.ChatMessage) {
	s.history = append(s.history, m)
	if over := len(s.history) - maxChatHistory; over > 0 {
		s.history = append([]model.ChatMessage(nil), s.history[over:]...)
	}
}
