package chat

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/project-assistant/internal/agent/llm"
	"github.com/feichai0017/project-assistant/internal/apperr"
	"github.com/feichai0017/project-assistant/internal/models"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

const (
	DefaultSystemPrompt = "You are a helpful, concise, and accurate assistant."
	defaultTitle        = "New Chat"
	defaultTimeout      = 90 * time.Second
)

type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByIDAndOwner(ctx context.Context, chatID, ownerID string) (*models.Chat, error)
	DeleteWithMessages(ctx context.Context, chatID, ownerID string) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListByChatID(ctx context.Context, chatID string) ([]models.Message, error)
	ListRecentByChatID(ctx context.Context, chatID string, limit int) ([]models.Message, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, chatID string) ([]models.Message, bool, error)
	SetHistory(ctx context.Context, chatID string, messages []models.Message) error
	Invalidate(ctx context.Context, chatID string) error
}

type ServiceConfig struct {
	SystemPrompt string
	// HistoryWindow is how many earlier messages go into the prompt. Zero
	// sends only the system instruction and the new user message.
	HistoryWindow int
	Timeout       time.Duration
}

type ChatService struct {
	chats     ChatStore
	messages  MessageStore
	cache     HistoryCache
	completer llm.Completer
	logger    logger.Logger
	config    ServiceConfig
	now       func() time.Time
}

var _ ChatManager = (*ChatService)(nil)

// NewChatService wires the chat manager. cache may be nil.
func NewChatService(
	chats ChatStore,
	messages MessageStore,
	cache HistoryCache,
	completer llm.Completer,
	log logger.Logger,
	cfg ServiceConfig,
) *ChatService {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HistoryWindow < 0 {
		cfg.HistoryWindow = 0
	}
	return &ChatService{
		chats:     chats,
		messages:  messages,
		cache:     cache,
		completer: completer,
		logger:    log,
		config:    cfg,
		now:       time.Now,
	}
}

func (s *ChatService) CreateChat(ctx context.Context, projectID, ownerID, title string) (*models.Chat, error) {
	const op = "create chat"
	if strings.TrimSpace(projectID) == "" {
		return nil, apperr.Validation(op, "project_id is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}

	chat := &models.Chat{
		Title:     title,
		ProjectID: projectID,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, apperr.Internal(op, err)
	}
	chat.Messages = []models.Message{}

	logger.FromContext(ctx, s.logger).Info("Chat created", logger.String("chatId", chat.ID))
	return chat, nil
}

// GetChat loads the chat and its messages concurrently and attaches the
// messages only when the chat belongs to ownerID.
func (s *ChatService) GetChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error) {
	const op = "get chat"

	var (
		chat     *models.Chat
		messages []models.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chat, err = s.chats.GetByIDAndOwner(gctx, chatID, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = s.history(gctx, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(op, err)
	}
	if chat == nil {
		return nil, apperr.NotFound(op, "chat %s not found or access denied", chatID)
	}

	if messages == nil {
		messages = []models.Message{}
	}
	chat.Messages = messages
	return chat, nil
}

func (s *ChatService) history(ctx context.Context, chatID string) ([]models.Message, error) {
	if s.cache != nil {
		if cached, hit, err := s.cache.GetHistory(ctx, chatID); err == nil && hit {
			return cached, nil
		} else if err != nil {
			s.logger.Warn("History cache read failed", logger.String("chatId", chatID), logger.Error(err))
		}
	}

	messages, err := s.messages.ListByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetHistory(ctx, chatID, messages); err != nil {
			s.logger.Warn("History cache write failed", logger.String("chatId", chatID), logger.Error(err))
		}
	}
	return messages, nil
}

// DeleteChat removes the chat and its messages in one transaction.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error) {
	const op = "delete chat"

	chat, err := s.chats.GetByIDAndOwner(ctx, chatID, ownerID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if chat == nil {
		return nil, apperr.NotFound(op, "chat %s not found or access denied", chatID)
	}

	n, err := s.chats.DeleteWithMessages(ctx, chatID, ownerID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if n == 0 {
		return nil, apperr.NotFound(op, "chat %s not found or access denied", chatID)
	}
	s.invalidate(ctx, chatID)

	logger.FromContext(ctx, s.logger).Info("Chat deleted", logger.String("chatId", chatID))
	return chat, nil
}

// SendMessage persists the user message, asks the completer for a reply and
// persists that too. A failed completion leaves the user message in place.
func (s *ChatService) SendMessage(ctx context.Context, projectID, chatID, ownerID, content string) (*Exchange, error) {
	const op = "send message"
	log := logger.FromContext(ctx, s.logger).With(logger.String("chatId", chatID))

	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation(op, "content is required")
	}

	chat, err := s.chats.GetByIDAndOwner(ctx, chatID, ownerID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if chat == nil || chat.ProjectID != projectID {
		return nil, apperr.NotFound(op, "chat %s not found or access denied", chatID)
	}

	var earlier []models.Message
	if s.config.HistoryWindow > 0 {
		if earlier, err = s.messages.ListRecentByChatID(ctx, chatID, s.config.HistoryWindow); err != nil {
			return nil, apperr.Internal(op, err)
		}
	}

	userMessage := &models.Message{
		ChatID:    chatID,
		OwnerID:   ownerID,
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: s.now().Truncate(time.Millisecond),
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return nil, apperr.Internal(op, err)
	}
	s.invalidate(ctx, chatID)

	completeCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.completer.Complete(completeCtx, s.prompt(earlier, content))
	if err != nil {
		log.Error("Completion failed", logger.Error(err))
		return nil, apperr.Upstream(op, err)
	}
	log.Debug("Completion done", logger.Duration("elapsed", time.Since(start)))

	assistantMessage := &models.Message{
		ChatID:    chatID,
		OwnerID:   ownerID,
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: after(userMessage.CreatedAt, s.now()),
	}
	if err := s.messages.Create(ctx, assistantMessage); err != nil {
		return nil, apperr.Internal(op, err)
	}
	s.invalidate(ctx, chatID)

	return &Exchange{UserMessage: userMessage, AssistantMessage: assistantMessage}, nil
}

func (s *ChatService) prompt(earlier []models.Message, content string) []llm.Message {
	out := make([]llm.Message, 0, len(earlier)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: s.config.SystemPrompt})
	for _, m := range earlier {
		role := llm.RoleUser
		if m.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: content})
}

func (s *ChatService) invalidate(ctx context.Context, chatID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), chatID); err != nil {
		s.logger.Warn("History cache invalidate failed", logger.String("chatId", chatID), logger.Error(err))
	}
}

// after returns t truncated to milliseconds, pushed past prev when needed so
// the reply always sorts after the message it answers.
func after(prev, t time.Time) time.Time {
	t = t.Truncate(time.Millisecond)
	if floor := prev.Add(time.Millisecond); t.Before(floor) {
		return floor
	}
	return t
}
