package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

const (
	DefaultMaxDepth = 10
	MaxDepthLimit   = 50
	// maxRootWalk bounds the parent walk in GetConversation.
	maxRootWalk = 10000
)

// ThreadService assembles nested reply trees.
type ThreadService struct {
	store repositories.Store
	opts  options
}

// NewThreadService constructs a ThreadService.
func NewThreadService(store repositories.Store, opts ...Option) *ThreadService {
	return &ThreadService{store: store, opts: buildOptions(opts)}
}

// GetThreads returns the user's threads, most recently active first,
// optionally narrowed to one counterpart. Replies deeper than maxDepth are
// left out.
func (s *ThreadService) GetThreads(ctx context.Context, userID int, otherUserID *int, maxDepth int) ([]*models.ThreadNode, error) {
	ctx, span := tracer.Start(ctx, "threads.list")
	defer span.End()

	repos := s.store.Repositories()
	roots, err := repos.Messages.ListRoots(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("list thread roots: %w", err)
	}
	span.SetAttributes(attribute.Int("threads.roots", len(roots)))
	return assemble(ctx, repos, roots, clampDepth(maxDepth))
}

// GetConversation returns the thread containing messageID when given, or every
// thread between the two users otherwise. A message that does not involve
// both users is reported as not found.
func (s *ThreadService) GetConversation(ctx context.Context, userID, otherUserID int, messageID *int) ([]*models.ThreadNode, error) {
	if messageID == nil {
		return s.GetThreads(ctx, userID, &otherUserID, DefaultMaxDepth)
	}

	ctx, span := tracer.Start(ctx, "threads.conversation")
	defer span.End()

	repos := s.store.Repositories()
	msg, err := repos.Messages.GetMessage(ctx, *messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return nil, fmt.Errorf("thread of message %d: %w", *messageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if !msg.Involves(userID) || !msg.Involves(otherUserID) {
		return nil, fmt.Errorf("thread of message %d: %w", *messageID, ErrNotFound)
	}

	root, err := walkToRoot(ctx, repos, msg)
	if err != nil {
		return nil, err
	}
	return assemble(ctx, repos, []models.Message{root}, DefaultMaxDepth)
}

func walkToRoot(ctx context.Context, repos repositories.Repositories, msg models.Message) (models.Message, error) {
	for steps := 0; msg.ParentID != nil; steps++ {
		if steps >= maxRootWalk {
			return models.Message{}, fmt.Errorf("message %d: parent chain longer than %d", msg.ID, maxRootWalk)
		}
		parent, err := repos.Messages.GetMessage(ctx, *msg.ParentID)
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("parent %d of message %d: %w", *msg.ParentID, msg.ID, ErrNotFound)
		}
		if err != nil {
			return models.Message{}, fmt.Errorf("load parent: %w", err)
		}
		msg = parent
	}
	return msg, nil
}

// assemble loads replies level by level, one query per depth, and attaches
// participant summaries with a single identity lookup.
func assemble(ctx context.Context, repos repositories.Repositories, roots []models.Message, maxDepth int) ([]*models.ThreadNode, error) {
	result := make([]*models.ThreadNode, 0, len(roots))
	nodes := make(map[int]*models.ThreadNode, len(roots))
	userIDs := map[int]struct{}{}

	level := make([]int, 0, len(roots))
	for _, m := range roots {
		n := newThreadNode(m)
		nodes[m.ID] = n
		result = append(result, n)
		level = append(level, m.ID)
		userIDs[m.SenderID] = struct{}{}
		userIDs[m.ReceiverID] = struct{}{}
	}

	for depth := 1; depth <= maxDepth && len(level) > 0; depth++ {
		replies, err := repos.Messages.ListReplies(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("list replies at depth %d: %w", depth, err)
		}
		next := make([]int, 0, len(replies))
		for _, m := range replies {
			if _, seen := nodes[m.ID]; seen || m.ParentID == nil {
				continue
			}
			parent, ok := nodes[*m.ParentID]
			if !ok {
				continue
			}
			n := newThreadNode(m)
			parent.Replies = append(parent.Replies, n)
			nodes[m.ID] = n
			next = append(next, m.ID)
			userIDs[m.SenderID] = struct{}{}
			userIDs[m.ReceiverID] = struct{}{}
		}
		level = next
	}

	if err := attachUsers(ctx, repos, nodes, userIDs); err != nil {
		return nil, err
	}
	return result, nil
}

func attachUsers(ctx context.Context, repos repositories.Repositories, nodes map[int]*models.ThreadNode, userIDs map[int]struct{}) error {
	if len(userIDs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}
	users, err := repos.Users.GetUsers(ctx, ids)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, n := range nodes {
		n.Sender = summarize(n.Sender.ID, byID)
		n.Receiver = summarize(n.Receiver.ID, byID)
	}
	return nil
}

func summarize(id int, users map[int]models.User) models.UserSummary {
	u, ok := users[id]
	if !ok {
		return models.UserSummary{ID: id}
	}
	return models.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

func newThreadNode(m models.Message) *models.ThreadNode {
	return &models.ThreadNode{
		ID:              m.ID,
		Sender:          models.UserSummary{ID: m.SenderID},
		Receiver:        models.UserSummary{ID: m.ReceiverID},
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
		ThreadTouchedAt: m.ThreadTouchedAt,
		Edited:          m.Edited,
		IsRead:          m.IsRead,
		Replies:         []*models.ThreadNode{},
	}
}

func clampDepth(maxDepth int) int {
	if maxDepth <= 0 {
		return DefaultMaxDepth
	}
	if maxDepth > MaxDepthLimit {
		return MaxDepthLimit
	}
	return maxDepth
}
