package notification

import (
	"context"
	"fmt"
	"sync"

	"artbid-console/internal/auctionerrors"
	model "artbid-console/internal/models"
	"artbid-console/internal/session"
	"artbid-console/utils"
)

// NotificationAPI is the slice of the backend the notification service
// talks to.
type NotificationAPI interface {
	Notifications(ctx context.Context, userID string) ([]model.Notification, error)
	UnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// NotificationService keeps a live, newest-first view of the signed-in
// user's notifications: an initial bulk fetch, incremental updates
// pushed over the stream, and a tracked unread count. The server is
// authoritative; a bulk refresh replaces the whole collection.
type NotificationService struct {
	api     NotificationAPI
	session *session.Session

	mu      sync.RWMutex
	items   []model.Notification
	unread  int
	applied map[string]struct{} // notification IDs already ingested, for push dedup
}

// NewNotificationService creates a NotificationService for the given
// session.
func NewNotificationService(api NotificationAPI, sess *session.Session) *NotificationService {
	return &NotificationService{
		api:     api,
		session: sess,
		applied: make(map[string]struct{}),
	}
}

// Initialize fetches the full notification list for the signed-in user
// and seeds local state from it. When no user is signed in it performs
// no action. The unread count is always recomputed from the bulk list;
// the separately fetched unread list can be briefly inconsistent when
// the two fetches race, so it is only cross-checked and logged.
func (s *NotificationService) Initialize(ctx context.Context) error {
	userID := s.session.UserID()
	if userID == "" {
		return nil
	}

	items, err := s.api.Notifications(ctx, userID)
	if err != nil {
		return fmt.Errorf("notifications: failed to fetch list for user %s: %w", userID, err)
	}

	if unreadItems, err := s.api.UnreadNotifications(ctx, userID); err != nil {
		utils.Warn("notifications: failed to fetch unread list", map[string]any{
			"user_id": userID, "error": err.Error(),
		})
	} else if fetched, counted := len(unreadItems), countUnread(items); fetched != counted {
		utils.Warn("notifications: unread fetch disagrees with bulk list, trusting the list", map[string]any{
			"user_id": userID, "fetched": fetched, "counted": counted,
		})
	}

	s.replaceAll(items)
	utils.Info("notifications: initialized", map[string]any{
		"user_id": userID, "count": len(items), "unread": s.UnreadCount(),
	})
	return nil
}

// MarkAsRead marks one notification as read on the server, then
// re-fetches the full list to resynchronize. On a network or server
// error local state is left unchanged and the error is surfaced; there
// is no automatic retry. Marking an already-read notification again is
// a harmless no-op on both sides.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID string) error {
	userID := s.session.UserID()
	if userID == "" {
		return fmt.Errorf("notifications: %w - sign in to mark notifications read", auctionerrors.ErrNoUser)
	}
	if notificationID == "" {
		return fmt.Errorf("notifications: missing notification ID")
	}

	if err := s.api.MarkNotificationRead(ctx, notificationID); err != nil {
		return fmt.Errorf("notifications: failed to mark %s as read: %w", notificationID, err)
	}

	items, err := s.api.Notifications(ctx, userID)
	if err != nil {
		// The update went through; fall back to flipping the local flag
		// until the next successful fetch resynchronizes.
		utils.Warn("notifications: failed to re-fetch after mark-as-read, applying locally", map[string]any{
			"notification_id": notificationID, "error": err.Error(),
		})
		s.markReadLocally(notificationID)
		return nil
	}
	s.replaceAll(items)
	return nil
}

// Ingest applies one push-delivered notification: prepended so the
// list stays newest first, unread count up by exactly one. The push
// channel is at-least-once, so redelivered IDs are dropped. Reports
// whether the notification was applied.
func (s *NotificationService) Ingest(n model.Notification) bool {
	if !n.Category.Valid() {
		n.Category = model.CategoryInfo
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n.NotificationID != "" {
		if _, seen := s.applied[n.NotificationID]; seen {
			utils.Info("notifications: dropped duplicate push delivery", map[string]any{
				"notification_id": n.NotificationID,
			})
			return false
		}
		s.applied[n.NotificationID] = struct{}{}
	}

	s.items = append([]model.Notification{n}, s.items...)
	s.unread++
	return true
}

// Notifications returns a newest-first snapshot copy of the list.
func (s *NotificationService) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Notification(nil), s.items...)
}

// UnreadCount returns the current unread count.
func (s *NotificationService) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// replaceAll swaps in a freshly fetched collection. Previously applied
// push IDs stay in the dedup set: a pushed notification may not have
// reached the server list yet, and a redelivery after a refresh must
// still be dropped.
func (s *NotificationService) replaceAll(items []model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]model.Notification(nil), items...)
	s.unread = countUnread(items)
	for _, n := range items {
		if n.NotificationID != "" {
			s.applied[n.NotificationID] = struct{}{}
		}
	}
}

// markReadLocally flips the read flag for one notification without a
// server round-trip. The unread count decreases by at most one.
func (s *NotificationService) markReadLocally(notificationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.items {
		if n.NotificationID != notificationID {
			continue
		}
		if !n.Read {
			s.items[i].Read = true
			s.unread--
		}
		return
	}
}

func countUnread(items []model.Notification) int {
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}
	return unread
}
