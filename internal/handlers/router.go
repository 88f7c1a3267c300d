package handlers

import (
	"github.com/gin-gonic/gin"
)

// API bundles the HTTP handlers.
type API struct {
	Threads       *ThreadHandler
	Messages      *MessageHandler
	Inbox         *InboxHandler
	Notifications *NotificationHandler
	Account       *AccountHandler
}

// RegisterRoutes mounts the authenticated API. middlewares run before every handler.
func RegisterRoutes(router gin.IRouter, api API, middlewares ...gin.HandlerFunc) {
	g := router.Group("", middlewares...)

	g.GET("/threads", api.Threads.ListThreads)
	g.GET("/threads/:other_user_id", api.Threads.GetConversation)
	g.GET("/threads/:other_user_id/:message_id", api.Threads.GetConversation)

	g.POST("/messages", api.Messages.PostMessage)
	g.GET("/messages/unread", api.Inbox.ListUnread)
	g.GET("/messages/unread/count", api.Inbox.UnreadCount)
	g.POST("/messages/mark-read", api.Inbox.MarkRead)
	g.GET("/messages/:message_id", api.Messages.GetMessage)
	g.PATCH("/messages/:message_id", api.Messages.EditMessage)
	g.GET("/messages/:message_id/history", api.Messages.GetHistory)

	g.GET("/notifications", api.Notifications.ListNotifications)
	g.POST("/notifications/mark-read", api.Notifications.MarkRead)

	g.DELETE("/account", api.Account.DeleteAccount)
}
