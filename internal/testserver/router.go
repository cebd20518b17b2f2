package testserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	model "artbid-console/internal/models"
	"artbid-console/utils"
)

// Router configures the gin routes mirroring the marketplace API.
func Router(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware)

	api := router.Group("/api")
	api.Use(s.RequireBearerMiddleware)
	{
		auctions := api.Group("/auctions")
		{
			auctions.GET("/active", s.handleActiveAuctions)
			auctions.GET("/completed/winner/:user_id", s.handleWonAuctions)
			auctions.POST("/bid", s.handlePlaceBid)
			auctions.POST("/pay", s.handlePay)
			auctions.POST("", s.handleCreateAuction)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("/user/:user_id", s.handleNotifications)
			notifications.GET("/user/:user_id/unread", s.handleUnreadNotifications)
			notifications.PUT("/:id/read", s.handleMarkRead)
		}
	}

	// The push channel authenticates via the path's user id only, like
	// the real backend's websocket endpoint.
	router.GET("/ws-notifications/:user_id", s.handlePushChannel)

	return router
}

// respond writes the uniform success envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data, "message": ""})
}

// fail writes the uniform error envelope.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "data": nil, "message": message})
}

func (s *Server) handleActiveAuctions(c *gin.Context) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]model.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if !a.Ended(now) {
			active = append(active, a)
		}
	}
	respond(c, http.StatusOK, active)
}

func (s *Server) handleWonAuctions(c *gin.Context) {
	userID := c.Param("user_id")
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	won := make([]model.Auction, 0)
	for _, a := range s.auctions {
		if a.Ended(now) && a.WinnerID != nil && *a.WinnerID == userID {
			won = append(won, a)
		}
	}
	respond(c, http.StatusOK, won)
}

func (s *Server) handlePlaceBid(c *gin.Context) {
	var req model.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[req.AuctionID]
	if !ok {
		fail(c, http.StatusNotFound, "auction not found")
		return
	}
	if a.Ended(time.Now()) {
		fail(c, http.StatusConflict, "auction has ended")
		return
	}
	// The server is the single serialization point for the monotonic
	// price invariant across concurrent bidders.
	if req.Amount <= a.CurrentKnownPrice() {
		fail(c, http.StatusConflict, "bid amount too low")
		return
	}

	amount := req.Amount
	bidder := req.UserID
	a.CurrentPrice = &amount
	a.BidCount++
	a.WinnerID = &bidder
	s.auctions[req.AuctionID] = a

	respond(c, http.StatusOK, true)
}

func (s *Server) handlePay(c *gin.Context) {
	var req model.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[req.AuctionID]
	if !ok {
		fail(c, http.StatusNotFound, "auction not found")
		return
	}
	if a.PaymentStatus == model.PaymentCompleted {
		fail(c, http.StatusConflict, "auction already paid")
		return
	}

	a.PaymentStatus = model.PaymentCompleted
	if a.CurrentPrice != nil {
		final := *a.CurrentPrice
		a.FinalPrice = &final
	}
	s.auctions[req.AuctionID] = a

	respond(c, http.StatusOK, true)
}

func (s *Server) handleCreateAuction(c *gin.Context) {
	var draft model.AuctionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		fail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	created := model.Auction{
		AuctionID:     utils.GenerateID(),
		Title:         draft.Title,
		Description:   draft.Description,
		ImageURL:      draft.ImageURL,
		StartingPrice: draft.StartingPrice,
		StartTime:     draft.StartTime,
		EndTime:       draft.EndTime,
		PaymentStatus: model.PaymentPending,
	}

	s.mu.Lock()
	s.auctions[created.AuctionID] = created
	s.mu.Unlock()

	respond(c, http.StatusCreated, created)
}

func (s *Server) handleNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	respond(c, http.StatusOK, append([]model.Notification{}, s.notifications[userID]...))
}

func (s *Server) handleUnreadNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	unread := make([]model.Notification, 0)
	for _, n := range s.notifications[userID] {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	respond(c, http.StatusOK, unread)
}

func (s *Server) handleMarkRead(c *gin.Context) {
	notificationID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, ns := range s.notifications {
		for i, n := range ns {
			if n.NotificationID == notificationID {
				s.notifications[userID][i].Read = true
				respond(c, http.StatusOK, nil)
				return
			}
		}
	}
	fail(c, http.StatusNotFound, "notification not found")
}

func (s *Server) handlePushChannel(c *gin.Context) {
	userID := c.Param("user_id")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("testserver: websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	s.registerConn(userID, conn)
	defer func() {
		s.dropConn(userID, conn)
		_ = conn.Close()
	}()

	// Inbound messages are ignored; the channel is server-to-client.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
