package routes

import (
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/domains/gateway"
	"github.com/wagateway/pkg/domains/tenant"
	"github.com/wagateway/pkg/dtos"
	"github.com/wagateway/pkg/middleware"
)

func MessageRoutes(r *gin.RouterGroup, sender *gateway.Sender, s tenant.Service) {
	tenantGroup := r.Group("/:id", middleware.TenantAuth(s))
	{
		tenantGroup.POST("/send", sendMessage(sender))
		tenantGroup.POST("/send-media", sendMediaMessage(sender))
		tenantGroup.POST("/schedule", scheduleMessage(sender))
		tenantGroup.GET("/messages", listMessages(s))
	}
}

// @Summary Send a message to one or more targets
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Tenant ID"
// @Param request body dtos.SendMessageDTO true "Message payload"
// @Success 200 {object} map[string]interface{}
// @Router /messaging/{id}/send [post]
func sendMessage(sender *gateway.Sender) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		var req dtos.SendMessageDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		outcomes, err := sender.Send(c, id, req.Targets, req.Body, nil,
			time.Duration(req.DelayMs)*time.Millisecond)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.MESSAGE_QUEUED,
			"results": outcomes,
		})
	}
}

func sendMediaMessage(sender *gateway.Sender) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		target := c.PostForm("target")
		caption := c.PostForm("caption")
		mimeType := c.PostForm("mime_type")
		if target == "" || mimeType == "" {
			c.JSON(400, gin.H{"error": "target and mime_type are required"})
			return
		}

		file, header, err := c.Request.FormFile("media")
		if err != nil {
			c.JSON(400, gin.H{"error": "Failed to get uploaded file"})
			return
		}
		defer file.Close()

		mediaData, err := io.ReadAll(file)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to read file data"})
			return
		}

		req := dtos.SendMediaMessageDTO{
			Targets:  []string{target},
			Caption:  caption,
			Filename: header.Filename,
			MimeType: mimeType,
			Data:     mediaData,
		}
		media := &gateway.Media{
			Filename: req.Filename,
			MimeType: req.MimeType,
			Data:     req.Data,
		}
		outcomes, err := sender.Send(c, id, req.Targets, req.Caption, media, 0)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": constant.MESSAGE_QUEUED,
			"results": outcomes,
		})
	}
}

func scheduleMessage(sender *gateway.Sender) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		var req dtos.ScheduleMessageDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		msg, err := sender.Schedule(c, id, req.To, req.Body, req.ScheduledAt)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": constant.MESSAGE_PLANNED,
			"data": dtos.MessageResponseDTO{
				ID:          msg.ID,
				Address:     msg.Address,
				Body:        msg.Body,
				Direction:   msg.Direction,
				Status:      msg.Status,
				ScheduledAt: msg.ScheduledAt,
				CreatedAt:   msg.CreatedAt,
			},
		})
	}
}

func listMessages(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page <= 0 {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		messages, totalPages, err := s.ListMessages(c, id, page)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		responses := make([]dtos.MessageResponseDTO, 0, len(messages))
		for _, msg := range messages {
			responses = append(responses, dtos.MessageResponseDTO{
				ID:          msg.ID,
				Address:     msg.Address,
				Body:        msg.Body,
				Direction:   msg.Direction,
				Status:      msg.Status,
				ScheduledAt: msg.ScheduledAt,
				CreatedAt:   msg.CreatedAt,
			})
		}

		c.JSON(200, gin.H{
			"data":        responses,
			"total_pages": totalPages,
			"page":        page,
		})
	}
}
