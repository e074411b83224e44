package routes

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/domains/tenant"
	"github.com/wagateway/pkg/dtos"
	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/middleware"
)

func WebhookRoutes(r *gin.RouterGroup, s tenant.Service) {
	tenantGroup := r.Group("/:id", middleware.TenantAuth(s))
	{
		tenantGroup.POST("/webhooks", createWebhook(s))
		tenantGroup.GET("/webhooks", listWebhooks(s))
		tenantGroup.PUT("/webhooks/:webhook_id", updateWebhook(s))
		tenantGroup.DELETE("/webhooks/:webhook_id", deleteWebhook(s))
	}
}

func createWebhook(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		var req dtos.CreateWebhookDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		webhook, err := s.CreateWebhook(c, id, req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": fmt.Sprintf(constant.CREATED, "Webhook"),
			"data":    webhookResponse(webhook),
		})
	}
}

func listWebhooks(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		webhooks, err := s.ListWebhooks(c, id)
		if err != nil {
			c.JSON(500, gin.H{"error": constant.SOMETHING_WENT_WRONG})
			return
		}

		responses := make([]dtos.WebhookResponseDTO, 0, len(webhooks))
		for _, webhook := range webhooks {
			responses = append(responses, webhookResponse(webhook))
		}
		c.JSON(200, gin.H{"data": responses})
	}
}

func updateWebhook(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}
		webhookID, ok := pathID(c, "webhook_id")
		if !ok {
			return
		}

		var req dtos.UpdateWebhookDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		webhook, err := s.UpdateWebhook(c, id, webhookID, req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": fmt.Sprintf(constant.UPDATED, "Webhook"),
			"data":    webhookResponse(webhook),
		})
	}
}

func deleteWebhook(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}
		webhookID, ok := pathID(c, "webhook_id")
		if !ok {
			return
		}

		if err := s.DeleteWebhook(c, id, webhookID); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": fmt.Sprintf(constant.DELETED, "Webhook")})
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
		return 0, false
	}
	return uint(id), true
}

func webhookResponse(w entities.Webhook) dtos.WebhookResponseDTO {
	return dtos.WebhookResponseDTO{
		ID:         w.ID,
		TenantID:   w.TenantID,
		Name:       w.Name,
		URL:        w.URL,
		SignHeader: w.SignHeader,
		OnPersonal: w.OnPersonal,
		OnGroup:    w.OnGroup,
		OnTag:      w.OnTag,
	}
}
