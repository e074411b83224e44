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

func TenantRoutes(r *gin.RouterGroup, s tenant.Service) {
	// Tenant provisioning is an operator concern
	adminGroup := r.Group("", middleware.Admin())
	{
		adminGroup.POST("", createTenant(s))
		adminGroup.GET("", listTenants(s))
		adminGroup.DELETE("/:id", deleteTenant(s))
	}

	tenantGroup := r.Group("/:id", middleware.TenantAuth(s))
	{
		tenantGroup.GET("", getTenant(s))
		tenantGroup.PUT("", updateTenant(s))
		tenantGroup.PUT("/auto-reply", updateAutoReply(s))
		tenantGroup.GET("/contacts", listContacts(s))
	}
}

// @Summary Provision a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param request body dtos.CreateTenantDTO true "Tenant payload"
// @Success 201 {object} map[string]interface{}
// @Router /tenants [post]
func createTenant(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.CreateTenantDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		created, err := s.Create(c, req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": fmt.Sprintf(constant.CREATED, "Tenant"),
			"data":    tenantResponse(created),
		})
	}
}

func listTenants(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		tenants, err := s.List(c)
		if err != nil {
			c.JSON(500, gin.H{"error": constant.SOMETHING_WENT_WRONG})
			return
		}

		responses := make([]dtos.TenantResponseDTO, 0, len(tenants))
		for _, t := range tenants {
			responses = append(responses, tenantResponse(t))
		}
		c.JSON(200, gin.H{"data": responses})
	}
}

func getTenant(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		found, err := s.Get(c, id)
		if err != nil {
			c.JSON(404, gin.H{"error": fmt.Sprintf(constant.CANT_FIND, "Tenant")})
			return
		}
		c.JSON(200, gin.H{"data": tenantResponse(found)})
	}
}

func updateTenant(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		var req dtos.UpdateTenantDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		updated, err := s.Update(c, id, req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": fmt.Sprintf(constant.UPDATED, "Tenant"),
			"data":    tenantResponse(updated),
		})
	}
}

func deleteTenant(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		if err := s.Delete(c, id); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"message": fmt.Sprintf(constant.DELETED, "Tenant")})
	}
}

func updateAutoReply(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		var req dtos.UpdateAutoReplyDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		updated, err := s.UpdateAutoReply(c, id, req)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"message": fmt.Sprintf(constant.UPDATED, "Auto-reply settings"),
			"data":    tenantResponse(updated),
		})
	}
}

func listContacts(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := tenantID(c)
		if !ok {
			return
		}

		contacts, err := s.ListContacts(c, id)
		if err != nil {
			c.JSON(500, gin.H{"error": constant.SOMETHING_WENT_WRONG})
			return
		}

		contactDTOs := make([]dtos.ContactDTO, 0, len(contacts))
		for _, contact := range contacts {
			contactDTOs = append(contactDTOs, dtos.ContactDTO{
				Address:   contact.Address,
				Name:      contact.Name,
				Phone:     contact.Phone,
				AvatarURL: contact.AvatarURL,
				Kind:      contact.Kind,
			})
		}
		c.JSON(200, gin.H{"contacts": contactDTOs})
	}
}

func tenantID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
		return 0, false
	}
	return uint(id), true
}

func tenantResponse(t entities.Tenant) dtos.TenantResponseDTO {
	return dtos.TenantResponseDTO{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		NetworkID:   t.NetworkID,
		DisplayName: t.DisplayName,
		PhoneNumber: t.PhoneNumber,
		AvatarURL:   t.AvatarURL,
	}
}
