package handler

import (
	"net/http"
	"strconv"

	"github.com/contacthub/backend/internal/model"
	"github.com/contacthub/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	svc *service.ContactService
}

func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// List godoc
// @Summary List contacts
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} model.Contact
// @Router /api/contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	contacts, err := h.svc.List(c.Request.Context(), user, skip, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Get godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} model.Contact
// @Failure 404 {object} model.ErrorResponse
// @Router /api/contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	user := CurrentUser(c)
	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact id"})
		return
	}

	contact, err := h.svc.Get(c.Request.Context(), user, contactID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Create godoc
// @Summary Create a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ContactCreateRequest true "Contact"
// @Success 201 {object} model.Contact
// @Failure 400 {object} model.ErrorResponse
// @Router /api/contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	user := CurrentUser(c)
	var req model.ContactCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	contact, err := h.svc.Create(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// Update godoc
// @Summary Update a contact
// @Description Partial update; absent fields are left unchanged.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body model.ContactUpdateRequest true "Fields to change"
// @Success 200 {object} model.Contact
// @Failure 404 {object} model.ErrorResponse
// @Router /api/contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	user := CurrentUser(c)
	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact id"})
		return
	}

	var req model.ContactUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), user, contactID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete a contact
// @Tags contacts
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 204
// @Failure 404 {object} model.ErrorResponse
// @Router /api/contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	user := CurrentUser(c)
	contactID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), user, contactID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search godoc
// @Summary Search contacts by name, surname or email
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param name query string false "First name substring"
// @Param surname query string false "Last name substring"
// @Param email query string false "Email substring"
// @Success 200 {array} model.Contact
// @Router /api/contacts/search [get]
func (h *ContactHandler) Search(c *gin.Context) {
	user := CurrentUser(c)
	contacts, err := h.svc.Search(c.Request.Context(), user,
		c.Query("name"), c.Query("surname"), c.Query("email"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// Birthdays godoc
// @Summary List contacts with a birthday in the next 7 days
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Contact
// @Router /api/contacts/birthdays [get]
func (h *ContactHandler) Birthdays(c *gin.Context) {
	user := CurrentUser(c)
	contacts, err := h.svc.UpcomingBirthdays(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}
