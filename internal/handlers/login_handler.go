package handlers

import (
	"net/http"
	"strings"

	"bey-cash/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	var user models.User
	if err := h.DB.Where("username = ?", input.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// Compare the typed password with the stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Tokens.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
	})
}

// Register is only routed while registration is allowed in the config.
// The first account becomes admin; later ones default to cashier.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	role := strings.ToLower(strings.TrimSpace(input.Role))
	var count int64
	if err := h.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		fail(c, err)
		return
	}
	switch {
	case count == 0:
		role = models.RoleAdmin
	case role == "":
		role = models.RoleCashier
	case role != models.RoleAdmin && role != models.RoleCashier:
		badRequest(c, "Role must be admin or cashier")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		badRequest(c, "User likely already exists")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "role": user.Role})
}

// Logout writes the pending draft of the caller and drops their workspace.
func (h *Handler) Logout(c *gin.Context) {
	h.Workspaces.Release(currentUser(c))
	c.Status(http.StatusNoContent)
}
