package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vendor-onboarding-api/middleware"
	"vendor-onboarding-api/models"
	"vendor-onboarding-api/store"
	"vendor-onboarding-api/utils"
)

type AuthController struct {
	store       store.Store
	secret      string
	expireHours int
	now         func() time.Time
}

func NewAuthController(st store.Store, secret string, expireHours int) *AuthController {
	if expireHours <= 0 {
		expireHours = 24 // default 24 hours
	}
	return &AuthController{store: st, secret: secret, expireHours: expireHours, now: time.Now}
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
	Message     string      `json:"message"`
}

type ValidateUniqueRequest struct {
	Type  string `json:"type" binding:"required,oneof=email phone"`
	Value string `json:"value" binding:"required"`
}

// Register creates a vendor account
func (h *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	email := strings.ToLower(utils.SanitizeInput(req.Email))
	if !utils.ValidateEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	fullName := utils.SanitizeInput(req.FullName)
	if fullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name is required"})
		return
	}
	phone := utils.SanitizeOptional(req.Phone)
	if phone != nil && !utils.ValidatePhone(*phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		return
	}

	ctx := c.Request.Context()
	if taken, err := h.store.ContactInUse(ctx, store.ContactEmail, email); err != nil {
		respondError(c, err)
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if phone != nil {
		if taken, err := h.store.ContactInUse(ctx, store.ContactPhone, *phone); err != nil {
			respondError(c, err)
			return
		} else if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "Phone number already registered"})
			return
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        phone,
		Role:         models.RoleVendor,
		IsActive:     true,
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "message": "Registration successful"})
}

// Login handles user authentication
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest

	// Bind request
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	// Find user by email
	user, err := h.store.FindUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is disabled"})
		return
	}

	// Generate JWT token
	token, expires, err := h.generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
		User:        *user,
		Message:     "Login successful",
	})
}

// GetProfile returns current user profile
func (h *AuthController) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ValidateUnique reports whether an email or phone is still free.
func (h *AuthController) ValidateUnique(c *gin.Context) {
	var req ValidateUniqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	value := utils.SanitizeInput(req.Value)
	if req.Type == store.ContactEmail {
		value = strings.ToLower(value)
	}
	taken, err := h.store.ContactInUse(c.Request.Context(), req.Type, value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": !taken})
}

// generateToken creates JWT token
func (h *AuthController) generateToken(user *models.User) (string, time.Time, error) {
	now := h.now()
	expires := now.Add(time.Duration(h.expireHours) * time.Hour)

	// Create claims
	claims := middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign token
	tokenString, err := token.SignedString([]byte(h.secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expires, nil
}

// HashPassword hashes password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares password with hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// EnsureAdmin creates an admin account for email unless a user with that
// email already exists.
func EnsureAdmin(ctx context.Context, st store.Store, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := st.FindUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if ok, msg := utils.ValidatePassword(password); !ok {
		return false, errors.New(msg)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := st.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
