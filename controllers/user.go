package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsim/helpers"
	"medsim/models"
	"medsim/services"
)

type UserController struct {
	users services.UserStore
}

func NewUserController(users services.UserStore) *UserController {
	return &UserController{users: users}
}

// ===================== SIGNUP =====================
func (uc *UserController) Signup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User

		if err := c.BindJSON(&user); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if validationErr := validate.Struct(user); validationErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}

		count, err := uc.users.CountByEmail(c.Request.Context(), *user.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}

		hashed, err := helpers.HashPassword(user.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		user.Password = hashed
		user.Created_at = time.Now()
		user.Updated_at = time.Now()
		user.ID = primitive.NewObjectID()
		user.User_id = user.ID.Hex()

		token, err := helpers.GenerateToken(*user.Email, user.User_id)
		if err != nil {
			writeError(c, err)
			return
		}

		if err := uc.users.Insert(c.Request.Context(), &user); err != nil {
			writeError(c, err)
			return
		}

		user.Password = nil
		c.JSON(http.StatusOK, gin.H{
			"message": "User created successfully",
			"token":   token,
			"user":    user,
		})
	}
}

// ===================== LOGIN =====================
func (uc *UserController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginInput models.User

		if err := c.BindJSON(&loginInput); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if loginInput.Email == nil || loginInput.Password == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}

		foundUser, err := uc.users.FindByEmail(c.Request.Context(), *loginInput.Email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		if !helpers.VerifyPassword(*foundUser.Password, *loginInput.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		token, err := helpers.GenerateToken(*foundUser.Email, foundUser.User_id)
		if err != nil {
			writeError(c, err)
			return
		}

		foundUser.Password = nil
		c.JSON(http.StatusOK, gin.H{
			"user":  foundUser,
			"token": token,
		})
	}
}

// ===================== GET CURRENT USER (ME) =====================
func (uc *UserController) GetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get("claims")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims := claimsValue.(*helpers.Claims)

		user, err := uc.users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		user.Password = nil
		c.JSON(http.StatusOK, user)
	}
}
