package main

import (
	"log"
	"loketkita/src/controllers"
	"net/http"

	"github.com/gin-gonic/gin"
)

func authRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	guest := g.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}

			ctx.JSON(http.StatusOK, gin.H{
				"token": token,
			})
		}).
		POST("/register", func(ctx *gin.Context) {
			user, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}

			ctx.JSON(status, gin.H{"data": user})
		}).
		GET("/verify-email", func(ctx *gin.Context) {
			user, status, err := controllers.AuthVerifyEmail(ctx)
			if err != nil {
				log.Printf("[AuthVerifyEmail] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}

			ctx.JSON(http.StatusOK, gin.H{"data": user})
		})
	return guest
}

func profileRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/me", func(ctx *gin.Context) {
			user, status, err := controllers.ProfileGet(ctx)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PATCH("/me", func(ctx *gin.Context) {
			user, status, err := controllers.ProfileUpdate(ctx)
			if err != nil {
				log.Printf("[ProfileUpdate] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		POST("/auth/refresh", func(ctx *gin.Context) {
			token, status, err := controllers.AuthRefresh(ctx)
			if err != nil {
				log.Printf("[AuthRefresh] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		})
	return g
}
