package main

import (
	"context"
	"errors"
	"io"
	"log"
	"loketkita/src/boot"
	"loketkita/src/config"
	"loketkita/src/controllers"
	"loketkita/src/middlewares"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	apiPrefix string = "/api/v1"
)

func discountCodeValidatorFunc(fl validator.FieldLevel) bool {
	return services.IsDiscountCode(fl.Field().String())
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("discountcode", discountCodeValidatorFunc)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func maintenanceEnabled() bool {
	if on, err := strconv.ParseBool(os.Getenv("MAINTENANCE_MODE")); err == nil {
		return on
	}
	return config.Load().MaintenanceMode
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if maintenanceEnabled() {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

// respondError writes err with the status the service error kind maps to.
func respondError(ctx *gin.Context, err error) {
	status := controllers.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s %s] error: %s\n", ctx.Request.Method, ctx.FullPath(), err.Error())
		ctx.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

func publicRoutes(g *gin.Engine, app *boot.App) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	authRoutes(apiv1)
	apiv1.
		GET("/events", func(ctx *gin.Context) {
			var page types.PageQuery
			if err := ctx.ShouldBindQuery(&page); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			events, total, err := app.Events.List(ctx.Request.Context(), ctx.Query("search"), page)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events, "count": total})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := app.Events.Get(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		GET("/organizers/:id/profile", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			profile, err := app.Events.OrganizerProfile(ctx.Request.Context(), params.ID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": profile})
		})
	return apiv1
}

func authorizedRoutes(g *gin.Engine, app *boot.App) *gin.RouterGroup {
	authorized := g.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		profileRoutes(authorized)
		eventHandlers(authorized, app)
		transactionHandlers(authorized, app)
		organizerHandlers(authorized.Group("/organizer", middlewares.RequireRole(types.ROLE_ORGANISER)), app)
		couponHandlers(authorized.Group("/coupons", middlewares.RequireRole(types.ROLE_ADMIN)), app)
		pointHandlers(authorized, app)
	}
	return authorized
}

func setupCORS(router *gin.Engine, conf *config.Config) {
	if config.IsLocal() {
		router.Use(cors.Default())
		return
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	appHost := strings.TrimRight(conf.AppURL, "/")
	cc.AllowOriginFunc = func(origin string) bool {
		return origin == appHost
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	router.Use(cors.New(cc))
}

func initLogger() {
	cwd, _ := os.Getwd()
	logDir := path.Join(cwd, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Could not create log directory: %s\n", err.Error())
		return
	}
	gin.ForceConsoleColor()

	f, _ := os.Create(path.Join(logDir, "api.log"))
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path.Join(logDir, "server.log"),
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func main() {
	if os.Getenv("API_ENV") == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env loaded: %s\n", err.Error())
		}
	}
	initLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := boot.InitSecrets(ctx)
	if conf.JWTSecret == "" {
		log.Fatalln("jwt.secret is not set")
	}
	middlewares.SetJWTKey(conf.JWTSecret)

	gdb := boot.InitDb(conf)
	app := boot.NewApp(gdb, conf)
	controllers.Setup(app.Accounts, app.Notifier, conf.AppURL)

	boot.InitScheduler(app.Sweeper, conf)
	defer boot.StopScheduler()
	boot.InitConsumers(ctx, conf)

	registerValidators()

	router := setupRouter()
	setupCORS(router, conf)
	router = maintenanceModeMiddleware(router)

	publicRoutes(router, app)
	authorizedRoutes(router, app)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
