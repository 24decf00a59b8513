package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodtracker/internal/api"
	"foodtracker/internal/config"
	"foodtracker/internal/logger"
	"foodtracker/internal/lookup"
	"foodtracker/internal/meal"
	"foodtracker/internal/observability"
	"foodtracker/internal/platform/gemini"
	"foodtracker/internal/platform/transport"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Errorf("failed to create logger: %w", err))
	}

	sender := transport.NewClient(&http.Client{}, config.GetDuration(cfg.RecipeAPI.Timeout))
	workflow := lookup.New(lookup.Config{
		BaseURL:        cfg.RecipeAPI.BaseURL,
		APIKey:         cfg.RecipeAPI.APIKey,
		SearchEndpoint: cfg.RecipeAPI.SearchEndpoint,
		GetEndpoint:    cfg.RecipeAPI.GetEndpoint,
	}, sender, log.With(map[string]interface{}{"component": "lookup"}))

	dbStore, err := meal.NewPostgresStore(cfg.Database.URL)
	if err != nil {
		panic(fmt.Errorf("error creating postgresstore: %w", err))
	}
	defer dbStore.Close()

	var foodChecker api.FoodChecker
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			panic(fmt.Errorf("error creating gemini client: %w", err))
		}
		defer geminiClient.Close()
		foodChecker = geminiClient
	} else {
		log.Warn("gemini api key not set, meal photos are not checked for food", nil)
	}

	handler := api.NewHandler(workflow, foodChecker, dbStore,
		meal.NewPhotoStore(cfg.Storage.PhotoDir, cfg.Storage.PhotoWidth),
		log.With(map[string]interface{}{"component": "api"}),
		api.Options{
			RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Build:          cfg.App.Build,
		})

	r := newRouter(handler, cfg.Server.AllowedOrigins)
	r.Static("/images", cfg.Storage.PhotoDir)

	log.Info("starting server", map[string]interface{}{
		"address": cfg.Server.Address,
		"version": cfg.App.Version,
	})
	if err := r.Run(cfg.Server.Address); err != nil {
		log.WithError(err).Error("server stopped", nil)
	}
}

func newRouter(handler *api.Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), observability.GinMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ingredients", handler.GetIngredients)
	r.POST("/meals", handler.CreateMeal)
	r.GET("/meals", handler.ListMeals)
	r.GET("/meals/:id", handler.GetMeal)
	r.PUT("/meals/:id", handler.UpdateMeal)
	r.DELETE("/meals/:id", handler.DeleteMeal)
	r.GET("/meals/:id/ingredients", handler.GetMealIngredients)
	r.GET("/version", handler.Version)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
