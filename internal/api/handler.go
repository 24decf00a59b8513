package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"foodtracker/internal/logger"
	"foodtracker/internal/lookup"
	"foodtracker/internal/meal"
)

// IngredientFetcher resolves a dish name to its ingredient list.
type IngredientFetcher interface {
	FetchIngredients(ctx context.Context, dishName string) (*lookup.RecipeDetail, error)
}

// FoodChecker decides whether a photo shows food.
type FoodChecker interface {
	IsFoodImage(ctx context.Context, imageData []byte, ext string) (bool, string, error)
}

// MealStore defines the interface for meal data operations.
type MealStore interface {
	Save(ctx context.Context, m *meal.Meal) error
	Get(ctx context.Context, id string) (*meal.Meal, error)
	List(ctx context.Context) ([]*meal.Meal, error)
	Delete(ctx context.Context, id string) error
}

// PhotoStore persists meal photos.
type PhotoStore interface {
	Save(data []byte, ext string) (string, error)
	Remove(photoPath string) error
}

// Options carries the non-dependency settings of a Handler.
type Options struct {
	RequestTimeout time.Duration
	AppName        string
	Version        string
	Build          string
}

// Handler handles HTTP requests.
type Handler struct {
	Lookup      IngredientFetcher
	FoodChecker FoodChecker // nil disables the photo food check
	Meals       MealStore
	Photos      PhotoStore
	log         logger.Logger
	opts        Options
}

// NewHandler creates a new Handler.
func NewHandler(fetcher IngredientFetcher, foodChecker FoodChecker, meals MealStore, photos PhotoStore, log logger.Logger, opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 45 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		Lookup:      fetcher,
		FoodChecker: foodChecker,
		Meals:       meals,
		Photos:      photos,
		log:         log,
		opts:        opts,
	}
}

const notFoodMessage = "It doesn't look like food. Snap a pic of your meal and try again."

// GetIngredients looks up the ingredient list for the dish query parameter.
func (h *Handler) GetIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	h.fetchIngredients(ctx, c, c.Query("dish"))
}

// GetMealIngredients looks up the ingredient list for a stored meal's name.
func (h *Handler) GetMealIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	m, ok := h.loadMeal(ctx, c)
	if !ok {
		return
	}
	h.fetchIngredients(ctx, c, m.Name)
}

func (h *Handler) fetchIngredients(ctx context.Context, c *gin.Context, dish string) {
	detail, err := h.Lookup.FetchIngredients(ctx, dish)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.String(http.StatusRequestTimeout, "Recipe lookup timed out")
			return
		}
		status, message := lookupErrorResponse(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Warn("ingredient lookup failed", map[string]interface{}{"dish": dish})
		}
		c.String(status, message)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// lookupErrorResponse maps a lookup failure to a status and a user-facing message.
func lookupErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, lookup.ErrValidation):
		return http.StatusBadRequest, "dish name must not be empty"
	case errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound, "No recipe found for this dish"
	case errors.Is(err, lookup.ErrNetwork):
		return http.StatusBadGateway, "network error"
	case errors.Is(err, lookup.ErrParse):
		return http.StatusBadGateway, "Unexpected response from the recipe service"
	default:
		return http.StatusInternalServerError, fmt.Sprintf("lookup err: %s", err.Error())
	}
}

// CreateMeal records a meal from a multipart form: name, rating, location and an optional photo.
func (h *Handler) CreateMeal(c *gin.Context) {
	rating, err := strconv.Atoi(c.DefaultPostForm("rating", "0"))
	if err != nil {
		c.String(http.StatusBadRequest, "rating must be an integer")
		return
	}

	m, err := meal.New(c.PostForm("name"), "", rating, c.PostForm("location"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	photoPath, ok := h.storePhoto(ctx, c)
	if !ok {
		return
	}
	m.PhotoPath = photoPath

	if err := h.Meals.Save(ctx, m); err != nil {
		h.discardPhoto(ctx, m.ID, photoPath)
		h.storeError(c, "failed to save meal", err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

// ListMeals returns every recorded meal, newest first.
func (h *Handler) ListMeals(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	meals, err := h.Meals.List(ctx)
	if err != nil {
		h.storeError(c, "failed to list meals", err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

// GetMeal returns a single meal by ID.
func (h *Handler) GetMeal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	m, ok := h.loadMeal(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMeal applies the form fields that are present to an existing meal.
func (h *Handler) UpdateMeal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	m, ok := h.loadMeal(ctx, c)
	if !ok {
		return
	}

	if name, ok := c.GetPostForm("name"); ok {
		m.Name = strings.TrimSpace(name)
	}
	if location, ok := c.GetPostForm("location"); ok {
		m.Location = location
	}
	if raw, ok := c.GetPostForm("rating"); ok {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			c.String(http.StatusBadRequest, "rating must be an integer")
			return
		}
		m.Rating = rating
	}
	if err := m.Validate(); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	photoPath, ok := h.storePhoto(ctx, c)
	if !ok {
		return
	}
	previousPhoto := m.PhotoPath
	if photoPath != "" {
		m.PhotoPath = photoPath
	}

	if err := h.Meals.Save(ctx, m); err != nil {
		if photoPath != previousPhoto {
			h.discardPhoto(ctx, m.ID, photoPath)
		}
		h.storeError(c, "failed to save meal", err)
		return
	}
	if previousPhoto != m.PhotoPath {
		h.discardPhoto(ctx, m.ID, previousPhoto)
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMeal removes a meal and its photo unless another meal shares it.
func (h *Handler) DeleteMeal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	m, ok := h.loadMeal(ctx, c)
	if !ok {
		return
	}

	if err := h.Meals.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, meal.ErrNotFound) {
			c.String(http.StatusNotFound, "Meal not found")
			return
		}
		h.storeError(c, "failed to delete meal", err)
		return
	}

	h.discardPhoto(ctx, m.ID, m.PhotoPath)
	c.Status(http.StatusNoContent)
}

// Version reports the application name, version and build.
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    h.opts.AppName,
		"version": h.opts.Version,
		"build":   h.opts.Build,
	})
}

func (h *Handler) loadMeal(ctx context.Context, c *gin.Context) (*meal.Meal, bool) {
	m, err := h.Meals.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, "failed to get meal", err)
		return nil, false
	}
	if m == nil {
		c.String(http.StatusNotFound, "Meal not found")
		return nil, false
	}
	return m, true
}

// storePhoto saves the optional "photo" form file. It returns "" when no photo
// was sent and false when a response has already been written.
func (h *Handler) storePhoto(ctx context.Context, c *gin.Context) (string, bool) {
	file, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", true
		}
		c.String(http.StatusBadRequest, fmt.Sprintf("get form err: %s", err.Error()))
		return "", false
	}

	ext, err := meal.PhotoExtension(file.Filename)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid file type. Only JPEG, JPG, and PNG images are allowed.")
		return "", false
	}

	data, err := readFormFile(file)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("read photo err: %s", err.Error()))
		return "", false
	}

	if h.FoodChecker != nil {
		isFood, description, err := h.FoodChecker.IsFoodImage(ctx, data, ext)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				c.String(http.StatusRequestTimeout, "Photo check timed out")
				return "", false
			}
			c.String(http.StatusBadGateway, fmt.Sprintf("gemini err: %s", err.Error()))
			return "", false
		}
		if !isFood {
			h.log.Info("rejected non-food meal photo", map[string]interface{}{
				"photoHash":   meal.HashPhoto(data),
				"description": description,
			})
			c.String(http.StatusBadRequest, notFoodMessage)
			return "", false
		}
	}

	photoPath, err := h.Photos.Save(data, ext)
	if err != nil {
		if errors.Is(err, meal.ErrUnsupportedPhoto) {
			c.String(http.StatusBadRequest, err.Error())
			return "", false
		}
		c.String(http.StatusBadRequest, fmt.Sprintf("failed to save photo: %s", err.Error()))
		return "", false
	}
	return photoPath, true
}

// discardPhoto removes photoPath unless a meal other than mealID still uses it.
// It runs on a fresh deadline so a failed save can still clean up.
func (h *Handler) discardPhoto(ctx context.Context, mealID, photoPath string) {
	if photoPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if h.photoShared(ctx, mealID, photoPath) {
		return
	}
	if err := h.Photos.Remove(photoPath); err != nil {
		h.log.WithError(err).Warn("failed to remove meal photo", map[string]interface{}{"mealId": mealID})
	}
}

func (h *Handler) photoShared(ctx context.Context, mealID, photoPath string) bool {
	meals, err := h.Meals.List(ctx)
	if err != nil {
		// Keep the file when in doubt.
		return true
	}
	for _, m := range meals {
		if m.ID != mealID && m.PhotoPath == photoPath {
			return true
		}
	}
	return false
}

func (h *Handler) storeError(c *gin.Context, msg string, err error) {
	h.log.WithError(err).Error(msg, map[string]interface{}{"path": c.FullPath()})
	if errors.Is(err, context.DeadlineExceeded) {
		c.String(http.StatusRequestTimeout, "Database query timed out")
		return
	}
	c.String(http.StatusInternalServerError, fmt.Sprintf("database error: %s", err.Error()))
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
