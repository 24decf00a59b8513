// Package lookup resolves a dish name to an ingredient list through two
// sequential recipe API calls: search for the dish, then get the first match.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"foodtracker/internal/logger"
	"foodtracker/internal/observability"
)

const (
	DefaultSearchEndpoint = "/search"
	DefaultGetEndpoint    = "/get"
)

// Config is read-only after New.
type Config struct {
	BaseURL        string
	APIKey         string
	SearchEndpoint string
	GetEndpoint    string
}

// Sender performs one outbound request. *transport.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, url string) ([]byte, error)
}

// Workflow holds no per-lookup state, so one value serves concurrent callers.
type Workflow struct {
	cfg    Config
	sender Sender
	log    logger.Logger
}

// New creates a Workflow. Empty endpoints fall back to the defaults.
func New(cfg Config, sender Sender, log logger.Logger) *Workflow {
	if cfg.SearchEndpoint == "" {
		cfg.SearchEndpoint = DefaultSearchEndpoint
	}
	if cfg.GetEndpoint == "" {
		cfg.GetEndpoint = DefaultGetEndpoint
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Workflow{cfg: cfg, sender: sender, log: log}
}

// FetchIngredients searches for dishName and returns the ingredients of the
// first match. Failures are *Error values matching one of the Err* sentinels.
func (w *Workflow) FetchIngredients(ctx context.Context, dishName string) (*RecipeDetail, error) {
	started := time.Now()
	detail, err := w.fetch(ctx, dishName)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		w.log.WithError(err).Warn("ingredient lookup failed", map[string]interface{}{
			"dish": dishName,
			"kind": outcome,
		})
	} else {
		w.log.Info("ingredient lookup completed", map[string]interface{}{
			"dish":            dishName,
			"recipeId":        detail.RecipeID,
			"ingredientCount": len(detail.Ingredients),
		})
	}
	observability.ObserveLookup(outcome, started)
	return detail, err
}

// FetchIngredientsAsync runs FetchIngredients in its own goroutine. The
// returned channel yields exactly one Outcome and is then closed.
func (w *Workflow) FetchIngredientsAsync(ctx context.Context, dishName string) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		detail, err := w.FetchIngredients(ctx, dishName)
		out <- Outcome{Detail: detail, Err: err}
	}()
	return out
}

func (w *Workflow) fetch(ctx context.Context, dishName string) (*RecipeDetail, error) {
	if strings.TrimSpace(dishName) == "" {
		return nil, &Error{Kind: KindValidation, Dish: dishName, Err: errors.New("dish name is empty")}
	}

	recipeID, err := w.search(ctx, dishName)
	if err != nil {
		return nil, err
	}

	ingredients, err := w.get(ctx, dishName, recipeID)
	if err != nil {
		return nil, err
	}

	return &RecipeDetail{RecipeID: recipeID, Ingredients: ingredients}, nil
}

func (w *Workflow) search(ctx context.Context, dishName string) (string, error) {
	body, err := w.send(ctx, StageSearch, w.searchURL(dishName))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Stage: StageSearch, Dish: dishName, Err: err}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", parseError(StageSearch, dishName, err)
	}
	if resp.Recipes == nil {
		return "", &Error{Kind: KindParse, Stage: StageSearch, Field: "recipes", Dish: dishName, Err: errMissing}
	}
	if len(*resp.Recipes) == 0 {
		return "", &Error{Kind: KindNotFound, Stage: StageSearch, Dish: dishName}
	}

	recipeID, err := recipeIDString((*resp.Recipes)[0].RecipeID)
	if err != nil {
		return "", &Error{Kind: KindParse, Stage: StageSearch, Field: "recipes[0].recipe_id", Dish: dishName, Err: err}
	}
	return recipeID, nil
}

func (w *Workflow) get(ctx context.Context, dishName, recipeID string) ([]string, error) {
	body, err := w.send(ctx, StageGet, w.getURL(recipeID))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Stage: StageGet, Dish: dishName, Err: err}
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseError(StageGet, dishName, err)
	}
	if resp.Recipe == nil {
		return nil, &Error{Kind: KindParse, Stage: StageGet, Field: "recipe", Dish: dishName, Err: errMissing}
	}
	if resp.Recipe.Ingredients == nil {
		return nil, &Error{Kind: KindParse, Stage: StageGet, Field: "recipe.ingredients", Dish: dishName, Err: errMissing}
	}

	ingredients := *resp.Recipe.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return ingredients, nil
}

func (w *Workflow) send(ctx context.Context, stage Stage, rawURL string) ([]byte, error) {
	w.log.Debug("calling recipe api", map[string]interface{}{"stage": string(stage)})
	body, err := w.sender.Send(ctx, rawURL)
	observability.ObserveTransport(string(stage), err)
	return body, err
}

func (w *Workflow) searchURL(dishName string) string {
	return w.endpoint(w.cfg.SearchEndpoint) + "?key=" + escape(w.cfg.APIKey) + "&q=" + escape(dishName)
}

func (w *Workflow) getURL(recipeID string) string {
	return w.endpoint(w.cfg.GetEndpoint) + "?key=" + escape(w.cfg.APIKey) + "&rId=" + escape(recipeID)
}

// endpoint joins base and path with exactly one slash. A trailing "?" on the
// path is tolerated.
func (w *Workflow) endpoint(path string) string {
	path = strings.TrimSuffix(path, "?")
	return strings.TrimRight(w.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// escape percent-encodes every reserved character. Spaces become %20 rather
// than "+"; QueryEscape has already turned literal pluses into %2B.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func parseError(stage Stage, dishName string, err error) *Error {
	field := "$"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field = typeErr.Field
	}
	return &Error{Kind: KindParse, Stage: stage, Field: field, Dish: dishName, Err: err}
}
