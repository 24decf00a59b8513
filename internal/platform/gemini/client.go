package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const foodCheckPrompt = "Analyze the provided image. If it shows food or a meal, return a brief description of the dish. If not, respond with 'NO' followed by a 5-word description of the image content."

// Client is a client for the Gemini API, used to check that meal photos show food.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{client: client, model: client.GenerativeModel(model)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// IsFoodImage checks if the given photo contains food and returns the model's description.
// ext is the photo's file extension (".jpg", ".jpeg" or ".png").
func (c *Client) IsFoodImage(ctx context.Context, imageData []byte, ext string) (bool, string, error) {
	prompt := []genai.Part{
		genai.ImageData(imageFormat(ext), imageData),
		genai.Text(foodCheckPrompt),
	}

	resp, err := c.model.GenerateContent(ctx, prompt...)
	if err != nil {
		return false, "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return false, "", fmt.Errorf("empty response from Gemini for food check")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return false, "", fmt.Errorf("unexpected response format from Gemini for food check")
	}

	return IsFoodDescription(string(text)), string(text), nil
}

// IsFoodDescription reports whether a food-check answer is affirmative, i.e.
// its first word is not "no".
func IsFoodDescription(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	return len(words) > 0 && words[0] != "no"
}

func imageFormat(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg":
		return "jpeg"
	default:
		return "png"
	}
}
