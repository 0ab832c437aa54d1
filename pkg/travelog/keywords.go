package travelog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"
)

// MaxKeywords is the most keywords SuggestKeywords returns.
const MaxKeywords = 5

// DefaultModel is the Gemini model used for keyword suggestions.
const DefaultModel = "gemini-2.5-flash"

var keywordPrompt = "generate 1-5 comma-separated one-word tags for this travel photo. " +
	"Tags should be a present-tense singular word that a travel blogger would want to " +
	"organize their photos with, for example: beach, mountain, street, market, cathedral, " +
	"food, sunset, museum, plaza, river, bridge, train. Use bw for black and white photos. " +
	"Do not combine multiple words and do not use plural words. " +
	"If you know the location of a photo, add the name of the place, city, or country as a tag."

// Generator answers a text prompt about an image.
type Generator interface {
	Generate(ctx context.Context, image []byte, mimeType string, prompt string) (string, error)
}

// GenaiGenerator is a Generator backed by the Gemini API.
type GenaiGenerator struct {
	client *genai.Client
	model  string
}

// NewGenaiGenerator returns a Gemini generator. An empty model means DefaultModel.
func NewGenaiGenerator(ctx context.Context, apiKey string, model string) (*GenaiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key given")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GenaiGenerator{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GenaiGenerator) Generate(ctx context.Context, image []byte, mimeType string, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(prompt),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}

// SuggestKeywords asks g for keywords describing the image at path.
func SuggestKeywords(ctx context.Context, g Generator, path string) ([]string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	out, err := g.Generate(ctx, bs, http.DetectContentType(bs), keywordPrompt)
	if err != nil {
		return nil, err
	}
	return parseKeywords(out), nil
}

// parseKeywords turns "Beach, sunset,  beach" into [beach sunset].
func parseKeywords(s string) []string {
	seen := map[string]bool{}
	kws := []string{}
	for _, f := range strings.Split(s, ",") {
		kw := strings.ToLower(strings.Join(strings.Fields(f), ""))
		kw = strings.Trim(kw, ".\"'`*")
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		kws = append(kws, kw)
		if len(kws) == MaxKeywords {
			break
		}
	}
	return kws
}
