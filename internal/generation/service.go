package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PlatformSizes maps each target platform to its image dimensions.
var PlatformSizes = map[string]struct{ Width, Height int }{
	"instagram": {1080, 1080},
	"linkedin":  {1200, 627},
	"twitter":   {1200, 675},
	"facebook":  {1200, 630},
	"youtube":   {1280, 720},
}

// ValidStyles lists the accepted visual styles for image generation.
var ValidStyles = []string{
	"minimalist", "vibrant", "corporate", "futuristic",
	"retro", "elegant", "playful", "dark", "neon",
}

// IsValidPlatform reports whether p is a supported target platform.
func IsValidPlatform(p string) bool {
	_, ok := PlatformSizes[strings.ToLower(p)]
	return ok
}

// IsValidStyle reports whether s is a supported visual style.
func IsValidStyle(s string) bool {
	for _, v := range ValidStyles {
		if v == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// Uploader persists rendered image bytes and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// BlogResult holds a generated blog article and its metadata.
type BlogResult struct {
	Content     string `json:"content"`
	ProductName string `json:"product_name"`
	Tone        string `json:"tone"`
	WordCount   int    `json:"word_count"`
	Model       string `json:"model"`
}

// VideoScriptResult holds a generated video script and its metadata.
type VideoScriptResult struct {
	Script       string `json:"script"`
	ProductName  string `json:"product_name"`
	Tone         string `json:"tone"`
	DurationMins int    `json:"duration_mins"`
	Model        string `json:"model"`
}

// ImageResult holds the uploaded image URLs and the prompt that produced them.
type ImageResult struct {
	URLs        []string `json:"image_urls"`
	ImagePrompt string   `json:"image_prompt"`
	ProductName string   `json:"product_name"`
	Style       string   `json:"style"`
	Platform    string   `json:"platform"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Watermark   bool     `json:"watermark"`
}

// Service orchestrates the LLM, the image renderer, and the uploader.
type Service struct {
	llm      *LLMClient
	images   *ImageClient
	uploader Uploader
	logger   *slog.Logger
}

// NewService wires the generation pipeline together.
func NewService(llm *LLMClient, images *ImageClient, uploader Uploader, logger *slog.Logger) *Service {
	return &Service{
		llm:      llm,
		images:   images,
		uploader: uploader,
		logger:   logger.With("component", "generation"),
	}
}

const blogSystemPrompt = "You are a professional content strategist."

func blogPrompt(productName, tone string, wordCount int) string {
	return fmt.Sprintf(`You are a professional SEO blog writer.

Write a high-quality, engaging, and SEO-optimized blog article about the following product:

Product Name: %s
Tone: %s
Word Count: Approximately %d words

Follow this structure STRICTLY:

Title:
<SEO optimized title about the product>

Meta Description:
<150-160 characters meta description>

Introduction:
<Engaging hook-based introduction about the product>

Main Content:
<Use H2 and H3 headings properly>
<Cover product features, benefits, and use cases>
<Make content informative and structured>

Conclusion:
<Strong summary>

Call To Action:
<Encourage reader action clearly>`, productName, tone, wordCount)
}

// GenerateBlog produces an SEO blog article for the product.
func (s *Service) GenerateBlog(ctx context.Context, productName, tone string, wordCount int) (*BlogResult, error) {
	s.logger.Info("generating blog",
		slog.String("product", productName),
		slog.String("tone", tone),
		slog.Int("word_count", wordCount),
	)

	content, err := s.llm.Complete(ctx, blogSystemPrompt, blogPrompt(productName, tone, wordCount))
	if err != nil {
		return nil, fmt.Errorf("generate blog: %w", err)
	}

	return &BlogResult{
		Content:     content,
		ProductName: productName,
		Tone:        tone,
		WordCount:   wordCount,
		Model:       s.llm.model,
	}, nil
}

const videoSystemPrompt = "You are a professional content strategist."

func videoScriptPrompt(productName, tone string, durationMins int) string {
	return fmt.Sprintf(`You are a professional video script writer and content strategist.

Create a highly engaging and structured video script for the following product:

Product Name: %s
Tone: %s
Video Duration: %d minutes

Follow this structure STRICTLY:

Hook (First 5-10 seconds):
<Powerful attention-grabbing opening about the product>

Introduction:
<Brief intro to the product and what the video will cover>

Main Content:
<Cover product features, benefits, and use cases>
<Use storytelling or real-world examples>
<Keep pacing appropriate for %d minute video>

Engagement Prompt:
<Ask viewers to comment, like, and share>

Call To Action:
<Clear CTA, for example try the product or visit the website>

Outro:
<Strong memorable closing line>

Important: Make sure the script feels natural when spoken aloud and fits within a %d-minute video.`,
		productName, tone, durationMins, durationMins, durationMins)
}

// GenerateVideoScript produces a spoken-word video script for the product.
func (s *Service) GenerateVideoScript(ctx context.Context, productName, tone string, durationMins int) (*VideoScriptResult, error) {
	s.logger.Info("generating video script",
		slog.String("product", productName),
		slog.String("tone", tone),
		slog.Int("duration_mins", durationMins),
	)

	script, err := s.llm.Complete(ctx, videoSystemPrompt, videoScriptPrompt(productName, tone, durationMins))
	if err != nil {
		return nil, fmt.Errorf("generate video script: %w", err)
	}

	return &VideoScriptResult{
		Script:       script,
		ProductName:  productName,
		Tone:         tone,
		DurationMins: durationMins,
		Model:        s.llm.model,
	}, nil
}

const imagePromptSystem = "You are a visual design prompt engineer."

func imageMetaPrompt(productName, style, platform string) string {
	return fmt.Sprintf(`You are an expert social media visual designer.

Generate a detailed, vivid image generation prompt for an AI diffusion model.
The image should be a stunning social media graphic for the following:

Product Name: %s
Visual Style: %s
Target Platform: %s

Requirements:
- Describe colors, composition, lighting, and mood in detail
- Make it visually striking and scroll-stopping for %s
- Do NOT ask the model to render any text or typography, diffusion models handle text poorly
- Focus on abstract shapes, product imagery, and visual storytelling instead
- Keep the prompt under 200 words

Output the image prompt directly, nothing else.`, productName, style, platform, platform)
}

// GenerateImages runs the two-step image pipeline: the LLM crafts a diffusion
// prompt, then count images are rendered and uploaded. A non-zero seed is
// offset per image so a batch stays reproducible without being identical.
func (s *Service) GenerateImages(ctx context.Context, productName, style, platform string, seed int64, count int, watermark bool) (*ImageResult, error) {
	platform = strings.ToLower(platform)
	style = strings.ToLower(style)

	size, ok := PlatformSizes[platform]
	if !ok {
		size = struct{ Width, Height int }{1024, 1024}
	}

	s.logger.Info("generating image prompt",
		slog.String("product", productName),
		slog.String("style", style),
		slog.String("platform", platform),
	)

	imagePrompt, err := s.llm.Complete(ctx, imagePromptSystem, imageMetaPrompt(productName, style, platform))
	if err != nil {
		return nil, fmt.Errorf("craft image prompt: %w", err)
	}
	imagePrompt = strings.TrimSpace(imagePrompt)

	urls := make([]string, 0, count)
	for i := 0; i < count; i++ {
		imgSeed := seed
		if imgSeed != 0 {
			imgSeed += int64(i)
		}

		start := time.Now()
		data, err := s.images.Render(ctx, imagePrompt, size.Width, size.Height, imgSeed, watermark)
		if err != nil {
			return nil, fmt.Errorf("render image %d of %d: %w", i+1, count, err)
		}

		url, err := s.uploader.Upload(ctx, data, "image/png")
		if err != nil {
			return nil, fmt.Errorf("upload image %d of %d: %w", i+1, count, err)
		}

		s.logger.Info("image uploaded",
			slog.Int("index", i+1),
			slog.Int("count", count),
			slog.Duration("elapsed", time.Since(start)),
		)
		urls = append(urls, url)
	}

	return &ImageResult{
		URLs:        urls,
		ImagePrompt: imagePrompt,
		ProductName: productName,
		Style:       style,
		Platform:    platform,
		Width:       size.Width,
		Height:      size.Height,
		Watermark:   watermark,
	}, nil
}
