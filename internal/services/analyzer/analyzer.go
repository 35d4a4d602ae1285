package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/models"
)

var (
	whitespaceRegex      = regexp.MustCompile(`\s+`)
	priceRegex           = regexp.MustCompile(`(\d[\d.,]+)\s*(?:đ|VNĐ|vnđ|₫)`)
	structuredPriceRegex = regexp.MustCompile(`"price"\s*:\s*"?(\d[\d.,]+)"?`)
	imageExtRegex        = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|webp)$`)
)

const (
	maxTitleLen       = 100
	minDescriptionLen = 10
	maxDescriptionLen = 300
	minImageURLLen    = 20
)

// Service mines product pages for marketing signals. Extract never
// returns an error: on any network, parse, or timeout failure it falls
// back to a fixed kids-fashion default so the pipeline can always
// proceed to copy generation and rendering.
type Service struct {
	logger        arbor.ILogger
	pageClient    *http.Client
	imageClient   *http.Client
	limiter       *rate.Limiter
	userAgent     string
	minImageBytes int64
	uploadsDir    string
}

// NewService creates a product signal extractor
func NewService(logger arbor.ILogger, cfg *common.AnalyzerConfig, uploadsDir string) *Service {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &Service{
		logger: logger,
		pageClient: &http.Client{
			Timeout: common.DurationOr(cfg.RequestTimeout, 18*time.Second),
		},
		imageClient: &http.Client{
			Timeout: common.DurationOr(cfg.ImageTimeout, 12*time.Second),
		},
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
		userAgent:     cfg.UserAgent,
		minImageBytes: cfg.MinImageBytes,
		uploadsDir:    uploadsDir,
	}
}

// Extract fetches a product URL and mines it for signals
func (s *Service) Extract(ctx context.Context, url string) *models.ProductSignals {
	signals, err := s.extract(ctx, url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("Product analysis failed, using default signals")
		return models.DefaultSignals(url)
	}
	return signals
}

// ExtractFromImage returns the fixed signal set for image-only
// submissions. No content-based image analysis is performed.
func (s *Service) ExtractFromImage(imagePath string) *models.ProductSignals {
	return models.ImageSignals(imagePath)
}

func (s *Service) extract(ctx context.Context, url string) (*models.ProductSignals, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid product url: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.pageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read product page: %w", err)
	}
	html := string(body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	signals := &models.ProductSignals{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Price:       extractPrice(html),
		Platform:    DetectPlatform(url),
		ImageURL:    extractImageURL(doc),
		SourceURL:   url,
	}

	if signals.ImageURL != "" {
		if local := s.downloadImage(ctx, signals.ImageURL); local != "" {
			signals.LocalImage = local
		}
	}

	Classify(signals)

	s.logger.Info().
		Str("title", signals.Title).
		Str("platform", signals.Platform).
		Str("age_key", string(signals.AgeKey)).
		Bool("has_image", signals.LocalImage != "").
		Msg("Product analyzed")

	return signals, nil
}

// DetectPlatform maps a product URL to a display platform name
func DetectPlatform(url string) string {
	for _, hint := range platformHints {
		if strings.Contains(url, hint.domain) {
			return hint.name
		}
	}
	return "Website"
}

// Classify fills the demographic and style fields from the lower-cased
// title+description text
func Classify(signals *models.ProductSignals) {
	text := strings.ToLower(signals.Title + " " + signals.Description)

	signals.IsKids = containsAny(text, kidsKeywords)

	switch {
	case containsAny(text, girlKeywords):
		signals.Gender = "bé gái"
	case containsAny(text, boyKeywords):
		signals.Gender = "bé trai"
	default:
		signals.Gender = "bé"
	}

	signals.AgeLabel, signals.AgeKey = "1–3 tuổi", models.AgeToddler
	for _, rule := range ageRules {
		if strings.Contains(text, rule.keyword) {
			signals.AgeLabel, signals.AgeKey = rule.label, rule.key
			break
		}
	}

	switch {
	case containsAny(text, luxuryKeywords):
		signals.Style = "luxury kids"
	case containsAny(text, sportyKeywords):
		signals.Style = "sporty kids"
	case containsAny(text, kawaiiKeywords):
		signals.Style = "cute kawaii"
	default:
		signals.Style = "cute & colorful"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func extractTitle(doc *goquery.Document) string {
	title := whitespaceRegex.ReplaceAllString(doc.Find("title").First().Text(), " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return "Sản phẩm"
	}
	return common.TruncateRunes(title, maxTitleLen)
}

func extractDescription(doc *goquery.Document) string {
	desc := ""
	doc.Find(`meta[name="description"], meta[property="og:description"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if content, ok := sel.Attr("content"); ok {
			content = strings.TrimSpace(content)
			if len(content) >= minDescriptionLen {
				desc = content
				return false
			}
		}
		return true
	})
	return common.TruncateRunes(desc, maxDescriptionLen)
}

func extractPrice(html string) string {
	if m := priceRegex.FindString(html); m != "" {
		return m
	}
	if m := structuredPriceRegex.FindStringSubmatch(html); m != nil {
		return m[1] + "đ"
	}
	return ""
}

// extractImageURL prefers og:image meta tags, then falls back to the
// first <img> whose src has a known image extension and is long enough
// to be a real asset URL rather than an inline icon.
func extractImageURL(doc *goquery.Document) string {
	imgURL := ""
	doc.Find(`meta[property="og:image"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if content, ok := sel.Attr("content"); ok && content != "" {
			imgURL = content
			return false
		}
		return true
	})
	if imgURL != "" {
		return imgURL
	}

	doc.Find("img").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if src, ok := sel.Attr("src"); ok && len(src) >= minImageURLLen && imageExtRegex.MatchString(src) {
			imgURL = src
			return false
		}
		return true
	})
	return imgURL
}

// downloadImage fetches the product image and persists it under the
// uploads directory. Returns "" on any failure or when the payload is
// below the minimum byte threshold (tracking pixels, error placeholders).
func (s *Service) downloadImage(ctx context.Context, imgURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.imageClient.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", imgURL).Msg("Image download failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil || int64(len(data)) <= s.minImageBytes {
		return ""
	}

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return ""
	}

	path := filepath.Join(s.uploadsDir, common.NewScrapedImageName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.Debug().Err(err).Str("path", path).Msg("Failed to persist scraped image")
		return ""
	}
	return path
}
