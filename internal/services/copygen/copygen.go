package copygen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/models"
)

const (
	scriptTitleLen  = 45
	captionTitleLen = 40
	scriptYear      = "2025"
)

// Content is the caption and hashtag set generated for a job. Both
// lists hold three candidates in stable order; the UI picks among them.
type Content struct {
	Captions []string
	Hashtags []string
}

// Service generates marketing copy from product signals. Template
// choice uses an injected random source so tests can seed it; caption
// and hashtag generation is pure formatting with no randomness.
type Service struct {
	logger arbor.ILogger
	rng    *rand.Rand
}

// NewService creates a copy generator. Seed 0 means time-based.
func NewService(logger arbor.ILogger, seed int64) *Service {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// GenerateScript produces one narrated advertising paragraph
func (s *Service) GenerateScript(signals *models.ProductSignals) string {
	templates, ok := scriptTemplates[signals.AgeKey]
	if !ok {
		templates = scriptTemplates[models.AgeToddler]
	}
	tpl := templates[s.rng.Intn(len(templates))]

	priceText := "Giá cực hấp dẫn! "
	if signals.Price != "" {
		priceText = fmt.Sprintf("Giá chỉ %s! ", signals.Price)
	}

	title := signals.Title
	if title == "" {
		title = "sản phẩm này"
	}

	r := strings.NewReplacer(
		"{title}", common.TruncateRunes(title, scriptTitleLen),
		"{gender}", orDefault(signals.Gender, "bé"),
		"{age_label}", orDefault(signals.AgeLabel, "1–3 tuổi"),
		"{style}", orDefault(signals.Style, "cute"),
		"{price_text}", priceText,
		"{year}", scriptYear,
	)
	return r.Replace(tpl)
}

// GenerateContent produces the three caption and three hashtag
// candidates. Pure function of the signals: identical input always
// yields identical lists in the same order.
func (s *Service) GenerateContent(signals *models.ProductSignals) Content {
	title := common.TruncateRunes(orDefault(signals.Title, "Thời trang bé"), captionTitleLen)
	gender := orDefault(signals.Gender, "bé")
	style := orDefault(signals.Style, "dễ thương")

	priceLine := ""
	if signals.Price != "" {
		priceLine = fmt.Sprintf("\n💰 Chỉ %s", signals.Price)
	}

	captions := []string{
		fmt.Sprintf("👶 %s%s\n✨ Chất vải mềm mại, an toàn cho %s\n📦 Giao toàn quốc – Đổi trả dễ dàng\n👇 Bình luận GIÁ để đặt hàng ngay!",
			title, priceLine, gender),
		fmt.Sprintf("🔥 HOT TREND – %s%s\n💕 Phù hợp %s %s\n✅ Chính hãng 100%% từ %s\n🛒 Link mua trong bio – Đặt ngay kẻo hết!",
			title, priceLine, gender, signals.AgeLabel, signals.Platform),
		fmt.Sprintf("😍 Cute quá các mẹ ơi!\n%s%s\n🌸 Thiết kế %s\n💬 Nhắn tin ngay để được tư vấn miễn phí!",
			title, priceLine, style),
	}

	hashtags := []string{
		"#thoitrangtreem #mevabe #beyeu #tiktokshop #sanphamhot #muahang #trending #viral #review #cute",
		fmt.Sprintf("#thoitrangbe #dotreem #%s #baby #kids #fashion #shopee #lazada #affiliate #mua1tang1",
			strings.ReplaceAll(gender, " ", "")),
		"#reviewsanpham #unboxing #haul #recommend #chinhang #giaonhanh #sale #deal #tiktok #fyp",
	}

	return Content{Captions: captions, Hashtags: hashtags}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
