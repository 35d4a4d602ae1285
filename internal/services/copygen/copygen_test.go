package copygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/models"
)

func testSignals() *models.ProductSignals {
	return &models.ProductSignals{
		Title:    "Váy đầm công chúa bé gái",
		Price:    "159.000đ",
		Platform: "Shopee",
		Gender:   "bé gái",
		AgeLabel: "1–3 tuổi",
		AgeKey:   models.AgeToddler,
		Style:    "cute kawaii",
	}
}

func TestGenerateScriptReproducible(t *testing.T) {
	a := NewService(common.GetLogger(), 42)
	b := NewService(common.GetLogger(), 42)

	signals := testSignals()
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.GenerateScript(signals), b.GenerateScript(signals))
	}
}

func TestGenerateScriptNoLeftoverPlaceholders(t *testing.T) {
	svc := NewService(common.GetLogger(), 7)

	for _, key := range []models.AgeKey{models.AgeNewborn, models.AgeToddler, models.AgePreschool, models.AgeSchool} {
		signals := testSignals()
		signals.AgeKey = key
		for i := 0; i < 20; i++ {
			script := svc.GenerateScript(signals)
			assert.NotContains(t, script, "{", "ageKey %s: %s", key, script)
			assert.NotContains(t, script, "}", "ageKey %s: %s", key, script)
		}
	}
}

func TestGenerateScriptPriceBranch(t *testing.T) {
	svc := NewService(common.GetLogger(), 1)

	withPrice := testSignals()
	script := svc.GenerateScript(withPrice)
	assert.Contains(t, script, "Giá chỉ 159.000đ!")

	noPrice := testSignals()
	noPrice.Price = ""
	script = svc.GenerateScript(noPrice)
	assert.Contains(t, script, "Giá cực hấp dẫn!")
	assert.NotContains(t, script, "Giá chỉ")
}

func TestGenerateScriptUnknownAgeKeyFallsBack(t *testing.T) {
	svc := NewService(common.GetLogger(), 3)

	signals := testSignals()
	signals.AgeKey = models.AgeKey("elderly")
	script := svc.GenerateScript(signals)
	require.NotEmpty(t, script)

	// Must exactly match one toddler template with substitutions applied
	expected := make([]string, 0, len(scriptTemplates[models.AgeToddler]))
	r := strings.NewReplacer(
		"{title}", signals.Title,
		"{gender}", signals.Gender,
		"{age_label}", signals.AgeLabel,
		"{style}", signals.Style,
		"{price_text}", "Giá chỉ 159.000đ! ",
		"{year}", "2025",
	)
	for _, tpl := range scriptTemplates[models.AgeToddler] {
		expected = append(expected, r.Replace(tpl))
	}
	assert.Contains(t, expected, script)
}

func TestGenerateScriptTitleTruncated(t *testing.T) {
	svc := NewService(common.GetLogger(), 5)

	signals := testSignals()
	signals.Title = strings.Repeat("rất dài ", 30)
	script := svc.GenerateScript(signals)
	assert.NotContains(t, script, signals.Title)
}

func TestGenerateContentPure(t *testing.T) {
	svc := NewService(common.GetLogger(), 9)
	signals := testSignals()

	first := svc.GenerateContent(signals)
	require.Len(t, first.Captions, 3)
	require.Len(t, first.Hashtags, 3)

	for i := 0; i < 5; i++ {
		again := svc.GenerateContent(signals)
		assert.Equal(t, first.Captions, again.Captions)
		assert.Equal(t, first.Hashtags, again.Hashtags)
	}
}

func TestGenerateContentFields(t *testing.T) {
	svc := NewService(common.GetLogger(), 2)
	content := svc.GenerateContent(testSignals())

	assert.Contains(t, content.Captions[0], "Chỉ 159.000đ")
	assert.Contains(t, content.Captions[1], "Shopee")
	assert.Contains(t, content.Captions[2], "cute kawaii")
	assert.Contains(t, content.Hashtags[1], "#bégái")

	noPrice := testSignals()
	noPrice.Price = ""
	content = svc.GenerateContent(noPrice)
	assert.NotContains(t, content.Captions[0], "💰")
}
