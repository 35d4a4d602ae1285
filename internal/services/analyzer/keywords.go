package analyzer

import "github.com/ternarybob/autovis/internal/models"

// platformHint maps a URL substring to a display platform name.
// Checked in order; first match wins.
type platformHint struct {
	domain string
	name   string
}

var platformHints = []platformHint{
	{"shopee.vn", "Shopee"},
	{"lazada.vn", "Lazada"},
	{"tiki.vn", "Tiki"},
	{"tiktok.com", "TikTok Shop"},
	{"sendo.vn", "Sendo"},
	{"zalora.vn", "Zalora"},
}

var kidsKeywords = []string{
	"bé", "trẻ em", "trẻ sơ sinh", "baby", "kids", "children", "infant",
	"toddler", "boy", "girl", "bé trai", "bé gái", "đồ trẻ em",
	"áo trẻ em", "quần trẻ em", "bộ trẻ em", "váy bé",
}

// Girl keywords are checked before boy keywords; a product mentioning
// both is classified as girl.
var girlKeywords = []string{"gái", "girl", "váy", "đầm", "hồng", "tím"}
var boyKeywords = []string{"trai", "boy", "xanh dương", "xe", "robot"}

// ageRule maps a keyword to an age bracket. The table is an ordered
// slice, not a map: first matching keyword wins and table order is the
// tie-break, so iteration must be deterministic.
type ageRule struct {
	keyword string
	label   string
	key     models.AgeKey
}

var ageRules = []ageRule{
	{"sơ sinh", "0–12 tháng", models.AgeNewborn},
	{"0-1", "0–12 tháng", models.AgeNewborn},
	{"1-3", "1–3 tuổi", models.AgeToddler},
	{"toddler", "1–3 tuổi", models.AgeToddler},
	{"4-6", "4–6 tuổi", models.AgePreschool},
	{"mầm non", "4–6 tuổi", models.AgePreschool},
	{"7-10", "7–10 tuổi", models.AgeSchool},
	{"tiểu học", "7–10 tuổi", models.AgeSchool},
}

// Style precedence: luxury > sporty > cute kawaii > default
var luxuryKeywords = []string{"sang", "luxury", "cao cấp"}
var sportyKeywords = []string{"thể thao", "sport", "active"}
var kawaiiKeywords = []string{"dễ thương", "cute", "kawaii"}
