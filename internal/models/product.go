package models

// AgeKey is the categorical bucket driving copy template selection
type AgeKey string

const (
	AgeNewborn   AgeKey = "newborn"
	AgeToddler   AgeKey = "toddler"
	AgePreschool AgeKey = "preschool"
	AgeSchool    AgeKey = "school"
)

// ProductSignals holds everything mined from a product page or image.
// Immutable once produced; one per job, consumed by the copy generator
// and both render paths.
type ProductSignals struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`    // free-form with currency marker, possibly empty
	Platform    string `json:"platform"` // "Shopee", "Lazada", ..., "Website" or "Upload"
	ImageURL    string `json:"img_url"`
	LocalImage  string `json:"local_img"` // path of a downloaded/uploaded image, may be empty
	IsKids      bool   `json:"is_kids"`
	Gender      string `json:"gender"`    // "bé gái", "bé trai" or "bé"
	AgeLabel    string `json:"age_label"` // e.g. "1–3 tuổi"
	AgeKey      AgeKey `json:"age_key"`
	Style       string `json:"style"` // e.g. "cute & colorful"
	SourceURL   string `json:"source_url"`
}

// DefaultSignals is the safe fallback when extraction fails outright.
// The pipeline must always be able to proceed to copy generation and
// rendering, so extraction never surfaces an error.
func DefaultSignals(sourceURL string) *ProductSignals {
	return &ProductSignals{
		Title:     "Sản phẩm thời trang bé",
		Platform:  "Shopee",
		IsKids:    true,
		Gender:    "bé",
		AgeLabel:  "1–3 tuổi",
		AgeKey:    AgeToddler,
		Style:     "cute & colorful",
		SourceURL: sourceURL,
	}
}

// ImageSignals is the fixed signal set for image-only submissions.
// No content-based image analysis is performed.
func ImageSignals(imagePath string) *ProductSignals {
	return &ProductSignals{
		Title:       "Thời trang bé yêu",
		Description: "Sản phẩm thời trang cho bé chất lượng cao",
		Platform:    "Upload",
		LocalImage:  imagePath,
		IsKids:      true,
		Gender:      "bé",
		AgeLabel:    "1–3 tuổi",
		AgeKey:      AgeToddler,
		Style:       "cute & colorful",
	}
}

// Info projects the job-facing snapshot stored on the Job record
func (s *ProductSignals) Info() *ProductInfo {
	return &ProductInfo{
		Title:    s.Title,
		Price:    s.Price,
		Gender:   s.Gender,
		Age:      s.AgeLabel,
		Platform: s.Platform,
	}
}
