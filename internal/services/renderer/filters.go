package renderer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/autovis/internal/models"
)

const (
	frameWidth  = 1080
	frameHeight = 1920
	frameRate   = 30

	backgroundColor = "#1a0a2e"

	titleStartFontSize = 36
	titleMinFontSize   = 16
	maxTextWidth       = 1000
)

// overlayText holds the sanitized text lines shared by both render branches
type overlayText struct {
	title     string
	subtitle  string // gender + age, may be empty
	priceLine string
	watermark string
}

func buildOverlayText(signals *models.ProductSignals, watermark string) overlayText {
	title := sanitizeText(signals.Title)
	if title == "" {
		title = "Thoi trang be"
	}
	title = truncate(title, 32)

	price := sanitizeText(signals.Price)
	priceLine := "Gia sieu hot!"
	if price != "" {
		priceLine = "Gia " + price
	}

	gender := sanitizeText(signals.Gender)
	if gender == "" {
		gender = "be"
	}
	age := sanitizeText(signals.AgeLabel)
	subtitle := gender
	if age != "" {
		subtitle = strings.TrimSpace(gender + " " + age)
	}

	return overlayText{
		title:     title,
		subtitle:  subtitle,
		priceLine: priceLine,
		watermark: sanitizeText(watermark),
	}
}

// slideshowFilter builds the filter graph for the image branch: scale
// and letterbox into the vertical frame, a slow zoom, then the text
// stack with entrance fades on the title and call-to-action.
func slideshowFilter(text overlayText, withZoom bool) string {
	titleSize := fitFontSize(text.title, titleStartFontSize, titleMinFontSize, maxTextWidth)

	parts := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", frameWidth, frameHeight),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s", frameWidth, frameHeight, backgroundColor),
	}
	if withZoom {
		parts = append(parts, fmt.Sprintf(
			"zoompan=z='min(zoom+0.0006,1.25)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=450:s=%dx%d",
			frameWidth, frameHeight))
	}
	parts = append(parts,
		fmt.Sprintf("drawtext=text='%s':fontsize=20:fontcolor=white@0.5:x=w-tw-16:y=h-th-16", text.watermark),
		fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=white:"+
			"x=(w-text_w)/2:y=160:box=1:boxcolor=black@0.65:boxborderw=12:"+
			"alpha='if(lt(t,0.5),0,if(lt(t,1.5),t-0.5,1))'", text.title, titleSize),
	)
	if text.subtitle != "" {
		parts = append(parts, fmt.Sprintf(
			"drawtext=text='%s':fontsize=26:fontcolor=#FFD700:"+
				"x=(w-text_w)/2:y=215:box=1:boxcolor=black@0.5:boxborderw=8", text.subtitle))
	}
	parts = append(parts,
		fmt.Sprintf("drawtext=text='%s':fontsize=30:fontcolor=#FF6B9D:"+
			"x=(w-text_w)/2:y=260:box=1:boxcolor=black@0.55:boxborderw=10", text.priceLine),
		"drawtext=text='Dat hang ngay!':fontsize=28:fontcolor=#00FF88:"+
			"x=(w-text_w)/2:y=h-120:box=1:boxcolor=black@0.6:boxborderw=10:"+
			"alpha='if(lt(t,1),0,if(lt(t,2),t-1,1))'",
	)
	return strings.Join(parts, ",")
}

// flatFilter builds the filter graph for the no-image branch: the same
// text stack centered over a flat background.
func flatFilter(text overlayText) string {
	titleSize := fitFontSize(text.title, 32, titleMinFontSize, maxTextWidth)

	parts := []string{
		fmt.Sprintf("drawtext=text='%s':fontsize=52:fontcolor=white:"+
			"x=(w-text_w)/2:y=h/2-80:alpha='if(lt(t,0.5),0,if(lt(t,1.5),t-0.5,1))'", text.watermark),
		fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=#FFD700:"+
			"x=(w-text_w)/2:y=h/2+20:box=1:boxcolor=black@0.4:boxborderw=8", text.title, titleSize),
		fmt.Sprintf("drawtext=text='%s':fontsize=28:fontcolor=#FF6B9D:"+
			"x=(w-text_w)/2:y=h/2+80", text.priceLine),
	}
	return strings.Join(parts, ",")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
