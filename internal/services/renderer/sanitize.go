package renderer

import "strings"

// sanitizeText reduces free text to a safe subset before it is embedded
// in a drawtext filter argument. Anything outside ASCII letters, digits,
// space and basic punctuation is stripped: the value flows into a
// rendering command and is otherwise injectable (quotes, colons and
// backslashes all carry meaning in ffmpeg filter syntax).
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '.', r == ',', r == '!', r == '?', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// fitFontSize shrinks the font size until the estimated rendered width
// of text fits maxWidth. Width estimation uses a fixed glyph aspect
// ratio; precise metrics are unnecessary because the overlay has a
// generous margin.
func fitFontSize(text string, startSize, minSize, maxWidth int) int {
	const glyphAspect = 0.6
	size := startSize
	for size > minSize {
		estimated := int(float64(len(text)) * float64(size) * glyphAspect)
		if estimated <= maxWidth {
			break
		}
		size -= 2
	}
	if size < minSize {
		size = minSize
	}
	return size
}
