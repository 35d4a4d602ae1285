package models

// Avatar is a presenter offered by the external avatar-video service
type Avatar struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Style string `json:"style"`
}

// Voice is a text-to-speech voice usable with the external service
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Avatars is the fixed catalog surfaced to the UI. The first entry is the
// default when a request does not specify one.
var Avatars = []Avatar{
	{ID: "Abigail_expressive_2024112501", Name: "Abigail", Emoji: "👩", Style: "Trẻ trung"},
	{ID: "Angela-inblackskirt-20220820", Name: "Angela", Emoji: "👩‍💼", Style: "Chuyên nghiệp"},
	{ID: "Anna_public_3_20240108", Name: "Anna", Emoji: "🧑‍🦰", Style: "Thân thiện"},
	{ID: "Emily-inpinkskirt-20220820", Name: "Emily", Emoji: "💃", Style: "Năng động"},
	{ID: "Susan-inbluetshirt-20220821", Name: "Susan", Emoji: "🙋‍♀️", Style: "Tự nhiên"},
	{ID: "Lily-inpinkskirt-20220822", Name: "Lily", Emoji: "🌸", Style: "Dịu dàng"},
}

// Voices is the fixed Vietnamese voice catalog
var Voices = []Voice{
	{ID: "vi-VN-HoaiMyNeural", Name: "Hoài My – Nữ miền Nam (Khuyến nghị)"},
	{ID: "vi-VN-NamMinhNeural", Name: "Nam Minh – Nam miền Nam"},
	{ID: "vi-VN-Standard-A", Name: "Giọng nữ chuẩn Việt"},
}

// DefaultAvatarID returns the catalog default avatar
func DefaultAvatarID() string {
	return Avatars[0].ID
}

// DefaultVoiceID returns the catalog default voice
func DefaultVoiceID() string {
	return Voices[0].ID
}

// IsKnownAvatar reports whether id is in the avatar catalog
func IsKnownAvatar(id string) bool {
	for _, a := range Avatars {
		if a.ID == id {
			return true
		}
	}
	return false
}

// IsKnownVoice reports whether id is in the voice catalog
func IsKnownVoice(id string) bool {
	for _, v := range Voices {
		if v.ID == id {
			return true
		}
	}
	return false
}
