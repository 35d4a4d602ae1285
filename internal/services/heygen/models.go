package heygen

// uploadResponse is the asset upload reply. The service has returned
// the identifier both nested and at the top level across API versions,
// so both locations are checked.
type uploadResponse struct {
	ID   string `json:"id"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// character describes the avatar presenter in a generation request
type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

// voice describes the narrated text input
type voice struct {
	Type      string  `json:"type"`
	InputText string  `json:"input_text"`
	VoiceID   string  `json:"voice_id"`
	Speed     float64 `json:"speed"`
}

// background is either an uploaded image asset or a solid color
type background struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Value string `json:"value,omitempty"`
}

type videoInput struct {
	Character  character  `json:"character"`
	Voice      voice      `json:"voice"`
	Background background `json:"background"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// generateRequest is the video creation payload
type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
	Test        bool         `json:"test"`
}

type generateResponse struct {
	VideoID string `json:"video_id"`
	Data    struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type statusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
	} `json:"data"`
}
