package moderation

// TextInput is a request to moderate a single piece of text.
type TextInput struct {
	Text string `json:"text"`
}

// ImageInput is a request to moderate an image by URL.
type ImageInput struct {
	ImageURL string `json:"image_url"`
}

// Message is one turn of a conversation under contextual analysis.
type Message struct {
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ContextualInput is a request to analyze a whole conversation for
// grooming, manipulation, harassment, or similar risk patterns.
type ContextualInput struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// Verdict is the moderation outcome for text and image analyses.
type Verdict struct {
	// Safe is true when no category was flagged.
	Safe bool `json:"safe"`

	// Categories lists the flagged categories, empty when safe.
	Categories []string `json:"categories"`

	// Confidence is the highest category score, rounded to 3 decimals.
	Confidence float64 `json:"confidence"`

	// SuggestedAction is "allow" or "block".
	SuggestedAction string `json:"suggested_action"`
}

// ContextualVerdict is the outcome of conversation analysis.
type ContextualVerdict struct {
	Safe bool `json:"safe"`

	// RiskFactors names the detected risk patterns, empty when safe.
	RiskFactors []string `json:"risk_factors"`

	// SuggestedAction is "allow", "escalate", or "block".
	SuggestedAction string `json:"suggested_action"`
}

// moderationRequest is the wire format of the backend moderation endpoint.
type moderationRequest struct {
	Input string `json:"input"`
	Model string `json:"model,omitempty"`
}

// moderationResponse is the wire format of the backend moderation endpoint.
type moderationResponse struct {
	Results []moderationResult `json:"results"`
}

type moderationResult struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// chatRequest is the wire format of the backend chat completion endpoint.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// chatContentPart is one element of a multi-part user message.
type chatContentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *chatImagePart `json:"image_url,omitempty"`
}

type chatImagePart struct {
	URL string `json:"url"`
}

// chatResponse is the wire format of the backend chat completion endpoint.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}
