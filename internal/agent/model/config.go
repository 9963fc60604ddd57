package model

// ================ Config ================

// ConversationConfig controls context windowing, session TTL and the
// caller-imposed generation timeout.
type ConversationConfig struct {
	TTL      string `envconfig:"SESSION_TTL" default:"30m"`
	Analysis struct {
		MaxTurns int `envconfig:"ANALYSIS_CONTEXT_MAX_TURNS" default:"6"`
	}
	// Both generation calls are bounded, unlike the search/generation
	// asymmetry of the first prototype.
	GenerationTimeoutSeconds int `envconfig:"AGENT_GENERATION_TIMEOUT_SECONDS" default:"60"`
}

type AnalysisModelConfig struct {
	Model       string  `envconfig:"ANALYSIS_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ANALYSIS_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"ANALYSIS_TEMPERATURE" default:"0.2"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.5"`
}

type PromptConfig struct {
	StoreName string `envconfig:"PROMPT_STORE_NAME" default:"KiranaKart"`
	Platforms string `envconfig:"PROMPT_PLATFORMS" default:"Blinkit, Zepto, Swiggy Instamart, BigBasket"`
}
