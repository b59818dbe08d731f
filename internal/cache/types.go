package cache

import "time"

// Exchange is one cached question/answer turn.
//
// Token counters are stored as text, mirroring the completions API wire
// shape. CreatedAt is assigned by the storage layer at write time and drives
// recency ordering. Exchanges are append-only: never mutated or deleted.
type Exchange struct {
	ID               string
	Prompt           string
	Completion       string
	CompletionTokens string
	PromptTokens     string
	TotalTokens      string
	Model            string
	CreatedAt        time.Time
}
