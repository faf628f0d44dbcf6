package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PhotoRecord represents one user-submitted photo and its generated results.
// The id is generated client-side at upload time and doubles as the storage
// and document key. GeneratedURLs is empty at creation and replaced wholesale
// (never appended to) once generation completes.
type PhotoRecord struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	OriginalURL   string    `json:"original_url"`
	GeneratedURLs []string  `json:"generated_urls,omitempty"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	CreatedAt     time.Time `json:"created_at"`
}

// GeneratedVariant is one styled output. It has no persistence identity of its
// own beyond appearing inside PhotoRecord.GeneratedURLs.
type GeneratedVariant struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Style     string    `json:"style"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedEntry is a user bookmark of a specific variant. The id is derived from
// the variant URL so save/unsave is idempotent across sessions.
type SavedEntry struct {
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id"`
	URL     string    `json:"url"`
	Style   string    `json:"style"`
	SavedAt time.Time `json:"saved_at"`
}

// SavedEntryID derives the stable bookmark key for a variant URL.
func SavedEntryID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}
