package transfer

type PostCreation struct {
	AccountID int64    `json:"account_id"`
	Caption   string   `json:"caption"`
	MediaURLs []string `json:"media_urls"`
	MediaKind string   `json:"media_kind"`
	AltText   string   `json:"alt_text"`
	PublishAt string   `json:"publish_at"` // RFC 3339; empty creates a draft
}

type UploadedMedia struct {
	URL       string `json:"url"`
	MediaKind string `json:"media_kind"`
}
