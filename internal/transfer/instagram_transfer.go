package transfer

// ContainerStatus is the readiness of a Graph API media container.
type ContainerStatus string

const (
	ContainerInProgress ContainerStatus = "IN_PROGRESS"
	ContainerFinished   ContainerStatus = "FINISHED"
	ContainerError      ContainerStatus = "ERROR"
	ContainerExpired    ContainerStatus = "EXPIRED"
	ContainerPublished  ContainerStatus = "PUBLISHED"
)

// Credential is a resolved account: the Instagram user id to publish under
// and the decrypted page token.
type Credential struct {
	InstagramUserID string
	AccessToken     string
}

// ContainerRequest is the body of POST /{ig-user-id}/media. Only the fields
// relevant to the media kind are set.
type ContainerRequest struct {
	ImageURL       string `json:"image_url,omitempty"`
	VideoURL       string `json:"video_url,omitempty"`
	MediaType      string `json:"media_type,omitempty"`
	Caption        string `json:"caption,omitempty"`
	AltText        string `json:"alt_text,omitempty"`
	IsCarouselItem bool   `json:"is_carousel_item,omitempty"`
	Children       string `json:"children,omitempty"`
}

type PublishRequest struct {
	CreationID string `json:"creation_id"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type ContainerStatusResponse struct {
	ID         string          `json:"id"`
	StatusCode ContainerStatus `json:"status_code"`
}

type PublishingLimitResponse struct {
	Data []struct {
		QuotaUsage int `json:"quota_usage"`
		Config     struct {
			QuotaTotal    int `json:"quota_total"`
			QuotaDuration int `json:"quota_duration"`
		} `json:"config"`
	} `json:"data"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}
