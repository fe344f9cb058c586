package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

type MediaKind string

const (
	MediaKindImage    MediaKind = "IMAGE"
	MediaKindVideo    MediaKind = "VIDEO"
	MediaKindReel     MediaKind = "REELS"
	MediaKindStory    MediaKind = "STORIES"
	MediaKindCarousel MediaKind = "CAROUSEL"
)

const (
	MinCarouselItems = 2
	MaxCarouselItems = 10
)

// ParseMediaKind accepts the API spellings of a kind, case-insensitively.
func ParseMediaKind(s string) (MediaKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IMAGE":
		return MediaKindImage, true
	case "VIDEO":
		return MediaKindVideo, true
	case "REEL", "REELS":
		return MediaKindReel, true
	case "STORY", "STORIES":
		return MediaKindStory, true
	case "CAROUSEL":
		return MediaKindCarousel, true
	}
	return "", false
}

// IsVideo reports whether containers of this kind are created from a video_url.
func (k MediaKind) IsVideo() bool {
	return k == MediaKindVideo || k == MediaKindReel || k == MediaKindStory
}

type MediaItem struct {
	URL  string
	Kind MediaKind
}

// Media is either SingleMedia or CarouselMedia.
type Media interface {
	Kind() MediaKind
	Items() []MediaItem
	isMedia()
}

type SingleMedia struct {
	Item    MediaItem
	AltText string
}

func (m SingleMedia) Kind() MediaKind    { return m.Item.Kind }
func (m SingleMedia) Items() []MediaItem { return []MediaItem{m.Item} }
func (SingleMedia) isMedia()             {}

type CarouselMedia struct {
	Children []MediaItem
}

func (CarouselMedia) Kind() MediaKind      { return MediaKindCarousel }
func (m CarouselMedia) Items() []MediaItem { return m.Children }
func (CarouselMedia) isMedia()             {}

// MediaError describes media that cannot be published as requested.
type MediaError struct {
	Reason string
}

func (e *MediaError) Error() string { return e.Reason }

// NewMedia validates the kind/count combination and decides between a single
// container and a carousel. Alt text is only kept for single images.
func NewMedia(kind MediaKind, urls []string, altText string) (Media, error) {
	for i, u := range urls {
		if strings.TrimSpace(u) == "" {
			return nil, &MediaError{Reason: fmt.Sprintf("media url %d is empty", i)}
		}
	}

	switch kind {
	case MediaKindCarousel:
		if len(urls) < MinCarouselItems || len(urls) > MaxCarouselItems {
			return nil, &MediaError{Reason: fmt.Sprintf("carousel requires %d to %d media items, got %d", MinCarouselItems, MaxCarouselItems, len(urls))}
		}
		children := make([]MediaItem, 0, len(urls))
		for _, u := range urls {
			children = append(children, MediaItem{URL: u, Kind: KindFromURL(u)})
		}
		return CarouselMedia{Children: children}, nil

	case MediaKindImage, MediaKindVideo, MediaKindReel, MediaKindStory:
		if len(urls) != 1 {
			return nil, &MediaError{Reason: fmt.Sprintf("%s requires exactly 1 media item, got %d", kind, len(urls))}
		}
		m := SingleMedia{Item: MediaItem{URL: urls[0], Kind: kind}}
		if kind == MediaKindImage {
			m.AltText = altText
		}
		return m, nil
	}

	return nil, &MediaError{Reason: fmt.Sprintf("unsupported media kind %q", kind)}
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {},
}

// KindFromURL infers IMAGE or VIDEO from the path extension of a media URL.
func KindFromURL(raw string) MediaKind {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	if _, ok := videoExtensions[strings.ToLower(path.Ext(p))]; ok {
		return MediaKindVideo
	}
	return MediaKindImage
}
