package photodomain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxURLLength     = 2048
	MaxCaptionLength = 280
)

var (
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrInvalidURL     = errors.New("invalid image url")
	ErrCaptionTooLong = errors.New("caption is too long")
	ErrNotOwner       = errors.New("only the author or an admin can do that")
	ErrUnknownUser    = errors.New("user does not exist")
)

// Photo is a feed entry pointing at an externally hosted image.
type Photo struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	AuthorName string    `json:"authorName"`
	ImageURL   string    `json:"imageUrl"`
	Caption    string    `json:"caption"`
	Hidden     bool      `json:"hidden"`
	LikeCount  int       `json:"likeCount"`
	LikedByMe  bool      `json:"likedByMe"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Page is one slice of a newest-first listing. NextBefore feeds the next request.
type Page struct {
	Photos     []Photo    `json:"photos"`
	NextBefore *time.Time `json:"nextBefore,omitempty"`
}

// NormalizeImageURL trims raw and checks it is an absolute http(s) URL.
func NormalizeImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if len(raw) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return raw, nil
}

// NormalizeCaption trims the caption and enforces the length limit in runes.
func NormalizeCaption(raw string) (string, error) {
	caption := strings.TrimSpace(raw)
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return "", fmt.Errorf("%w: max %d characters", ErrCaptionTooLong, MaxCaptionLength)
	}
	return caption, nil
}
