package authorization

import (
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
)

// CaptchaChallenge is one issued captcha image.
type CaptchaChallenge struct {
	ID          string
	ImageBase64 string
	TTL         time.Duration
}

// CaptchaStore issues and verifies digit-image captchas backed by an
// in-memory store with expiry.
type CaptchaStore struct {
	captcha *base64Captcha.Captcha
	ttl     time.Duration
}

// NewCaptchaStore creates a captcha store whose challenges expire after ttl.
func NewCaptchaStore(ttl time.Duration) *CaptchaStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	driver := base64Captcha.NewDriverDigit(60, 160, 5, 0.7, 80)
	return &CaptchaStore{
		captcha: base64Captcha.NewCaptcha(driver, base64Captcha.NewMemoryStore(2048, ttl)),
		ttl:     ttl,
	}
}

// Issue generates a new challenge. The returned image is a data URI.
func (s *CaptchaStore) Issue() (CaptchaChallenge, error) {
	id, image, _, err := s.captcha.Generate()
	if err != nil {
		return CaptchaChallenge{}, err
	}
	if image != "" && !strings.HasPrefix(image, "data:") {
		image = "data:image/png;base64," + image
	}
	return CaptchaChallenge{ID: id, ImageBase64: image, TTL: s.ttl}, nil
}

// Verify consumes the challenge, so each answer is good for one attempt.
func (s *CaptchaStore) Verify(id, answer string) bool {
	id = strings.TrimSpace(id)
	answer = strings.TrimSpace(answer)
	if id == "" || answer == "" {
		return false
	}
	return s.captcha.Verify(id, answer, true)
}
