package setup

import (
	"fmt"
	"regexp"

	"github.com/disblox/disblox/internal/domain"
)

var groupURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://www\.roblox\.com/groups/(\d+)`),
	regexp.MustCompile(`https?://www\.roblox\.com/communities/(\d+)`),
	regexp.MustCompile(`https?://web\.roblox\.com/groups/(\d+)`),
	regexp.MustCompile(`https?://web\.roblox\.com/communities/(\d+)`),
	regexp.MustCompile(`https?://roblox\.com/groups/(\d+)`),
	regexp.MustCompile(`https?://roblox\.com/communities/(\d+)`),
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// ExtractGroupID pulls a numeric Roblox group ID out of a group or community
// URL. Bare numeric IDs pass through unchanged.
func ExtractGroupID(groupURL string) (string, error) {
	for _, pattern := range groupURLPatterns {
		if m := pattern.FindStringSubmatch(groupURL); m != nil {
			return m[1], nil
		}
	}
	if digitsOnly.MatchString(groupURL) {
		return groupURL, nil
	}
	return "", fmt.Errorf("%s: %w", ErrMsgInvalidGroupURL, domain.ErrInvalidGroup)
}
