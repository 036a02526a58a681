// Package links builds and validates the public audio and cover URLs of
// stored songs, and caches resolved links per title.
package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"melostore/internal/songtitle"
)

var (
	regexAudioExt = regexp.MustCompile(`(?i)\.(mp3|mpeg|mpga)$`)
	regexCoverExt = regexp.MustCompile(`(?i)\.(jpe?g|png|jfif)$`)
)

// BuildAudioLink renders the audio URL of a song served by a node.
func BuildAudioLink(protocol, address, title, fileHash string) string {
	return fmt.Sprintf("%s://%s/audio/%s.mp3?f=%s",
		protocol, address, songtitle.Encode(title), fileHash)
}

// BuildCoverLink renders the cover URL. The extension comes from the cover
// image type and may be empty.
func BuildCoverLink(protocol, address, title, fileHash, ext string) string {
	if ext != "" {
		ext = "." + ext
	}
	return fmt.Sprintf("%s://%s/cover/%s%s?f=%s",
		protocol, address, songtitle.Encode(title), ext, fileHash)
}

// IsValidAudioLink reports whether the link looks like a node audio URL.
func IsValidAudioLink(link string) bool {
	return isValidFileLink(link, "audio", regexAudioExt)
}

// IsValidCoverLink reports whether the link looks like a node cover URL.
func IsValidCoverLink(link string) bool {
	return isValidFileLink(link, "cover", regexCoverExt)
}

func isValidFileLink(link, action string, extPattern *regexp.Regexp) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" {
		return false
	}
	if !strings.HasPrefix(u.Path, "/"+action+"/") {
		return false
	}
	return extPattern.MatchString(u.Path)
}
