package service

import (
	"net/url"
	"regexp"
	"strings"
)

const youtubeEmbedBase = "https://www.youtube.com/embed/"

var (
	bareVideoID  = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)
	videoIDChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// YouTubeEmbed turns a share link, watch link, embed link or bare video id
// into an embed URL. It reports false when no video id can be found.
func YouTubeEmbed(input string) (string, bool) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", false
	}
	if bareVideoID.MatchString(raw) {
		return youtubeEmbedBase + raw, true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch {
	case strings.HasSuffix(host, "youtu.be"):
		id = firstSegment(u.Path)
	case strings.HasSuffix(host, "youtube.com") || strings.HasSuffix(host, "youtube-nocookie.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
		} else if rest, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			id = firstSegment(rest)
		} else if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			id = firstSegment(rest)
		}
	}

	if id == "" || !videoIDChars.MatchString(id) {
		return "", false
	}
	return youtubeEmbedBase + id, true
}

// YouTubeThumbnail returns the poster image for an embed URL built by YouTubeEmbed.
func YouTubeThumbnail(embedURL string) string {
	id := strings.TrimPrefix(embedURL, youtubeEmbedBase)
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}

func firstSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}
