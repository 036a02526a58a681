package tags

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// ReadFile parses the ID3 frames of an MP3 file into a tag set. A file
// without a tag yields an empty set.
func ReadFile(path string) (*SongTags, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 file: %w", err)
	}
	defer tag.Close()

	return fromID3(tag), nil
}

// Read parses ID3 frames from a stream.
func Read(r io.Reader) (*SongTags, error) {
	tag, err := id3v2.ParseReader(r, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse id3 tag: %w", err)
	}
	return fromID3(tag), nil
}

// WriteFile replaces the ID3 frames of an MP3 file with the tag set.
func WriteFile(path string, t *SongTags) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 file: %w", err)
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	tag.SetVersion(4)

	for id, value := range t.Fields() {
		tag.AddTextFrame(id, tag.DefaultEncoding(), value)
	}

	if t.HasCover() {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    CoverMime(t.Cover()),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     t.Cover(),
		})
	}

	return tag.Save()
}

// CoverMime sniffs the MIME type of cover image bytes.
func CoverMime(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// CoverExt maps cover image bytes to a link file extension, or "".
func CoverExt(data []byte) string {
	switch CoverMime(data) {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	default:
		return ""
	}
}

func fromID3(tag *id3v2.Tag) *SongTags {
	t := New()
	for id, frames := range tag.AllFrames() {
		for _, frame := range frames {
			switch f := frame.(type) {
			case id3v2.TextFrame:
				t.Set(id, f.Text)
			case id3v2.PictureFrame:
				if f.PictureType == id3v2.PTFrontCover || !t.HasCover() {
					t.SetCover(f.Picture)
				}
			}
		}
	}
	return t
}
