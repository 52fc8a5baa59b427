// ABOUTME: Track metadata probe
// ABOUTME: Reads embedded tags at load time for display
package source

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Tags holds the display metadata embedded in a media file.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// ReadTags reads embedded metadata from a media file. Missing or
// unreadable tags are not an error worth failing a load over; callers
// treat the result as best-effort.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, fmt.Errorf("failed to read tags: %w", err)
	}

	return Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}
