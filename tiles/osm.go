package tiles

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
)

// OSMProvider downloads tiles from an OpenStreetMap style tile server.
type OSMProvider struct {
	client  *http.Client
	urlTmpl string
}

// NewOSMProvider creates a provider for the given URL template, which must
// contain %d/%d/%d placeholders for zoom/x/y. An empty template defaults to
// the public OSM server.
func NewOSMProvider(urlTmpl string) *OSMProvider {
	if urlTmpl == "" {
		urlTmpl = "https://tile.openstreetmap.org/%d/%d/%d.png"
	}
	return &OSMProvider{
		client:  &http.Client{},
		urlTmpl: urlTmpl,
	}
}

func (p *OSMProvider) GetTile(ctx context.Context, tile Tile) (image.Image, error) {
	url := p.TileURL(tile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for tile %s: %w", tile.Key(), err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0")
	req.Header.Set("Accept", "image/webp,*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tile %s: %w", tile.Key(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching tile %s: unexpected status %d", tile.Key(), resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		log.Printf("tiles: error decoding tile %s: %v", tile.Key(), err)
		return nil, fmt.Errorf("decoding tile %s: %w", tile.Key(), err)
	}
	return img, nil
}

// TileURL returns the download URL for the tile.
func (p *OSMProvider) TileURL(tile Tile) string {
	return fmt.Sprintf(p.urlTmpl, tile.Zoom, tile.X, tile.Y)
}
