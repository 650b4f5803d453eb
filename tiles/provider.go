package tiles

import (
	"context"
	"image"
)

// Provider produces the image for a tile. Implementations must honour
// context cancellation, which the manager uses to abort outstanding loads
// during zoom changes.
type Provider interface {
	GetTile(ctx context.Context, tile Tile) (image.Image, error)
}
