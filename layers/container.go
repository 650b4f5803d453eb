package layers

import "sync"

// Container is the ordered, named collection of layers shown by the map.
// Reads (rendering, hit-testing) take a shared lock; add/remove take the
// exclusive lock. Layer names are unique: adding a layer whose name already
// exists replaces the old layer.
type Container struct {
	mu     sync.RWMutex
	layers []Layer
}

// NewContainer creates an empty layer container.
func NewContainer() *Container {
	return &Container{}
}

// Layers returns a copy of the current layer list in draw order.
func (c *Container) Layers() []Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	layers := make([]Layer, len(c.layers))
	copy(layers, c.layers)
	return layers
}

// Layer returns the layer with the given name, or nil.
func (c *Container) Layer(name string) Layer {
	for _, layer := range c.Layers() {
		if layer.Name() == name {
			return layer
		}
	}
	return nil
}

// Count returns the number of layers.
func (c *Container) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.layers)
}

// Add appends the layer, or inserts it at index if 0 <= index < len. A
// layer with the same name is removed first, so names stay unique.
func (c *Container) Add(layer Layer, index int) {
	if layer == nil {
		return
	}
	c.Remove(layer.Name())

	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.layers) {
		c.layers = append(c.layers, layer)
		return
	}
	c.layers = append(c.layers[:index], append([]Layer{layer}, c.layers[index:]...)...)
}

// Remove removes the layer with the given name and reports whether a layer
// was removed.
func (c *Container) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, layer := range c.layers {
		if layer.Name() == name {
			c.layers = append(c.layers[:i], c.layers[i+1:]...)
			return true
		}
	}
	return false
}
