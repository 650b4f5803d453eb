package mapcontrol

// Zoom management. Zoom changes are always single steps: each step aborts
// outstanding tile loads, refreshes the scaled preview, forces a backbuffer
// redraw and emits a zoom-changed event, so multi-level jumps replay those
// side effects per level.

// CurrentZoom returns the current zoom level.
func (m *MapControl) CurrentZoom() int {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.currentZoom
}

// ZoomMinimum returns the lower zoom bound.
func (m *MapControl) ZoomMinimum() int {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.zoomMinimum
}

// ZoomMaximum returns the upper zoom bound.
func (m *MapControl) ZoomMaximum() int {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.zoomMaximum
}

// SetZoomMinimum updates the lower zoom bound and clamps the current zoom
// into range.
func (m *MapControl) SetZoomMinimum(zoom int) {
	m.stateMu.Lock()
	m.zoomMinimum = zoom
	m.stateMu.Unlock()
	m.checkZoom()
}

// SetZoomMaximum updates the upper zoom bound and clamps the current zoom
// into range.
func (m *MapControl) SetZoomMaximum(zoom int) {
	m.stateMu.Lock()
	m.zoomMaximum = zoom
	m.stateMu.Unlock()
	m.checkZoom()
}

// ZoomIn increases the zoom by one level. At the maximum it is a no-op,
// not an error.
func (m *MapControl) ZoomIn() {
	m.stateMu.RLock()
	atMax := m.currentZoom >= m.zoomMaximum
	m.stateMu.RUnlock()
	if atMax {
		return
	}

	if m.imageProvider != nil {
		m.imageProvider.AbortLoading()
	}
	m.buildScaledScreen(2.0)

	m.stateMu.Lock()
	if m.currentZoom < m.zoomMaximum {
		m.currentZoom++
	}
	zoom := m.currentZoom
	m.stateMu.Unlock()

	m.RedrawPrimaryScreen(true)
	m.events.zoomChanged.emit(zoom)
}

// ZoomOut decreases the zoom by one level. At the minimum it is a no-op.
func (m *MapControl) ZoomOut() {
	m.stateMu.RLock()
	atMin := m.currentZoom <= m.zoomMinimum
	m.stateMu.RUnlock()
	if atMin {
		return
	}

	if m.imageProvider != nil {
		m.imageProvider.AbortLoading()
	}
	m.buildScaledScreen(0.5)

	m.stateMu.Lock()
	if m.currentZoom > m.zoomMinimum {
		m.currentZoom--
	}
	zoom := m.currentZoom
	m.stateMu.Unlock()

	m.RedrawPrimaryScreen(true)
	m.events.zoomChanged.emit(zoom)
}

// SetZoom moves to the requested zoom level, clamped into range, one step
// at a time. Stepping is deliberate: each intermediate level re-triggers
// load cancellation and redraw side effects rather than jumping straight to
// the target.
func (m *MapControl) SetZoom(zoom int) {
	m.stateMu.RLock()
	if zoom < m.zoomMinimum {
		zoom = m.zoomMinimum
	} else if zoom > m.zoomMaximum {
		zoom = m.zoomMaximum
	}
	current := m.currentZoom
	m.stateMu.RUnlock()

	for ; current > zoom; current-- {
		m.ZoomOut()
	}
	for ; current < zoom; current++ {
		m.ZoomIn()
	}
}

// checkZoom repairs an inverted zoom range by swapping the bounds, then
// clamps the current zoom into range.
func (m *MapControl) checkZoom() {
	m.stateMu.Lock()
	if m.zoomMinimum > m.zoomMaximum {
		m.zoomMinimum, m.zoomMaximum = m.zoomMaximum, m.zoomMinimum
	}
	current := m.currentZoom
	minimum := m.zoomMinimum
	maximum := m.zoomMaximum
	m.stateMu.Unlock()

	if current < minimum {
		m.SetZoom(minimum)
	} else if current > maximum {
		m.SetZoom(maximum)
	}
}
