package browser

// ScrollY is the window scroll offset.
func (s *Session) ScrollY() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollY
}

// ScrollTo scrolls the window, or the fullscreen scroller when fullscreen.
func (s *Session) ScrollTo(y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fullscreen {
		s.fullscreenOffset = y
		return
	}
	s.scrollY = y
}

// ScrollIntoView records that the element with id was brought into view.
func (s *Session) ScrollIntoView(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolledInto = append(s.scrolledInto, id)
}

// ScrolledInto lists the element ids passed to ScrollIntoView.
func (s *Session) ScrolledInto() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scrolledInto...)
}

func (s *Session) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

func (s *Session) SetFullscreen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = on
}

// FullscreenOffset is the scroll offset of the fullscreen element.
func (s *Session) FullscreenOffset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreenOffset
}
