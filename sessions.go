package main

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"avatarcrop/cropview"
	"avatarcrop/geom"
)

// Session is one image opened for cropping. Requests touching the same
// session are serialized by its mutex; the view itself is single-threaded.
type Session struct {
	ID   string
	File string

	mu          sync.Mutex
	view        *cropview.View
	updates     int
	unsubscribe func()
}

// SessionState is what the web client needs to draw a session.
type SessionState struct {
	ID       string          `json:"id"`
	File     string          `json:"file"`
	Area     cropview.Shape  `json:"area"`
	Bounds   geom.Rectangle  `json:"bounds"`
	Rotation float64         `json:"rotation"`
	Zoom     float64         `json:"zoom"`
	FlipH    bool            `json:"flip_h"`
	FlipV    bool            `json:"flip_v"`
	Action   cropview.Action `json:"action"`
	Cursor   cropview.Cursor `json:"cursor"`
	Crop     Crop            `json:"crop"`
	// Updates counts the redraw notifications the last request produced.
	Updates int `json:"updates"`
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(0)
}

// Apply runs fn on the view and returns the resulting state.
func (s *Session) Apply(fn func(v *cropview.View)) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.updates
	fn(s.view)
	return s.state(s.updates - before)
}

// Operation returns the crop operation exporting the session's area.
func (s *Session) Operation() Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Operation{Crop: &CropOperation{Filename: s.File, Crop: cropFromView(s.view)}}
}

func (s *Session) state(updates int) SessionState {
	v := s.view
	flipH, flipV := v.Flipped()
	return SessionState{
		ID:       s.ID,
		File:     s.File,
		Area:     v.CropArea(),
		Bounds:   v.Surface().OuterRect(),
		Rotation: v.Surface().Rotation(),
		Zoom:     v.Surface().ZoomFactor(),
		FlipH:    flipH,
		FlipV:    flipV,
		Action:   v.Action(),
		Cursor:   v.Cursor(),
		Crop:     cropFromView(v),
		Updates:  updates,
	}
}

// SessionStore keeps the open sessions of the web app.
type SessionStore struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	document *cropview.Document
	sessions map[string]*Session
}

func NewSessionStore(logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		logger:   logger,
		document: cropview.NewDocument(),
		sessions: make(map[string]*Session),
	}
}

// Create opens a session for file, whose image has the given size.
func (st *SessionStore) Create(file string, width, height int) *Session {
	s := &Session{ID: uuid.NewString(), File: file}
	logger := st.logger.With().Str("session", s.ID).Str("filename", file).Logger()

	s.view = cropview.NewView(cropview.NewSurface(float64(width), float64(height)), cropview.WithLogger(logger))
	s.view.OnUpdate(func(cropview.Shape) { s.updates++ })
	s.view.LoadImage(float64(width), float64(height))
	s.unsubscribe = st.document.Subscribe(func() {
		s.Apply(func(v *cropview.View) { v.PointerUp() })
	})

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	logger.Debug().Int("width", width).Int("height", height).Msg("session created")
	return s
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete closes the session with the given id. It reports whether it existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		s.unsubscribe()
	}
	return ok
}

// ReleaseAll ends the gestures of every session, as a pointer release
// outside any view would.
func (st *SessionStore) ReleaseAll() {
	st.document.PointerUp()
}

// cropFromView converts the view's crop area into a Crop relative to the
// displayed bounds.
func cropFromView(v *cropview.View) Crop {
	area := v.CropArea()
	w, h := v.Surface().OuterWidth(), v.Surface().OuterHeight()
	flipH, flipV := v.Flipped()
	c := Crop{
		Rotation: v.Surface().Rotation(),
		FlipH:    flipH,
		FlipV:    flipV,
	}
	if w <= 0 || h <= 0 {
		return c
	}
	c.X = area.Position.X / w
	c.Y = area.Position.Y / h
	c.Width = area.Diameter.X / w
	c.Height = area.Diameter.Y / h
	return c
}
