package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/faciam-dev/gcrb/internal/api/schema"
	"github.com/faciam-dev/gcrb/pkg/catalog"
	"github.com/faciam-dev/gcrb/pkg/relation"
	pkgschema "github.com/faciam-dev/gcrb/pkg/schema"
)

// Manager owns the live sessions of one server process, keyed by opaque ID.
type Manager struct {
	mu       sync.Mutex
	cat      catalog.Catalog
	opts     relation.Options
	sessions map[string]*relation.Session
}

func NewManager(cat catalog.Catalog, opts relation.Options) *Manager {
	return &Manager{cat: cat, opts: opts, sessions: map[string]*relation.Session{}}
}

// Open creates a session and registers it under a fresh ID.
func (m *Manager) Open(collection, field string, category relation.Category) (string, *relation.Session, error) {
	s, err := relation.Open(m.cat, collection, field, category, m.opts)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s, nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*relation.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down the session registered under id.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// CloseAll tears down every live session. Used at server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*relation.Session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

type SessionHandler struct {
	Manager *Manager
}

type openInput struct {
	Body schema.OpenSession
}

type sessionOutput struct {
	Body schema.SessionState
}

type idInput struct {
	ID string `path:"id"`
}

type patchInput struct {
	ID   string `path:"id"`
	Body schema.SessionPatch
}

type summaryOutput struct {
	Body schema.Summary
}

type categoriesOutput struct {
	Body []string
}

func RegisterSession(api huma.API, h *SessionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/v1/categories",
		Summary:     "List relationship categories",
		Tags:        []string{"Session"},
	}, h.categories)
	huma.Register(api, huma.Operation{
		OperationID:   "openSession",
		Method:        http.MethodPost,
		Path:          "/v1/sessions",
		Summary:       "Open a field derivation session",
		Tags:          []string{"Session"},
		Errors:        []int{http.StatusNotFound, http.StatusUnprocessableEntity},
		DefaultStatus: http.StatusCreated,
	}, h.open)
	huma.Register(api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/v1/sessions/{id}",
		Summary:     "Get session state",
		Tags:        []string{"Session"},
		Errors:      []int{http.StatusNotFound},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "patchSession",
		Method:      http.MethodPatch,
		Path:        "/v1/sessions/{id}",
		Summary:     "Apply edits to a session",
		Tags:        []string{"Session"},
		Errors:      []int{http.StatusNotFound, http.StatusUnprocessableEntity},
	}, h.patch)
	huma.Register(api, huma.Operation{
		OperationID: "flushSession",
		Method:      http.MethodPost,
		Path:        "/v1/sessions/{id}/flush",
		Summary:     "Run pending derivation immediately",
		Tags:        []string{"Session"},
		Errors:      []int{http.StatusNotFound},
	}, h.flush)
	huma.Register(api, huma.Operation{
		OperationID: "sessionSummary",
		Method:      http.MethodGet,
		Path:        "/v1/sessions/{id}/summary",
		Summary:     "List objects the session would create",
		Tags:        []string{"Session"},
		Errors:      []int{http.StatusNotFound},
	}, h.summary)
	huma.Register(api, huma.Operation{
		OperationID:   "closeSession",
		Method:        http.MethodDelete,
		Path:          "/v1/sessions/{id}",
		Summary:       "Close a session",
		Tags:          []string{"Session"},
		Errors:        []int{http.StatusNotFound},
		DefaultStatus: http.StatusNoContent,
	}, h.close)
}

func (h *SessionHandler) categories(ctx context.Context, _ *struct{}) (*categoriesOutput, error) {
	cats := relation.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return &categoriesOutput{Body: out}, nil
}

func (h *SessionHandler) open(ctx context.Context, in *openInput) (*sessionOutput, error) {
	category, err := relation.ParseCategory(in.Body.Category)
	if err != nil {
		return nil, huma.NewError(http.StatusUnprocessableEntity, err.Error(), &huma.ErrorDetail{Location: "body.category", Message: err.Error()})
	}
	if in.Body.Collection == "" {
		return nil, huma.NewError(http.StatusUnprocessableEntity, "collection required", &huma.ErrorDetail{Location: "body.collection", Message: "required"})
	}
	field := in.Body.Field
	if field == "" {
		field = relation.NewField
	}
	id, s, err := h.Manager.Open(in.Body.Collection, field, category)
	if err != nil {
		if errors.Is(err, relation.ErrFieldNotFound) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.NewError(http.StatusUnprocessableEntity, err.Error())
	}
	return &sessionOutput{Body: stateOf(id, s)}, nil
}

func (h *SessionHandler) get(ctx context.Context, in *idInput) (*sessionOutput, error) {
	s, ok := h.Manager.Get(in.ID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	return &sessionOutput{Body: stateOf(in.ID, s)}, nil
}

func (h *SessionHandler) patch(ctx context.Context, in *patchInput) (*sessionOutput, error) {
	s, ok := h.Manager.Get(in.ID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	if err := applyPatch(s, in.Body); err != nil {
		return nil, huma.NewError(http.StatusUnprocessableEntity, err.Error())
	}
	return &sessionOutput{Body: stateOf(in.ID, s)}, nil
}

func (h *SessionHandler) flush(ctx context.Context, in *idInput) (*sessionOutput, error) {
	s, ok := h.Manager.Get(in.ID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	s.Flush()
	return &sessionOutput{Body: stateOf(in.ID, s)}, nil
}

func (h *SessionHandler) summary(ctx context.Context, in *idInput) (*summaryOutput, error) {
	s, ok := h.Manager.Get(in.ID)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	s.Flush()
	out := schema.Summary{Items: s.Summary(), Valid: true}
	if err := s.Validate(); err != nil {
		out.Valid = false
		out.Error = err.Error()
	}
	return &summaryOutput{Body: out}, nil
}

func (h *SessionHandler) close(ctx context.Context, in *idInput) (*struct{}, error) {
	if !h.Manager.Close(in.ID) {
		return nil, huma.Error404NotFound("session not found")
	}
	return &struct{}{}, nil
}

// applyPatch maps the non-nil patch members onto session mutations.
func applyPatch(s *relation.Session, p schema.SessionPatch) error {
	type step struct {
		name string
		fn   func() error
	}
	var steps []step
	if p.FieldName != nil {
		steps = append(steps, step{"fieldName", func() error { return s.SetFieldName(*p.FieldName) }})
	}
	if p.FieldType != nil {
		steps = append(steps, step{"fieldType", func() error { return s.SetFieldType(pkgschema.Type(*p.FieldType)) }})
	}
	if p.Note != nil {
		steps = append(steps, step{"note", func() error { return s.SetNote(*p.Note) }})
	}
	if p.RelatedCollection != nil {
		steps = append(steps, step{"relatedCollection", func() error { return s.SetRelatedCollection(*p.RelatedCollection) }})
	}
	if p.ManyCollection != nil {
		steps = append(steps, step{"manyCollection", func() error { return s.SetManyCollection(*p.ManyCollection) }})
	}
	if p.ManyField != nil {
		steps = append(steps, step{"manyField", func() error { return s.SetManyField(*p.ManyField) }})
	}
	if p.SortField != nil {
		steps = append(steps, step{"sortField", func() error { return s.SetSortField(*p.SortField) }})
	}
	if p.JunctionCollection != nil {
		steps = append(steps, step{"junctionCollection", func() error { return s.SetJunctionCollection(*p.JunctionCollection) }})
	}
	if p.JunctionCurrentField != nil {
		steps = append(steps, step{"junctionCurrentField", func() error { return s.SetJunctionCurrentField(*p.JunctionCurrentField) }})
	}
	if p.JunctionRelatedField != nil {
		steps = append(steps, step{"junctionRelatedField", func() error { return s.SetJunctionRelatedField(*p.JunctionRelatedField) }})
	}
	if p.AllowedCollections != nil {
		steps = append(steps, step{"allowedCollections", func() error { return s.SetAllowedCollections(p.AllowedCollections) }})
	}
	if p.CollectionField != nil {
		steps = append(steps, step{"collectionField", func() error { return s.SetCollectionField(*p.CollectionField) }})
	}
	if p.AutoFill != nil {
		steps = append(steps, step{"autoFill", func() error { return s.SetAutoFill(*p.AutoFill) }})
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}

func stateOf(id string, s *relation.Session) schema.SessionState {
	return schema.SessionState{
		ID:             id,
		Category:       string(s.Category()),
		Collection:     s.Collection(),
		Existing:       s.IsExisting(),
		AutoFill:       s.AutoFill(),
		Field:          s.Field(),
		Relations:      s.Relations(),
		NewCollections: s.NewCollections(),
		NewFields:      s.NewFields(),
		Seeds:          s.Seeds(),
	}
}
