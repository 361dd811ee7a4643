package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
)

// ApplicationStore keeps applications and their comments in process memory.
// It does not implement portsrepo.ApplicationTxRunner; multi-application writes are undone by the
// caller when one of them fails.
type ApplicationStore struct {
	mu       sync.RWMutex
	apps     map[string]domain.PermitApplication
	comments map[string][]domain.WorkflowComment
	seq      int64

	failUpdate  map[string]error
	failAppend  map[string]error
	failRetract map[string]error
}

// NewApplicationStore creates an empty store.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{
		apps:        make(map[string]domain.PermitApplication),
		comments:    make(map[string][]domain.WorkflowComment),
		failUpdate:  make(map[string]error),
		failAppend:  make(map[string]error),
		failRetract: make(map[string]error),
	}
}

var _ portsrepo.ApplicationRepositoryFacade = (*ApplicationStore)(nil)

// FailUpdateOn makes every UpdateApplication for appID return err until cleared with a nil err.
func (s *ApplicationStore) FailUpdateOn(appID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFailure(s.failUpdate, appID, err)
}

// FailAppendOn makes every AppendComment for appID return err until cleared with a nil err.
func (s *ApplicationStore) FailAppendOn(appID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFailure(s.failAppend, appID, err)
}

// FailRetractOn makes every RetractComment for appID return err until cleared with a nil err.
func (s *ApplicationStore) FailRetractOn(appID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFailure(s.failRetract, appID, err)
}

func setFailure(m map[string]error, appID string, err error) {
	if err == nil {
		delete(m, appID)
		return
	}
	m[appID] = err
}

// withComments returns a copy of app carrying a copy of its comments.
func (s *ApplicationStore) withComments(app domain.PermitApplication) *domain.PermitApplication {
	app.WorkflowComments = slices.Clone(s.comments[app.ID])
	return &app
}

func (s *ApplicationStore) FindApplicationByID(_ context.Context, id string) (*domain.PermitApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: application %s", apperrors.ErrNotFound, id)
	}
	return s.withComments(app), nil
}

func (s *ApplicationStore) GetApplicationsByStage(_ context.Context, stage domain.Stage) ([]domain.PermitApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PermitApplication
	for _, app := range s.apps {
		if app.CurrentStage == stage && !app.Status.IsTerminal() {
			out = append(out, *s.withComments(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return submittedBefore(out[i], out[j])
	})
	return out, nil
}

func submittedBefore(a, b domain.PermitApplication) bool {
	ta, tb := a.CreatedAt, b.CreatedAt
	if a.SubmittedAt != nil {
		ta = *a.SubmittedAt
	}
	if b.SubmittedAt != nil {
		tb = *b.SubmittedAt
	}
	if ta.Equal(tb) {
		return a.ApplicationID < b.ApplicationID
	}
	return ta.Before(tb)
}

func (s *ApplicationStore) ListDecided(_ context.Context, limit int) ([]domain.PermitApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PermitApplication
	for _, app := range s.apps {
		if app.Status.IsTerminal() {
			out = append(out, *s.withComments(app))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return decidedAt(out[i]).After(decidedAt(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func decidedAt(app domain.PermitApplication) time.Time {
	if app.ApprovedAt != nil {
		return *app.ApprovedAt
	}
	if app.RejectedAt != nil {
		return *app.RejectedAt
	}
	return app.LastUpdatedAt
}

func (s *ApplicationStore) NextApplicationNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *ApplicationStore) CreateApplication(_ context.Context, app domain.PermitApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return fmt.Errorf("%w: application %s already exists", apperrors.ErrDuplicate, app.ID)
	}
	for _, existing := range s.apps {
		if existing.ApplicationID == app.ApplicationID {
			return fmt.Errorf("%w: application id %s already exists", apperrors.ErrDuplicate, app.ApplicationID)
		}
	}
	comments := app.WorkflowComments
	app.WorkflowComments = nil
	s.apps[app.ID] = app
	if len(comments) > 0 {
		s.comments[app.ID] = slices.Clone(comments)
	}
	return nil
}

func (s *ApplicationStore) UpdateApplication(_ context.Context, id string, patch domain.ApplicationPatch) (*domain.PermitApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failUpdate[id]; ok {
		return nil, err
	}
	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: application %s", apperrors.ErrNotFound, id)
	}
	if patch.ExpectedStage != nil && app.CurrentStage != *patch.ExpectedStage {
		return nil, fmt.Errorf("%w: application %s is at stage %d, expected %d",
			apperrors.ErrStaleStage, id, app.CurrentStage, *patch.ExpectedStage)
	}
	patch.Apply(&app)
	s.apps[id] = app
	return s.withComments(app), nil
}

func (s *ApplicationStore) AppendComment(_ context.Context, appID string, comment domain.WorkflowComment) (*domain.WorkflowComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failAppend[appID]; ok {
		return nil, err
	}
	if _, ok := s.apps[appID]; !ok {
		return nil, fmt.Errorf("%w: application %s", apperrors.ErrNotFound, appID)
	}
	comment.ApplicationID = appID
	s.comments[appID] = append(s.comments[appID], comment)
	return &comment, nil
}

func (s *ApplicationStore) RetractComment(_ context.Context, appID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failRetract[appID]; ok {
		return err
	}
	list := s.comments[appID]
	for i := range list {
		if list[i].CommentID == commentID {
			s.comments[appID] = slices.Delete(list, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
}

func (s *ApplicationStore) ListComments(_ context.Context, appID string) ([]domain.WorkflowComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.comments[appID]), nil
}

func (s *ApplicationStore) FindCommentByID(_ context.Context, commentID string) (*domain.WorkflowComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.comments {
		for _, c := range list {
			if c.CommentID == commentID {
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
}

func (s *ApplicationStore) UpdateCommentText(_ context.Context, commentID, text, editedBy string, editedAt time.Time) (*domain.WorkflowComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for appID, list := range s.comments {
		for i := range list {
			if list[i].CommentID != commentID {
				continue
			}
			by, at := editedBy, editedAt
			list[i].Comment = text
			list[i].EditedBy = &by
			list[i].EditedAt = &at
			s.comments[appID] = list
			c := list[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
}
