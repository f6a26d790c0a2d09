package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"kanri/internal/model"
	"kanri/internal/remote"
	"kanri/internal/toast"
)

// JobHuntStore owns the hiring funnel: studio applications and their
// stage-transition timeline.
type JobHuntStore struct {
	notifier

	remote remote.Client
	toasts *toast.Service
	undo   *UndoCoordinator
	log    *zap.Logger

	mu           sync.Mutex
	applications []model.JobApplication
	timeline     []model.JobTimelineEntry

	wg sync.WaitGroup
}

func NewJobHuntStore(rc remote.Client, toasts *toast.Service, undo *UndoCoordinator, log *zap.Logger) *JobHuntStore {
	return &JobHuntStore{remote: rc, toasts: toasts, undo: undo, log: log}
}

// Wait drains in-flight background persistence.
func (s *JobHuntStore) Wait() {
	s.wg.Wait()
}

// FetchAll replaces applications and timeline with the remote state.
func (s *JobHuntStore) FetchAll(ctx context.Context) error {
	appRows, err := s.remote.SelectAll(ctx, "job_applications", remote.Filter{"archived": false}, "sort_order")
	if err != nil {
		return fmt.Errorf("fetch applications: %w", err)
	}
	tlRows, err := s.remote.SelectAll(ctx, "job_application_timeline", nil, "created_at")
	if err != nil {
		return fmt.Errorf("fetch timeline: %w", err)
	}

	apps, err := remote.Decode[model.JobApplication](appRows)
	if err != nil {
		return err
	}
	timeline, err := remote.Decode[model.JobTimelineEntry](tlRows)
	if err != nil {
		return err
	}
	reverse(timeline)

	s.mu.Lock()
	s.applications = apps
	s.timeline = timeline
	s.mu.Unlock()
	s.notify()
	return nil
}

// Create inserts an application and logs the creation transition, whose
// from-stage is empty.
func (s *JobHuntStore) Create(ctx context.Context, app model.JobApplication) (*model.JobApplication, error) {
	if app.Interest == "" {
		app.Interest = model.InterestMedium
	}
	if app.Stage == "" {
		app.Stage = model.StageStudios
	}
	if app.Market == nil {
		app.Market = model.Ptr("poland")
	}
	if app.SortOrder == 0 {
		s.mu.Lock()
		app.SortOrder = s.stageCountLocked(app.Stage)
		s.mu.Unlock()
	}

	row, err := remote.Encode(app)
	if err != nil {
		return nil, err
	}
	delete(row, "id")

	stored, err := s.remote.Insert(ctx, "job_applications", row)
	if err != nil {
		s.toasts.Add(fmt.Sprintf("Failed to add studio: %v", err), toast.WithType(toast.TypeWarning))
		return nil, fmt.Errorf("create application: %w", err)
	}
	created, err := remote.DecodeOne[model.JobApplication](stored)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.applications = append(s.applications, created)
	s.mu.Unlock()
	s.notify()

	s.async(func() { s.logTransition(created.ID, nil, created.Stage, nil) })
	return &created, nil
}

// Update merges changes optimistically and persists in the background
// without rollback.
func (s *JobHuntStore) Update(id string, changes remote.Row) {
	s.mu.Lock()
	idx := -1
	for i := range s.applications {
		if s.applications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	merged, err := remote.Apply(s.applications[idx], changes)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("apply application update", zap.String("application", id), zap.Error(err))
		return
	}
	s.applications[idx] = merged
	s.mu.Unlock()
	s.notify()

	s.async(func() {
		if err := s.remote.Update(context.Background(), "job_applications", id, changes); err != nil {
			s.log.Warn("persist application update failed", zap.String("application", id), zap.Error(err))
		}
	})
}

// MoveToStage advances an application through the funnel, logging the
// transition. Moving to the current stage is a no-op. Reaching the
// interviewing or offer stage earns a celebration toast.
func (s *JobHuntStore) MoveToStage(id string, stage model.JobStage, note *string) {
	s.mu.Lock()
	idx := -1
	for i := range s.applications {
		if s.applications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	from := s.applications[idx].Stage
	if from == stage {
		s.mu.Unlock()
		return
	}
	s.applications[idx].Stage = stage
	name := s.applications[idx].StudioName
	s.mu.Unlock()
	s.notify()

	switch stage {
	case model.StageOffer:
		s.toasts.Add(fmt.Sprintf("Offer from %s!", name), toast.WithType(toast.TypeSuccess))
	case model.StageInterviewing:
		s.toasts.Add(fmt.Sprintf("Interviewing at %s", name), toast.WithType(toast.TypeSuccess))
	}

	fromStr := string(from)
	s.async(func() {
		if err := s.remote.Update(context.Background(), "job_applications", id, remote.Row{"stage": string(stage)}); err != nil {
			s.log.Warn("persist stage move failed", zap.String("application", id), zap.Error(err))
		}
		s.logTransition(id, &fromStr, stage, note)
	})
}

// TogglePin flips the pinned flag optimistically.
func (s *JobHuntStore) TogglePin(id string) {
	s.mu.Lock()
	pinned := false
	found := false
	for i := range s.applications {
		if s.applications[i].ID == id {
			s.applications[i].Pinned = !s.applications[i].Pinned
			pinned = s.applications[i].Pinned
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return
	}
	s.notify()

	s.async(func() {
		if err := s.remote.Update(context.Background(), "job_applications", id, remote.Row{"pinned": pinned}); err != nil {
			s.log.Warn("persist pin failed", zap.String("application", id), zap.Error(err))
		}
	})
}

// Archive removes the application from the funnel with an undo window.
func (s *JobHuntStore) Archive(id string) {
	s.mu.Lock()
	idx := -1
	for i := range s.applications {
		if s.applications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	app := s.applications[idx]
	s.applications = append(s.applications[:idx], s.applications[idx+1:]...)
	s.mu.Unlock()
	s.notify()

	s.undo.Schedule(
		fmt.Sprintf("%q archived", app.StudioName),
		func() {
			s.mu.Lock()
			s.applications = append(s.applications, app)
			s.mu.Unlock()
			s.notify()
		},
		func() {
			if err := s.remote.Update(context.Background(), "job_applications", id, remote.Row{"archived": true}); err != nil {
				s.log.Warn("persist application archive failed", zap.String("application", id), zap.Error(err))
			}
		},
	)
}

// Delete hard-deletes an application and its timeline.
func (s *JobHuntStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	for i := range s.applications {
		if s.applications[i].ID == id {
			s.applications = append(s.applications[:i], s.applications[i+1:]...)
			break
		}
	}
	tl := s.timeline[:0]
	for _, e := range s.timeline {
		if e.ApplicationID != id {
			tl = append(tl, e)
		}
	}
	s.timeline = tl
	s.mu.Unlock()
	s.notify()

	if err := s.remote.DeleteWhere(ctx, "job_application_timeline", remote.Filter{"application_id": id}); err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	if err := s.remote.Delete(ctx, "job_applications", id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

// logTransition appends one timeline record. Best-effort, like the task
// audit log.
func (s *JobHuntStore) logTransition(appID string, from *string, to model.JobStage, note *string) {
	row := remote.Row{"application_id": appID, "to_stage": string(to)}
	if from != nil {
		row["from_stage"] = *from
	}
	if note != nil {
		row["note"] = *note
	}

	stored, err := s.remote.Insert(context.Background(), "job_application_timeline", row)
	if err != nil {
		s.log.Warn("timeline write failed", zap.String("application", appID), zap.Error(err))
		return
	}
	entry, err := remote.DecodeOne[model.JobTimelineEntry](stored)
	if err != nil {
		s.log.Warn("timeline decode failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.timeline = append([]model.JobTimelineEntry{entry}, s.timeline...)
	s.mu.Unlock()
	s.notify()
}

// Applications returns a snapshot of the visible applications.
func (s *JobHuntStore) Applications() []model.JobApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.JobApplication, len(s.applications))
	copy(out, s.applications)
	return out
}

// Application returns one application by id.
func (s *JobHuntStore) Application(id string) (model.JobApplication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.applications {
		if a.ID == id {
			return a, true
		}
	}
	return model.JobApplication{}, false
}

// Timeline returns an application's transitions, newest first.
func (s *JobHuntStore) Timeline(appID string) []model.JobTimelineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.JobTimelineEntry
	for _, e := range s.timeline {
		if e.ApplicationID == appID {
			out = append(out, e)
		}
	}
	return out
}

// stageCountLocked counts applications in the stage; the default
// sort_order for a new application.
func (s *JobHuntStore) stageCountLocked(stage model.JobStage) int {
	n := 0
	for _, a := range s.applications {
		if a.Stage == stage {
			n++
		}
	}
	return n
}

func (s *JobHuntStore) async(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}
