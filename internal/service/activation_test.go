package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/revassist/technician-portal/internal/model"
	"github.com/revassist/technician-portal/internal/queue"
	"github.com/revassist/technician-portal/internal/repository"
)

// fakePromptStore keeps prompts in memory.
type fakePromptStore struct {
	mu      sync.Mutex
	nextID  uint64
	prompts map[uint64]*model.Prompt
}

func newFakePromptStore() *fakePromptStore {
	return &fakePromptStore{prompts: map[uint64]*model.Prompt{}}
}

func (f *fakePromptStore) add(p model.Prompt) *model.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		f.nextID++
		p.ID = f.nextID
	} else if p.ID > f.nextID {
		f.nextID = p.ID
	}
	if p.Version == 0 {
		p.Version = 1
	}
	f.prompts[p.ID] = &p
	return &p
}

func (f *fakePromptStore) GetByID(ctx context.Context, id uint64) (*model.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prompts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePromptStore) Create(ctx context.Context, p *model.Prompt) error {
	*p = *f.add(*p)
	return nil
}

func (f *fakePromptStore) Update(ctx context.Context, p *model.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.prompts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = p.Name
	stored.Content = p.Content
	stored.Description = p.Description
	stored.Version++
	*p = *stored
	return nil
}

func (f *fakePromptStore) ListForClient(ctx context.Context, clientID uint64) ([]model.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Prompt
	for _, p := range f.prompts {
		if p.ClientID == clientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePromptStore) ListVisibleTo(ctx context.Context, clientID, technicianID uint64) ([]model.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Prompt
	for _, p := range f.prompts {
		if p.ClientID != clientID {
			continue
		}
		if p.IsSystem() || p.OwnedByTechnician(technicianID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeActivationStore mimics the store-level contract: serialized writes,
// at most one active row per (technician, purpose), rows flipped rather
// than deleted, and injectable conflicts to exercise the retry path.
type fakeActivationStore struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[bindingKey]*model.PromptActivation
	conflicts int // pending injected ErrConflict results
}

type bindingKey struct {
	technicianID uint64
	promptID     uint64
	purpose      string
}

func newFakeActivationStore() *fakeActivationStore {
	return &fakeActivationStore{rows: map[bindingKey]*model.PromptActivation{}}
}

func (f *fakeActivationStore) Activate(ctx context.Context, technicianID, promptID uint64, purpose string) (*model.PromptActivation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		return nil, repository.ErrConflict
	}
	for _, row := range f.rows {
		if row.TechnicianID == technicianID && row.Purpose == purpose && row.PromptID != promptID {
			row.Active = false
		}
	}
	key := bindingKey{technicianID, promptID, purpose}
	row, ok := f.rows[key]
	if !ok {
		f.nextID++
		row = &model.PromptActivation{
			ID: f.nextID, TechnicianID: technicianID, PromptID: promptID, Purpose: purpose,
			CreatedAt: time.Now().UTC(),
		}
		f.rows[key] = row
	}
	row.Active = true
	row.UpdatedAt = time.Now().UTC()
	cp := *row
	return &cp, nil
}

func (f *fakeActivationStore) IsActiveFor(ctx context.Context, technicianID, promptID uint64, purpose string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[bindingKey{technicianID, promptID, purpose}]
	return ok && row.Active, nil
}

func (f *fakeActivationStore) ActiveFor(ctx context.Context, technicianID uint64, purpose string) (*model.PromptActivation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.TechnicianID == technicianID && row.Purpose == purpose && row.Active {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeActivationStore) activeCount(technicianID uint64, purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.TechnicianID == technicianID && row.Purpose == purpose && row.Active {
			n++
		}
	}
	return n
}

func (f *fakeActivationStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

var (
	tech7   = Actor{TechnicianID: 7, ClientID: 1, Role: model.RoleTechnician, Name: "Jordan Reyes"}
	tech3   = Actor{TechnicianID: 3, ClientID: 1, Role: model.RoleTechnician, Name: "Sam Okafor"}
	manager = Actor{TechnicianID: 2, ClientID: 1, Role: model.RoleManager, Name: "Dana Whitfield"}
)

func fixtureManager() (*ActivationManager, *fakePromptStore, *fakeActivationStore) {
	prompts := newFakePromptStore()
	activations := newFakeActivationStore()
	// Two system prompts and one personal prompt owned by technician 3.
	prompts.add(model.Prompt{ID: 5, ClientID: 1, Name: "Friendly", Purpose: model.PurposeResponseGeneration, Content: "be friendly", Owner: model.SystemWide()})
	prompts.add(model.Prompt{ID: 6, ClientID: 1, Name: "Formal", Purpose: model.PurposeResponseGeneration, Content: "be formal", Owner: model.SystemWide()})
	prompts.add(model.Prompt{ID: 9, ClientID: 1, Name: "Sam's own", Purpose: model.PurposeResponseGeneration, Content: "sam style", Owner: model.OwnedBy(3)})
	return NewActivationManager(prompts, activations, nil, nil), prompts, activations
}

func TestActivateSystemPromptThenSwitch(t *testing.T) {
	m, _, activations := fixtureManager()
	ctx := context.Background()

	res, err := m.Activate(ctx, tech7, 5, "")
	if err != nil {
		t.Fatal("activate failed:", err)
	}
	if !res.Activation.Active || res.Activation.PromptID != 5 || res.Activation.TechnicianID != 7 {
		t.Fatal("wrong binding returned")
	}
	if res.Prompt.Content != "be friendly" {
		t.Fatal("activated content missing from result")
	}

	// Switching to another system prompt flips the binding; exactly one
	// active row remains for technician 7.
	if _, err := m.Activate(ctx, tech7, 6, ""); err != nil {
		t.Fatal("second activate failed:", err)
	}
	if n := activations.activeCount(7, model.PurposeResponseGeneration); n != 1 {
		t.Fatal("want exactly one active binding, got", n)
	}
	active, err := activations.ActiveFor(ctx, 7, model.PurposeResponseGeneration)
	if err != nil || active.PromptID != 6 {
		t.Fatal("binding did not move to prompt 6")
	}
}

func TestActivateForeignPersonalPromptForbidden(t *testing.T) {
	m, _, activations := fixtureManager()

	_, err := m.Activate(context.Background(), tech7, 9, "")
	if !errors.Is(err, repository.ErrForbidden) {
		t.Fatal("want ErrForbidden, got", err)
	}
	if activations.rowCount() != 0 {
		t.Fatal("rejected activation must not create a binding")
	}
}

func TestActivateOwnPersonalPrompt(t *testing.T) {
	m, _, _ := fixtureManager()

	res, err := m.Activate(context.Background(), tech3, 9, "")
	if err != nil {
		t.Fatal("owner must be able to activate their personal prompt:", err)
	}
	if res.Activation.TechnicianID != 3 || res.Activation.PromptID != 9 {
		t.Fatal("wrong binding")
	}
}

func TestActivateUnknownOrForeignClientPrompt(t *testing.T) {
	m, prompts, _ := fixtureManager()
	prompts.add(model.Prompt{ID: 50, ClientID: 2, Name: "other org", Content: "x", Owner: model.SystemWide()})

	if _, err := m.Activate(context.Background(), tech7, 404, ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("unknown prompt must be not-found, got", err)
	}
	if _, err := m.Activate(context.Background(), tech7, 50, ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("another client's prompt must be indistinguishable from missing, got", err)
	}
}

// Activating a system prompt for technician A never touches technician B's
// binding; each technician selects independently from the shared pool.
func TestActivationScopedToActingTechnician(t *testing.T) {
	m, _, activations := fixtureManager()
	ctx := context.Background()

	if _, err := m.Activate(ctx, tech7, 5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Activate(ctx, tech3, 6, ""); err != nil {
		t.Fatal(err)
	}

	a7, _ := activations.ActiveFor(ctx, 7, model.PurposeResponseGeneration)
	a3, _ := activations.ActiveFor(ctx, 3, model.PurposeResponseGeneration)
	if a7.PromptID != 5 || a3.PromptID != 6 {
		t.Fatal("technicians must hold independent bindings")
	}
}

func TestReactivationIsIdempotent(t *testing.T) {
	m, _, activations := fixtureManager()
	ctx := context.Background()

	first, err := m.Activate(ctx, tech7, 5, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Activate(ctx, tech7, 5, "")
	if err != nil {
		t.Fatal("re-activation must succeed:", err)
	}
	if second.Activation.ID != first.Activation.ID {
		t.Fatal("re-activation must reuse the binding row")
	}
	if n := activations.activeCount(7, model.PurposeResponseGeneration); n != 1 {
		t.Fatal("want exactly one active binding, got", n)
	}
	if second.Prompt.Content != "be friendly" {
		t.Fatal("content changed on re-activation")
	}
}

func TestActivateRetriesConflictOnce(t *testing.T) {
	m, _, activations := fixtureManager()
	activations.conflicts = 1

	if _, err := m.Activate(context.Background(), tech7, 5, ""); err != nil {
		t.Fatal("one conflict must be absorbed by the retry, got", err)
	}

	activations.conflicts = 2
	if _, err := m.Activate(context.Background(), tech7, 6, ""); !errors.Is(err, ErrTransient) {
		t.Fatal("a second conflict must surface as ErrTransient, got", err)
	}
}

// Hammer the same (technician, purpose) pair from many goroutines. However
// the calls interleave, the store must end with at most one active binding.
func TestConcurrentActivationsKeepInvariant(t *testing.T) {
	m, _, activations := fixtureManager()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		promptID := uint64(5)
		if i%2 == 1 {
			promptID = 6
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Activate(ctx, tech7, promptID, ""); err != nil {
				t.Error("activate failed:", err)
			}
		}()
	}
	wg.Wait()

	if n := activations.activeCount(7, model.PurposeResponseGeneration); n != 1 {
		t.Fatal("invariant violated: active bindings =", n)
	}
}

func TestCreateForcesPersonalForTechnician(t *testing.T) {
	m, _, _ := fixtureManager()

	// A plain technician asking for a system prompt still gets a personal
	// one, owned by themselves.
	p, err := m.Create(context.Background(), tech7, CreateInput{Name: "mine", Content: "text", System: true})
	if err != nil {
		t.Fatal(err)
	}
	if !p.OwnedByTechnician(7) {
		t.Fatal("technician-created prompt must be owned by the technician")
	}
	if p.Version != 1 {
		t.Fatal("new prompt must start at version 1")
	}

	q, err := m.Create(context.Background(), manager, CreateInput{Name: "shared", Content: "text", System: true})
	if err != nil {
		t.Fatal(err)
	}
	if !q.IsSystem() {
		t.Fatal("manager-created system prompt must be system-scoped")
	}
	if q.CreatedBy != "Dana Whitfield" {
		t.Fatal("creator name not recorded")
	}
}

func TestEditGates(t *testing.T) {
	m, _, _ := fixtureManager()
	ctx := context.Background()

	// Owner edits their personal prompt; version bumps.
	p, err := m.Edit(ctx, tech3, 9, EditInput{Content: "new sam style"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != 2 || p.Content != "new sam style" {
		t.Fatal("edit did not land")
	}

	// A plain technician can edit neither a system prompt nor someone
	// else's personal prompt.
	if _, err := m.Edit(ctx, tech7, 5, EditInput{Content: "x"}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatal("system prompt edit by technician must be forbidden, got", err)
	}
	if _, err := m.Edit(ctx, tech7, 9, EditInput{Content: "x"}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatal("foreign personal prompt edit must be forbidden, got", err)
	}

	// Managers edit anything in their client.
	if _, err := m.Edit(ctx, manager, 5, EditInput{Content: "manager says"}); err != nil {
		t.Fatal("manager edit of system prompt failed:", err)
	}
	if _, err := m.Edit(ctx, manager, 9, EditInput{Content: "manager says"}); err != nil {
		t.Fatal("manager edit of personal prompt failed:", err)
	}
}

func TestEditLeavesContentOnRejection(t *testing.T) {
	m, prompts, _ := fixtureManager()

	_, _ = m.Edit(context.Background(), tech7, 9, EditInput{Content: "sabotage"})
	p, err := prompts.GetByID(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "sam style" || p.Version != 1 {
		t.Fatal("rejected edit must leave the prompt unchanged")
	}
}

func TestListAnnotatesActiveForTechnician(t *testing.T) {
	m, _, _ := fixtureManager()
	ctx := context.Background()

	if _, err := m.Activate(ctx, tech7, 5, ""); err != nil {
		t.Fatal(err)
	}

	id := uint64(7)
	items, err := m.List(ctx, tech7, &id, "")
	if err != nil {
		t.Fatal(err)
	}
	// Technician 7 sees the two system prompts, not Sam's personal one.
	if len(items) != 2 {
		t.Fatal("want 2 visible prompts, got", len(items))
	}
	for _, item := range items {
		if item.IsActiveForTechnician == nil {
			t.Fatal("filtered listing must annotate every item")
		}
		want := item.Prompt.ID == 5
		if *item.IsActiveForTechnician != want {
			t.Fatalf("prompt %d: active annotation = %v, want %v", item.Prompt.ID, *item.IsActiveForTechnician, want)
		}
	}
}

func TestListFilterByOtherTechnician(t *testing.T) {
	m, _, _ := fixtureManager()
	other := uint64(3)

	if _, err := m.List(context.Background(), tech7, &other, ""); !errors.Is(err, repository.ErrForbidden) {
		t.Fatal("technician filtering by someone else must be forbidden, got", err)
	}
	if _, err := m.List(context.Background(), manager, &other, ""); err != nil {
		t.Fatal("manager filtering by any technician must work, got", err)
	}
}

func TestListUnfilteredViews(t *testing.T) {
	m, _, _ := fixtureManager()

	mine, err := m.List(context.Background(), tech7, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatal("technician view must hide foreign personal prompts, got", len(mine))
	}
	for _, item := range mine {
		if item.IsActiveForTechnician != nil {
			t.Fatal("unfiltered listing must not carry the active annotation")
		}
	}

	all, err := m.List(context.Background(), manager, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatal("manager view must include every prompt in the client, got", len(all))
	}
}

func TestActiveBindingVisibility(t *testing.T) {
	m, _, _ := fixtureManager()
	ctx := context.Background()

	if _, err := m.ActiveBinding(ctx, manager, 7, ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("no active binding must report not-found, got", err)
	}
	if _, err := m.Activate(ctx, tech7, 5, ""); err != nil {
		t.Fatal(err)
	}

	res, err := m.ActiveBinding(ctx, manager, 7, "")
	if err != nil {
		t.Fatal("manager must see any technician's binding:", err)
	}
	if res.Prompt.ID != 5 {
		t.Fatal("wrong prompt in binding result")
	}

	if _, err := m.ActiveBinding(ctx, tech3, 7, ""); !errors.Is(err, repository.ErrForbidden) {
		t.Fatal("technician reading someone else's binding must be forbidden, got", err)
	}
	if _, err := m.ActiveBinding(ctx, tech7, 7, ""); err != nil {
		t.Fatal("technician reading their own binding must work, got", err)
	}
}

func TestActivatePublishesEvent(t *testing.T) {
	prompts := newFakePromptStore()
	activations := newFakeActivationStore()
	prompts.add(model.Prompt{ID: 5, ClientID: 1, Name: "Friendly", Purpose: model.PurposeResponseGeneration, Content: "c", Owner: model.SystemWide()})

	events := make(chan queue.PromptActivatedEvent, 1)
	publish := func(ctx context.Context, ev queue.PromptActivatedEvent) error {
		events <- ev
		return nil
	}
	m := NewActivationManager(prompts, activations, publish, nil)

	if _, err := m.Activate(context.Background(), tech7, 5, ""); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.PromptID != 5 || ev.TechnicianID != 7 || ev.Purpose != model.PurposeResponseGeneration {
			t.Fatal("event payload wrong:", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no activation event published")
	}
}
