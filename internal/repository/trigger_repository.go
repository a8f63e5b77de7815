package repository

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"go.uber.org/zap"
)

// TriggerRepository is the durable store for trigger records. Triggers live
// in one JSON document reloaded at process start; every mutation rewrites the
// document atomically. Conditions and sources are never edited in place —
// triggers are created, toggled, marked fired, or deleted.
type TriggerRepository struct {
	path   string
	logger *zap.Logger

	mu       sync.Mutex
	triggers map[string]model.Trigger
}

// NewTriggerRepository opens the store at path, loading any existing
// triggers. A missing file starts an empty store.
func NewTriggerRepository(path string, logger *zap.Logger) (*TriggerRepository, error) {
	r := &TriggerRepository{
		path:     path,
		logger:   logger,
		triggers: make(map[string]model.Trigger),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read trigger store: %w", err)
	}

	var triggers []model.Trigger
	if err := json.Unmarshal(data, &triggers); err != nil {
		return nil, fmt.Errorf("failed to decode trigger store: %w", err)
	}
	for _, t := range triggers {
		r.triggers[t.ID] = t
	}

	logger.Info("Loaded triggers", zap.Int("count", len(triggers)), zap.String("path", path))
	return r, nil
}

// List returns all triggers ordered by creation time
func (r *TriggerRepository) List() []model.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()

	triggers := make([]model.Trigger, 0, len(r.triggers))
	for _, t := range r.triggers {
		triggers = append(triggers, t)
	}
	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].CreatedAt.Before(triggers[j].CreatedAt)
	})
	return triggers
}

// Get returns one trigger by id
func (r *TriggerRepository) Get(id string) (model.Trigger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.triggers[id]
	return t, ok
}

// Create stores a new trigger, assigning an id and creation timestamp
func (r *TriggerRepository) Create(trigger model.Trigger) (model.Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trigger.ID == "" {
		trigger.ID = newTriggerID()
	}
	if trigger.CreatedAt.IsZero() {
		trigger.CreatedAt = time.Now().UTC()
	}
	r.triggers[trigger.ID] = trigger

	if err := r.save(); err != nil {
		delete(r.triggers, trigger.ID)
		return model.Trigger{}, err
	}
	return trigger, nil
}

// SetActive toggles a trigger's active flag
func (r *TriggerRepository) SetActive(id string, active bool) (model.Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trigger, ok := r.triggers[id]
	if !ok {
		return model.Trigger{}, fmt.Errorf("trigger not found: %s", id)
	}
	trigger.Active = active
	r.triggers[id] = trigger

	if err := r.save(); err != nil {
		return model.Trigger{}, err
	}
	return trigger, nil
}

// MarkTriggered records a firing time so the evaluation cooldown holds across
// restarts
func (r *TriggerRepository) MarkTriggered(id string, firedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trigger, ok := r.triggers[id]
	if !ok {
		return fmt.Errorf("trigger not found: %s", id)
	}
	trigger.LastTriggeredAt = &firedAt
	r.triggers[id] = trigger
	return r.save()
}

// Delete removes a trigger by id
func (r *TriggerRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.triggers[id]; !ok {
		return fmt.Errorf("trigger not found: %s", id)
	}
	delete(r.triggers, id)
	return r.save()
}

// save writes the whole store via a temp file rename; callers hold the lock
func (r *TriggerRepository) save() error {
	triggers := make([]model.Trigger, 0, len(r.triggers))
	for _, t := range r.triggers {
		triggers = append(triggers, t)
	}
	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].CreatedAt.Before(triggers[j].CreatedAt)
	})

	data, err := json.MarshalIndent(triggers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trigger store: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create trigger store directory: %w", err)
		}
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write trigger store: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to replace trigger store: %w", err)
	}
	return nil
}

func newTriggerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("trg_%d", time.Now().UnixNano())
	}
	return "trg_" + hex.EncodeToString(buf)
}
