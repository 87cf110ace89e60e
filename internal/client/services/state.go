package services

import (
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/ontop/internal/client/models"
)

// AppState is the in-memory view of the logged-in user's Domain Records.
// The application root owns one instance and resets it on logout.
type AppState struct {
	mu       sync.RWMutex
	tasks    []models.Task
	fitness  json.RawMessage
	finances json.RawMessage
	loaded   bool
}

func NewAppState() *AppState { return &AppState{} }

func (s *AppState) Tasks() ([]models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Task(nil), s.tasks...), s.loaded
}

func (s *AppState) SetTasks(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]models.Task(nil), tasks...)
	s.loaded = true
}

func (s *AppState) Fitness() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitness
}

func (s *AppState) SetFitness(doc json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitness = doc
}

func (s *AppState) Finances() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finances
}

func (s *AppState) SetFinances(doc json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finances = doc
}

func (s *AppState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks, s.fitness, s.finances, s.loaded = nil, nil, nil, false
}
