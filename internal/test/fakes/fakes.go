package fakes

import (
	"sync"

	"github.com/futurehomeno/cliffhanger/storage"
)

type fakeConfigStorage[T any] struct {
	mu           sync.RWMutex
	model        T
	modelFactory func() T
	saves        int
	saveErr      error
}

// ConfigStorage is a fake implementation of storage.Storage recording how many times it was saved.
// Not suitable for production use.
type ConfigStorage[T any] interface {
	storage.Storage[T]
	// Saves returns the number of successful Save calls.
	Saves() int
	// FailSaves makes every following Save call return the provided error.
	FailSaves(err error)
}

// NewConfigStorage returns a fake implementation for storage.Storage.
func NewConfigStorage[T any](model T, modelFactory func() T) ConfigStorage[T] {
	return &fakeConfigStorage[T]{model: model, modelFactory: modelFactory}
}

func (f *fakeConfigStorage[T]) Load() error {
	return nil
}

func (f *fakeConfigStorage[T]) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}

	f.saves++

	return nil
}

func (f *fakeConfigStorage[T]) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.model = f.modelFactory()

	return nil
}

func (f *fakeConfigStorage[T]) Model() T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.model
}

func (f *fakeConfigStorage[T]) Saves() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.saves
}

func (f *fakeConfigStorage[T]) FailSaves(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveErr = err
}
