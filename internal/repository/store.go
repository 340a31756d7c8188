package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Fixed storage keys of the local state
const (
	KeyMetrics    = "healthMetrics"
	KeyDoseLedger = "medicationDosesTaken"
	KeySession    = "healthAI_auth"
	KeyTheme      = "theme"
)

// KV is a durable key-value backend
type KV interface {
	// Get returns the stored bytes and whether the key exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store serializes local state as JSON into a KV backend
type Store struct {
	kv     KV
	logger *zap.Logger
}

// NewStore creates a new Store
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
	}
}

// Save serializes value and writes it under key
func (s *Store) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode state", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := s.kv.Put(ctx, key, data); err != nil {
		s.logger.Error("failed to save state", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	s.logger.Debug("state saved", zap.String("key", key), zap.Int("size_bytes", len(data)))
	return nil
}

// Load decodes the value stored under key into dst. It returns false when the
// key is missing, unreadable or malformed; dst is left untouched in that case.
func (s *Store) Load(ctx context.Context, key string, dst any) bool {
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read state, using defaults", zap.Error(err), zap.String("key", key))
		return false
	}
	if !ok {
		return false
	}

	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		s.logger.Error("load destination must be a non-nil pointer", zap.String("key", key))
		return false
	}

	// Decode into a scratch value so a partial decode never leaks into dst.
	scratch := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(data, scratch.Interface()); err != nil {
		s.logger.Warn("discarding malformed state", zap.Error(err), zap.String("key", key))
		return false
	}
	target.Elem().Set(scratch.Elem())

	return true
}

// Remove deletes the value stored under key
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("failed to remove state", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
