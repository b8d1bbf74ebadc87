package service

import (
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"options_bot/internal/models"
)

// SnapshotStore перезаписывает снапшот счётчиков движка в локальный
// json-файл каждый цикл. Только для инспекции, восстановление
// состояния по нему не делается.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) Save(state models.EngineState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "snapshot mkdir")
	}

	data, err := sonic.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "snapshot marshal")
	}

	// пишем во временный файл и переименовываем, чтобы читатель
	// не увидел полузаписанный json
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "snapshot write")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "snapshot rename")
	}
	return nil
}

func (s *SnapshotStore) Load() (models.EngineState, error) {
	var state models.EngineState

	data, err := os.ReadFile(s.path)
	if err != nil {
		return state, errors.Wrap(err, "snapshot read")
	}
	if err := sonic.Unmarshal(data, &state); err != nil {
		return state, errors.Wrap(err, "snapshot unmarshal")
	}
	return state, nil
}
