package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/stats"
)

// Service implements a filesystem/object-storage backed store for the
// latest ProcessorStats snapshot per processor ID, one JSON file per
// processor under basePath.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[string, stats.ProcessorStats] = (*Service)(nil)

func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	service := afs.New()

	ctx := context.Background()
	exists, _ := service.Exists(ctx, basePath)
	if !exists {
		if err := service.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{basePath: basePath, fs: service}, nil
}

func (s *Service) Save(ctx context.Context, snap *stats.ProcessorStats) error {
	if snap == nil {
		return fmt.Errorf("cannot save nil snapshot")
	}
	if snap.ProcessorID == "" {
		return fmt.Errorf("processor ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	filePath := s.statsPath(snap.ProcessorID)
	if err := s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save stats to file %s: %w", filePath, err)
	}
	return nil
}

func (s *Service) Load(ctx context.Context, id string) (*stats.ProcessorStats, error) {
	if id == "" {
		return nil, fmt.Errorf("processor ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.statsPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if stats exist: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("stats not found: %s", id)
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}

	var snap stats.ProcessorStats
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats data: %w", err)
	}
	return &snap, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("processor ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.statsPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if stats exist: %w", err)
	}
	if !exists {
		return fmt.Errorf("stats not found: %s", id)
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete stats file: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*stats.ProcessorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list stats files: %w", err)
	}

	var snapshots []*stats.ProcessorStats
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}

		data, err := s.fs.Download(ctx, object)
		if err != nil {
			continue
		}

		var snap stats.ProcessorStats
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		snapshots = append(snapshots, &snap)
	}
	return snapshots, nil
}

func (s *Service) statsPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}
