package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"localqa/internal/common/fsutil"
	"localqa/pkg/types"
)

// ListConfigured builds descriptors for every slot with a non-blank path.
// It never fails; missing slots are simply omitted.
func ListConfigured(slots []types.ModelSlot) []types.ModelDescriptor {
	out := make([]types.ModelDescriptor, 0, len(slots))
	for _, s := range slots {
		p := strings.TrimSpace(s.Path)
		if p == "" {
			continue
		}
		name := s.Name
		if name == "" {
			name = s.Key
		}
		out = append(out, types.ModelDescriptor{Name: name, FilePath: p, IsUserAdded: false})
	}
	return out
}

// AddConfigured inserts the configured slots and returns the descriptors
// that were new to the registry.
func (r *Registry) AddConfigured(slots []types.ModelSlot) []types.ModelDescriptor {
	var added []types.ModelDescriptor
	for _, d := range ListConfigured(slots) {
		if r.Add(d) {
			added = append(added, d)
		}
	}
	return added
}

// ScanDirectory lists model files in dir and inserts every one not already
// registered. A missing directory is created and yields nothing. Errors are
// logged and degrade to an empty result; ctx is checked between entries.
func (r *Registry) ScanDirectory(ctx context.Context, dir string) []types.ModelDescriptor {
	abs, err := fsutil.ResolvePath(dir)
	if err != nil {
		r.log.Error().Err(err).Str("dir", dir).Msg("registry event=scan_error")
		return nil
	}
	created, err := fsutil.EnsureDir(abs)
	if err != nil {
		r.log.Error().Err(err).Str("dir", abs).Msg("registry event=scan_error")
		return nil
	}
	if created {
		r.log.Info().Str("dir", abs).Msg("registry event=models_dir_created")
		return nil
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		r.log.Error().Err(err).Str("dir", abs).Msg("registry event=scan_error")
		return nil
	}
	var found []types.ModelDescriptor
	for _, e := range entries {
		if ctx.Err() != nil {
			r.log.Info().Str("dir", abs).Int("found", len(found)).Msg("registry event=scan_cancelled")
			return found
		}
		if e.IsDir() || !fsutil.HasExt(e.Name(), ModelExt) {
			continue
		}
		d := types.ModelDescriptor{
			Name:        fsutil.StemName(e.Name()),
			FilePath:    filepath.Join(abs, e.Name()),
			IsUserAdded: true,
		}
		if r.Add(d) {
			found = append(found, d)
		}
	}
	r.log.Debug().Str("dir", abs).Int("found", len(found)).Msg("registry event=scan_done")
	return found
}
