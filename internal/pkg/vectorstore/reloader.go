package vectorstore

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
)

// Reloader 持有存储的当前快照，并在存储文件变更时热加载。
// 快照整体原子替换，加载失败时保留旧快照继续服务。
type Reloader struct {
	path    string
	current atomic.Pointer[Store]
	watcher *fsnotify.Watcher
}

// NewReloader 加载存储文件并创建 Reloader。
// 首次加载失败直接返回错误，由调用方决定是否致命。
func NewReloader(path string) (*Reloader, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	r := &Reloader{path: path}
	r.current.Store(s)
	return r, nil
}

// Snapshot 返回存储的当前快照。
func (r *Reloader) Snapshot() *Store {
	return r.current.Load()
}

// Watch 监听存储文件所在目录，文件被写入或重命名替换后重新加载。
// 监听文件所在目录而非文件本身，以兼容原子重命名写入。
// ctx 取消后停止监听。
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.watcher = watcher

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(r.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				r.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("存储文件监听出错", "path", r.path, "error", err)
			}
		}
	}()

	return nil
}

func (r *Reloader) reload() {
	s, err := Load(r.path)
	if err != nil {
		// 保留旧快照继续服务
		logger.Errorw("存储热加载失败，继续使用旧快照", "path", r.path, "error", err)
		return
	}

	old := r.current.Swap(s)
	logger.Infow("存储热加载完成",
		"path", r.path,
		"records", s.Len(),
		"previous_records", old.Len(),
	)
}
