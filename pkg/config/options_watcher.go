package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// OptionsWatcher 监听覆盖层选项文件，文件变化时重新加载并回调
//
// 监听的是文件所在目录而不是文件本身，这样编辑器"写临时文件再重命名"的保存方式也能被捕获
type OptionsWatcher struct {
	path     string
	onChange func(OverlayOptions)

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewOptionsWatcher 创建选项文件监听器
//
// 参数：
//   - path: 选项文件路径（YAML）
//   - onChange: 文件成功重新加载后的回调，在监听协程中调用
//
// 返回：
//   - *OptionsWatcher: 已开始监听的监听器，使用完毕需调用 Close
//   - error: 创建 fsnotify 监听器或添加目录失败时返回
func NewOptionsWatcher(path string, onChange func(OverlayOptions)) (*OptionsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create options watcher: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve options path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	ow := &OptionsWatcher{
		path:     absPath,
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}

	ow.wg.Add(1)
	go ow.loop()

	log.Printf("[OptionsWatcher] Watching %s", absPath)
	return ow, nil
}

func (ow *OptionsWatcher) loop() {
	defer ow.wg.Done()

	for {
		select {
		case <-ow.done:
			return
		case event, ok := <-ow.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != ow.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			ow.reload()
		case err, ok := <-ow.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[OptionsWatcher] Warning: %v", err)
		}
	}
}

func (ow *OptionsWatcher) reload() {
	opts, err := LoadOverlayOptions(ow.path)
	if err != nil {
		// 文件可能正处于写入中途，等待下一次事件
		log.Printf("[OptionsWatcher] Reload skipped: %v", err)
		return
	}
	log.Printf("[OptionsWatcher] Reloaded %s", ow.path)
	if ow.onChange != nil {
		ow.onChange(opts)
	}
}

// Close 停止监听
func (ow *OptionsWatcher) Close() error {
	select {
	case <-ow.done:
		return nil
	default:
		close(ow.done)
	}
	err := ow.watcher.Close()
	ow.wg.Wait()
	return err
}
