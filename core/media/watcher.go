package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"Bt1Clip/logger"
	"Bt1Clip/model"
	"Bt1Clip/repository"
	"Bt1Clip/storage"
)

// 样例目录中按扩展名识别的媒体类型
var extTypes = map[string]model.TrackType{
	".mp4":  model.TrackTypeVideo,
	".webm": model.TrackTypeVideo,
	".mov":  model.TrackTypeVideo,
	".mkv":  model.TrackTypeVideo,
	".mp3":  model.TrackTypeAudio,
	".wav":  model.TrackTypeAudio,
	".flac": model.TrackTypeAudio,
	".aac":  model.TrackTypeAudio,
	".m4a":  model.TrackTypeAudio,
}

// TypeForFilename 按扩展名识别媒体类型
func TypeForFilename(name string) (model.TrackType, bool) {
	t, ok := extTypes[strings.ToLower(filepath.Ext(name))]
	return t, ok
}

// SampleWatcher 监听样例素材目录，把新文件入库为预置素材。
// 新文件探测时长后上传到对象存储，并写入媒体目录（UserID 为 0）。
type SampleWatcher struct {
	dir    string
	bucket string
	prober *Prober
	repo   repository.MediaRepository
}

// NewSampleWatcher creates a new SampleWatcher.
func NewSampleWatcher(dir, bucket string, prober *Prober, repo repository.MediaRepository) *SampleWatcher {
	return &SampleWatcher{dir: dir, bucket: bucket, prober: prober, repo: repo}
}

// Start 先全量扫描一遍目录，再进入 fsnotify 监听循环。
// 阻塞直到 ctx 取消，通常在独立 goroutine 中运行。
func (w *SampleWatcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("创建样例目录失败: %w", err)
	}

	if err := w.scanExisting(ctx); err != nil {
		logger.Warn("扫描已有样例失败", logger.ErrorField(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("监听样例目录失败: %w", err)
	}
	logger.Info("样例目录监听已启动", logger.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			// 等写入稳定后再探测，避免读到半个文件
			time.Sleep(500 * time.Millisecond)
			w.ingest(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("文件监听出错", logger.ErrorField(err))
		}
	}
}

// scanExisting 把目录里已有的文件补录进媒体目录。
func (w *SampleWatcher) scanExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("读取样例目录失败: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// ingest 把单个文件入库。已入库（按 objectKey 判重）或类型不识别的文件直接跳过。
func (w *SampleWatcher) ingest(ctx context.Context, path string) {
	name := filepath.Base(path)
	trackType, ok := extTypes[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return
	}

	objectKey := "samples/" + name
	exists, err := w.repo.ExistsByObjectKey(ctx, objectKey)
	if err != nil {
		logger.Error("样例判重失败", logger.String("file", name), logger.ErrorField(err))
		return
	}
	if exists {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("读取样例文件信息失败", logger.String("file", name), logger.ErrorField(err))
		return
	}

	duration := w.prober.Duration(ctx, path)

	f, err := os.Open(path)
	if err != nil {
		logger.Error("打开样例文件失败", logger.String("file", name), logger.ErrorField(err))
		return
	}
	defer f.Close()

	contentType := contentTypeFor(name, trackType)
	if err := storage.UploadObject(ctx, w.bucket, objectKey, f, info.Size(), contentType); err != nil {
		logger.Error("上传样例到对象存储失败", logger.String("file", name), logger.ErrorField(err))
		return
	}

	item := &model.MediaItem{
		ID:        uuid.NewString(),
		UserID:    0,
		Type:      trackType,
		Name:      strings.TrimSuffix(name, filepath.Ext(name)),
		Duration:  duration,
		ObjectKey: objectKey,
		Status:    model.MediaStatusReady,
	}
	if err := w.repo.Create(ctx, item); err != nil {
		logger.Error("样例素材入库失败", logger.String("file", name), logger.ErrorField(err))
		return
	}

	logger.Info("样例素材已入库",
		logger.String("file", name),
		logger.String("type", string(trackType)),
		logger.Float64("duration", duration))
}

// contentTypeFor 给出上传时使用的 Content-Type。
func contentTypeFor(name string, trackType model.TrackType) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4a":
		if trackType == model.TrackTypeAudio {
			return "audio/mp4"
		}
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
