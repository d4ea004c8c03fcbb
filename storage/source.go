package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"Bt1Clip/core/playback"
	"Bt1Clip/logger"
	"Bt1Clip/model"
)

// presignExpiry 预签名地址有效期
const presignExpiry = time.Hour

// MediaSourceResolver 把片段解析为可播放的字节源。
// 本地持有的媒体（MinIO 对象）解析为临时预签名地址，远程媒体直接
// 透传其 URL。实现 playback.SourceResolver。
type MediaSourceResolver struct {
	Bucket string
}

// NewMediaSourceResolver 创建字节源解析器
func NewMediaSourceResolver(bucket string) *MediaSourceResolver {
	return &MediaSourceResolver{Bucket: bucket}
}

// Resolve 为片段解析一个新的字节源句柄
func (r *MediaSourceResolver) Resolve(ctx context.Context, clip *model.Clip) (playback.SourceHandle, error) {
	mimeType := mimeTypeFor(clip)

	if clip.ObjectKey != "" {
		u, err := PresignedGetURL(ctx, r.Bucket, clip.ObjectKey, presignExpiry)
		if err != nil {
			return nil, fmt.Errorf("解析片段字节源失败 %s: %w", clip.ID, err)
		}
		return &sourceHandle{url: u, mimeType: mimeType, objectKey: clip.ObjectKey}, nil
	}

	if clip.SourceURL != "" {
		return &sourceHandle{url: clip.SourceURL, mimeType: mimeType}, nil
	}

	return nil, fmt.Errorf("片段没有可用的字节源: %s", clip.ID)
}

// sourceHandle 一次性字节源句柄。
// 同一时刻至多持有一个，被替换或最终拆除时释放；重复释放是空操作。
type sourceHandle struct {
	url       string
	mimeType  string
	objectKey string
	released  bool
}

func (h *sourceHandle) URL() string      { return h.url }
func (h *sourceHandle) MimeType() string { return h.mimeType }

// Release 释放句柄。预签名地址到期自动失效，这里只保证一次性语义
// 并留下审计日志。
func (h *sourceHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	if h.objectKey != "" {
		logger.Debug("释放字节源句柄", logger.String("objectKey", h.objectKey))
	}
}

// mimeTypeFor 根据片段类型与文件名推断 MIME 类型
func mimeTypeFor(clip *model.Clip) string {
	name := clip.Name
	if clip.ObjectKey != "" {
		name = clip.ObjectKey
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	switch clip.Type {
	case model.TrackTypeAudio:
		return "audio/mpeg"
	case model.TrackTypeText:
		return "text/plain"
	default:
		return "video/mp4"
	}
}
