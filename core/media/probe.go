// Package media 负责媒体文件的元数据探测与样例目录监听。
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"Bt1Clip/logger"
)

const (
	// probeTimeout 是单次 ffprobe 调用的等待上限。
	probeTimeout = 5 * time.Second
	// FallbackDuration 在探测失败或结果非法时兜底，保证剪辑始终有有限时长。
	FallbackDuration = 30.0
)

// Prober 通过 ffprobe 读取媒体文件时长。
type Prober struct {
	ffprobePath string
}

// NewProber creates a new Prober.
func NewProber(ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffprobePath: ffprobePath}
}

// Duration 返回媒体文件的时长（秒）。
// 探测超时或结果不是有限正数时返回 FallbackDuration，不视为错误。
func (p *Prober) Duration(ctx context.Context, inputFile string) float64 {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Warn("ffprobe 探测失败，使用兜底时长",
			logger.String("file", inputFile),
			logger.String("stderr", stderr.String()),
			logger.ErrorField(err))
		return FallbackDuration
	}

	d, err := parseDuration(out.Bytes())
	if err != nil {
		logger.Warn("ffprobe 输出解析失败，使用兜底时长",
			logger.String("file", inputFile),
			logger.ErrorField(err))
		return FallbackDuration
	}
	return d
}

// parseDuration 从 ffprobe 的 JSON 输出中提取 format.duration。
func parseDuration(raw []byte) (float64, error) {
	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(raw, &probeData); err != nil {
		return 0, fmt.Errorf("解析 ffprobe 输出失败: %w", err)
	}
	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe 输出缺少 duration 字段")
	}
	d, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("duration 不是合法数字: %w", err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("duration 不是有限正数: %v", d)
	}
	return d, nil
}
