package session

// RemoteDevice 把播放设备接口映射为下发给浏览器的 WebSocket 指令。
// 设备时钟无法同步读取，这里缓存浏览器最近一次上报的时间，
// 由会话在处理设备事件时刷新。
type RemoteDevice struct {
	send     func(t MessageType, data interface{})
	lastTime float64
	disposed bool
}

// NewRemoteDevice creates a new RemoteDevice.
func NewRemoteDevice(send func(t MessageType, data interface{})) *RemoteDevice {
	return &RemoteDevice{send: send}
}

// Bind 让浏览器端设备绑定媒体源
func (d *RemoteDevice) Bind(source, mimeType string) {
	if d.disposed {
		return
	}
	d.send(MsgTypeLoadSource, &LoadSourceData{URL: source, MimeType: mimeType})
}

// Play 下发播放指令。远端无法同步报告失败，
// 自动播放被拒绝会以 play_rejected 设备事件异步到达。
func (d *RemoteDevice) Play(muted bool) error {
	if d.disposed {
		return nil
	}
	d.send(MsgTypeDevicePlay, &PlayData{Muted: muted})
	return nil
}

// Pause 下发暂停指令
func (d *RemoteDevice) Pause() {
	if d.disposed {
		return
	}
	d.send(MsgTypeDevicePause, nil)
}

// CurrentTime 返回浏览器最近一次上报的设备时钟
func (d *RemoteDevice) CurrentTime() float64 {
	return d.lastTime
}

// SetCurrentTime 下发跳转指令并同步本地缓存
func (d *RemoteDevice) SetCurrentTime(t float64) {
	if d.disposed {
		return
	}
	d.lastTime = t
	d.send(MsgTypeDeviceSeek, &TimeData{Time: t})
}

// ReportTime 刷新缓存的设备时钟，由会话在收到设备事件时调用
func (d *RemoteDevice) ReportTime(t float64) {
	if !d.disposed {
		d.lastTime = t
	}
}

// Dispose 下发销毁指令，之后所有指令都不再发送
func (d *RemoteDevice) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	d.send(MsgTypeDeviceDispose, nil)
}

// Disposed 返回设备是否已销毁
func (d *RemoteDevice) Disposed() bool {
	return d.disposed
}
