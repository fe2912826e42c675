package core

const metricsAvgCount = 30

// Metrics accumulates rolling frame-time and FPS figures for one frame
// loop. Owned by the loop driver and updated once per frame.
type Metrics struct {
	frameAvgCounter    uint8
	msTimes            [metricsAvgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Update folds one frame's elapsed seconds into the rolling figures.
func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == metricsAvgCount-1 {
		sum := 0.0
		for i := 0; i < metricsAvgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / metricsAvgCount
	}
	m.frameAvgCounter++
	m.frameAvgCounter %= metricsAvgCount

	// Frames per second, folded over one-second windows.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
	m.frames++
}

// FPS reports the frame count of the last completed one-second window.
func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime reports the rolling average frame time in milliseconds.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

// Frame reports the FPS and average frame time together.
func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
