package lenframe

import (
	"fmt"

	"github.com/rcrowley/go-metrics"
)

const (
	metricsFrameRate          = "frame-rate"
	metricsByteRate           = "byte-rate"
	metricsFrameSize          = "frame-size"
	metricsInvalidFrameLength = "invalid-frame-length"
	metricsBytesLeftOver      = "bytes-left-over"
)

func getOrRegisterHistogram(name string, r metrics.Registry) metrics.Histogram {
	return r.GetOrRegister(name, func() metrics.Histogram {
		return metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
	}).(metrics.Histogram)
}

func getMetricNameForStream(name string, streamID string) string {
	return fmt.Sprintf(name+"-for-stream-%s", streamID)
}

func getOrRegisterStreamMeter(name string, streamID string, r metrics.Registry) metrics.Meter {
	return metrics.GetOrRegisterMeter(getMetricNameForStream(name, streamID), r)
}

func getOrRegisterStreamHistogram(name string, streamID string, r metrics.Registry) metrics.Histogram {
	return getOrRegisterHistogram(getMetricNameForStream(name, streamID), r)
}

// pipelineMetrics groups the instruments a Pipeline updates on the hot path so they are
// looked up once per stream instead of once per frame.
type pipelineMetrics struct {
	frameRate          metrics.Meter
	streamFrameRate    metrics.Meter
	byteRate           metrics.Meter
	streamByteRate     metrics.Meter
	frameSize          metrics.Histogram
	streamFrameSize    metrics.Histogram
	invalidFrameLength metrics.Counter
	bytesLeftOver      metrics.Counter
}

func newPipelineMetrics(streamID string, r metrics.Registry) *pipelineMetrics {
	return &pipelineMetrics{
		frameRate:          metrics.GetOrRegisterMeter(metricsFrameRate, r),
		streamFrameRate:    getOrRegisterStreamMeter(metricsFrameRate, streamID, r),
		byteRate:           metrics.GetOrRegisterMeter(metricsByteRate, r),
		streamByteRate:     getOrRegisterStreamMeter(metricsByteRate, streamID, r),
		frameSize:          getOrRegisterHistogram(metricsFrameSize, r),
		streamFrameSize:    getOrRegisterStreamHistogram(metricsFrameSize, streamID, r),
		invalidFrameLength: metrics.GetOrRegisterCounter(metricsInvalidFrameLength, r),
		bytesLeftOver:      metrics.GetOrRegisterCounter(metricsBytesLeftOver, r),
	}
}

func (m *pipelineMetrics) fed(n int) {
	m.byteRate.Mark(int64(n))
	m.streamByteRate.Mark(int64(n))
}

func (m *pipelineMetrics) produced(f Frame) {
	m.frameRate.Mark(1)
	m.streamFrameRate.Mark(1)
	m.frameSize.Update(int64(len(f)))
	m.streamFrameSize.Update(int64(len(f)))
}
