package logger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Lightweight counters for the adapter's two traffic paths. The REST client
// and the stream feed bump them on every unit of work; warns and errors are
// recorded through the Entry wrappers in logger.go.
var (
	restRequests   int64
	restErrors     int64
	restWarns      int64
	streamMessages int64
	streamErrors   int64
	streamWarns    int64
)

func recordWarn(component string) {
	switch classify(component) {
	case "rest":
		atomic.AddInt64(&restWarns, 1)
	case "stream":
		atomic.AddInt64(&streamWarns, 1)
	}
}

func recordError(component string) {
	switch classify(component) {
	case "rest":
		atomic.AddInt64(&restErrors, 1)
	case "stream":
		atomic.AddInt64(&streamErrors, 1)
	}
}

func classify(component string) string {
	switch component {
	case "valr_rest", "valr_catalog":
		return "rest"
	case "valr_stream":
		return "stream"
	default:
		return ""
	}
}

// RecordRequest counts one REST round trip.
func RecordRequest() {
	atomic.AddInt64(&restRequests, 1)
}

// RecordStreamMessage counts one delivered websocket message.
func RecordStreamMessage() {
	atomic.AddInt64(&streamMessages, 1)
}

// StartReport periodically logs the traffic counters and mirrors them to
// CloudWatch when the client is initialised. It stops with the context.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report(ctx, log)
			}
		}
	}()
}

func report(ctx context.Context, log *Log) {
	requests := atomic.SwapInt64(&restRequests, 0)
	restErrs := atomic.SwapInt64(&restErrors, 0)
	restWrns := atomic.SwapInt64(&restWarns, 0)
	messages := atomic.SwapInt64(&streamMessages, 0)
	streamErrs := atomic.SwapInt64(&streamErrors, 0)
	streamWrns := atomic.SwapInt64(&streamWarns, 0)

	log.WithComponent("report").WithFields(Fields{
		"rest_requests":   requests,
		"rest_errors":     restErrs,
		"rest_warns":      restWrns,
		"stream_messages": messages,
		"stream_errors":   streamErrs,
		"stream_warns":    streamWrns,
	}).Info("traffic report")

	data := []cwtypes.MetricDatum{
		datum("RestRequests", requests),
		datum("RestErrors", restErrs),
		datum("StreamMessages", messages),
		datum("StreamErrors", streamErrs),
	}
	publishMetrics(ctx, data)
}

func datum(name string, value int64) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Unit:       cwtypes.StandardUnitCount,
		Value:      aws.Float64(float64(value)),
	}
}
