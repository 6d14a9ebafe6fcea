// Package metrics provides the build metrics hooks.
//
// Components receive a Recorder. NoopRecorder is the default. When a metrics
// textfile is configured, PrometheusRecorder collects into a private registry
// that WriteTextfile dumps after the run, in the format node_exporter's
// textfile collector reads.
package metrics
