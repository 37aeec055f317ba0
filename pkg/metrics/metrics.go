package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		PipelineDuration, StageDuration,
		LLMTokensTotal, LLMLatency,
		FallbackTotal, SummaryWords,
		RateLimitWaitSeconds,
	)
}

// PipelineDuration 单次 memory pipeline 运行耗时（秒）
var PipelineDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatbot_pipeline_duration_seconds",
		Help:    "Memory pipeline 运行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"model"},
)

// StageDuration pipeline 各阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatbot_stage_duration_seconds",
		Help:    "Pipeline 阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"}, // assemble_context | retrieve_knowledge | generate_reply | post_process
)

// LLMTokensTotal LLM 调用 token 数
var LLMTokensTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_llm_tokens_total",
		Help: "LLM 调用 token 总数",
	},
	[]string{"direction"}, // input | output
)

// LLMLatency LLM 调用延迟（秒）
var LLMLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatbot_llm_latency_seconds",
		Help:    "LLM 调用延迟（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "model"},
)

// FallbackTotal 各组件降级次数（观测降级率）
var FallbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_fallback_total",
		Help: "组件降级次数",
	},
	[]string{"component"}, // assembler | generator | summarizer
)

// SummaryWords 最近一次长期摘要的词数（有界性观测）
var SummaryWords = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "chatbot_summary_words",
		Help: "最近一次长期摘要词数",
	},
)

// RateLimitWaitSeconds 限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "chatbot_rate_limit_wait_seconds",
		Help:    "限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind", "provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
