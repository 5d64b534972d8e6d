package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// パイプライン実行結果のラベル値。
const (
	resultSent          = "sent"
	resultNoRecipients  = "no_recipients"
	resultNoTokens      = "no_tokens"
	resultLookupFailure = "lookup_failure"
)

// Metrics は通知パイプラインの指標。
type Metrics struct {
	pipelineRuns *prometheus.CounterVec
	pushChunks   *prometheus.CounterVec
	pushMessages *prometheus.CounterVec
}

// NewMetrics はregに登録した指標を生成する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_pipeline_runs_total",
			Help: "Number of notification pipeline runs by result.",
		}, []string{"result"}),
		pushChunks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_push_chunks_total",
			Help: "Number of push chunks dispatched to the provider by result.",
		}, []string{"result"}),
		pushMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_push_messages_total",
			Help: "Number of push messages by provider ticket status.",
		}, []string{"status"}),
	}
}
