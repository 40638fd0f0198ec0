package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors reúne os contadores de negócio expostos em /metrics
// Os pacotes de domínio não importam prometheus: recebem callbacks ligados aqui
type Collectors struct {
	BetsPlaced     prometheus.Counter
	BetsSettled    *prometheus.CounterVec // result
	Transactions   *prometheus.CounterVec // type, status
	LedgerErrors   *prometheus.CounterVec // op
	PublishErrors  prometheus.Counter
	OddsRefresh    *prometheus.CounterVec // result
	Notifications  *prometheus.CounterVec // result
	BotUpdates     prometheus.Counter
	AssistantCalls *prometheus.CounterVec // kind, result
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BetsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "betbot_bets_placed_total", Help: "apostas aceitas",
		}),
		BetsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_bets_settled_total", Help: "apostas liquidadas por resultado",
		}, []string{"result"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_transactions_total", Help: "depósitos/saques por status",
		}, []string{"type", "status"}),
		LedgerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_ledger_errors_total", Help: "operações do ledger que falharam",
		}, []string{"op"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "betbot_event_publish_errors_total", Help: "falhas ao publicar eventos no kafka",
		}),
		OddsRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_odds_refresh_total", Help: "ciclos de refresh de odds",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_notifications_total", Help: "notificações enviadas ao telegram",
		}, []string{"result"}),
		BotUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "betbot_bot_updates_total", Help: "updates recebidos do telegram",
		}),
		AssistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "betbot_assistant_calls_total", Help: "chamadas ao assistente de IA",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(c.BetsPlaced, c.BetsSettled, c.Transactions, c.LedgerErrors,
		c.PublishErrors, c.OddsRefresh, c.Notifications, c.BotUpdates, c.AssistantCalls)
	return c
}
