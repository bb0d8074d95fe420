package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/agent"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/memory"
)

// Advisor is Chloe, the financial analyst. Her figures are synthesized
// from a PRNG seeded by the task text, so identical tasks always
// produce identical numbers.
type Advisor struct {
	*agent.BaseAgent

	metrics *metrics.Collector
}

// AdvisorConfig configures Chloe.
type AdvisorConfig struct {
	Memory  memory.Store
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// NewAdvisor creates Chloe.
func NewAdvisor(cfg AdvisorConfig) *Advisor {
	return &Advisor{
		BaseAgent: agent.NewBaseAgent(agent.BaseConfig{
			ID:           AdvisorID,
			Name:         "Chloe",
			Role:         "Financial Analyst",
			Capabilities: []string{"valuation", "market", "financials", "forecast", "general"},
			Memory:       cfg.Memory,
			Logger:       cfg.Logger,
		}),
		metrics: cfg.Metrics,
	}
}

// advisorIntent classifies the task.
func advisorIntent(content string) string {
	lowered := strings.ToLower(content)
	switch {
	case containsAny(lowered, "valuation", "value", "worth"):
		return "valuation"
	case containsAny(lowered, "market", "size", "growth"):
		return "market"
	case containsAny(lowered, "financial", "statement", "income", "balance"):
		return "financials"
	case containsAny(lowered, "forecast", "projection"):
		return "forecast"
	default:
		return "general"
	}
}

// Process executes a financial analysis task.
func (a *Advisor) Process(ctx context.Context, task *agent.Task) (*agent.Response, error) {
	if err := a.ValidateTask(ctx, task); err != nil {
		return nil, err
	}

	start := a.Now()
	intent := advisorIntent(task.Content)
	a.Logger().Info("processing financial task",
		zap.String("task_id", task.ID),
		zap.String("intent", intent),
	)

	var resp *agent.Response
	switch intent {
	case "valuation":
		resp = a.valuation(task)
	case "market":
		resp = a.market(task)
	case "financials":
		resp = a.financials(task)
	case "forecast":
		resp = a.forecast(task)
	default:
		resp = a.general(task)
	}

	if a.metrics != nil {
		a.metrics.RecordTaskExecution(a.ID(), intent, "success", a.Now().Sub(start))
	}

	resp.Duration = a.Now().Sub(start)
	resp.Metadata = map[string]any{"intent": intent}
	a.Remember(ctx, memory.KindTask, task.Content, map[string]string{"intent": intent})

	return resp, nil
}

// valuation synthesizes enterprise valuation metrics.
func (a *Advisor) valuation(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	enterprise := uniform(r, 1e6, 1e9)
	data := map[string]any{
		"task": task.Content,
		"valuation_metrics": map[string]any{
			"enterprise_value": map[string]any{
				"value":    enterprise,
				"currency": "USD",
				"as_of":    a.Now().UTC().Format("2006-01-02"),
			},
			"revenue_multiple": round2(uniform(r, 2.0, 10.0)),
			"ebitda_multiple":  round2(uniform(r, 5.0, 15.0)),
		},
		"methodology": []string{"Discounted Cash Flow", "Comparable Company Analysis"},
		"confidence":  round2(uniform(r, 0.7, 0.95)),
		"disclaimer":  "This is a simulated valuation. For actual financial advice, consult a professional.",
	}
	return a.NewResponse(task,
		fmt.Sprintf("Valuation complete: enterprise value %.0f USD.", enterprise), data)
}

// market synthesizes a 5-year market sizing.
func (a *Advisor) market(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	currentYear := a.Now().Year()

	base := uniform(r, 1e9, 10e9)
	forecast := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		forecast = append(forecast, map[string]any{
			"year":        currentYear + i,
			"market_size": base * (1 + float64(i)*0.15),
		})
	}

	segment := strings.TrimSpace(strings.SplitN(strings.ToLower(task.Content), "market", 2)[0])
	if segment == "" {
		segment = "General"
	}

	data := map[string]any{
		"market_segment": segment,
		"current_size": map[string]any{
			"value":    base,
			"currency": "USD",
			"year":     currentYear,
		},
		"projected_cagr": round2(uniform(r, 0.05, 0.25)),
		"key_drivers": []string{
			"Increasing digital transformation",
			"Growing demand for automation",
			"Emerging market expansion",
		},
		"forecast": forecast,
	}
	return a.NewResponse(task,
		fmt.Sprintf("Market analysis complete for %q.", segment), data)
}

// financials synthesizes statement-level metrics.
func (a *Advisor) financials(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	data := map[string]any{
		"period":              fmt.Sprintf("FY %d", a.Now().Year()-1),
		"revenue":             uniform(r, 1e6, 100e6),
		"gross_profit_margin": round2(uniform(r, 0.3, 0.7)),
		"ebitda_margin":       round2(uniform(r, 0.1, 0.3)),
		"net_income":          uniform(r, 0.5e6, 20e6),
		"key_metrics": map[string]any{
			"current_ratio":  round2(uniform(r, 1.0, 3.0)),
			"debt_to_equity": round2(uniform(r, 0.5, 2.0)),
			"roi":            round2(uniform(r, 0.05, 0.25)),
			"roa":            round2(uniform(r, 0.03, 0.15)),
		},
		"trends": []string{
			fmt.Sprintf("%d%% year-over-year revenue growth", between(r, 5, 25)),
			fmt.Sprintf("Improving gross margin by %d%%", between(r, 1, 5)),
			fmt.Sprintf("Reduced operating expenses by %d%%", between(r, 2, 10)),
		},
	}
	return a.NewResponse(task, "Financial statement analysis complete.", data)
}

// forecast synthesizes a 5-year projection.
func (a *Advisor) forecast(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	currentYear := a.Now().Year()

	baseRevenue := uniform(r, 1e6, 100e6)
	values := make([]map[string]any, 0, 5)
	for i := 1; i <= 5; i++ {
		values = append(values, map[string]any{
			"year":   currentYear + i,
			"amount": baseRevenue * pow(1.1, i-1),
		})
	}

	data := map[string]any{
		"forecast_period": fmt.Sprintf("%d-%d", currentYear+1, currentYear+5),
		"base_year":       currentYear,
		"projections": map[string]any{
			"revenue": map[string]any{
				"growth_rate": round2(uniform(r, 0.05, 0.25)),
				"values":      values,
			},
			"ebitda_margin": map[string]any{
				"current": round2(uniform(r, 0.1, 0.3)),
				"target":  round2(uniform(r, 0.15, 0.4)),
			},
			"capex": map[string]any{
				"as_percent_of_revenue": round2(uniform(r, 0.05, 0.15)),
			},
		},
		"key_assumptions": []string{
			fmt.Sprintf("Market growth of %d%% annually", between(r, 3, 8)),
			"Stable regulatory environment",
			"No major economic disruptions",
		},
	}
	return a.NewResponse(task, "Five-year financial forecast prepared.", data)
}

// general produces the fallback financial analysis.
func (a *Advisor) general(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	data := map[string]any{
		"analysis": fmt.Sprintf(
			"Financial analysis of %q suggests a favorable outlook with moderate risk. Key financial indicators appear stable, with opportunities for growth in the coming quarters.",
			task.Content),
		"recommendations": []string{
			"Conduct a detailed cash flow analysis",
			"Compare with industry benchmarks",
			fmt.Sprintf("Monitor %s for potential impacts",
				pick(r, []string{"interest rates", "market trends", "competitive landscape"})),
		},
		"confidence": round2(uniform(r, 0.7, 0.95)),
	}
	return a.NewResponse(task, "General financial analysis complete.", data)
}

// pow is integer exponentiation for small positive exponents.
func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
