package team

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aman1195/helium/agent"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/memory"
)

// Frameworks is the toolkit Axel draws on.
var Frameworks = []string{
	"Porter's Five Forces",
	"SWOT Analysis",
	"PESTEL Analysis",
	"Business Model Canvas",
	"Blue Ocean Strategy",
	"Value Chain Analysis",
}

// Strategist is Axel, the business strategist. Like Chloe, his analyses
// are synthesized deterministically from the task text.
type Strategist struct {
	*agent.BaseAgent

	metrics *metrics.Collector
}

// StrategistConfig configures Axel.
type StrategistConfig struct {
	Memory  memory.Store
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// NewStrategist creates Axel.
func NewStrategist(cfg StrategistConfig) *Strategist {
	return &Strategist{
		BaseAgent: agent.NewBaseAgent(agent.BaseConfig{
			ID:           StrategistID,
			Name:         "Axel",
			Role:         "Business Strategist",
			Capabilities: []string{"competitive", "strategy", "industry", "business_model", "general"},
			Memory:       cfg.Memory,
			Logger:       cfg.Logger,
		}),
		metrics: cfg.Metrics,
	}
}

// strategistIntent classifies the task. "competit" also matches
// competitor/competition.
func strategistIntent(content string) string {
	lowered := strings.ToLower(content)
	switch {
	case containsAny(lowered, "competit", "rival", "benchmark"):
		return "competitive"
	case containsAny(lowered, "strategy", "strategic", "plan"):
		return "strategy"
	case containsAny(lowered, "market", "industry", "sector"):
		return "industry"
	case containsAny(lowered, "business model", "revenue"):
		return "business_model"
	default:
		return "general"
	}
}

// Process executes a strategy task.
func (s *Strategist) Process(ctx context.Context, task *agent.Task) (*agent.Response, error) {
	if err := s.ValidateTask(ctx, task); err != nil {
		return nil, err
	}

	start := s.Now()
	intent := strategistIntent(task.Content)
	s.Logger().Info("processing strategy task",
		zap.String("task_id", task.ID),
		zap.String("intent", intent),
	)

	var resp *agent.Response
	switch intent {
	case "competitive":
		resp = s.competitive(task)
	case "strategy":
		resp = s.strategy(task)
	case "industry":
		resp = s.industry(task)
	case "business_model":
		resp = s.businessModel(task)
	default:
		resp = s.general(task)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskExecution(s.ID(), intent, "success", s.Now().Sub(start))
	}

	resp.Duration = s.Now().Sub(start)
	resp.Metadata = map[string]any{"intent": intent}
	s.Remember(ctx, memory.KindTask, task.Content, map[string]string{"intent": intent})

	return resp, nil
}

// competitive synthesizes a competitive landscape analysis.
func (s *Strategist) competitive(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	competitors := []string{"Competitor A", "Competitor B", "Competitor C"}

	share := map[string]any{
		"Our Company": fmt.Sprintf("%d%%", between(r, 5, 40)),
	}
	keyCompetitors := make([]map[string]any, 0, len(competitors))
	for _, comp := range competitors {
		share[comp] = fmt.Sprintf("%d%%", between(r, 5, 40))
		keyCompetitors = append(keyCompetitors, map[string]any{
			"name": comp,
			"strengths": []string{
				fmt.Sprintf("Strong %s presence", pick(r, []string{"brand", "distribution", "technology"})),
				fmt.Sprintf("%s customer loyalty", pick(r, []string{"High", "Moderate", "Strong"})),
			},
			"weaknesses": []string{
				fmt.Sprintf("Limited %s", pick(r, []string{"product range", "geographic presence"})),
				fmt.Sprintf("%s pricing", pick(r, []string{"High", "Premium", "Above-market"})),
			},
		})
	}

	data := map[string]any{
		"focus_area": task.Content,
		"competitive_landscape": map[string]any{
			"market_share":    share,
			"key_competitors": keyCompetitors,
		},
		"competitive_advantage": map[string]any{
			"sources": sample(r, []string{
				"Superior technology",
				"Cost leadership",
				"Customer service excellence",
				"First-mover advantage",
				"Strong intellectual property",
			}, 2),
			"sustainability": pick(r, []string{"High", "Medium", "Low"}),
		},
		"recommendations": []string{
			fmt.Sprintf("Focus on %s strategy",
				pick(r, []string{"differentiation", "cost leadership", "niche market"})),
			fmt.Sprintf("Consider %s to counter %s",
				pick(r, []string{"partnerships", "acquisitions", "new market entry"}),
				pick(r, competitors)),
			"Enhance customer value proposition through innovation",
		},
	}
	return s.NewResponse(task, "Competitive analysis complete.", data)
}

// strategy synthesizes a strategic plan built on one framework.
func (s *Strategist) strategy(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	framework := pick(r, Frameworks)

	initiatives := make([]map[string]any, 0, 3)
	for i := 0; i < 3; i++ {
		initiatives = append(initiatives, map[string]any{
			"initiative": fmt.Sprintf("%s %s",
				pick(r, []string{"Expand", "Develop", "Enhance"}),
				pick(r, []string{"product line", "market presence", "digital capabilities"})),
			"timeline": fmt.Sprintf("Q%d %d", between(r, 1, 4), s.Now().Year()+between(r, 1, 3)),
			"owner":    pick(r, []string{"Product", "Marketing", "Technology"}) + " Team",
		})
	}

	data := map[string]any{
		"objective":           task.Content,
		"strategic_framework": framework,
		"key_elements": map[string]any{
			"vision": fmt.Sprintf("Become the leading %s in the target market by 2030",
				pick(r, []string{"provider", "brand", "innovator"})),
			"mission": fmt.Sprintf("To %s %s through %s",
				pick(r, []string{"deliver", "create", "provide"}),
				task.Content,
				pick(r, []string{"innovation", "excellence", "sustainability"})),
			"core_values": sample(r, []string{
				"Customer Centricity",
				"Innovation",
				"Integrity",
				"Sustainability",
				"Collaboration",
				"Excellence",
			}, 3),
		},
		"strategic_initiatives": initiatives,
		"success_metrics": []string{
			fmt.Sprintf("%d%% increase in market share", between(r, 10, 30)),
			fmt.Sprintf("%d%% improvement in customer satisfaction", between(r, 15, 40)),
			fmt.Sprintf("%d%% growth in %s", between(r, 20, 50),
				pick(r, []string{"revenue", "user base", "market penetration"})),
		},
	}
	return s.NewResponse(task,
		fmt.Sprintf("Strategy developed using %s.", framework), data)
}

// industry synthesizes an industry trends analysis.
func (s *Strategist) industry(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)

	trends := []string{
		fmt.Sprintf("Growing adoption of %s",
			pick(r, []string{"AI", "blockchain", "IoT", "cloud computing"})),
		fmt.Sprintf("Increasing %s focus on %s",
			pick(r, []string{"regulatory", "consumer"}),
			pick(r, []string{"sustainability", "data privacy", "security"})),
		fmt.Sprintf("Shift towards %s business models",
			pick(r, []string{"subscription", "as-a-service", "platform"})),
		fmt.Sprintf("Rising importance of %s",
			pick(r, []string{"customer experience", "supply chain resilience", "talent acquisition"})),
	}

	players := make([]string, 5)
	for i := range players {
		players[i] = fmt.Sprintf("Company %c", 'A'+i)
	}

	data := map[string]any{
		"industry": task.Content,
		"current_state": map[string]any{
			"market_size": fmt.Sprintf("$%dB", between(r, 10, 500)),
			"growth_rate": fmt.Sprintf("%d%% CAGR", between(r, 3, 15)),
			"key_players": players,
		},
		"key_trends": sample(r, trends, 3),
		"opportunities": []string{
			fmt.Sprintf("Expansion into %s",
				pick(r, []string{"emerging markets", "adjacent sectors", "new customer segments"})),
			fmt.Sprintf("Leveraging %s for %s",
				pick(r, []string{"AI", "blockchain", "big data"}),
				pick(r, []string{"efficiency", "personalization", "automation"})),
			fmt.Sprintf("Disruptive business models in %s",
				pick(r, []string{"supply chain", "customer engagement", "revenue streams"})),
		},
		"threats": []string{
			fmt.Sprintf("Intensifying competition from %s",
				pick(r, []string{"startups", "tech giants", "non-traditional players"})),
			fmt.Sprintf("%s uncertainties impacting %s",
				pick(r, []string{"Regulatory", "Geopolitical", "Economic"}),
				pick(r, []string{"supply chains", "market access", "cost structures"})),
			"Rapid technological changes requiring continuous investment",
		},
	}
	return s.NewResponse(task, "Industry analysis complete.", data)
}

// businessModel synthesizes a business model evaluation.
func (s *Strategist) businessModel(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)

	data := map[string]any{
		"business_model": task.Content,
		"current_state": map[string]any{
			"revenue_streams": sample(r, []string{
				"Product sales",
				"Subscription fees",
				"Licensing",
				"Advertising",
				"Data monetization",
				"Transaction fees",
			}, between(r, 1, 3)),
			"customer_segments": []string{
				fmt.Sprintf("%s %s",
					pick(r, []string{"Small", "Medium", "Large"}),
					pick(r, []string{"businesses", "enterprises"})),
				fmt.Sprintf("%s consumers",
					pick(r, []string{"Tech-savvy", "Budget-conscious", "Premium"})),
			},
			"value_proposition": fmt.Sprintf("%s solution",
				pick(r, []string{"Affordable", "Premium", "Innovative"})),
		},
		"strengths": []string{
			fmt.Sprintf("%s value proposition", pick(r, []string{"Strong", "Differentiated"})),
			fmt.Sprintf("%s revenue streams", pick(r, []string{"Recurring", "Diversified"})),
			fmt.Sprintf("%s customer base", pick(r, []string{"Loyal", "Growing"})),
		},
		"weaknesses": []string{
			fmt.Sprintf("%s customer acquisition costs", pick(r, []string{"High", "Increasing"})),
			fmt.Sprintf("%s revenue sources", pick(r, []string{"Limited", "Concentrated"})),
			fmt.Sprintf("%s competition", pick(r, []string{"Intense", "Growing"})),
		},
		"recommendations": []string{
			fmt.Sprintf("Consider adding %s",
				pick(r, []string{"a freemium model", "usage-based pricing", "a marketplace component"})),
			fmt.Sprintf("Explore %s",
				pick(r, []string{"new customer segments", "geographic expansion", "strategic partnerships"})),
			fmt.Sprintf("Enhance %s",
				pick(r, []string{"customer retention", "operational efficiency", "monetization strategies"})),
		},
	}
	return s.NewResponse(task, "Business model evaluation complete.", data)
}

// general produces the fallback strategic advice.
func (s *Strategist) general(task *agent.Task) *agent.Response {
	r := taskRand(task.Content)
	data := map[string]any{
		"analysis": fmt.Sprintf(
			"Strategic analysis of %q suggests a %s opportunity. The current market conditions appear %s for this initiative.",
			task.Content,
			pick(r, []string{"promising", "challenging", "transformative"}),
			pick(r, []string{"favorable", "neutral", "challenging"})),
		"key_considerations": []string{
			fmt.Sprintf("%s dynamics are %s",
				pick(r, []string{"Market", "Regulatory", "Competitive"}),
				pick(r, []string{"evolving", "stable", "uncertain"})),
			fmt.Sprintf("Customer needs are shifting towards %s",
				pick(r, []string{"personalization", "sustainability", "convenience"})),
			fmt.Sprintf("Technological advancements in %s present new possibilities",
				pick(r, []string{"AI", "blockchain", "cloud computing"})),
		},
		"recommendations": []string{
			fmt.Sprintf("Develop a comprehensive %s strategy",
				pick(r, []string{"go-to-market", "digital transformation"})),
			fmt.Sprintf("Strengthen %s in %s",
				pick(r, []string{"partnerships", "capabilities"}),
				pick(r, []string{"emerging markets", "new technologies"})),
			fmt.Sprintf("Focus on %s as a key differentiator",
				pick(r, []string{"customer experience", "operational excellence", "innovation"})),
		},
		"timeframe": map[string]any{
			"short_term":  "3-6 months",
			"medium_term": "6-18 months",
			"long_term":   "18+ months",
		},
	}
	return s.NewResponse(task, "General strategic advice prepared.", data)
}
