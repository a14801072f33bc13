package llm

import (
	"context"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"
)

// noopAnalyzer 是未設定 API Key 時使用的空實作，儀表板仍可顯示新聞卡片
type noopAnalyzer struct{}

func newNoopAnalyzer() repository.AnalyzerRepository {
	return &noopAnalyzer{}
}

func (a *noopAnalyzer) Analyze(ctx context.Context, headline, content string) (*entity.Analysis, error) {
	return nil, nil
}

func (a *noopAnalyzer) Strategize(ctx context.Context, headlines []string) (*entity.StrategyTable, error) {
	return nil, nil
}

func (a *noopAnalyzer) IsEnabled() bool {
	return false
}
