package domain

import (
	"math"
)

// 温控方式（safety checklist）
const (
	TemperatureProper       = "proper"
	TemperatureRoomTempSafe = "room_temp_safe"
	TemperatureUncertain    = "uncertain"
	TemperatureImproper     = "improper"
)

// 污染风险等级
const (
	ContaminationLow    = "low"
	ContaminationMedium = "medium"
	ContaminationHigh   = "high"
)

// 合规阈值：百分比 ≥ 75 才允许发布为 available
const SafetyCompliantThreshold = 75

// SafetyChecklist 发布前的食品安全检查单
type SafetyChecklist struct {
	FoodSafetyChecked  bool   `json:"foodSafetyChecked"`
	TemperatureControl string `json:"temperatureControl"`
	PackagingIntact    bool   `json:"packagingIntact"`
	ProperLabeling     bool   `json:"properLabeling"`
	ContaminationRisk  string `json:"contaminationRisk"`
	SafetyNotes        string `json:"safetyNotes"`
}

// SafetyResult 检查单评分结果
type SafetyResult struct {
	Score      float64 `json:"score"`      // 加权原始分（0-6）
	Percentage int     `json:"percentage"` // round(100*score/6)
	Compliant  bool    `json:"compliant"`  // percentage >= 75
}

// 评分权重（总分 6 分）：
//
//	温控 proper=2 / room_temp_safe=1.5 / uncertain=0.5 / improper=0
//	包装完好 +1，标签规范 +1
//	污染风险 low=2 / medium=1 / high=0
const safetyMaxScore = 6.0

// ScoreChecklist 计算检查单合规分，纯函数，检查单任一字段变化须重新计算
func ScoreChecklist(c SafetyChecklist) SafetyResult {
	score := 0.0

	switch c.TemperatureControl {
	case TemperatureProper:
		score += 2
	case TemperatureRoomTempSafe:
		score += 1.5
	case TemperatureUncertain:
		score += 0.5
	}

	if c.PackagingIntact {
		score += 1
	}
	if c.ProperLabeling {
		score += 1
	}

	switch c.ContaminationRisk {
	case ContaminationLow:
		score += 2
	case ContaminationMedium:
		score += 1
	}

	percentage := int(math.Round(100 * score / safetyMaxScore))

	return SafetyResult{
		Score:      score,
		Percentage: percentage,
		Compliant:  percentage >= SafetyCompliantThreshold,
	}
}
