package utils

import (
	"math"
	"time"
)

// HotConfig 热度排序参数
type HotConfig struct {
	Gravity       float64 // 时间重力
	WeightLike    float64
	WeightComment float64
	WeightView    float64 // 浏览数量级大，权重要给得很小
	ScaleFactor   float64
}

var DefaultHotConfig = HotConfig{
	Gravity:       1.5,
	WeightLike:    1.0,
	WeightComment: 2.0,
	WeightView:    0.01,
	ScaleFactor:   100.0,
}

// HotScore 对数平滑的互动值除以时间衰减，now 由调用方传入便于测试
func HotScore(createdAt, now time.Time, likes, comments, views int) float64 {
	cfg := DefaultHotConfig
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	weighted := float64(likes)*cfg.WeightLike +
		float64(comments)*cfg.WeightComment +
		float64(views)*cfg.WeightView
	if weighted < 0 {
		weighted = 0
	}

	return math.Log10(weighted+1) * cfg.ScaleFactor / math.Pow(hours+2, cfg.Gravity)
}
